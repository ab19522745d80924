// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

// Package dsn implements parsing and formatting of hdb connection
// strings: an "hdbsql://" (or "hdbsqls://" for TLS) URL carrying
// host, credentials, and driver-side connection options.
package dsn

import (
	"fmt"
	"net/url"
	"strconv"
)

// Recognized connection-URL query parameters.
const (
	KeyDatabase            = "db"
	KeyClientLocale        = "client_locale"
	KeyTLSCertificateDir   = "tls_certificate_dir"
	KeyTLSCertificateEnv   = "tls_certificate_env"
	KeyUseMozillaRootCerts = "use_mozillas_root_certificates"
	KeyInsecureSkipVerify  = "insecure_omit_server_certificate_check"
	KeyNetworkGroup        = "network_group"
)

const (
	schemaPlain = "hdbsql"
	schemaTLS   = "hdbsqls"
)

// TLSParams holds the TLS-related DSN parameters.
type TLSParams struct {
	CertificateDir     string
	CertificateEnvVar  string
	UseMozillaRootCAs  bool
	InsecureSkipVerify bool
}

// DSN is a parsed hdbsql(s):// connection string (spec §6 "Connection URL").
type DSN struct {
	Host, Port         string
	Username, Password string
	Database           string
	ClientLocale       string
	NetworkGroup       string
	TLS                *TLSParams
}

// ParseError is returned for a malformed or unsupported DSN.
type ParseError struct {
	msg string
	err error
}

func (e *ParseError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("dsn: %s: %v", e.msg, e.err)
	}
	return "dsn: " + e.msg
}

func (e *ParseError) Unwrap() error { return e.err }

func invalidCount(k string, got, want int) error {
	return &ParseError{msg: fmt.Sprintf("parameter %s given %d times, expected %d", k, got, want)}
}

// Parse parses an hdbsql(s):// DSN string.
func Parse(s string) (*DSN, error) {
	if s == "" {
		return nil, &ParseError{msg: "empty DSN"}
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, &ParseError{msg: "malformed URL", err: err}
	}
	if u.Scheme != schemaPlain && u.Scheme != schemaTLS {
		return nil, &ParseError{msg: fmt.Sprintf("unsupported scheme %q, want %q or %q", u.Scheme, schemaPlain, schemaTLS)}
	}

	d := &DSN{Host: u.Hostname(), Port: u.Port()}
	if u.User != nil {
		d.Username = u.User.Username()
		d.Password, _ = u.User.Password()
	}
	if u.Scheme == schemaTLS {
		d.TLS = &TLSParams{}
	}

	q := u.Query()
	for k, v := range q {
		switch k {
		case KeyDatabase:
			if len(v) != 1 {
				return nil, invalidCount(k, len(v), 1)
			}
			d.Database = v[0]
		case KeyClientLocale:
			if len(v) != 1 {
				return nil, invalidCount(k, len(v), 1)
			}
			d.ClientLocale = v[0]
		case KeyNetworkGroup:
			if len(v) != 1 {
				return nil, invalidCount(k, len(v), 1)
			}
			d.NetworkGroup = v[0]
		case KeyTLSCertificateDir:
			if len(v) != 1 {
				return nil, invalidCount(k, len(v), 1)
			}
			d.ensureTLS().CertificateDir = v[0]
		case KeyTLSCertificateEnv:
			if len(v) != 1 {
				return nil, invalidCount(k, len(v), 1)
			}
			d.ensureTLS().CertificateEnvVar = v[0]
		case KeyUseMozillaRootCerts:
			b, err := parseFlag(k, v)
			if err != nil {
				return nil, err
			}
			d.ensureTLS().UseMozillaRootCAs = b
		case KeyInsecureSkipVerify:
			b, err := parseFlag(k, v)
			if err != nil {
				return nil, err
			}
			d.ensureTLS().InsecureSkipVerify = b
		default:
			return nil, &ParseError{msg: fmt.Sprintf("parameter %q is not supported", k)}
		}
	}
	return d, nil
}

func parseFlag(k string, v []string) (bool, error) {
	if len(v) == 0 || v[0] == "" {
		return true, nil
	}
	if len(v) != 1 {
		return false, invalidCount(k, len(v), 1)
	}
	b, err := strconv.ParseBool(v[0])
	if err != nil {
		return false, &ParseError{msg: "invalid " + k, err: err}
	}
	return b, nil
}

func (d *DSN) ensureTLS() *TLSParams {
	if d.TLS == nil {
		d.TLS = &TLSParams{}
	}
	return d.TLS
}

// Addr returns the host:port network address.
func (d *DSN) Addr() string {
	if d.Port == "" {
		return d.Host
	}
	return d.Host + ":" + d.Port
}

// String reassembles the DSN into a connection string. The password
// is included: callers must treat the result as sensitive.
func (d *DSN) String() string {
	v := url.Values{}
	if d.Database != "" {
		v.Set(KeyDatabase, d.Database)
	}
	if d.ClientLocale != "" {
		v.Set(KeyClientLocale, d.ClientLocale)
	}
	if d.NetworkGroup != "" {
		v.Set(KeyNetworkGroup, d.NetworkGroup)
	}
	scheme := schemaPlain
	if d.TLS != nil {
		scheme = schemaTLS
		if d.TLS.CertificateDir != "" {
			v.Set(KeyTLSCertificateDir, d.TLS.CertificateDir)
		}
		if d.TLS.CertificateEnvVar != "" {
			v.Set(KeyTLSCertificateEnv, d.TLS.CertificateEnvVar)
		}
		if d.TLS.UseMozillaRootCAs {
			v.Set(KeyUseMozillaRootCerts, "true")
		}
		if d.TLS.InsecureSkipVerify {
			v.Set(KeyInsecureSkipVerify, "true")
		}
	}
	u := &url.URL{Scheme: scheme, Host: d.Addr(), RawQuery: v.Encode()}
	switch {
	case d.Username != "" && d.Password != "":
		u.User = url.UserPassword(d.Username, d.Password)
	case d.Username != "":
		u.User = url.User(d.Username)
	}
	return u.String()
}

// Validate reports whether the DSN has the minimum fields a dialer needs.
func (d *DSN) Validate() error {
	if d.Host == "" {
		return &ParseError{msg: "missing host"}
	}
	return nil
}
