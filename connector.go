// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

// Package hdb is a client driver core for the SAP HANA wire protocol:
// authenticated sessions, prepared statements, cursor-paged result
// sets, and bidirectional LOB streaming (spec §1).
package hdb

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sap-hdb-core/hdb/dsn"
	p "github.com/sap-hdb-core/hdb/internal/protocol"
)

// Default tuning values (spec §6 ConnectionConfiguration table).
const (
	DefaultFetchSize    = 32
	DefaultLobReadSize  = 16 * 1024
	DefaultLobWriteSize = 16 * 1024
)

// Connector bundles everything needed to dial and authenticate a
// Connection, analogous to a database/sql/driver.Connector but
// returning this package's own Connection type directly (spec §6
// "ConnectionConfiguration").
type Connector struct {
	Host, Port string
	Username, Password string
	Database     string
	ClientLocale string
	NetworkGroup string

	FetchSize    int32
	LobReadSize  int32
	LobWriteSize int32
	AutoCommit   bool

	TLS *tls.Config

	Logger *slog.Logger
}

// NewConnector builds a Connector from a parsed DSN, resolving any
// tls_certificate_dir/tls_certificate_env option into a root CA pool
// (spec §6 Connection URL TLS options).
func NewConnector(d *dsn.DSN) (*Connector, error) {
	if err := d.Validate(); err != nil {
		return nil, newError(KindUsage, "invalid DSN", err)
	}
	c := &Connector{
		Host: d.Host, Port: d.Port,
		Username: d.Username, Password: d.Password,
		Database: d.Database, ClientLocale: d.ClientLocale, NetworkGroup: d.NetworkGroup,
		AutoCommit: true,
	}
	if d.TLS != nil {
		tcfg := &tls.Config{InsecureSkipVerify: d.TLS.InsecureSkipVerify}
		pool, err := rootCAPool(d.TLS)
		if err != nil {
			return nil, newError(KindUsage, "loading TLS root CAs", err)
		}
		if pool != nil {
			tcfg.RootCAs = pool
		}
		c.TLS = tcfg
	}
	return c, nil
}

func rootCAPool(t *dsn.TLSParams) (*x509.CertPool, error) {
	if t.CertificateDir == "" && t.CertificateEnvVar == "" && !t.UseMozillaRootCAs {
		return nil, nil
	}
	pool := x509.NewCertPool()
	if t.UseMozillaRootCAs {
		sys, err := x509.SystemCertPool()
		if err == nil && sys != nil {
			pool = sys
		}
	}
	if t.CertificateEnvVar != "" {
		if pem := os.Getenv(t.CertificateEnvVar); pem != "" {
			if !pool.AppendCertsFromPEM([]byte(pem)) {
				return nil, fmt.Errorf("no valid certificates found in %s", t.CertificateEnvVar)
			}
		}
	}
	if t.CertificateDir != "" {
		entries, err := os.ReadDir(t.CertificateDir)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() || filepath.Ext(e.Name()) != ".pem" {
				continue
			}
			b, err := os.ReadFile(filepath.Join(t.CertificateDir, e.Name()))
			if err != nil {
				return nil, err
			}
			pool.AppendCertsFromPEM(b)
		}
	}
	return pool, nil
}

// Connect dials, authenticates, and returns a ready-to-use Connection
// (spec §4.5 Session core, §4.4 Authenticator).
func Connect(ctx context.Context, c *Connector) (*Connection, error) {
	var dial p.DialFunc
	if c.TLS != nil {
		dial = p.DefaultDialer(c.TLS)
	}
	cfg := p.ConnectionConfig{
		Host: c.Host, Port: c.Port,
		Username: c.Username, Password: c.Password,
		Dial:         dial,
		FetchSize:    coalesce(c.FetchSize, DefaultFetchSize),
		LobChunkSize: coalesce(c.LobWriteSize, DefaultLobWriteSize),
		Logger:       c.Logger,
	}
	core, err := p.ConnectSession(ctx, cfg)
	if err != nil {
		return nil, wrapConnectErr(err)
	}
	lobRead := coalesce(c.LobReadSize, DefaultLobReadSize)
	return &Connection{core: core, autoCommit: c.AutoCommit, lobReadSize: lobRead}, nil
}

func coalesce(v, def int32) int32 {
	if v > 0 {
		return v
	}
	return def
}

func wrapConnectErr(err error) *Error {
	if strings.Contains(err.Error(), "authentication") {
		return newError(KindAuthentication, "connect failed", err)
	}
	return newError(KindConnectionBroken, "connect failed", err)
}
