// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/lz4"

	"github.com/sap-hdb-core/hdb/internal/protocol/encoding"
)

// compressionThreshold is the varPartLength above which a request's
// segment body is LZ4-compressed before being framed (spec §4.3; the
// teacher's generation of this driver gates on the same kind of size
// check, though the exact threshold is this core's own choice since
// the retrieved sources never surface the constant).
const compressionThreshold = 4096

// writer composes and sends one request message: a single Request
// segment carrying every supplied Part, 8-byte padded, optionally
// LZ4-compressed above compressionThreshold (spec §3, §4.3).
type writer struct {
	wr         io.Writer
	enc        *encoding.Encoder
	sessionID  int64
	packetCount int32
}

func newWriter(wr io.Writer, sessionID int64) *writer {
	return &writer{wr: wr, enc: encoding.NewEncoder(wr), sessionID: sessionID}
}

// write encodes mt as one Request segment containing parts in order
// and flushes it to wr.
func (w *writer) write(mt MessageType, parts []partWriter) error {
	var body bytes.Buffer
	benc := encoding.NewEncoder(&body)

	segHdr := segmentHeader{
		noOfParts:    int16(len(parts)),
		segmentNo:    1,
		segmentKind:  SkRequest,
		messageType:  mt,
		functionCode: FcNone,
	}
	// segmentHeader itself is written after we know segmentLength, so
	// encode parts first into body, then prepend headers.
	var partsBuf bytes.Buffer
	penc := encoding.NewEncoder(&partsBuf)
	for _, p := range parts {
		argN := p.numArg()
		var pbuf bytes.Buffer
		pw2 := encoding.NewEncoder(&pbuf)
		if err := p.encode(pw2); err != nil {
			return fmt.Errorf("protocol: encoding part %s: %w", p.kind(), err)
		}
		ph := partHeader{kind: p.kind(), bufferLength: int32(pbuf.Len()), bufferSize: int32(pbuf.Len())}
		if err := ph.setNumArg(argN); err != nil {
			return err
		}
		pad := padBytes(pbuf.Len())
		ph.encode(penc)
		penc.Bytes(pbuf.Bytes())
		penc.Zeroes(pad)
	}
	if err := penc.Error(); err != nil {
		return err
	}

	segHdr.segmentLength = int32(partsBuf.Len()) + segmentHeaderSize
	segHdr.encode(benc)
	benc.Bytes(partsBuf.Bytes())
	if err := benc.Error(); err != nil {
		return err
	}

	payload := body.Bytes()

	w.packetCount++
	msgHdr := messageHeader{
		sessionID:   w.sessionID,
		packetCount: w.packetCount,
		noOfSegm:    1,
	}

	if len(payload) > compressionThreshold {
		compressed, err := compressLZ4(payload)
		if err != nil {
			return err
		}
		msgHdr.varPartLength = uint32(len(compressed))
		msgHdr.varPartSize = uint32(len(payload))
		msgHdr.packetOptions = packetOptionCompressed
		msgHdr.encode(w.enc)
		w.enc.Bytes(compressed)
		return w.enc.Error()
	}

	msgHdr.varPartLength = uint32(len(payload))
	msgHdr.varPartSize = uint32(len(payload))
	msgHdr.encode(w.enc)
	w.enc.Bytes(payload)
	return w.enc.Error()
}

func compressLZ4(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(payload); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// reader consumes one reply message: one or more Reply/Error
// segments, dispatching each Part it finds to the caller-supplied
// sink for that PartKind. A Part whose kind the caller did not ask
// for is skipped by its declared buffer length, never aborting the
// read (spec §3 "skip-unknown-Part-by-length invariant").
type reader struct {
	dec *encoding.Decoder
	rd  io.Reader
}

func newReader(rd io.Reader) *reader {
	return &reader{dec: encoding.NewDecoder(rd), rd: rd}
}

// replyInfo carries framing metadata the session core needs to react
// to (segment kind tells it whether to expect an Error Part, function
// code confirms which operation the server thinks it executed).
type replyInfo struct {
	segmentKind  SegmentKind
	functionCode FunctionCode
	commit       bool
}

// sink indexes a partReader by the PartKind it decodes. A
// prmPartReader additionally needs its field-descriptor context set
// by the caller before read is invoked.
type sink struct {
	kind PartKind
	pr   partReader
}

// read decodes exactly one message: one or more segments, and within
// each, every Part. Parts matching an entry in sinks are decoded into
// it (last one wins if the same kind repeats, which only happens
// across segments, never within one per spec §3). All others are
// skipped.
func (r *reader) read(sinks []sink) (*replyInfo, *hdbErrors, error) {
	var mh messageHeader
	if err := mh.decode(r.dec); err != nil {
		return nil, nil, err
	}

	dec := r.dec
	if mh.packetOptions&packetOptionCompressed != 0 {
		compressed := dec.RawBytes(int(mh.varPartLength))
		if err := dec.Error(); err != nil {
			return nil, nil, err
		}
		zr := lz4.NewReader(bytes.NewReader(compressed))
		dec = encoding.NewDecoder(zr)
	}

	var info *replyInfo
	var errs *hdbErrors
	remaining := int(mh.varPartSize)
	if mh.packetOptions&packetOptionCompressed == 0 {
		remaining = int(mh.varPartLength)
	}
	for s := int16(0); s < mh.noOfSegm; s++ {
		var sh segmentHeader
		if err := sh.decode(dec); err != nil {
			return nil, nil, err
		}
		remaining -= segmentHeaderSize
		info = &replyInfo{segmentKind: sh.segmentKind, functionCode: sh.functionCode, commit: sh.commit}

		for p := int16(0); p < sh.noOfParts; p++ {
			var ph partHeader
			if err := ph.decode(dec); err != nil {
				return nil, nil, err
			}
			remaining -= partHeaderSize

			bufLen := int(ph.bufferLength)
			pad := padBytes(bufLen)

			if ph.kind == PkError {
				he := &hdbErrors{}
				dec.ResetCnt()
				if err := he.decode(dec, &ph); err != nil {
					return nil, nil, err
				}
				errs = he
				dec.Skip(bufLen - dec.Cnt())
				dec.Skip(pad)
				remaining -= bufLen + pad
				continue
			}

			matched := false
			for _, snk := range sinks {
				if snk.kind == ph.kind {
					if err := snk.pr.decode(dec, &ph); err != nil {
						return nil, nil, err
					}
					matched = true
					break
				}
			}
			if !matched {
				dec.Skip(bufLen)
			}
			dec.Skip(pad)
			remaining -= bufLen + pad
		}
	}
	if remaining < 0 {
		return info, errs, fmt.Errorf("protocol: message framing underrun by %d bytes", -remaining)
	}
	return info, errs, dec.Error()
}
