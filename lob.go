// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package hdb

import (
	"bufio"
	"context"
	"io"

	p "github.com/sap-hdb-core/hdb/internal/protocol"
)

// Lob is a readable handle onto a BLOB/CLOB/NCLOB/TEXT/BINTEXT value
// addressed by server-side locator. It keeps its originating
// Connection alive through its own reference, so it remains readable
// even after the ResultSet it came from has been closed (spec §9
// "LOB lifetime... a deliberate ease-of-use decision").
type Lob struct {
	conn      *Connection
	typeCode  p.TypeCode
	locatorID uint64
	isNull    bool
	charLen   int64
	byteLen   int64

	buf    []byte
	offset int64
	done   bool
}

func newLob(conn *Connection, d p.LobDescriptor) *Lob {
	l := &Lob{
		conn: conn, typeCode: d.TypeCode(), locatorID: d.LocatorID(),
		isNull: d.IsNull(), charLen: d.CharLength(), byteLen: d.ByteLength(),
	}
	if !l.isNull {
		l.buf = d.InlineData()
		l.done = len(l.buf) >= int(maxLen(l.charLen, l.byteLen))
	}
	return l
}

func maxLen(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// IsNull reports whether this value is SQL NULL.
func (l *Lob) IsNull() bool { return l.isNull }

// Len returns the LOB's declared total length: characters for
// NCLOB/CLOB/TEXT, bytes for BLOB/BINTEXT.
func (l *Lob) Len() int64 {
	if l.typeCode == p.TcNClob || l.typeCode == p.TcClob || l.typeCode == p.TcText {
		return l.charLen
	}
	return l.byteLen
}

// Read implements io.Reader, paging in further chunks with ReadLob
// requests as the internal buffer empties (spec §4.8 LOB streamer,
// read side).
func (l *Lob) Read(p_ []byte) (int, error) {
	if l.isNull {
		return 0, io.EOF
	}
	if len(l.buf) == 0 {
		if l.done {
			return 0, io.EOF
		}
		chunk, last, err := l.conn.readLobChunk(context.Background(), l.locatorID, l.offset, l.conn.lobReadSize)
		if err != nil {
			return 0, newError(KindLob, "reading LOB chunk", err)
		}
		l.buf = chunk
		l.done = last
		if len(chunk) == 0 {
			if last {
				return 0, io.EOF
			}
			return 0, nil
		}
	}
	n := copy(p_, l.buf)
	l.buf = l.buf[n:]
	l.offset += int64(n)
	return n, nil
}

// ReadAll drains the Lob fully, for callers not streaming in bounded
// chunks (spec §8 Scenario 3 "read the NCLOB... byte contents match
// exactly").
func (l *Lob) ReadAll() ([]byte, error) {
	var out []byte
	buf := make([]byte, l.conn.lobReadSize)
	for {
		n, err := l.Read(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
	}
}

// LobWriter streams an outbound IN-parameter LOB value in chunks no
// larger than chunkSize, reading from src until it is exhausted
// (spec §4.7 "LOB write protocol"). bufio.Reader.Peek drives the
// "has more" flag without consuming a byte of the next chunk.
type LobWriter struct {
	src       *bufio.Reader
	chunkSize int32
	first     []byte
}

// NewLobWriter wraps src for use as a streaming LOB bind value. The
// first chunk is read eagerly so Param() can build the IN-parameter
// reservation; the rest streams after Execute once a locator is known.
func NewLobWriter(src io.Reader, chunkSize int32) (*LobWriter, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultLobWriteSize
	}
	w := &LobWriter{src: bufio.NewReaderSize(src, int(chunkSize)), chunkSize: chunkSize}
	buf := make([]byte, chunkSize)
	n, err := io.ReadFull(w.src, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, newError(KindLob, "reading initial LOB chunk", err)
	}
	w.first = buf[:n]
	return w, nil
}

// Param returns the bind value to place in the Row passed to
// ExecuteStreamingLob.
func (w *LobWriter) Param() *p.LobParam {
	last := w.atEOF()
	return &p.LobParam{Data: w.first, Reserve: !last}
}

func (w *LobWriter) atEOF() bool {
	_, err := w.src.Peek(1)
	return err != nil
}

func (w *LobWriter) drain(ctx context.Context, conn *Connection, locatorID uint64) error {
	if w.atEOF() {
		return nil // the whole value rode inline with Execute, never reserved
	}
	buf := make([]byte, w.chunkSize)
	for {
		n, err := io.ReadFull(w.src, buf)
		if n > 0 {
			last := w.atEOF()
			if werr := conn.writeLobChunk(ctx, locatorID, buf[:n], last); werr != nil {
				return newError(KindLob, "writing LOB chunk", werr)
			}
			if last {
				return nil
			}
		}
		if err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil
			}
			return newError(KindLob, "reading LOB stream", err)
		}
	}
}
