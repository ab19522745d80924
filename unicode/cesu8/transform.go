// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package cesu8

import (
	"unicode/utf8"

	"golang.org/x/text/transform"
)

// utf8ToCesu8 transforms a UTF-8 byte stream into CESU-8.
type utf8ToCesu8 struct{ transform.NopResetter }

// Utf8ToCesu8Transformer is a reusable stateless transform.Transformer
// converting UTF-8 input into CESU-8 output, used by the wire encoder
// when writing CHAR/NCHAR family values.
var Utf8ToCesu8Transformer transform.Transformer = utf8ToCesu8{}

func (utf8ToCesu8) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		r, size := utf8.DecodeRune(src[nSrc:])
		if r == utf8.RuneError && size <= 1 {
			if !atEOF && !utf8.FullRune(src[nSrc:]) {
				return nDst, nSrc, transform.ErrShortSrc
			}
		}
		n := RuneLen(r)
		if nDst+n > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		EncodeRune(dst[nDst:], r)
		nDst += n
		nSrc += size
	}
	return nDst, nSrc, nil
}

// cesu8ToUtf8 transforms a CESU-8 byte stream into UTF-8.
type cesu8ToUtf8 struct{ transform.NopResetter }

// Cesu8ToUtf8Transformer is the inverse of Utf8ToCesu8Transformer, used
// by the wire decoder when reading CHAR/NCHAR family values.
var Cesu8ToUtf8Transformer transform.Transformer = cesu8ToUtf8{}

func (cesu8ToUtf8) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		if !FullRune(src[nSrc:]) {
			if !atEOF {
				return nDst, nSrc, transform.ErrShortSrc
			}
		}
		r, size := DecodeRune(src[nSrc:])
		n := utf8.RuneLen(r)
		if n < 0 {
			n = len(string(utf8.RuneError))
			r = utf8.RuneError
		}
		if nDst+n > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst += utf8.EncodeRune(dst[nDst:], r)
		nSrc += size
	}
	return nDst, nSrc, nil
}
