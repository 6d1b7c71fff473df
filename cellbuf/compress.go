/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package cellbuf

import (
	"compress/flate"
	"io"

	liberr "github.com/nabbar/torrelay/errors"
)

// CompressWriter drives an incremental deflate state machine, appending
// compressed output straight into a Buffer (which grows on demand, so the
// "would-block on output" case the source implementation guards against
// never arises here — the only failure mode left is the buffer's own hard
// ceiling).
type CompressWriter struct {
	fw  *flate.Writer
	buf *Buffer
}

// NewCompressWriter returns a CompressWriter appending into buf at level
// (flate.DefaultCompression if zero).
func NewCompressWriter(buf *Buffer, level int) (*CompressWriter, error) {
	if level == 0 {
		level = flate.DefaultCompression
	}
	fw, err := flate.NewWriter(buf, level)
	if err != nil {
		return nil, liberr.New(liberr.KindIoError, "compressed-write state machine init failed", err)
	}
	return &CompressWriter{fw: fw, buf: buf}, nil
}

// Write compresses p, growing the destination buffer as needed.
func (c *CompressWriter) Write(p []byte) (int, error) {
	n, err := c.fw.Write(p)
	if err != nil {
		return n, liberr.New(liberr.KindIoError, "compressed write failed", err)
	}
	return n, nil
}

// Flush forces any buffered compressed bytes not yet appended to the
// destination buffer to be emitted now.
func (c *CompressWriter) Flush() error {
	if err := c.fw.Flush(); err != nil {
		return liberr.New(liberr.KindIoError, "compressed flush failed", err)
	}
	return nil
}

// Close finalizes the deflate stream.
func (c *CompressWriter) Close() error {
	if err := c.fw.Close(); err != nil {
		return liberr.New(liberr.KindIoError, "compressed close failed", err)
	}
	return nil
}

// CompressReader drives the incremental inflate side, reading compressed
// bytes out of a Buffer and appending the decompressed form into a
// destination Buffer, growing it as needed until the underlying inflater
// reports done.
type CompressReader struct {
	fr io.ReadCloser
}

// NewCompressReader returns a CompressReader pulling compressed bytes from
// src.
func NewCompressReader(src *Buffer) *CompressReader {
	return &CompressReader{fr: flate.NewReader(src)}
}

// InflateInto decompresses everything currently available from the source
// into dst, growing dst as needed, until the source is exhausted.
func (c *CompressReader) InflateInto(dst *Buffer) error {
	chunk := make([]byte, 4096)
	for {
		n, err := c.fr.Read(chunk)
		if n > 0 {
			if _, werr := dst.Write(chunk[:n]); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return liberr.New(liberr.KindIoError, "compressed read failed", err)
		}
		if n == 0 {
			return nil
		}
	}
}

// Close releases the inflater.
func (c *CompressReader) Close() error {
	if err := c.fr.Close(); err != nil {
		return liberr.New(liberr.KindIoError, "compressed reader close failed", err)
	}
	return nil
}
