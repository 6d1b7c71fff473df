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
	"io"

	liberr "github.com/nabbar/torrelay/errors"
)

// ReadFromSocket pulls up to budget bytes from sock into the buffer,
// growing as needed and clipping budget to the remaining free capacity.
// Returns (0, nil) on a would-block condition, (0, nil) with *eof set on a
// zero-length read, or a errors.KindIoError fault on any other failure.
func (b *Buffer) ReadFromSocket(sock Socket, budget int, eof *bool) (int, error) {
	if budget <= 0 {
		return 0, nil
	}

	if err := b.ensure(b.d + budget); err != nil {
		return 0, err
	}
	if room := len(b.buf) - b.d; budget > room {
		budget = room
	}
	if budget <= 0 {
		return 0, nil
	}

	L := len(b.buf)
	writeOff := (b.c + b.d) % L

	var total int
	for _, seg := range splitSegments(b.buf, writeOff, budget) {
		if len(seg) == 0 {
			continue
		}
		n, err := sock.Read(seg)
		if n > 0 {
			total += n
		}
		if err != nil {
			if err == io.EOF {
				*eof = true
				return total, nil
			}
			if isWouldBlock(err) {
				if total > 0 {
					break
				}
				return 0, nil
			}
			if total == 0 {
				return 0, liberr.New(liberr.KindIoError, "socket read failed", err)
			}
			break
		}
		if n == 0 {
			*eof = true
			break
		}
		if n < len(seg) {
			break
		}
	}

	b.d += total
	if b.d > b.h {
		b.h = b.d
	}
	return total, nil
}

// FlushToSocket writes up to budget bytes of buffered content to sock,
// decrementing *remaining by the bytes actually written and removing them
// from the front of the buffer. Stops after a short write without retrying.
func (b *Buffer) FlushToSocket(sock Socket, budget int, remaining *int) (int, error) {
	if budget > b.d {
		budget = b.d
	}
	if budget <= 0 {
		return 0, nil
	}

	var total int
	for _, seg := range splitSegments(b.buf, b.c, budget) {
		if len(seg) == 0 {
			continue
		}
		n, err := sock.Write(seg)
		if n > 0 {
			total += n
		}
		if err != nil {
			if isWouldBlock(err) {
				break
			}
			if total == 0 {
				return 0, liberr.New(liberr.KindIoError, "socket write failed", err)
			}
			break
		}
		if n < len(seg) {
			break
		}
	}

	if remaining != nil {
		*remaining -= total
	}
	b.Discard(total)
	return total, nil
}

// splitSegments computes up to two contiguous slices of length covering
// [offset, offset+length) within a ring of len(buf), for issuing up to two
// reads or writes.
func splitSegments(buf []byte, offset, length int) [][]byte {
	if length == 0 {
		return nil
	}
	L := len(buf)
	if offset+length <= L {
		return [][]byte{buf[offset : offset+length]}
	}
	first := L - offset
	return [][]byte{buf[offset:L], buf[0 : length-first]}
}
