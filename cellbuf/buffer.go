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
	liberr "github.com/nabbar/torrelay/errors"
)

// Buffer is a growable, wrap-aware byte FIFO: the logical content of length
// d starts at cursor c within backing storage of capacity L and may wrap.
// Invariant: d <= h <= L.
type Buffer struct {
	fl  *Freelist
	buf []byte
	c   int
	d   int
	h   int
}

// New returns an empty Buffer backed by fl. fl may be nil, in which case the
// buffer never recycles its storage.
func New(fl *Freelist) *Buffer {
	return &Buffer{fl: fl}
}

// Len returns the current data length d.
func (b *Buffer) Len() int { return b.d }

// Cap returns the current backing capacity L.
func (b *Buffer) Cap() int { return len(b.buf) }

// High returns the high-watermark h.
func (b *Buffer) High() int { return b.h }

func nextPow2(n int) int {
	p := DefaultCapacity
	for p < n {
		p <<= 1
	}
	return p
}

// alloc returns a zeroed slice of exactly size capacity, from the freelist
// when available.
func (b *Buffer) alloc(size int) []byte {
	if b.fl != nil {
		if blk, ok := b.fl.Get(size); ok {
			for i := range blk {
				blk[i] = 0
			}
			return blk[:size]
		}
	}
	return make([]byte, size)
}

// ensure grows L geometrically (power-of-two doublings) until it can hold
// total bytes, failing with KindTooLarge if the hard ceiling would be
// exceeded.
func (b *Buffer) ensure(total int) error {
	if total <= len(b.buf) {
		return nil
	}

	newCap := nextPow2(total)
	if len(b.buf) > newCap {
		newCap = nextPow2(len(b.buf) + 1)
	}
	if newCap > MaxCapacity {
		return liberr.New(liberr.KindTooLarge, "buffer capacity exceeds hard ceiling")
	}

	nb := b.alloc(newCap)
	if b.d > 0 {
		s1, s2 := b.readSegments(0, b.d)
		copy(nb, s1)
		copy(nb[len(s1):], s2)
	}

	if b.buf != nil && b.fl != nil {
		b.fl.Put(b.buf)
	}

	b.buf = nb
	b.c = 0
	return nil
}

// readSegments returns up to two contiguous slices covering the logical
// region [start, start+length) relative to the cursor, splitting at the
// wrap point.
func (b *Buffer) readSegments(start, length int) (seg1, seg2 []byte) {
	if length == 0 {
		return nil, nil
	}
	L := len(b.buf)
	off := (b.c + start) % L

	if off+length <= L {
		return b.buf[off : off+length], nil
	}
	first := L - off
	return b.buf[off:L], b.buf[0 : length-first]
}

// Write appends p to the buffer, growing as needed. Returns errors.KindTooLarge
// if the hard ceiling would be exceeded.
func (b *Buffer) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	if err := b.ensure(b.d + len(p)); err != nil {
		return 0, err
	}

	L := len(b.buf)
	writeOff := (b.c + b.d) % L
	n := copy(b.buf[writeOff:], p)
	if n < len(p) {
		n += copy(b.buf[0:], p[n:])
	}

	b.d += n
	if b.d > b.h {
		b.h = b.d
	}
	return n, nil
}

// Peek returns a copy of the first k bytes of logical content, without
// removing them. k must not exceed Len().
func (b *Buffer) Peek(k int) []byte {
	if k > b.d {
		k = b.d
	}
	s1, s2 := b.readSegments(0, k)
	out := make([]byte, 0, k)
	out = append(out, s1...)
	out = append(out, s2...)
	return out
}

// Read implements io.Reader, consuming up to len(p) bytes from the front of
// the buffer.
func (b *Buffer) Read(p []byte) (int, error) {
	if b.d == 0 {
		return 0, nil
	}
	k := len(p)
	if k > b.d {
		k = b.d
	}
	s1, s2 := b.readSegments(0, k)
	n := copy(p, s1)
	n += copy(p[n:], s2)
	b.Discard(n)
	return n, nil
}

// Discard removes the first n bytes of logical content, advancing the
// cursor, and triggers a shrink/release check.
func (b *Buffer) Discard(n int) {
	if n <= 0 {
		return
	}
	if n > b.d {
		n = b.d
	}

	L := len(b.buf)
	if L > 0 {
		b.c = (b.c + n) % L
	}
	b.d -= n

	b.maybeShrink()
}

// Clear empties the buffer and releases its backing storage to the
// freelist if the capacity matches a recognized size.
func (b *Buffer) Clear() {
	b.d = 0
	b.c = 0
	b.h = 0
	b.release()
}

func (b *Buffer) release() {
	if b.d != 0 || b.buf == nil {
		return
	}
	if b.fl != nil {
		b.fl.Put(b.buf)
	}
	b.buf = nil
}

// maybeShrink halves L while h < L/shrinkThresholdDivisor and L stays above
// DefaultCapacity, then releases storage entirely once drained.
func (b *Buffer) maybeShrink() {
	if b.d == 0 {
		b.release()
		b.h = 0
		return
	}

	for len(b.buf) > DefaultCapacity && b.h*shrinkThresholdDivisor < len(b.buf) {
		newCap := len(b.buf) / 2
		if newCap < DefaultCapacity {
			newCap = DefaultCapacity
		}
		if newCap < b.d {
			break
		}

		nb := b.alloc(newCap)
		s1, s2 := b.readSegments(0, b.d)
		copy(nb, s1)
		copy(nb[len(s1):], s2)

		if b.fl != nil {
			b.fl.Put(b.buf)
		}
		b.buf = nb
		b.c = 0

		if newCap == DefaultCapacity {
			break
		}
	}
}
