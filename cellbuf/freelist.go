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

import "sync"

// FreelistSizes is the fixed set of allocation sizes the freelist recycles.
// A capacity outside this set is never pooled; it is simply garbage
// collected like any other slice.
var FreelistSizes = []int{4 * 1024, 8 * 1024, 16 * 1024}

const (
	// freelistMax bounds how many idle blocks of one size class are kept.
	freelistMax = 64
	// freelistSlack is the reserve a Sweep never drops below.
	freelistSlack = 8
)

type sizeClass struct {
	size     int
	blocks   [][]byte
	lowwater int
}

// Freelist is a per-size pool of recycled backing storage blocks, avoiding
// the source implementation's raw pointer-into-first-word intrusive list in
// favor of an owned slice-of-blocks per class (safe, per spec.md §9 Design
// Notes).
type Freelist struct {
	mu      sync.Mutex
	classes map[int]*sizeClass
}

// NewFreelist returns an empty freelist covering FreelistSizes.
func NewFreelist() *Freelist {
	f := &Freelist{classes: make(map[int]*sizeClass, len(FreelistSizes))}
	for _, s := range FreelistSizes {
		f.classes[s] = &sizeClass{size: s}
	}
	return f
}

// Get returns a recycled block of exactly size, or false if none is idle.
func (f *Freelist) Get(size int) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.classes[size]
	if !ok || len(c.blocks) == 0 {
		return nil, false
	}

	n := len(c.blocks) - 1
	b := c.blocks[n]
	c.blocks[n] = nil
	c.blocks = c.blocks[:n]

	if len(c.blocks) < c.lowwater {
		c.lowwater = len(c.blocks)
	}

	return b[:cap(b)], true
}

// Put returns buf to the freelist if its capacity matches a recognized size
// class and that class is below its max; otherwise it is dropped (left for
// the garbage collector).
func (f *Freelist) Put(buf []byte) {
	if buf == nil {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.classes[cap(buf)]
	if !ok || len(c.blocks) >= freelistMax {
		return
	}

	c.blocks = append(c.blocks, buf)
}

// Sweep releases all but freelistSlack of the excess idle blocks that sat
// unused through the whole period since the last sweep, per class.
func (f *Freelist) Sweep() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, c := range f.classes {
		excess := c.lowwater - freelistSlack
		if excess > 0 && excess <= len(c.blocks) {
			for i := 0; i < excess; i++ {
				c.blocks[i] = nil
			}
			c.blocks = append([][]byte{}, c.blocks[excess:]...)
		}
		c.lowwater = len(c.blocks)
	}
}

// Len reports how many idle blocks of size are currently pooled.
func (f *Freelist) Len(size int) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.classes[size]
	if !ok {
		return 0
	}
	return len(c.blocks)
}
