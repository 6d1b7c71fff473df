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

package cellbuf_test

import (
	. "github.com/nabbar/torrelay/cellbuf"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Freelist", func() {
	It("drops blocks of an unrecognized size", func() {
		fl := NewFreelist()
		fl.Put(make([]byte, 123))
		Expect(fl.Len(123)).To(Equal(0))
	})

	It("never exceeds its per-class maximum", func() {
		fl := NewFreelist()
		for i := 0; i < 100; i++ {
			fl.Put(make([]byte, 4*1024))
		}
		Expect(fl.Len(4 * 1024)).To(BeNumerically("<=", 64))
	})

	It("releases excess idle blocks on Sweep, keeping the slack reserve", func() {
		fl := NewFreelist()
		for i := 0; i < 20; i++ {
			fl.Put(make([]byte, 4*1024))
		}
		Expect(fl.Len(4 * 1024)).To(Equal(20))

		// First Sweep only establishes the low-water baseline for this period.
		fl.Sweep()
		Expect(fl.Len(4 * 1024)).To(Equal(20))

		// Draining part of the pool pulls the low-water mark down; those
		// blocks are now provably idle for the period and get trimmed,
		// down to the slack reserve, on the next Sweep.
		for i := 0; i < 5; i++ {
			_, ok := fl.Get(4 * 1024)
			Expect(ok).To(BeTrue())
		}
		Expect(fl.Len(4 * 1024)).To(Equal(15))

		fl.Sweep()
		Expect(fl.Len(4 * 1024)).To(Equal(8))
	})
})
