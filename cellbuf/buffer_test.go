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
	liberr "github.com/nabbar/torrelay/errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Buffer", func() {
	var b *Buffer

	BeforeEach(func() {
		b = New(NewFreelist())
	})

	It("delivers bytes in FIFO order across write/discard pairs", func() {
		_, err := b.Write([]byte("hello "))
		Expect(err).ToNot(HaveOccurred())
		Expect(b.Peek(b.Len())).To(Equal([]byte("hello ")))

		b.Discard(3)
		_, err = b.Write([]byte("world"))
		Expect(err).ToNot(HaveOccurred())

		Expect(b.Peek(b.Len())).To(Equal([]byte("lo world")))
	})

	It("fails with KindTooLarge when capacity would exceed the hard ceiling", func() {
		_, err := b.Write(make([]byte, MaxCapacity+1))
		Expect(err).To(HaveOccurred())

		le, ok := err.(liberr.Error)
		Expect(ok).To(BeTrue())
		Expect(le.HasKind(liberr.KindTooLarge)).To(BeTrue())
	})

	It("resets length to zero after Clear", func() {
		_, _ = b.Write([]byte("data"))
		b.Clear()
		Expect(b.Len()).To(Equal(0))
	})

	It("returns freed storage of a recognized size to the freelist when drained", func() {
		fl := NewFreelist()
		buf := New(fl)

		_, _ = buf.Write(make([]byte, DefaultCapacity))
		Expect(buf.Cap()).To(Equal(DefaultCapacity))

		buf.Discard(buf.Len())
		Expect(fl.Len(DefaultCapacity)).To(Equal(1))
	})

	It("round-trips N buffers of a supported size through the freelist", func() {
		fl := NewFreelist()

		var bufs []*Buffer
		for i := 0; i < 4; i++ {
			nb := New(fl)
			_, _ = nb.Write(make([]byte, DefaultCapacity))
			bufs = append(bufs, nb)
		}
		for _, nb := range bufs {
			nb.Discard(nb.Len())
		}
		Expect(fl.Len(DefaultCapacity)).To(Equal(4))

		for i := 0; i < 4; i++ {
			blk, ok := fl.Get(DefaultCapacity)
			Expect(ok).To(BeTrue())
			Expect(len(blk)).To(Equal(DefaultCapacity))
		}
		Expect(fl.Len(DefaultCapacity)).To(Equal(0))
	})

	It("reports wrap-correct peeks after the cursor wraps past the end", func() {
		_, _ = b.Write(make([]byte, DefaultCapacity-2))
		b.Discard(DefaultCapacity - 4)

		payload := []byte("wraparound-content")
		_, err := b.Write(payload)
		Expect(err).ToNot(HaveOccurred())
		Expect(b.Cap()).To(Equal(DefaultCapacity))

		tail := append([]byte{0, 0}, payload...)
		Expect(b.Peek(b.Len())).To(Equal(tail))
	})
})
