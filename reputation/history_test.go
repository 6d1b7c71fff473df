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

package reputation_test

import (
	"time"

	. "github.com/nabbar/torrelay/reputation"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("HistoryMap", func() {
	var (
		h   *HistoryMap
		now time.Time
	)

	BeforeEach(func() {
		h = NewHistoryMap()
		now = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	})

	It("rejects the all-zero digest", func() {
		h.NoteConnectSucceeded(ZeroDigest, now)
		Expect(h.Len()).To(Equal(0))
	})

	It("opens up_since on success and closes down_since", func() {
		h.NoteConnectFailed("AAAA", now)
		r, ok := h.Get("AAAA")
		Expect(ok).To(BeTrue())
		Expect(r.DownSince.IsZero()).To(BeFalse())

		later := now.Add(10 * time.Second)
		h.NoteConnectSucceeded("AAAA", later)

		r, _ = h.Get("AAAA")
		Expect(r.DownSince.IsZero()).To(BeTrue())
		Expect(r.Downtime).To(Equal(10 * time.Second))
		Expect(r.UpSince.Equal(later)).To(BeTrue())
		Expect(r.NumConnect).To(Equal(uint64(1)))
	})

	It("accumulates uptime on failure and opens down_since", func() {
		h.NoteConnectSucceeded("BBBB", now)
		later := now.Add(30 * time.Second)
		h.NoteConnectFailed("BBBB", later)

		r, _ := h.Get("BBBB")
		Expect(r.Uptime).To(Equal(30 * time.Second))
		Expect(r.UpSince.IsZero()).To(BeTrue())
		Expect(r.DownSince.Equal(later)).To(BeTrue())
		Expect(r.NumFail).To(Equal(uint64(1)))
	})

	It("does not open down_since on intentional disconnect", func() {
		h.NoteConnectSucceeded("CCCC", now)
		h.NoteDisconnect("CCCC", now.Add(5*time.Second))

		r, _ := h.Get("CCCC")
		Expect(r.UpSince.IsZero()).To(BeTrue())
		Expect(r.DownSince.IsZero()).To(BeTrue())
	})

	It("opens down_since on connection death if not already down", func() {
		h.NoteConnectSucceeded("DDDD", now)
		h.NoteConnectionDied("DDDD", now.Add(5*time.Second))

		r, _ := h.Get("DDDD")
		Expect(r.UpSince.IsZero()).To(BeTrue())
		Expect(r.DownSince.IsZero()).To(BeFalse())
	})

	It("tracks link extend counters keyed by target digest", func() {
		h.NoteExtendResult("AAAA", "BBBB", true, now)
		h.NoteExtendResult("AAAA", "BBBB", false, now)

		r, ok := h.Get("AAAA")
		Expect(ok).To(BeTrue())
		Expect(r.Links["BBBB"].ExtendOK).To(Equal(uint64(1)))
		Expect(r.Links["BBBB"].ExtendFail).To(Equal(uint64(1)))
	})

	It("garbage collects link entries older than 24 hours", func() {
		h.NoteExtendResult("AAAA", "BBBB", true, now)
		h.GC(now.Add(25 * time.Hour))

		r, _ := h.Get("AAAA")
		Expect(r.Links).To(BeEmpty())
	})
})
