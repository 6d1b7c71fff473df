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

package reputation

import (
	"sync"
	"time"

	libatm "github.com/nabbar/torrelay/atomic"
)

// HistoryMap is the keyed collection of ORHistory records, one per observed
// router identity digest. The all-zero digest is never recorded.
type HistoryMap struct {
	mu sync.Mutex
	m  libatm.MapTyped[string, *ORHistory]
}

// NewHistoryMap returns an empty HistoryMap.
func NewHistoryMap() *HistoryMap {
	return &HistoryMap{
		m: libatm.NewMapTyped[string, *ORHistory](),
	}
}

func (h *HistoryMap) getOrCreate(digest string, now time.Time) *ORHistory {
	if r, ok := h.m.Load(digest); ok {
		return r
	}

	r := &ORHistory{
		Started:    now,
		LastChange: now,
		Links:      make(map[string]*LinkHistory),
	}
	h.m.Store(digest, r)
	return r
}

// Get returns the history record for digest, if any.
func (h *HistoryMap) Get(digest string) (*ORHistory, bool) {
	return h.m.Load(digest)
}

// Len returns the number of tracked routers.
func (h *HistoryMap) Len() int {
	n := 0
	h.m.Range(func(_ string, _ *ORHistory) bool {
		n++
		return true
	})
	return n
}

// NoteConnectFailed records a failed connection attempt: the fail count is
// incremented, any open up_since interval is closed into uptime, and a
// down_since interval is opened if one is not already open.
func (h *HistoryMap) NoteConnectFailed(digest string, now time.Time) {
	if digest == ZeroDigest || digest == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	r := h.getOrCreate(digest, now)
	r.NumFail++
	r.LastChange = now

	if !r.UpSince.IsZero() {
		r.Uptime += now.Sub(r.UpSince)
		r.UpSince = time.Time{}
	}
	if r.DownSince.IsZero() {
		r.DownSince = now
	}
}

// NoteConnectSucceeded records a successful connection: the success count is
// incremented, any open down_since interval is closed into downtime, and
// up_since is opened.
func (h *HistoryMap) NoteConnectSucceeded(digest string, now time.Time) {
	if digest == ZeroDigest || digest == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	r := h.getOrCreate(digest, now)
	r.NumConnect++
	r.LastChange = now

	if !r.DownSince.IsZero() {
		r.Downtime += now.Sub(r.DownSince)
		r.DownSince = time.Time{}
	}
	r.UpSince = now
}

// NoteDisconnect records an intentional disconnect: up_since is closed, and
// no down_since interval is opened.
func (h *HistoryMap) NoteDisconnect(digest string, now time.Time) {
	if digest == ZeroDigest || digest == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.m.Load(digest)
	if !ok {
		return
	}

	if !r.UpSince.IsZero() {
		r.Uptime += now.Sub(r.UpSince)
		r.UpSince = time.Time{}
	}
	r.LastChange = now
}

// NoteConnectionDied records an unexpected connection loss: up_since is
// closed if open, and down_since is opened if not already open.
func (h *HistoryMap) NoteConnectionDied(digest string, now time.Time) {
	if digest == ZeroDigest || digest == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	r := h.getOrCreate(digest, now)

	if !r.UpSince.IsZero() {
		r.Uptime += now.Sub(r.UpSince)
		r.UpSince = time.Time{}
	}
	if r.DownSince.IsZero() {
		r.DownSince = now
	}
	r.LastChange = now
}

// NoteExtendResult records an extend-success or extend-fail count on the
// link history from source to target, keyed by the target's identity digest
// within the source record's sub-mapping.
func (h *HistoryMap) NoteExtendResult(source, target string, ok bool, now time.Time) {
	if source == ZeroDigest || target == ZeroDigest || source == "" || target == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	r := h.getOrCreate(source, now)
	l, found := r.Links[target]
	if !found {
		l = &LinkHistory{}
		r.Links[target] = l
	}

	if ok {
		l.ExtendOK++
	} else {
		l.ExtendFail++
	}
	l.LastChange = now
}

// GC removes link-history entries unchanged for more than 24 hours.
func (h *HistoryMap) GC(now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.m.Range(func(_ string, r *ORHistory) bool {
		for k, l := range r.Links {
			if now.Sub(l.LastChange) > 24*time.Hour {
				delete(r.Links, k)
			}
		}
		return true
	})
}
