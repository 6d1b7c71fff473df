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
)

// PredictedPorts tracks destination ports recently asked for, so the engine
// can preemptively build circuits likely to be reused.
type PredictedPorts struct {
	mu   sync.Mutex
	seen map[uint16]time.Time
}

// NewPredictedPorts returns an empty predicted-port table.
func NewPredictedPorts() *PredictedPorts {
	return &PredictedPorts{seen: make(map[uint16]time.Time)}
}

// Upsert records port as asked-for at now.
func (p *PredictedPorts) Upsert(port uint16, now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.seen[port] = now
}

// Ports returns every port whose last-seen time is within PredictedRelevance
// seconds of now, expiring (and dropping) stale entries as a side effect.
func (p *PredictedPorts) Ports(now time.Time) []uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]uint16, 0, len(p.seen))
	for port, last := range p.seen {
		if last.Add(PredictedRelevance * time.Second).Before(now) {
			delete(p.seen, port)
			continue
		}
		out = append(out, port)
	}
	return out
}

// PredictedInternalUsage tracks whether the process recently needed an
// internal (hidden-service or rendezvous) circuit, split by sub-reason.
type PredictedInternalUsage struct {
	mu       sync.Mutex
	any      time.Time
	uptime   time.Time
	capacity time.Time
}

// NewPredictedInternalUsage returns a tracker with all timestamps unset.
func NewPredictedInternalUsage() *PredictedInternalUsage {
	return &PredictedInternalUsage{}
}

// Note bumps all three timestamps to now, recording an internal-circuit use.
func (p *PredictedInternalUsage) Note(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.any = now
	p.uptime = now
	p.capacity = now
}

// NoteUptime bumps the uptime-relevant timestamp and the any-use timestamp;
// the capacity timestamp is left unchanged.
func (p *PredictedInternalUsage) NoteUptime(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.any = now
	p.uptime = now
}

// NoteCapacity bumps the capacity-relevant timestamp and the any-use
// timestamp; the uptime timestamp is left unchanged.
func (p *PredictedInternalUsage) NoteCapacity(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.any = now
	p.capacity = now
}

func relevant(t, now time.Time) bool {
	return !t.IsZero() && t.Add(PredictedRelevance*time.Second).After(now)
}

// NeedInternal reports whether any internal-circuit use is within
// PredictedRelevance seconds of now.
func (p *PredictedInternalUsage) NeedInternal(now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return relevant(p.any, now)
}

// NeedUptime reports whether an uptime-relevant internal use is still
// relevant at now.
func (p *PredictedInternalUsage) NeedUptime(now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return relevant(p.uptime, now)
}

// NeedCapacity reports whether a capacity-relevant internal use is still
// relevant at now.
func (p *PredictedInternalUsage) NeedCapacity(now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return relevant(p.capacity, now)
}
