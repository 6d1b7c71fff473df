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
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// BandwidthArray tracks per-second byte observations in a Window-second
// rolling-sum ring, and per-Interval maxima/totals over a Day-long history.
type BandwidthArray struct {
	mu sync.Mutex

	obs        [Window]uint64
	curIdx     int
	curObsTime time.Time

	rollingSum    uint64
	intervalMax   uint64
	intervalTotal uint64

	maxima     [NumTotals]uint64
	totals     [NumTotals]uint64
	numMaxima  int
	nextMaxIdx int
	nextPeriod time.Time
}

// NewBandwidthArray returns a BandwidthArray with its observation clock
// anchored at now.
func NewBandwidthArray(now time.Time) *BandwidthArray {
	start := now.Truncate(time.Second)
	return &BandwidthArray{
		curObsTime: start,
		nextPeriod: start.Add(Interval * time.Second),
	}
}

// AddObservation records n bytes observed at time t. Observations at a time
// earlier than the last-seen observation time are dropped.
func (b *BandwidthArray) AddObservation(t time.Time, n uint64) {
	t = t.Truncate(time.Second)

	b.mu.Lock()
	defer b.mu.Unlock()

	if t.Before(b.curObsTime) {
		return
	}

	for b.curObsTime.Before(t) {
		b.rollingSum += b.obs[b.curIdx]
		if b.rollingSum > b.intervalMax {
			b.intervalMax = b.rollingSum
		}

		b.curIdx = (b.curIdx + 1) % Window
		b.rollingSum -= b.obs[b.curIdx]
		b.obs[b.curIdx] = 0

		b.curObsTime = b.curObsTime.Add(time.Second)

		if !b.curObsTime.Before(b.nextPeriod) {
			b.totals[b.nextMaxIdx] = b.intervalTotal
			b.maxima[b.nextMaxIdx] = b.intervalMax
			b.nextMaxIdx = (b.nextMaxIdx + 1) % NumTotals
			if b.numMaxima < NumTotals {
				b.numMaxima++
			}
			b.nextPeriod = b.nextPeriod.Add(Interval * time.Second)
			b.intervalTotal = 0
			b.intervalMax = 0
		}
	}

	b.obs[b.curIdx] += n
	b.intervalTotal += n
}

// RollingSum returns the sum of the last Window seconds of observations,
// including the byte count accumulated in the current, not-yet-rotated
// second.
func (b *BandwidthArray) RollingSum() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.rollingSum + b.obs[b.curIdx]
}

// IntervalMax returns the highest rolling sum observed so far within the
// current, still-open interval bucket.
func (b *BandwidthArray) IntervalMax() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.rollingSum+b.obs[b.curIdx] > b.intervalMax {
		return b.rollingSum + b.obs[b.curIdx]
	}
	return b.intervalMax
}

// Maxima returns the closed-interval maxima ring, oldest entry first.
func (b *BandwidthArray) Maxima() []uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.snapshot(b.maxima)
}

// Totals returns the closed-interval totals ring, oldest entry first.
func (b *BandwidthArray) Totals() []uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.snapshot(b.totals)
}

func (b *BandwidthArray) snapshot(ring [NumTotals]uint64) []uint64 {
	if b.numMaxima == 0 {
		return nil
	}

	if b.numMaxima < NumTotals {
		out := make([]uint64, b.numMaxima)
		copy(out, ring[:b.numMaxima])
		return out
	}

	out := make([]uint64, NumTotals)
	for i := 0; i < NumTotals; i++ {
		out[i] = ring[(b.nextMaxIdx+i)%NumTotals]
	}
	return out
}

// NumMaxima returns how many closed-interval slots have been recorded.
func (b *BandwidthArray) NumMaxima() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.numMaxima
}

// MaxOfMaxima returns the highest value across every closed-interval maxima
// slot, or zero if none have closed yet.
func (b *BandwidthArray) MaxOfMaxima() uint64 {
	var max uint64
	for _, v := range b.Maxima() {
		if v > max {
			max = v
		}
	}
	return max
}

// HistoryLine renders the descriptor history line for label ("read-history"
// or "write-history") per the router descriptor text format: the timestamp
// of the end of the most recently completed interval, the interval width,
// and the oldest-first list of totals.
func (b *BandwidthArray) HistoryLine(label string, now time.Time) string {
	b.mu.Lock()
	ts := b.nextPeriod.Add(-Interval * time.Second)
	vals := b.snapshot(b.totals)
	b.mu.Unlock()

	if ts.After(now) {
		ts = now
	}

	strs := make([]string, len(vals))
	for i, v := range vals {
		strs[i] = strconv.FormatUint(v, 10)
	}

	return fmt.Sprintf("opt %s %s (%d s) %s", label, ts.UTC().Format("2006-01-02 15:04:05"), Interval, strings.Join(strs, ","))
}
