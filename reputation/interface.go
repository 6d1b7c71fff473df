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

// Package reputation tracks per-link uptime/downtime, rolling bandwidth
// history, and predicted port/internal-usage state driving preemptive
// circuit construction.
package reputation

import "time"

const (
	// Window is the rolling-sum horizon, in seconds, over which bandwidth
	// observations are summed.
	Window = 20

	// Interval is the width, in seconds, of one bandwidth history bucket.
	Interval = 3600

	// Day is the retention horizon, in seconds, for interval buckets.
	Day = 24 * Interval

	// NumTotals is the number of interval buckets retained (Day / Interval).
	NumTotals = Day / Interval

	// PredictedRelevance is how long, in seconds, a predicted-port or
	// predicted-internal-usage entry remains relevant after last use.
	PredictedRelevance = 3600
)

// ZeroDigest is the all-zero identity digest, rejected as a history key.
const ZeroDigest = "0000000000000000000000000000000000000000"

// LinkHistory counts successful and failed circuit-extend attempts between
// two routers.
type LinkHistory struct {
	ExtendOK   uint64
	ExtendFail uint64
	LastChange time.Time
}

// ORHistory is the uptime/downtime record for one router, keyed by its
// hex-encoded identity digest.
type ORHistory struct {
	Started    time.Time
	LastChange time.Time
	NumConnect uint64
	NumFail    uint64
	Uptime     time.Duration
	Downtime   time.Duration
	UpSince    time.Time
	DownSince  time.Time

	Links map[string]*LinkHistory
}

// BandwidthDirection distinguishes the read and write bandwidth arrays.
type BandwidthDirection int

const (
	// DirRead is the inbound bandwidth direction.
	DirRead BandwidthDirection = iota
	// DirWrite is the outbound bandwidth direction.
	DirWrite
)

// Runtime is the explicit, per-process aggregate of reputation state: the
// OR-history map, the read/write bandwidth arrays, the predicted-port table,
// and the predicted-internal-usage tracker. It replaces the process-wide
// globals of the source implementation with a single owned value so tests
// can construct a fresh instance per case.
type Runtime struct {
	History    *HistoryMap
	BWRead     *BandwidthArray
	BWWrite    *BandwidthArray
	Ports      *PredictedPorts
	Internal   *PredictedInternalUsage
	Metrics    *Metrics
}

// NewRuntime builds a fresh Runtime with empty history, zeroed bandwidth
// arrays, and the "ever asked for port 80" predicted-port seed applied, as
// called for at initialization.
func NewRuntime(now time.Time) *Runtime {
	r := &Runtime{
		History:  NewHistoryMap(),
		BWRead:   NewBandwidthArray(now),
		BWWrite:  NewBandwidthArray(now),
		Ports:    NewPredictedPorts(),
		Internal: NewPredictedInternalUsage(),
	}
	r.Ports.Upsert(80, now)
	return r
}
