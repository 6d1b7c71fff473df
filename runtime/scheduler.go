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

package runtime

import (
	"context"
	"time"

	"github.com/nabbar/torrelay/hiddenservice"
	"github.com/nabbar/torrelay/runner/ticker"
)

// introduceTickInterval is how often the introduce() maintenance tick runs.
// The source implementation drives it from the same per-second event-loop
// callback as everything else; this module isolates it behind its own
// ticker so it can be started/stopped independently of upload scheduling.
const introduceTickInterval = 10 * time.Second

// NewIntroduceTicker returns a ticker.Ticker that calls r.IntroduceAll on
// every tick, using oracle to pick and confirm relays and nextCircuitID to
// allocate circuit identifiers for newly launched circuits.
func (r *Runtime) NewIntroduceTicker(oracle hiddenservice.RoutingOracle, nextCircuitID func() uint64, now func() time.Time) ticker.Ticker {
	return ticker.New(introduceTickInterval, func(ctx context.Context, _ *time.Ticker) error {
		return r.IntroduceAll(now(), oracle, nextCircuitID)
	})
}

// uploadTickInterval bounds how often services are checked for a due
// descriptor upload; actual upload timing is governed by each service's own
// ScheduleInitialUpload/ShouldUpload state.
const uploadTickInterval = 30 * time.Second

// NewUploadTicker returns a ticker.Ticker that checks every registered
// service's upload schedule and publishes via assemble/pub/destinations
// whenever ShouldUpload reports true.
func (r *Runtime) NewUploadTicker(assemble func(*hiddenservice.Service) (string, []string), pub hiddenservice.Publisher, now func() time.Time) ticker.Ticker {
	return ticker.New(uploadTickInterval, func(ctx context.Context, _ *time.Ticker) error {
		var firstErr error
		for _, svc := range r.Services() {
			t := now()
			if !svc.ShouldUpload(t) {
				continue
			}
			descriptor, destinations := assemble(svc)
			if err := svc.Upload(descriptor, destinations, pub, t); err != nil {
				r.logFault("descriptor upload failed for hidden service "+svc.ServiceID, err)
				if firstErr == nil {
					firstErr = err
				}
			}
		}
		return firstErr
	})
}
