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

package hiddenservice

import (
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	liberr "github.com/nabbar/torrelay/errors"
)

// ScheduleInitialUpload picks the first-ever upload time uniformly at
// random in [now, now+2*P), where P is the service's PostPeriod or
// RendPostPeriod when PostPeriod is zero, independent per service (spec.md
// §4.2 "Descriptor upload scheduling"). rnd is caller-supplied so tests can
// seed it deterministically; production callers pass rand.New(rand.NewSource(...))
// seeded from a real entropy source once at startup.
func (s *Service) ScheduleInitialUpload(now time.Time, rnd *rand.Rand) {
	s.mu.Lock()
	defer s.mu.Unlock()
	jitter := time.Duration(rnd.Int63n(int64(2 * s.postPeriodLocked())))
	s.nextUpload = now.Add(jitter)
}

// postPeriodLocked returns the service's effective upload period: its
// configured override, or the package default. Callers must hold s.mu.
func (s *Service) postPeriodLocked() time.Duration {
	if s.PostPeriod > 0 {
		return s.PostPeriod
	}
	return RendPostPeriod
}

// ShouldUpload reports whether the service's descriptor is due for
// (re-)publication: either the scheduled time has arrived, or the
// descriptor has been dirty for at least DirtyGracePeriod.
func (s *Service) ShouldUpload(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.nextUpload.IsZero() && !s.nextUpload.After(now) {
		return true
	}
	if !s.dirtySince.IsZero() && now.Sub(s.dirtySince) >= DirtyGracePeriod {
		return true
	}
	return false
}

// Upload assembles the current descriptor and posts it to every destination
// concurrently via pub, succeeding if at least one destination accepts it
// (spec.md §4.2 SUPPLEMENT "post to N destinations, succeed if at least one
// accepts"). On success it clears the dirty flag and reschedules the next
// upload one post period out (PostPeriod, or RendPostPeriod when zero)
// (v0 behavior; v2 replicas additionally key by
// time period, left to the descriptor assembly step).
func (s *Service) Upload(descriptor string, destinations []string, pub Publisher, now time.Time) error {
	if len(destinations) == 0 {
		return liberr.New(liberr.KindProtocol, "no upload destinations configured")
	}

	var g errgroup.Group
	results := make([]error, len(destinations))
	for i, dest := range destinations {
		i, dest := i, dest
		g.Go(func() error {
			results[i] = pub.Publish(dest, descriptor)
			return nil
		})
	}
	_ = g.Wait()

	accepted := false
	for _, err := range results {
		if err == nil {
			accepted = true
			break
		}
	}
	if !accepted {
		return liberr.New(liberr.KindConnectFailed, "descriptor rejected by every upload destination", results[0])
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirtySince = time.Time{}
	s.nextUpload = now.Add(s.postPeriodLocked())
	return nil
}
