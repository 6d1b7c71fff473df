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
	"crypto/rand"
	"crypto/rsa"
	"time"

	"github.com/nabbar/torrelay/circuit"
	liberr "github.com/nabbar/torrelay/errors"
)

// Introduce runs one periodic introduction-point maintenance tick (spec.md
// §4.2 "introduce() periodic tick"):
//
//  1. if the launch period is stale, reset the period start and launch
//     counter;
//  2. skip entirely if the per-period launch ceiling was already hit;
//  3. prune intro points whose relay the oracle no longer knows about, or
//     whose circuit purpose fell out of {S_ESTABLISH_INTRO, S_INTRO},
//     marking the descriptor dirty on any removal;
//  4. skip (after resetting the period) if enough intro points survive;
//  5. otherwise pick fresh relays via the oracle, excluding relays already
//     in use, and launch an ESTABLISH_INTRO circuit for each.
//
// nextCircuitID supplies circuit identifiers for newly launched circuits.
func (s *Service) Introduce(now time.Time, oracle RoutingOracle, nextCircuitID func() uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.periodStarted.IsZero() || now.Sub(s.periodStarted) > RetryPeriod {
		s.periodStarted = now
		s.launchCount = 0
	}

	if s.launchCount >= MaxLaunchesPerPeriod {
		return nil
	}

	survivors := s.introPoints[:0:0]
	pruned := false
	for _, ip := range s.introPoints {
		known := oracle.RelayExists(ip.Extend.IdentityDigest)
		live := ip.Circuit != nil &&
			(ip.Circuit.Purpose == circuit.PurposeEstablishIntro || ip.Circuit.Purpose == circuit.PurposeIntro)
		if known && live {
			survivors = append(survivors, ip)
		} else {
			pruned = true
		}
	}
	s.introPoints = survivors
	if pruned {
		s.markDirtyLocked(now)
	}

	if len(s.introPoints) >= NumIntroPoints {
		s.periodStarted = now
		s.launchCount = 0
		return nil
	}

	used := make(map[string]bool, len(s.introPoints))
	for _, ip := range s.introPoints {
		used[ip.Extend.IdentityDigest] = true
	}

	for len(s.introPoints) < NumIntroPoints && s.launchCount < MaxLaunchesPerPeriod {
		extend, ok := oracle.PickRelay(used)
		if !ok {
			break
		}
		used[extend.IdentityDigest] = true

		ip := &IntroPoint{Extend: extend}
		if s.DescriptorVersion == 2 {
			priv, err := rsa.GenerateKey(rand.Reader, 1024)
			if err != nil {
				return liberr.New(liberr.KindCrypto, "generating intro-point key failed", err)
			}
			ip.PrivateKey = priv
			ip.Key = &priv.PublicKey
		} else {
			ip.Key = &s.Key.PublicKey
		}

		ip.Circuit = circuit.New(nextCircuitID(), now.Add(RetryPeriod))
		s.introPoints = append(s.introPoints, ip)
		s.launchCount++
	}

	return nil
}

func (s *Service) markDirtyLocked(now time.Time) {
	if s.dirtySince.IsZero() {
		s.dirtySince = now
	}
}

// MarkDirty flags the descriptor as needing reassembly and upload.
func (s *Service) MarkDirty(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markDirtyLocked(now)
}
