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
	"time"

	"github.com/nabbar/torrelay/circuit"
)

// RegenerateDescriptor rebuilds the service's descriptor from its current
// intro point pool, keeping only intro points whose circuit has reached
// S_INTRO (spec.md §3 Data Model "Service descriptor ... ordered intro
// points"). It stores and returns the new descriptor.
func (s *Service) RegenerateDescriptor(now time.Time) *ServiceDescriptor {
	s.mu.Lock()
	defer s.mu.Unlock()

	desc := &ServiceDescriptor{
		PublicKey: &s.Key.PublicKey,
		Timestamp: now,
		Version:   s.DescriptorVersion,
	}
	for _, ip := range s.introPoints {
		if ip.Circuit != nil && ip.Circuit.Purpose == circuit.PurposeIntro {
			desc.IntroPoints = append(desc.IntroPoints, *ip)
		}
	}
	s.descriptor = desc
	return desc
}
