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

	liberr "github.com/nabbar/torrelay/errors"
	"github.com/nabbar/torrelay/hiddenservice/config"
)

// ResolvePort collects every configured port mapping whose virtual port
// equals virtualPort and returns one picked uniformly at random, for a
// successful S_REND_JOINED stream request (spec.md §4.2 "Address/port
// resolution"). It fails if no mapping matches.
func (s *Service) ResolvePort(virtualPort int, rnd *rand.Rand) (config.PortMapping, error) {
	var candidates []config.PortMapping
	for _, pm := range s.Ports {
		if pm.VirtualPort == virtualPort {
			candidates = append(candidates, pm)
		}
	}
	if len(candidates) == 0 {
		return config.PortMapping{}, liberr.New(liberr.KindProtocol, "no port mapping for requested virtual port")
	}
	return candidates[rnd.Intn(len(candidates))], nil
}
