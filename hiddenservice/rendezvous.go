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
	liberr "github.com/nabbar/torrelay/errors"
)

// BuildRendezvous1Payload assembles the body sent on a completed
// S_CONNECT_REND circuit's last hop: rendezvous_cookie || RendDHPublic ||
// HandshakeState (spec.md §4.2 "RENDEZVOUS1 handling"). c.RendDHPublic and
// c.HandshakeState are populated by HandleIntroduce2's DH key agreement.
func BuildRendezvous1Payload(c *circuit.Circuit) ([]byte, error) {
	if len(c.RendCookie) != rendCookieLen {
		return nil, liberr.New(liberr.KindProtocol, "circuit has no valid rendezvous cookie")
	}
	if len(c.RendDHPublic) != circuit.DHKeyLen {
		return nil, liberr.New(liberr.KindProtocol, "circuit has no valid rendezvous DH public share")
	}
	out := make([]byte, 0, len(c.RendCookie)+len(c.RendDHPublic)+len(c.HandshakeState))
	out = append(out, c.RendCookie...)
	out = append(out, c.RendDHPublic...)
	out = append(out, c.HandshakeState...)
	return out, nil
}

// CompleteRendezvous attaches the final hop described by extend to c and
// transitions it to S_REND_JOINED via circuit.RendJoined, which performs the
// pending-final-cpath move. Call this once the last hop of the rendezvous
// path itself has opened.
func CompleteRendezvous(c *circuit.Circuit, extend circuit.ExtendInfo) error {
	c.SetPendingFinalCPath(circuit.CryptoPathHop{Extend: extend})
	return c.RendJoined()
}

// RetryRendezvous records an intermediate-hop failure and reports whether c
// may be relaunched, per circuit.ShouldRelaunch/NoteRendFailure.
// firstHopFailed circuits are never relaunched: the client owns the retry in
// that case (spec.md §4.2 "RENDEZVOUS1 handling").
func RetryRendezvous(c *circuit.Circuit, now time.Time, firstHopFailed bool) bool {
	if firstHopFailed {
		return false
	}
	c.NoteRendFailure()
	return c.ShouldRelaunch(now)
}
