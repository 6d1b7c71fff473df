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

// Package transport fixes the interface of the bottom-half TLS link: an
// opaque byte stream with a pending-bytes side channel. The concrete
// implementation (TLS handshake, certificate handling, wire encoding) is an
// external collaborator; only the shape the circuit runtime depends on lives
// here.
package transport

import (
	"io"

	"github.com/nabbar/torrelay/cellbuf"
)

// CloseReason is passed to a Link's Close to identify why the owning circuit
// tore it down (spec.md §7 Propagation: "transport errors on a circuit mark
// that circuit for close with a reason code passed to the transport layer").
type CloseReason int

const (
	ReasonNone CloseReason = iota
	ReasonIOError
	ReasonProtocol
	ReasonTimeout
	ReasonRequested
)

// Link is the opaque byte-stream abstraction a circuit reads cells from and
// writes cells to. Read/Write follow the non-blocking convention of
// spec.md §5 Suspension points: a would-block condition returns (0, nil),
// never an error.
type Link interface {
	io.Reader
	io.Writer

	// Pending implements the side channel: bytes already decrypted by the
	// transport but not yet delivered to the event loop (e.g. buffered
	// inside a TLS record). The event loop must keep reading until Pending
	// reports zero before waiting on the next readiness signal.
	cellbuf.PendingBytesSource

	// Close tears down the link, reporting reason to the transport so it can
	// choose how to fail the underlying connection (reset vs. clean close).
	Close(reason CloseReason) error
}

// Dialer opens a new Link to a router, identified by address and identity
// digest (the out-of-scope router-selection heuristic picks the router;
// this interface only opens the link to it).
type Dialer interface {
	Dial(address string, identityDigest string) (Link, error)
}
