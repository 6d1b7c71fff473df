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

package circuit

import (
	"time"

	liberr "github.com/nabbar/torrelay/errors"
)

// Default retry/timeout bounds (spec.md §5 Cancellation and timeout
// semantics).
const (
	MaxRendFailures        = 5
	MaxIntroCircsPerPeriod = 10
	IntroRetryPeriod       = 5 * time.Minute
)

// Circuit is one service-side circuit: a layered path plus the purpose-
// specific state attached to it as it progresses through its lifecycle.
type Circuit struct {
	ID      uint64
	Purpose Purpose
	Path    []CryptoPathHop

	// ExpiryTime bounds how long relaunches may continue (spec.md §5).
	ExpiryTime time.Time

	// Rendezvous-side state, populated by INTRODUCE2 handling and consumed
	// at RENDEZVOUS1 time.
	RendCookie       []byte
	ServiceID        string
	ServiceKeyDigest string
	HandshakeState   []byte

	// RendDHPublic is this side's ephemeral DH public share, sent to the
	// client in RELAY_RENDEZVOUS1 alongside RendCookie and HandshakeState.
	RendDHPublic []byte

	// PendingFinalCPath is the final hop awaiting attachment once the
	// rendezvous path completes. RendJoined nils this field exactly when it
	// appends the hop to Path — a move, not a copy
	// (spec.md §9 Design Notes).
	PendingFinalCPath *CryptoPathHop

	RendFailures int
}

// New returns a Circuit in PurposeEstablishIntro, targeting a candidate
// introduction point, expiring at expiry.
func New(id uint64, expiry time.Time) *Circuit {
	return &Circuit{ID: id, Purpose: PurposeEstablishIntro, ExpiryTime: expiry}
}

// NewConnectRend returns a Circuit in PurposeConnectRend carrying the
// rendezvous state extracted from an INTRODUCE2 cell.
func NewConnectRend(id uint64, expiry time.Time, rendCookie []byte, serviceID, keyDigest string, handshake []byte) *Circuit {
	return &Circuit{
		ID:               id,
		Purpose:          PurposeConnectRend,
		ExpiryTime:       expiry,
		RendCookie:       rendCookie,
		ServiceID:        serviceID,
		ServiceKeyDigest: keyDigest,
		HandshakeState:   handshake,
	}
}

// CompletePath extends the circuit's path by one hop — the only way Path
// grows.
func (c *Circuit) CompletePath(hop CryptoPathHop) {
	c.Path = append(c.Path, hop)
}

// IntroEstablished transitions S_ESTABLISH_INTRO → S_INTRO on receipt of
// INTRO_ESTABLISHED (spec.md §4.2 Circuit purpose lifecycle).
func (c *Circuit) IntroEstablished() error {
	if c.Purpose != PurposeEstablishIntro {
		return errInvalidTransition(c.Purpose, PurposeIntro.String())
	}
	c.Purpose = PurposeIntro
	return nil
}

// SetRendKeyMaterial attaches the derived shared secret and this side's DH
// public share to a S_CONNECT_REND circuit, once INTRODUCE2 handling has
// completed the handshake.
func (c *Circuit) SetRendKeyMaterial(handshake, dhPublic []byte) {
	c.HandshakeState = handshake
	c.RendDHPublic = dhPublic
}

// SetPendingFinalCPath attaches hop as the final-hop handshake state to
// install once the rendezvous path completes (INTRODUCE2 handling step 8).
func (c *Circuit) SetPendingFinalCPath(hop CryptoPathHop) {
	h := hop
	c.PendingFinalCPath = &h
}

// RendJoined transitions S_CONNECT_REND → S_REND_JOINED on RELAY_RENDEZVOUS1:
// it appends the pending final hop to Path in state HopOpen and nils the
// pending field, a move rather than a copy (spec.md §9 Design Notes
// "pending_final_cpath handoff ... is a move, the source field is nulled
// exactly when the destination appends the node").
func (c *Circuit) RendJoined() error {
	if c.Purpose != PurposeConnectRend {
		return errInvalidTransition(c.Purpose, PurposeRendJoined.String())
	}
	if c.PendingFinalCPath == nil {
		return liberr.New(liberr.KindProtocol, "rendezvous join attempted with no pending final cpath")
	}

	hop := *c.PendingFinalCPath
	hop.State = HopOpen
	c.Path = append(c.Path, hop)
	c.PendingFinalCPath = nil

	c.Purpose = PurposeRendJoined
	return nil
}

// ShouldRelaunch reports whether a failed S_CONNECT_REND circuit may be
// relaunched: strictly before ExpiryTime and strictly under MaxRendFailures
// (spec.md §4.2 RENDEZVOUS1 "relaunch up to MAX_REND_FAILURES or until the
// expiry deadline").
func (c *Circuit) ShouldRelaunch(now time.Time) bool {
	if c.Purpose != PurposeConnectRend {
		return false
	}
	if !now.Before(c.ExpiryTime) {
		return false
	}
	return c.RendFailures < MaxRendFailures
}

// NoteRendFailure records an intermediate-hop failure toward a rendezvous
// point. firstHopFailed circuits must not be relaunched (spec.md: "the
// client will retry"); callers should discard the circuit without calling
// this when the first hop itself failed.
func (c *Circuit) NoteRendFailure() {
	c.RendFailures++
}
