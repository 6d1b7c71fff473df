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

// Package circuit models the service-side circuit purpose lifecycle as a
// sum type (spec.md §9 Design Notes "From tag-dispatched cell purposes to
// sum types") and the crypto-path hop-ownership rules (§9 "From manual
// free-later discipline to ownership").
package circuit

import (
	"crypto/rsa"

	liberr "github.com/nabbar/torrelay/errors"
)

// Purpose is a service-side circuit purpose. Transitions are the only way to
// change a Circuit's purpose; there is no direct setter.
type Purpose int

const (
	// PurposeEstablishIntro: path is being built toward a candidate
	// introduction point; RELAY_ESTABLISH_INTRO has not yet been
	// acknowledged.
	PurposeEstablishIntro Purpose = iota
	// PurposeIntro: a live introduction point (INTRO_ESTABLISHED received).
	PurposeIntro
	// PurposeConnectRend: path is being built toward a rendezvous point
	// described by an INTRODUCE2 cell.
	PurposeConnectRend
	// PurposeRendJoined: RELAY_RENDEZVOUS1 sent and the final hop attached;
	// ready to accept application streams.
	PurposeRendJoined
)

func (p Purpose) String() string {
	switch p {
	case PurposeEstablishIntro:
		return "S_ESTABLISH_INTRO"
	case PurposeIntro:
		return "S_INTRO"
	case PurposeConnectRend:
		return "S_CONNECT_REND"
	case PurposeRendJoined:
		return "S_REND_JOINED"
	default:
		return "S_UNKNOWN"
	}
}

// ExtendInfo is the minimal tuple needed to extend a circuit to a relay
// (GLOSSARY).
type ExtendInfo struct {
	Address        string
	Port           int
	IdentityDigest string
	OnionKey       *rsa.PublicKey
}

// CryptoPathHop is one layer of a circuit's layered-encryption path.
type CryptoPathHop struct {
	Extend ExtendInfo
	State  HopState
}

// HopState is a crypto-path hop's handshake state.
type HopState int

const (
	HopPending HopState = iota
	HopOpen
)

// errInvalidTransition is returned when a transition method is called from a
// Purpose it does not apply to.
func errInvalidTransition(from Purpose, to string) error {
	return liberr.New(liberr.KindProtocol, "invalid circuit purpose transition from "+from.String()+" to "+to)
}
