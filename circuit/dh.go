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
	"io"

	"golang.org/x/crypto/curve25519"

	liberr "github.com/nabbar/torrelay/errors"
)

// DHKeyLen is the length, in bytes, of a curve25519 scalar or point.
const DHKeyLen = 32

// DHKeyPair is one side's ephemeral Diffie-Hellman share for a rendezvous
// handshake. The DH step itself is the out-of-scope cryptographic-primitives
// collaborator (spec.md §1); curve25519 is this module's concrete
// instantiation of it.
type DHKeyPair struct {
	Private [DHKeyLen]byte
	Public  [DHKeyLen]byte
}

// GenerateDHKeyPair draws a fresh private scalar from rnd and derives the
// corresponding public share.
func GenerateDHKeyPair(rnd io.Reader) (DHKeyPair, error) {
	var kp DHKeyPair
	if _, err := io.ReadFull(rnd, kp.Private[:]); err != nil {
		return DHKeyPair{}, liberr.New(liberr.KindCrypto, "generating DH private key failed", err)
	}
	pub, err := curve25519.X25519(kp.Private[:], curve25519.Basepoint)
	if err != nil {
		return DHKeyPair{}, liberr.New(liberr.KindCrypto, "deriving DH public share failed", err)
	}
	copy(kp.Public[:], pub)
	return kp, nil
}

// SharedSecret computes the shared secret between kp and a peer's public
// share.
func (kp DHKeyPair) SharedSecret(peerPublic []byte) ([]byte, error) {
	if len(peerPublic) != DHKeyLen {
		return nil, liberr.New(liberr.KindProtocol, "peer DH public share has the wrong length")
	}
	secret, err := curve25519.X25519(kp.Private[:], peerPublic)
	if err != nil {
		return nil, liberr.New(liberr.KindCrypto, "computing DH shared secret failed", err)
	}
	return secret, nil
}
