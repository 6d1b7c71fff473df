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
	"bytes"
	"crypto/rand"
	"crypto/sha1"
	"crypto/x509"
	"encoding/binary"
	"time"

	"github.com/nabbar/torrelay/circuit"
	enchex "github.com/nabbar/torrelay/encoding/hexa"
	liberr "github.com/nabbar/torrelay/errors"
)

const (
	rendCookieLen = 20
	introDigestLen = sha1.Size
)

// introduceVersionPlain is the legacy form: rendezvous address carried as a
// plain nickname/address, no relay identity digest attached.
const introduceVersionPlain = 0

// introduceVersionExtend carries a full circuit.ExtendInfo including the
// relay's identity digest.
const introduceVersionExtend = 1

// HandleIntroduce2 processes one INTRODUCE2 cell addressed to ip (spec.md
// §4.2 "INTRODUCE2 handling"):
//
//  1. sanity-check the cell's overall length;
//  2. verify the leading digest against the key used to establish this intro
//     point, failing with KindNoService on mismatch (Testable Property 3);
//  3. hybrid-decrypt the remainder via dec;
//  4. peek the version byte to select the rendezvous-address encoding;
//  5. parse the rendezvous cookie and rendezvous-point address;
//  6. parse the DH public value;
//  7. derive the handshake state attached to the eventual rendezvous circuit;
//  8. launch an S_CONNECT_REND circuit carrying that state.
func HandleIntroduce2(raw []byte, ip *IntroPoint, dec Decrypter, now time.Time, nextCircuitID func() uint64) (*circuit.Circuit, circuit.ExtendInfo, error) {
	if len(raw) < introDigestLen+1 {
		return nil, circuit.ExtendInfo{}, liberr.New(liberr.KindProtocol, "INTRODUCE2 cell shorter than digest field")
	}

	der, err := x509.MarshalPKIXPublicKey(ip.Key)
	if err != nil {
		return nil, circuit.ExtendInfo{}, liberr.New(liberr.KindCrypto, "marshaling intro-point key for digest check failed", err)
	}
	want := sha1.Sum(der)
	got := raw[:introDigestLen]
	if !bytes.Equal(want[:], got) {
		return nil, circuit.ExtendInfo{}, liberr.New(liberr.KindNoService, "INTRODUCE2 digest does not match the key used to establish this intro point")
	}

	plain, err := dec.Decrypt(raw[introDigestLen:])
	if err != nil {
		return nil, circuit.ExtendInfo{}, liberr.New(liberr.KindCrypto, "decrypting INTRODUCE2 body failed", err)
	}

	rendCookie, extend, clientDH, err := parseIntroduce2Body(plain)
	if err != nil {
		return nil, circuit.ExtendInfo{}, err
	}

	kp, err := circuit.GenerateDHKeyPair(rand.Reader)
	if err != nil {
		return nil, circuit.ExtendInfo{}, err
	}
	shared, err := kp.SharedSecret(clientDH)
	if err != nil {
		return nil, circuit.ExtendInfo{}, err
	}
	handshake := deriveHandshakeState(rendCookie, shared)

	c := circuit.NewConnectRend(nextCircuitID(), now.Add(circuit.IntroRetryPeriod), rendCookie, "", "", handshake)
	c.SetRendKeyMaterial(handshake, kp.Public[:])
	return c, extend, nil
}

// The version field occupies introDigestLen bytes (the actual version tag
// lives in its first byte, the rest reserved) so that rendCookie lands at
// plain[introDigestLen : introDigestLen+rendCookieLen], matching the fixed
// offset used throughout this cell family.
func parseIntroduce2Body(plain []byte) (rendCookie []byte, extend circuit.ExtendInfo, dh []byte, err error) {
	if len(plain) < introDigestLen+rendCookieLen {
		return nil, circuit.ExtendInfo{}, nil, liberr.New(liberr.KindProtocol, "INTRODUCE2 body shorter than version+cookie fields")
	}
	version := plain[0]
	rendCookie = append([]byte(nil), plain[introDigestLen:introDigestLen+rendCookieLen]...)
	rest := plain[introDigestLen+rendCookieLen:]

	switch version {
	case introduceVersionExtend:
		if len(rest) < 1 {
			return nil, circuit.ExtendInfo{}, nil, liberr.New(liberr.KindProtocol, "INTRODUCE2 extend-info form missing digest length")
		}
		digestLen := int(rest[0])
		rest = rest[1:]
		if len(rest) < digestLen {
			return nil, circuit.ExtendInfo{}, nil, liberr.New(liberr.KindProtocol, "INTRODUCE2 extend-info form truncated before identity digest")
		}
		extend.IdentityDigest = string(enchex.New().Encode(rest[:digestLen]))
		rest = rest[digestLen:]
	case introduceVersionPlain:
		// no identity digest carried.
	default:
		return nil, circuit.ExtendInfo{}, nil, liberr.New(liberr.KindProtocol, "unrecognized INTRODUCE2 rendezvous-address version")
	}

	if len(rest) < 1 {
		return nil, circuit.ExtendInfo{}, nil, liberr.New(liberr.KindProtocol, "INTRODUCE2 body missing address length")
	}
	addrLen := int(rest[0])
	rest = rest[1:]
	if len(rest) < addrLen+2 {
		return nil, circuit.ExtendInfo{}, nil, liberr.New(liberr.KindProtocol, "INTRODUCE2 body truncated before port field")
	}
	extend.Address = string(rest[:addrLen])
	rest = rest[addrLen:]
	extend.Port = int(binary.BigEndian.Uint16(rest[:2]))
	dh = append([]byte(nil), rest[2:]...)

	return rendCookie, extend, dh, nil
}

// deriveHandshakeState folds the rendezvous cookie and the X25519 shared
// secret into the key material attached to the rendezvous circuit until
// RENDEZVOUS1 is sent. A real key-derivation function (KDF-TOR or HKDF)
// would replace this digest in a transport-grade build; SHA-1 here matches
// the digest primitive already used throughout this module's descriptor and
// ESTABLISH_INTRO signing.
func deriveHandshakeState(rendCookie, shared []byte) []byte {
	h := sha1.New()
	h.Write(rendCookie)
	h.Write(shared)
	return h.Sum(nil)
}
