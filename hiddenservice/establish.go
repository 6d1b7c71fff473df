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
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/binary"

	liberr "github.com/nabbar/torrelay/errors"
)

const establishIntroLabel = "INTRODUCE"

// BuildEstablishIntroPayload assembles the body of a RELAY_ESTABLISH_INTRO
// cell (spec.md §4.2 "ESTABLISH_INTRO payload construction"):
//
//	uint16 keylen; DER(public_key); Digest(handshake_digest_of_penultimate_hop || "INTRODUCE"); Signature(...)
//
// signingKey is the intro point's own key (the service key for descriptor
// version 0, the per-intro-point key for version 2).
func BuildEstablishIntroPayload(signingKey *rsa.PrivateKey, penultimateHopDigest []byte) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(&signingKey.PublicKey)
	if err != nil {
		return nil, liberr.New(liberr.KindCrypto, "marshaling intro-point public key failed", err)
	}

	h := sha1.New()
	h.Write(penultimateHopDigest)
	h.Write([]byte(establishIntroLabel))
	digest := h.Sum(nil)

	sig, err := rsa.SignPKCS1v15(rand.Reader, signingKey, crypto.SHA1, digest)
	if err != nil {
		return nil, liberr.New(liberr.KindCrypto, "signing ESTABLISH_INTRO payload failed", err)
	}

	out := make([]byte, 0, 2+len(der)+len(digest)+len(sig))
	var keylen [2]byte
	binary.BigEndian.PutUint16(keylen[:], uint16(len(der)))
	out = append(out, keylen[:]...)
	out = append(out, der...)
	out = append(out, digest...)
	out = append(out, sig...)
	return out, nil
}

// VerifyEstablishIntroPayload re-derives the digest from penultimateHopDigest
// and checks the trailing signature against the embedded public key,
// returning the embedded key on success.
func VerifyEstablishIntroPayload(payload []byte, penultimateHopDigest []byte) (*rsa.PublicKey, error) {
	if len(payload) < 2 {
		return nil, liberr.New(liberr.KindProtocol, "ESTABLISH_INTRO payload shorter than key-length field")
	}
	keylen := int(binary.BigEndian.Uint16(payload[:2]))
	rest := payload[2:]
	if len(rest) < keylen+sha1.Size {
		return nil, liberr.New(liberr.KindProtocol, "ESTABLISH_INTRO payload truncated before signature")
	}

	der := rest[:keylen]
	digest := rest[keylen : keylen+sha1.Size]
	sig := rest[keylen+sha1.Size:]

	pub, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, liberr.New(liberr.KindProtocol, "parsing ESTABLISH_INTRO public key failed", err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, liberr.New(liberr.KindProtocol, "ESTABLISH_INTRO public key is not RSA")
	}

	h := sha1.New()
	h.Write(penultimateHopDigest)
	h.Write([]byte(establishIntroLabel))
	want := h.Sum(nil)
	if string(want) != string(digest) {
		return nil, liberr.New(liberr.KindProtocol, "ESTABLISH_INTRO digest mismatch")
	}

	if err := rsa.VerifyPKCS1v15(rsaPub, crypto.SHA1, digest, sig); err != nil {
		return nil, liberr.New(liberr.KindProtocol, "ESTABLISH_INTRO signature verification failed", err)
	}
	return rsaPub, nil
}
