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

package identity

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"strings"

	liberr "github.com/nabbar/torrelay/errors"
)

const signatureMarker = "router-signature\n"

// AssembleDescriptor renders ri and the onion/signing public keys into the
// UTF-8 descriptor text format of spec.md §6, then signs it with idKey: the
// SHA-1 digest of the canonical text up to and including
// "router-signature\n" is RSA-signed, and the base64 signature is appended
// in its PEM-like wrapper.
func AssembleDescriptor(ri RouterInfo, onionKey, signingKey *rsa.PublicKey, idKey *rsa.PrivateKey) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "router %s %s %d 0 %d\n", ri.Nickname, ri.Address, ri.ORPort, ri.DirPort)
	fmt.Fprintf(&b, "%s\n", ri.Platform)
	fmt.Fprintf(&b, "published %s\n", ri.Published.UTC().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "opt fingerprint %s\n", ri.Fingerprint)
	fmt.Fprintf(&b, "opt uptime %d\n", int64(ri.Uptime.Seconds()))
	fmt.Fprintf(&b, "bandwidth %d %d %d\n", ri.BWRate, ri.BWBurst, ri.BWCapacity)

	b.WriteString("onion-key\n")
	if err := writePublicKeyPEM(&b, onionKey); err != nil {
		return "", err
	}
	b.WriteString("signing-key\n")
	if err := writePublicKeyPEM(&b, signingKey); err != nil {
		return "", err
	}

	if len(ri.Family) > 0 {
		fmt.Fprintf(&b, "opt family %s\n", strings.Join(ri.Family, " "))
	}
	if ri.HistoryLine != "" {
		b.WriteString(ri.HistoryLine)
		if !strings.HasSuffix(ri.HistoryLine, "\n") {
			b.WriteString("\n")
		}
	}
	if ri.Contact != "" {
		fmt.Fprintf(&b, "opt contact %s\n", ri.Contact)
	}
	for _, rule := range ri.ExitPolicy {
		fmt.Fprintf(&b, "%s\n", rule)
	}

	b.WriteString(signatureMarker)

	sig, err := signDescriptor(b.String(), idKey)
	if err != nil {
		return "", err
	}

	b.WriteString("-----BEGIN SIGNATURE-----\n")
	b.WriteString(sig)
	b.WriteString("\n-----END SIGNATURE-----\n")

	return b.String(), nil
}

// signDescriptor signs the SHA-1 digest of text (which must already end in
// "router-signature\n") with idKey, returning the base64 signature.
func signDescriptor(text string, idKey *rsa.PrivateKey) (string, error) {
	if !strings.HasSuffix(text, signatureMarker) {
		return "", liberr.New(liberr.KindProtocol, "descriptor text does not end at router-signature")
	}

	digest := sha1.Sum([]byte(text))
	sig, err := rsa.SignPKCS1v15(rand.Reader, idKey, crypto.SHA1, digest[:])
	if err != nil {
		return "", liberr.New(liberr.KindCrypto, "signing router descriptor failed", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// VerifyDescriptorSignature re-derives the digest over the portion of text
// ending at "router-signature\n" and checks sig (base64) against idPub.
func VerifyDescriptorSignature(text string, idPub *rsa.PublicKey) error {
	idx := strings.Index(text, signatureMarker)
	if idx < 0 {
		return liberr.New(liberr.KindProtocol, "descriptor has no router-signature marker")
	}
	signed := text[:idx+len(signatureMarker)]

	sigStart := strings.Index(text, "-----BEGIN SIGNATURE-----\n")
	sigEnd := strings.Index(text, "\n-----END SIGNATURE-----")
	if sigStart < 0 || sigEnd < 0 || sigEnd <= sigStart {
		return liberr.New(liberr.KindProtocol, "descriptor has no signature block")
	}
	b64 := text[sigStart+len("-----BEGIN SIGNATURE-----\n") : sigEnd]

	sig, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return liberr.New(liberr.KindProtocol, "descriptor signature is not valid base64", err)
	}

	digest := sha1.Sum([]byte(signed))
	if err = rsa.VerifyPKCS1v15(idPub, crypto.SHA1, digest[:], sig); err != nil {
		return liberr.New(liberr.KindCrypto, "descriptor signature verification failed", err)
	}
	return nil
}

func writePublicKeyPEM(b *strings.Builder, pub *rsa.PublicKey) error {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return liberr.New(liberr.KindCrypto, "marshaling public key failed", err)
	}
	var out bytes.Buffer
	if err = pem.Encode(&out, &pem.Block{Type: "RSA PUBLIC KEY", Bytes: der}); err != nil {
		return liberr.New(liberr.KindCrypto, "encoding public key PEM failed", err)
	}
	b.Write(out.Bytes())
	return nil
}
