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

// Package identity holds the router's long-term identity key and its
// rotating onion key pair, and assembles the signed router descriptor.
package identity

import (
	"crypto/rsa"
	"time"
)

// KeyBits is the RSA modulus size used for both the identity key and the
// onion key.
const KeyBits = 2048

// Key filenames under the process key directory (spec.md §6).
const (
	FileSecretIdentity  = "secret_id_key"
	FileSecretOnion     = "secret_onion_key"
	FileSecretOnionOld  = "secret_onion_key.old"
	FileRouterDescessor = "router.desc"
	FileFingerprint     = "fingerprint"
)

// Legacy key filenames renamed to the names above on first run (spec.md §6).
const (
	LegacyIdentity = "identity.key"
	LegacyOnion    = "onion.key"
)

// KeyPair is a snapshot of the onion key pair: the key currently advertised
// and decrypted with, and the key it replaced, still accepted for in-flight
// handshakes encrypted under it.
type KeyPair struct {
	Current  *rsa.PrivateKey
	Previous *rsa.PrivateKey
	SetAt    time.Time
}

// RouterInfo is the in-memory form of the assembled descriptor (spec.md §6
// "The same routerinfo structure is also returned in memory for internal
// use.").
type RouterInfo struct {
	Nickname    string
	Address     string
	ORPort      int
	DirPort     int
	Platform    string
	Published   time.Time
	Fingerprint string
	Uptime      time.Duration
	BWRate      uint64
	BWBurst     uint64
	BWCapacity  uint64
	Family      []string
	Contact     string
	ExitPolicy  []string
	HistoryLine string
}
