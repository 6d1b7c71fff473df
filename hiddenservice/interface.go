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

// Package hiddenservice implements the hidden-service introduction and
// rendezvous engine: the service-side state machine that maintains a pool of
// introduction-point circuits, answers INTRODUCE2 cells with rendezvous
// circuits, and keeps the published service descriptor current.
//
// Picking candidate relays and confirming a relay still exists is the
// out-of-scope "consensus/routing" collaborator, fixed here only as the
// RoutingOracle interface. Posting a descriptor to a directory is the
// out-of-scope "directory protocol" collaborator, fixed as Publisher.
// Unwrapping the hybrid-encrypted INTRODUCE2 body is the out-of-scope
// "low-level cryptographic primitives" collaborator, fixed as Decrypter.
package hiddenservice

import (
	"crypto/rsa"
	"sync"
	"time"

	"github.com/nabbar/torrelay/circuit"
	"github.com/nabbar/torrelay/hiddenservice/config"
)

// Tunables (spec.md §4.2 Hidden-service engine).
const (
	NumIntroPoints       = 3
	MaxLaunchesPerPeriod = circuit.MaxIntroCircsPerPeriod
	RetryPeriod          = circuit.IntroRetryPeriod
	RendPostPeriod       = time.Hour
	DirtyGracePeriod     = 30 * time.Second
)

// RoutingOracle picks candidate relays for introduction/rendezvous circuits
// and reports whether a relay identity is still known to the consensus.
type RoutingOracle interface {
	PickRelay(exclude map[string]bool) (circuit.ExtendInfo, bool)
	RelayExists(identityDigest string) bool
}

// Publisher posts an assembled descriptor to one destination (a directory
// authority for v0, a consensus-selected hidden-service directory for v2).
type Publisher interface {
	Publish(dest string, descriptor string) error
}

// Decrypter unwraps the hybrid-encrypted body of an INTRODUCE2 cell with the
// private key belonging to the introduction point it targets.
type Decrypter interface {
	Decrypt(ciphertext []byte) ([]byte, error)
}

// IntroPoint is a live (or being-established) introduction point: the relay
// it runs through, its own ESTABLISH_INTRO circuit, and — for descriptor
// version 2 — a per-intro-point key distinct from the service's long-term
// key (spec.md §3 Data Model "Intro point").
type IntroPoint struct {
	Extend     circuit.ExtendInfo
	Key        *rsa.PublicKey
	PrivateKey *rsa.PrivateKey
	Circuit    *circuit.Circuit
}

// ServiceDescriptor is the published summary of a service's current
// introduction points (spec.md §3 Data Model "Service descriptor").
type ServiceDescriptor struct {
	PublicKey   *rsa.PublicKey
	Timestamp   time.Time
	Version     int
	IntroPoints []IntroPoint
}

// Service is one hidden service: its on-disk key material, its configured
// port mappings and node preferences, and its mutable runtime state (intro
// point pool, period bookkeeping, current descriptor, upload schedule).
type Service struct {
	Dir               string
	Ports             []config.PortMapping
	NodesPrefer       []string
	NodesExclude      []string
	Key               *rsa.PrivateKey
	ServiceID         string
	KeyDigest         string
	DescriptorVersion int

	// PostPeriod overrides RendPostPeriod when non-zero (HiddenServicePostPeriod
	// config directive).
	PostPeriod time.Duration

	mu            sync.Mutex
	introPoints   []*IntroPoint
	periodStarted time.Time
	launchCount   int
	descriptor    *ServiceDescriptor
	dirtySince    time.Time
	nextUpload    time.Time
}
