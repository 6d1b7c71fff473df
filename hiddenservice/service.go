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
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/base32"
	"strings"

	enchex "github.com/nabbar/torrelay/encoding/hexa"
	liberr "github.com/nabbar/torrelay/errors"
	"github.com/nabbar/torrelay/hiddenservice/config"
)

// NewService builds a Service from a parsed configuration block and its
// long-term key. descriptorVersion is 0 or 2; a block configured for both
// versions (spec.md §4.2 "if configured for both, fork one logical service
// per version") is represented by calling NewService twice, once per
// version, sharing the same key and port configuration but accumulating
// independent intro points.
func NewService(block config.ServiceBlock, key *rsa.PrivateKey, descriptorVersion int) (*Service, error) {
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, liberr.New(liberr.KindCrypto, "marshaling service public key failed", err)
	}
	digest := sha1.Sum(der)

	svc := &Service{
		Dir:               block.Dir,
		Ports:             block.Ports,
		NodesPrefer:       block.NodesPrefer,
		NodesExclude:      block.NodesExclude,
		Key:               key,
		ServiceID:         serviceID(digest[:]),
		KeyDigest:         string(enchex.New().Encode(digest[:])),
		DescriptorVersion: descriptorVersion,
		PostPeriod:        block.PostPeriod,
	}
	return svc, nil
}

// serviceID is the service's onion-address stem: the base32 encoding,
// lowercased and with padding stripped, of the first ten bytes of the
// SHA-1 digest of the DER-encoded public key (spec.md §3 Data Model
// "Hidden service ... service identifier").
func serviceID(digest []byte) string {
	enc := base32.StdEncoding.EncodeToString(digest[:10])
	return strings.ToLower(strings.TrimRight(enc, "="))
}

// IntroPoints returns a snapshot of the service's current intro point pool.
func (s *Service) IntroPoints() []*IntroPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*IntroPoint, len(s.introPoints))
	copy(out, s.introPoints)
	return out
}

// Descriptor returns the service's current descriptor, or nil if none has
// been assembled yet.
func (s *Service) Descriptor() *ServiceDescriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.descriptor
}

// LaunchCount returns the number of ESTABLISH_INTRO circuits launched so
// far in the current retry period.
func (s *Service) LaunchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.launchCount
}
