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

package transport

import (
	"sync"

	liberr "github.com/nabbar/torrelay/errors"
)

// MemoryLink is an in-process Link backed by a byte queue, standing in for
// the real TLS transport in tests that exercise circuit/runtime code against
// this package's interface without a network.
type MemoryLink struct {
	mu       sync.Mutex
	inbound  []byte
	outbound []byte
	pending  int
	closed   bool
	reason   CloseReason
}

// NewMemoryLink returns an empty MemoryLink.
func NewMemoryLink() *MemoryLink {
	return &MemoryLink{}
}

// Feed appends bytes as if received from the peer, and counts them as
// pending until Read drains them — modeling a TLS record already decrypted
// but not yet delivered.
func (m *MemoryLink) Feed(p []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inbound = append(m.inbound, p...)
	m.pending = len(m.inbound)
}

// Read drains up to len(p) bytes queued by Feed. Returns (0, nil) when
// empty, following the non-blocking convention rather than io.EOF.
func (m *MemoryLink) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, liberr.New(liberr.KindIoError, "read on closed link")
	}
	if len(m.inbound) == 0 {
		return 0, nil
	}

	n := copy(p, m.inbound)
	m.inbound = m.inbound[n:]
	m.pending = len(m.inbound)
	return n, nil
}

// Write appends p to the outbound record, retrievable via Written.
func (m *MemoryLink) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, liberr.New(liberr.KindIoError, "write on closed link")
	}
	m.outbound = append(m.outbound, p...)
	return len(p), nil
}

// Written returns a copy of everything written so far.
func (m *MemoryLink) Written() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]byte, len(m.outbound))
	copy(out, m.outbound)
	return out
}

// PendingBytes reports bytes fed but not yet Read.
func (m *MemoryLink) PendingBytes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}

// Close marks the link closed and records reason.
func (m *MemoryLink) Close(reason CloseReason) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.reason = reason
	return nil
}

// Closed reports whether Close has been called, and with what reason.
func (m *MemoryLink) Closed() (bool, CloseReason) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed, m.reason
}
