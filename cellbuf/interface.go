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

// Package cellbuf implements the fixed-size-cell buffering and framing
// layer: a growable ring buffer with a shared per-size freelist, plus the
// protocol-aware parse primitives (SOCKS, HTTP, line) that operate directly
// on it.
package cellbuf

import (
	"net"
)

const (
	// DefaultCapacity is the capacity a Buffer is created with.
	DefaultCapacity = 4 * 1024

	// MaxCapacity is the hard ceiling a Buffer's capacity never exceeds;
	// growth past it fails with errors.KindTooLarge.
	MaxCapacity = 1 << 20

	// shrinkThresholdDivisor: a Buffer shrinks when its high-watermark falls
	// below Cap()/shrinkThresholdDivisor.
	shrinkThresholdDivisor = 4
)

// PendingBytesSource exposes a TLS-like transport's internal pending-bytes
// side channel: the component queries it as a separate input from socket
// readability, since the transport's own buffering means "no socket-level
// readability" does not imply "no data to consume".
type PendingBytesSource interface {
	PendingBytes() int
}

// Socket is the minimal byte-stream contract cellbuf reads from and flushes
// to: an opaque transport (plain TCP or the bottom-half TLS transport),
// never touched beyond Read/Write.
type Socket interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
}

// isWouldBlock reports whether err represents a non-blocking "try again"
// condition rather than a genuine I/O fault.
func isWouldBlock(err error) bool {
	if err == nil {
		return false
	}
	if ne, ok := err.(net.Error); ok {
		return ne.Timeout()
	}
	return false
}
