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

// Package errors provides the relay's error kind hierarchy: a small, closed
// set of fault classes with parent-chaining and stack-trace capture, rather
// than an open-ended numeric error-code registry.
package errors

// Kind classifies a fault along the lines the rest of the runtime reacts to:
// local-vs-remote, transient-vs-fatal, retryable-vs-not.
type Kind uint8

const (
	// KindNone is the zero value; never returned by a constructor.
	KindNone Kind = iota

	// KindIoError covers local I/O faults: disk, socket, pipe.
	KindIoError

	// KindIncomplete means the operation needs more input before it can
	// make progress; not a fault, a continuation signal.
	KindIncomplete

	// KindTooLarge means the input exceeds a hard size ceiling.
	KindTooLarge

	// KindProtocol covers malformed or out-of-sequence wire data from a peer.
	KindProtocol

	// KindNoService means a lookup against a configured hidden service,
	// intro point, or circuit purpose found nothing.
	KindNoService

	// KindCrypto covers signature, digest, or key-material failures.
	KindCrypto

	// KindConnectFailed covers failed outbound connection attempts.
	KindConnectFailed
)

func (k Kind) String() string {
	switch k {
	case KindIoError:
		return "io_error"
	case KindIncomplete:
		return "incomplete"
	case KindTooLarge:
		return "too_large"
	case KindProtocol:
		return "protocol"
	case KindNoService:
		return "no_service"
	case KindCrypto:
		return "crypto"
	case KindConnectFailed:
		return "connect_failed"
	default:
		return "none"
	}
}

// FuncMap is called for each error in a hierarchy during Map; returning false
// stops the walk early.
type FuncMap func(e Error) bool

// Error is a faulted operation result carrying a Kind, an optional message,
// an optional chain of causing errors, and the call site that raised it.
//
// Error satisfies the standard library's errors.Is/errors.As via Unwrap,
// and additionally exposes Kind-based matching through Is and HasKind.
type Error interface {
	error

	// Kind returns the fault class of this error.
	Kind() Kind

	// HasKind reports whether this error, or any error in its parent chain,
	// carries the given Kind.
	HasKind(k Kind) bool

	// Is reports whether err itself is an Error of the same Kind; err's own
	// parent chain is not walked. Satisfies errors.Is's optional
	// Is(error) bool contract.
	Is(err error) bool

	// Add appends one or more causing errors to this error's parent chain.
	// Nil errors are ignored.
	Add(parent ...error)

	// Unwrap exposes the parent chain for errors.Is/errors.As (Go 1.20+
	// multi-error Unwrap() []error form).
	Unwrap() []error

	// Trace returns "file:line" for the call site that constructed this
	// error, or "" if no trace was captured.
	Trace() string

	// Map walks this error and its parent chain depth-first, calling fct
	// for each node until fct returns false or the chain is exhausted.
	Map(fct FuncMap) bool
}

// New builds an Error of the given Kind with the given message, used as is,
// and an optional list of causing errors.
func New(k Kind, message string, parent ...error) Error {
	e := &ers{
		k: k,
		m: message,
		t: trace(2),
	}
	e.Add(parent...)
	return e
}

// Wrap builds an Error of the given Kind that wraps cause, reusing cause's
// message when message is empty.
func Wrap(k Kind, cause error, message string) Error {
	if message == "" && cause != nil {
		message = cause.Error()
	}
	e := &ers{
		k: k,
		m: message,
		t: trace(2),
	}
	e.Add(cause)
	return e
}
