/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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

// Package startStop provides a generic start/stop/restart lifecycle wrapper
// around a pair of caller-supplied functions, tracking running state, uptime,
// and the errors the functions raise.
package startStop

import (
	"context"
	"time"
)

// FuncStart is launched in its own goroutine by Start. It should block until
// ctx is cancelled, returning the fault (if any) that ended it.
type FuncStart func(ctx context.Context) error

// FuncStop is called synchronously by Stop to tear down whatever FuncStart
// set up.
type FuncStop func(ctx context.Context) error

// StartStop manages the lifecycle of one background goroutine defined by a
// start/stop function pair.
type StartStop interface {
	// Start launches the start function in a new goroutine, first stopping
	// any instance already running. Returns immediately; errors raised by
	// the start function are captured and retrievable via ErrorsLast/ErrorsList.
	Start(ctx context.Context) error

	// Stop calls the stop function and waits for the running goroutine to
	// end. Safe to call when not running.
	Stop(ctx context.Context) error

	// Restart stops then starts the runner.
	Restart(ctx context.Context) error

	// IsRunning reports whether the start function is currently executing.
	IsRunning() bool

	// Uptime returns how long the runner has been running, or zero when
	// stopped.
	Uptime() time.Duration

	// ErrorsLast returns the most recently captured error, or nil.
	ErrorsLast() error

	// ErrorsList returns every error captured since the last Start.
	ErrorsList() []error
}

// New returns a StartStop wrapping the given start/stop function pair. Either
// may be nil; calling Start/Stop will then record an "invalid start/stop
// function" error instead of panicking.
func New(start FuncStart, stop FuncStop) StartStop {
	return &runner{
		fctStart: start,
		fctStop:  stop,
	}
}
