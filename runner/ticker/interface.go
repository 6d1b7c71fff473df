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

// Package ticker provides a generic, restartable periodic-execution runner
// built on top of time.Ticker, collecting the errors each invocation raises
// without interrupting the schedule.
package ticker

import (
	"context"
	"time"
)

// defaultDuration is used whenever the caller supplies a non-positive or
// sub-millisecond tick interval.
const defaultDuration = 30 * time.Second

// FuncTick is invoked on every tick. It receives the running context and the
// underlying *time.Ticker (so it may Reset it) and returns an error, which is
// captured but does not stop the ticker.
type FuncTick func(ctx context.Context, tck *time.Ticker) error

// Ticker runs FuncTick on a fixed schedule until stopped or its context ends.
type Ticker interface {
	// Start launches the ticking loop in a new goroutine, stopping any
	// previous instance first.
	Start(ctx context.Context) error

	// Stop ends the ticking loop and waits for it to finish.
	Stop(ctx context.Context) error

	// Restart stops then starts the ticker.
	Restart(ctx context.Context) error

	// IsRunning reports whether the ticking loop is active.
	IsRunning() bool

	// Uptime returns how long the ticker has been running, or zero when
	// stopped.
	Uptime() time.Duration

	// ErrorsLast returns the most recent error raised by FuncTick.
	ErrorsLast() error

	// ErrorsList returns every error raised by FuncTick since the last
	// Start/Restart.
	ErrorsList() []error
}

// New returns a Ticker invoking fct every d. A non-positive or
// sub-millisecond d falls back to defaultDuration. A nil fct causes every
// tick to record an "invalid function" error without panicking.
func New(d time.Duration, fct FuncTick) Ticker {
	if d < time.Millisecond {
		d = defaultDuration
	}

	return &tck{
		dur: d,
		fct: fct,
	}
}
