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

package startStop

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	errpool "github.com/nabbar/torrelay/errors/pool"
)

type runner struct {
	mu sync.Mutex

	fctStart FuncStart
	fctStop  FuncStop

	running atomic.Bool
	since   atomic.Value // time.Time
	cancel  atomic.Value // context.CancelFunc
	done    atomic.Value // chan struct{}

	errs atomic.Value // errpool.Pool
}

func (o *runner) pool() errpool.Pool {
	if p, ok := o.errs.Load().(errpool.Pool); ok && p != nil {
		return p
	}
	p := errpool.New()
	o.errs.Store(p)
	return p
}

// Start implements StartStop.Start.
func (o *runner) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running.Load() {
		o.stopLocked(ctx)
	}

	p := errpool.New()
	o.errs.Store(p)

	cctx, cancel := context.WithCancel(ctx)
	o.cancel.Store(cancel)

	done := make(chan struct{})
	o.done.Store(done)

	o.since.Store(time.Now())
	o.running.Store(true)

	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				p.Add(fmt.Errorf("recovered panic in start function: %v", r))
			}
			o.running.Store(false)
			o.since.Store(time.Time{})
		}()

		if o.fctStart == nil {
			p.Add(fmt.Errorf("invalid start function: nil"))
			return
		}

		if e := o.fctStart(cctx); e != nil {
			p.Add(e)
		}
	}()

	return nil
}

// Stop implements StartStop.Stop.
func (o *runner) Stop(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.stopLocked(ctx)
	return nil
}

func (o *runner) stopLocked(ctx context.Context) {
	if !o.running.Load() {
		return
	}

	if c, ok := o.cancel.Load().(context.CancelFunc); ok && c != nil {
		c()
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				o.pool().Add(fmt.Errorf("recovered panic in stop function: %v", r))
			}
		}()

		if o.fctStop == nil {
			o.pool().Add(fmt.Errorf("invalid stop function: nil"))
		} else if e := o.fctStop(ctx); e != nil {
			o.pool().Add(e)
		}
	}()

	if d, ok := o.done.Load().(chan struct{}); ok && d != nil {
		select {
		case <-d:
		case <-time.After(5 * time.Second):
		}
	}

	o.running.Store(false)
	o.since.Store(time.Time{})
}

// Restart implements StartStop.Restart.
func (o *runner) Restart(ctx context.Context) error {
	o.mu.Lock()
	o.stopLocked(ctx)
	o.mu.Unlock()

	return o.Start(ctx)
}

// IsRunning implements StartStop.IsRunning.
func (o *runner) IsRunning() bool {
	return o.running.Load()
}

// Uptime implements StartStop.Uptime.
func (o *runner) Uptime() time.Duration {
	if !o.running.Load() {
		return 0
	}

	t, ok := o.since.Load().(time.Time)
	if !ok || t.IsZero() {
		return 0
	}

	return time.Since(t)
}

// ErrorsLast implements StartStop.ErrorsLast.
func (o *runner) ErrorsLast() error {
	return o.pool().Last()
}

// ErrorsList implements StartStop.ErrorsList.
func (o *runner) ErrorsList() []error {
	return o.pool().Slice()
}
