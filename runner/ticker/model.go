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

package ticker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	errpool "github.com/nabbar/torrelay/errors/pool"
)

type tck struct {
	mu sync.Mutex

	dur time.Duration
	fct FuncTick

	running atomic.Bool
	since   atomic.Value // time.Time
	cancel  atomic.Value // context.CancelFunc
	done    atomic.Value // chan struct{}

	errs atomic.Value // errpool.Pool
}

func (o *tck) pool() errpool.Pool {
	if p, ok := o.errs.Load().(errpool.Pool); ok && p != nil {
		return p
	}
	p := errpool.New()
	o.errs.Store(p)
	return p
}

// Start implements Ticker.Start.
func (o *tck) Start(ctx context.Context) (err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid context: %v", r)
		}
	}()

	if ctx == nil {
		return fmt.Errorf("invalid context: nil")
	}

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

	go o.run(cctx, done, p)

	return nil
}

func (o *tck) run(ctx context.Context, done chan struct{}, p errpool.Pool) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			p.Add(fmt.Errorf("recovered panic in tick function: %v", r))
		}
		o.running.Store(false)
		o.since.Store(time.Time{})
	}()

	tk := time.NewTicker(o.dur)
	defer tk.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
			o.fire(ctx, tk, p)
		}
	}
}

func (o *tck) fire(ctx context.Context, tk *time.Ticker, p errpool.Pool) {
	defer func() {
		if r := recover(); r != nil {
			p.Add(fmt.Errorf("recovered panic in tick function: %v", r))
		}
	}()

	if o.fct == nil {
		p.Add(fmt.Errorf("invalid function: nil"))
		return
	}

	if e := o.fct(ctx, tk); e != nil {
		p.Add(e)
	}
}

// Stop implements Ticker.Stop.
func (o *tck) Stop(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.stopLocked(ctx)
	return nil
}

func (o *tck) stopLocked(_ context.Context) {
	if !o.running.Load() {
		return
	}

	if c, ok := o.cancel.Load().(context.CancelFunc); ok && c != nil {
		c()
	}

	if d, ok := o.done.Load().(chan struct{}); ok && d != nil {
		select {
		case <-d:
		case <-time.After(5 * time.Second):
		}
	}

	o.running.Store(false)
	o.since.Store(time.Time{})
}

// Restart implements Ticker.Restart.
func (o *tck) Restart(ctx context.Context) error {
	o.mu.Lock()
	o.stopLocked(ctx)
	o.mu.Unlock()

	return o.Start(ctx)
}

// IsRunning implements Ticker.IsRunning.
func (o *tck) IsRunning() bool {
	return o.running.Load()
}

// Uptime implements Ticker.Uptime.
func (o *tck) Uptime() time.Duration {
	if !o.running.Load() {
		return 0
	}

	t, ok := o.since.Load().(time.Time)
	if !ok || t.IsZero() {
		return 0
	}

	return time.Since(t)
}

// ErrorsLast implements Ticker.ErrorsLast.
func (o *tck) ErrorsLast() error {
	return o.pool().Last()
}

// ErrorsList implements Ticker.ErrorsList.
func (o *tck) ErrorsList() []error {
	return o.pool().Slice()
}
