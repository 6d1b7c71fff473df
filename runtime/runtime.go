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

// Package runtime is the single explicit aggregate replacing the source
// implementation's process-wide globals (spec.md §9 Design Notes): the
// reputation state, the hidden-service list, and the router's onion key
// pair, wired to the periodic tasks that act on them.
package runtime

import (
	"context"
	"sync"
	"time"

	liberr "github.com/nabbar/torrelay/errors"
	"github.com/nabbar/torrelay/hiddenservice"
	"github.com/nabbar/torrelay/identity"
	"github.com/nabbar/torrelay/logger"
	loglvl "github.com/nabbar/torrelay/logger/level"
	"github.com/nabbar/torrelay/reputation"
)

// Runtime is the process-wide context a relay or onion-service process
// owns: one reputation.Runtime, the configured hidden services, the
// router's onion key pair, and the logger every periodic task reports
// through. Nothing outside this struct should hold package-level mutable
// relay state.
type Runtime struct {
	Reputation *reputation.Runtime
	OnionKeys  *identity.OnionKeys
	Logger     logger.Logger

	mu       sync.RWMutex
	services []*hiddenservice.Service
}

// New builds a Runtime from its constituent parts, attaching a logger
// derived from ctx. Every scheduled task logs through r.Logger: local
// faults (KindIoError, KindCrypto) at warn level, remote/protocol faults
// (KindNoService, KindProtocol, KindConnectFailed) at info level, per
// §7 Error Handling Design's severity split.
func New(ctx context.Context, rep *reputation.Runtime, keys *identity.OnionKeys) *Runtime {
	return &Runtime{Reputation: rep, OnionKeys: keys, Logger: logger.New(ctx)}
}

// logFault reports err at the severity its Kind implies, a no-op when err
// is nil or no logger is attached.
func (r *Runtime) logFault(message string, err error) {
	if err == nil || r.Logger == nil {
		return
	}

	lvl := loglvl.WarnLevel
	if le, ok := err.(liberr.Error); ok {
		switch le.Kind() {
		case liberr.KindNoService, liberr.KindProtocol, liberr.KindConnectFailed:
			lvl = loglvl.InfoLevel
		}
	}

	r.Logger.LogDetails(lvl, message, nil, []error{err}, nil)
}

// AddService registers a hidden service with the runtime.
func (r *Runtime) AddService(svc *hiddenservice.Service) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services = append(r.services, svc)
}

// Services returns a snapshot of the registered hidden services.
func (r *Runtime) Services() []*hiddenservice.Service {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*hiddenservice.Service, len(r.services))
	copy(out, r.services)
	return out
}

// IntroduceAll runs one introduce() tick (spec.md §4.2) against every
// registered service. A fault on one service is logged and does not stop
// the remaining services from being ticked.
func (r *Runtime) IntroduceAll(now time.Time, oracle hiddenservice.RoutingOracle, nextCircuitID func() uint64) error {
	var last error
	for _, svc := range r.Services() {
		if err := svc.Introduce(now, oracle, nextCircuitID); err != nil {
			r.logFault("introduce() tick failed for hidden service "+svc.ServiceID, err)
			last = err
		}
	}
	return last
}
