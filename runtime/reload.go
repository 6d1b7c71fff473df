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

package runtime

import (
	"os"

	"github.com/fsnotify/fsnotify"

	liberr "github.com/nabbar/torrelay/errors"
	"github.com/nabbar/torrelay/hiddenservice"
	"github.com/nabbar/torrelay/hiddenservice/config"
)

// ReplaceServices atomically swaps the entire registered hidden-service list.
// Used by WatchConfig to apply a hot-reloaded configuration wholesale, per
// spec.md §5 Shared resources ("hot reload replaces the service list
// wholesale"): existing services (and their live intro/rendezvous circuits)
// are not merged or diffed against the new list.
func (r *Runtime) ReplaceServices(services []*hiddenservice.Service) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services = services
}

// WatchConfig watches the hidden-service configuration file at path and, on
// every write or create event, re-parses it and calls build with the
// resulting blocks to construct a fresh service list, replacing the
// runtime's current one wholesale. The returned watcher's lifetime is the
// caller's to manage; closing it stops the watch goroutine.
func (r *Runtime) WatchConfig(path string, build func([]config.ServiceBlock) ([]*hiddenservice.Service, error)) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, liberr.New(liberr.KindIoError, "creating hidden-service config watcher failed", err)
	}
	if err = w.Add(path); err != nil {
		_ = w.Close()
		return nil, liberr.New(liberr.KindIoError, "watching hidden-service config path failed", err)
	}

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				r.reloadConfig(path, build)
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return w, nil
}

func (r *Runtime) reloadConfig(path string, build func([]config.ServiceBlock) ([]*hiddenservice.Service, error)) {
	f, err := os.Open(path)
	if err != nil {
		r.logFault("reopening hidden-service config for hot reload failed", liberr.New(liberr.KindIoError, "reopening hidden-service config for hot reload failed", err))
		return
	}
	defer func() { _ = f.Close() }()

	blocks, err := config.Parse(f)
	if err != nil {
		r.logFault("reparsing hidden-service config during hot reload failed", err)
		return
	}

	services, err := build(blocks)
	if err != nil {
		r.logFault("rebuilding hidden services from reloaded config failed", err)
		return
	}

	r.ReplaceServices(services)
}
