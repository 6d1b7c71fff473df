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

// Package cryptoworker runs public-key decryption of incoming onion-skins
// off the single-threaded event loop (spec.md §5 "helper worker tasks that
// perform... public-key decryption of incoming onion-skins"), bounding the
// number of concurrent decryptions with a semaphore rather than a fixed-size
// goroutine pool.
package cryptoworker

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	liberr "github.com/nabbar/torrelay/errors"
)

// Request is one onion-skin decryption request: ciphertext in, plaintext (or
// an error) out on the caller-supplied Result channel. The worker's send
// blocks until the result is received unless that channel has buffer room.
type Request struct {
	Ciphertext []byte
	Result     chan<- Result
}

// Result is the outcome of one decryption request.
type Result struct {
	Plaintext []byte
	Err       error
}

// Decrypter performs the actual hybrid-decryption of one onion-skin. The
// algorithm itself is the out-of-scope cryptographic-primitives collaborator
// (spec.md §1); this package only bounds and schedules calls to it.
type Decrypter interface {
	Decrypt(ciphertext []byte) ([]byte, error)
}

// Pool runs Decrypt requests against dec with at most `concurrency`
// decryptions in flight at once.
type Pool struct {
	dec Decrypter
	sem *semaphore.Weighted
}

// NewPool returns a Pool bounding concurrent decryptions to concurrency.
func NewPool(dec Decrypter, concurrency int64) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pool{dec: dec, sem: semaphore.NewWeighted(concurrency)}
}

// Submit decrypts req.Ciphertext once a worker slot is free, sending the
// outcome on req.Result. It blocks until a slot is acquired or ctx is done.
func (p *Pool) Submit(ctx context.Context, req Request) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return liberr.New(liberr.KindCrypto, "acquiring decryption worker slot failed", err)
	}
	go func() {
		defer p.sem.Release(1)
		plaintext, err := p.dec.Decrypt(req.Ciphertext)
		req.Result <- Result{Plaintext: plaintext, Err: err}
	}()
	return nil
}

// DecryptAll decrypts every ciphertext in in concurrently, bounded by the
// pool's configured concurrency, and returns the results in input order.
// Once one decryption fails, no further decryptions are started (decryptions
// already running still complete); a KindCrypto error is returned alongside
// the partial result set, whose entries for unfinished inputs are nil.
func (p *Pool) DecryptAll(ctx context.Context, in [][]byte) ([][]byte, error) {
	out := make([][]byte, len(in))
	g, gctx := errgroup.WithContext(ctx)
	for i, ct := range in {
		i, ct := i, ct
		if err := p.sem.Acquire(gctx, 1); err != nil {
			return out, liberr.New(liberr.KindCrypto, "acquiring decryption worker slot failed", err)
		}
		g.Go(func() error {
			defer p.sem.Release(1)
			plaintext, err := p.dec.Decrypt(ct)
			if err != nil {
				return err
			}
			out[i] = plaintext
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, liberr.New(liberr.KindCrypto, "decrypting onion-skin batch failed", err)
	}
	return out, nil
}
