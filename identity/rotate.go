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

package identity

import (
	"crypto/rand"
	"crypto/rsa"
	"path/filepath"
	"sync"
	"time"

	liberr "github.com/nabbar/torrelay/errors"
)

// OnionKeys is the mutex-protected onion key pair. Per spec.md §5, this is
// the only state touched off the single-threaded event loop: helper worker
// tasks decrypting onion-skins call Dup to get a private, race-free copy of
// both keys. Only Rotate, Dup, Set, Dirty and ClearDirty enter the critical
// section.
type OnionKeys struct {
	mu  sync.Mutex
	dir string
	kp  KeyPair

	// dirty is set whenever the pair changes, so the owning runtime knows
	// the descriptor needs to be regenerated and re-signed.
	dirty bool
}

// NewOnionKeys returns an OnionKeys with cur as the sole current key,
// persisted under dir.
func NewOnionKeys(dir string, cur *rsa.PrivateKey, now time.Time) *OnionKeys {
	return &OnionKeys{
		dir: dir,
		kp:  KeyPair{Current: cur, SetAt: now},
	}
}

// LoadOrCreateOnionKeys migrates legacy key filenames, then loads the
// identity and onion keys from dir, generating and persisting either that is
// absent. now stamps the onion key's SetAt, whether it was loaded or
// freshly generated.
func LoadOrCreateOnionKeys(dir string, now time.Time) (*rsa.PrivateKey, *OnionKeys, error) {
	if err := migrateLegacyNames(dir); err != nil {
		return nil, nil, err
	}

	idKey, err := loadOrGenerate(filepath.Join(dir, FileSecretIdentity))
	if err != nil {
		return nil, nil, err
	}

	onionPath := filepath.Join(dir, FileSecretOnion)
	onionKey, err := loadOrGenerate(onionPath)
	if err != nil {
		return nil, nil, err
	}

	ok := NewOnionKeys(dir, onionKey, now)

	oldPath := filepath.Join(dir, FileSecretOnionOld)
	if prev, perr := readKeyFile(oldPath); perr == nil {
		ok.kp.Previous = prev
	}

	return idKey, ok, nil
}

func loadOrGenerate(path string) (*rsa.PrivateKey, error) {
	if k, err := readKeyFile(path); err == nil {
		return k, nil
	}
	k, err := rsa.GenerateKey(rand.Reader, KeyBits)
	if err != nil {
		return nil, liberr.New(liberr.KindCrypto, "generating RSA key failed", err)
	}
	if err = writeKeyFile(path, k); err != nil {
		return nil, err
	}
	return k, nil
}

// Rotate generates a new onion key, atomically renames the current on-disk
// key file to .old, writes the new key, and — under the mutex — sets
// previous = current; current = new; set_at = now. Marks the pair dirty.
func (o *OnionKeys) Rotate(now time.Time) error {
	newKey, err := rsa.GenerateKey(rand.Reader, KeyBits)
	if err != nil {
		return liberr.New(liberr.KindCrypto, "generating rotated onion key failed", err)
	}
	return o.rotateWith(newKey, now)
}

// rotateWith performs the rotation with a caller-supplied key, split out so
// tests can exercise deterministic key material.
func (o *OnionKeys) rotateWith(newKey *rsa.PrivateKey, now time.Time) error {
	curPath := filepath.Join(o.dir, FileSecretOnion)
	oldPath := filepath.Join(o.dir, FileSecretOnionOld)

	if err := replaceFile(curPath, oldPath); err != nil {
		return err
	}
	if err := writeKeyFile(curPath, newKey); err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.kp.Previous = o.kp.Current
	o.kp.Current = newKey
	o.kp.SetAt = now
	o.dirty = true
	return nil
}

// Dup atomically duplicates both keys under the lock (spec.md §4.4
// "Readers atomically duplicate both keys under the lock.").
func (o *OnionKeys) Dup() KeyPair {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.kp
}

// Set replaces the current key outright (used by tests and administrative
// overrides), under the same lock discipline as Rotate.
func (o *OnionKeys) Set(k *rsa.PrivateKey, now time.Time) error {
	curPath := filepath.Join(o.dir, FileSecretOnion)
	if err := writeKeyFile(curPath, k); err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.kp.Current = k
	o.kp.SetAt = now
	o.dirty = true
	return nil
}

// Dirty reports whether the pair changed since the last ClearDirty.
func (o *OnionKeys) Dirty() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dirty
}

// ClearDirty resets the dirty flag once the descriptor has been regenerated.
func (o *OnionKeys) ClearDirty() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dirty = false
}
