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
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"

	liberr "github.com/nabbar/torrelay/errors"
	libprm "github.com/nabbar/torrelay/file/perm"
)

const keyFileMode = 0600

// writeKeyFile PEM-encodes k and writes it to path through a temp-file then
// atomic rename, so a crash mid-write never leaves a truncated key on disk.
func writeKeyFile(path string, k *rsa.PrivateKey) error {
	perm, err := libprm.ParseInt(keyFileMode)
	if err != nil {
		return liberr.New(liberr.KindIoError, "invalid key file permission", err)
	}

	blk := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(k)}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".key-*.tmp")
	if err != nil {
		return liberr.New(liberr.KindIoError, "creating temporary key file failed", err)
	}
	tmpName := tmp.Name()

	if err = pem.Encode(tmp, blk); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return liberr.New(liberr.KindIoError, "encoding key to temporary file failed", err)
	}
	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return liberr.New(liberr.KindIoError, "closing temporary key file failed", err)
	}
	if err = os.Chmod(tmpName, perm.FileMode()); err != nil {
		_ = os.Remove(tmpName)
		return liberr.New(liberr.KindIoError, "setting key file permission failed", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return liberr.New(liberr.KindIoError, "renaming temporary key file into place failed", err)
	}
	return nil
}

// readKeyFile loads and parses a PEM-encoded RSA private key from path.
func readKeyFile(path string) (*rsa.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, liberr.New(liberr.KindIoError, "reading key file failed", err)
	}

	blk, _ := pem.Decode(raw)
	if blk == nil {
		return nil, liberr.New(liberr.KindIoError, "key file is not valid PEM")
	}

	k, err := x509.ParsePKCS1PrivateKey(blk.Bytes)
	if err != nil {
		return nil, liberr.New(liberr.KindCrypto, "parsing RSA private key failed", err)
	}
	return k, nil
}

// migrateLegacyNames renames keys/identity.key and keys/onion.key to the
// current secret_id_key/secret_onion_key names, if the legacy files exist
// and the new ones do not. Called once at process start (spec.md §6).
func migrateLegacyNames(dir string) error {
	renames := [][2]string{
		{filepath.Join(dir, LegacyIdentity), filepath.Join(dir, FileSecretIdentity)},
		{filepath.Join(dir, LegacyOnion), filepath.Join(dir, FileSecretOnion)},
	}

	for _, pair := range renames {
		old, cur := pair[0], pair[1]
		if _, err := os.Stat(cur); err == nil {
			continue
		}
		if _, err := os.Stat(old); err != nil {
			continue
		}
		if err := os.Rename(old, cur); err != nil {
			return liberr.New(liberr.KindIoError, "migrating legacy key file failed", err)
		}
	}
	return nil
}

// replaceFile atomically renames src to dst if src exists; a missing src
// (first-ever rotation, no current key on disk yet) is not an error.
func replaceFile(src, dst string) error {
	if _, err := os.Stat(src); err != nil {
		return nil
	}
	if err := os.Rename(src, dst); err != nil {
		return liberr.New(liberr.KindIoError, "renaming current key file to .old failed", err)
	}
	return nil
}
