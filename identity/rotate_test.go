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

package identity_test

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"time"

	. "github.com/nabbar/torrelay/identity"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func readRSAKeyFile(path string) *rsa.PrivateKey {
	raw, err := os.ReadFile(path)
	Expect(err).ToNot(HaveOccurred())

	blk, _ := pem.Decode(raw)
	Expect(blk).ToNot(BeNil())

	k, err := x509.ParsePKCS1PrivateKey(blk.Bytes)
	Expect(err).ToNot(HaveOccurred())
	return k
}

var _ = Describe("OnionKeys", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "onionkeys-*")
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		_ = os.RemoveAll(dir)
	})

	It("rotates twice so previous equals the key that was current between calls, matching the on-disk .old file", func() {
		_, ok, err := LoadOrCreateOnionKeys(dir, time.Unix(0, 0))
		Expect(err).ToNot(HaveOccurred())

		Expect(ok.Rotate(time.Unix(1, 0))).To(Succeed())
		afterFirstRotate := ok.Dup().Current

		Expect(ok.Rotate(time.Unix(2, 0))).To(Succeed())
		kp := ok.Dup()

		Expect(kp.Previous.Equal(afterFirstRotate)).To(BeTrue())

		onDisk := readRSAKeyFile(filepath.Join(dir, FileSecretOnionOld))
		Expect(onDisk.Equal(afterFirstRotate)).To(BeTrue())
	})

	It("marks the pair dirty after a rotation and clears it on ClearDirty", func() {
		_, ok, err := LoadOrCreateOnionKeys(dir, time.Unix(0, 0))
		Expect(err).ToNot(HaveOccurred())
		Expect(ok.Dirty()).To(BeFalse())

		Expect(ok.Rotate(time.Unix(1, 0))).To(Succeed())
		Expect(ok.Dirty()).To(BeTrue())

		ok.ClearDirty()
		Expect(ok.Dirty()).To(BeFalse())
	})

	It("loads legacy-named key files under their new names on first run", func() {
		_, seedOK, err := LoadOrCreateOnionKeys(dir, time.Unix(0, 0))
		Expect(err).ToNot(HaveOccurred())
		legacyOnion := seedOK.Dup().Current

		legacyID := readRSAKeyFile(filepath.Join(dir, FileSecretIdentity))

		Expect(os.Rename(filepath.Join(dir, FileSecretIdentity), filepath.Join(dir, LegacyIdentity))).To(Succeed())
		Expect(os.Rename(filepath.Join(dir, FileSecretOnion), filepath.Join(dir, LegacyOnion))).To(Succeed())

		idKey, ok, err := LoadOrCreateOnionKeys(dir, time.Unix(1, 0))
		Expect(err).ToNot(HaveOccurred())
		Expect(idKey.Equal(legacyID)).To(BeTrue())
		Expect(ok.Dup().Current.Equal(legacyOnion)).To(BeTrue())

		Expect(filepath.Join(dir, LegacyIdentity)).ToNot(BeAnExistingPath())
		Expect(filepath.Join(dir, FileSecretIdentity)).To(BeAnExistingPath())
	})

	It("generates and persists fresh keys when none exist yet", func() {
		idKey, ok, err := LoadOrCreateOnionKeys(dir, time.Unix(0, 0))
		Expect(err).ToNot(HaveOccurred())
		Expect(idKey).ToNot(BeNil())
		Expect(ok.Dup().Current).ToNot(BeNil())

		Expect(filepath.Join(dir, FileSecretIdentity)).To(BeAnExistingPath())
		Expect(filepath.Join(dir, FileSecretOnion)).To(BeAnExistingPath())
	})
})
