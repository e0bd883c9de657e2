// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"hash"

	"github.com/go-crypt/x/blake2b"
)

// HashAlgorithm names a content fingerprint function.
type HashAlgorithm string

const (
	// HashMD5 matches fingerprints written by earlier deployments.
	HashMD5 HashAlgorithm = "md5"
	// HashBlake2b is a 128-bit BLAKE2b digest.
	HashBlake2b HashAlgorithm = "blake2b"
)

// Hasher computes hex content fingerprints.
type Hasher struct {
	algorithm HashAlgorithm
	newHash   func() (hash.Hash, error)
}

// NewHasher returns a Hasher for the named algorithm.
func NewHasher(algorithm HashAlgorithm) (*Hasher, error) {
	switch algorithm {
	case HashMD5, "":
		return &Hasher{
			algorithm: HashMD5,
			newHash:   func() (hash.Hash, error) { return md5.New(), nil },
		}, nil
	case HashBlake2b:
		return &Hasher{
			algorithm: HashBlake2b,
			newHash:   func() (hash.Hash, error) { return blake2b.New(16, nil) },
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownHashAlgorithm, algorithm)
	}
}

// Algorithm returns the hasher's algorithm name.
func (h *Hasher) Algorithm() HashAlgorithm {
	return h.algorithm
}

// Hash returns the hex digest of content's UTF-8 bytes.
// Empty content hashes to "".
func (h *Hasher) Hash(content string) string {
	if content == "" {
		return ""
	}
	hh, err := h.newHash()
	if err != nil {
		// blake2b.New only fails for invalid sizes or keys.
		panic(err)
	}
	hh.Write([]byte(content))
	return hex.EncodeToString(hh.Sum(nil))
}
