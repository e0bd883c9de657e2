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

import "errors"

var (
	// ErrInvalidChunk indicates a chunk failed validation and cannot be indexed.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrEmptyChunk indicates a chunk has no indexable text.
	ErrEmptyChunk = errors.New("chunk text is empty")

	// ErrMissingParent indicates a chunk is not attached to a document.
	ErrMissingParent = errors.New("chunk has no parent document")

	// ErrIDCollision indicates two documents map to the same stable chunk id space.
	ErrIDCollision = errors.New("chunk id collision")

	// ErrUnknownHashAlgorithm indicates an unsupported fingerprint algorithm name.
	ErrUnknownHashAlgorithm = errors.New("unknown hash algorithm")
)
