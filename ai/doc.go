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

// Package ai defines the embedding service consumed by the local vector index.
//
// The indexing pipeline never computes embeddings itself. Chunks handed to a
// storage.VectorIndex are embedded by whatever Embedder the index was built
// with, which keeps the pipeline testable without a model server.
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible APIs (Ollama, LocalAI, vLLM) via langchaingo
//   - ai/mock: deterministic test double
//
// Public constructors in ai/openai return interface types. The mock returns
// its concrete type so tests can inject behavior and inspect call counts.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithEmbeddingModel("nomic-embed-text"))
//	provider, err := openai.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vectors, err := ai.EmbedNormalized(ctx, provider.Embedder(), texts, cfg.MaxRetries, cfg.RetryDelay)
package ai
