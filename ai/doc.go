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


// Package ai provides abstractions for the AI services used in Recall.
//
// It defines interfaces for text embeddings and text generation, keeping the
// retrieval and synthesis logic independent of any concrete model backend.
//
// Three interfaces form the surface:
//
//   - Embedder: generates vector embeddings from text
//   - Generator: produces text completions from prompts
//   - AIProvider: aggregates both behind a single availability probe
//
// Implementation sub-packages:
//
//   - ai/openai: production implementation for OpenAI-compatible APIs
//   - ai/fallback: deterministic local embedder, always available
//   - ai/mock: test doubles for unit testing without external services
//
// Production constructors (openai.NewProvider and friends) return INTERFACE
// types to enforce abstraction. Mock constructors return CONCRETE types so
// tests can inject behavior and assert on call counts.
//
// Provider selection is priority ordered. A Selector probes each provider
// with a short timeout and hands out the first one that responds; appending
// a fallback provider guarantees embeddings never become unavailable, while
// generation degrades explicitly with ErrProviderUnavailable.
package ai
