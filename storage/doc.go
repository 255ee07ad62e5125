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


// Package storage defines the persistence layer for documents and chunks.
//
// The package contains repository interfaces and the binary serialization
// used for stored values; concrete backends live in sub-packages (currently
// storage/badger). Callers depend on the interfaces only, so backends can be
// swapped without touching retrieval logic.
//
// # Serialization
//
// Stored values use hand-written mus-go codecs with a leading format version
// byte. A value written by a newer format version fails to decode with
// ErrUnknownVersion instead of being misread; adding fields means adding a
// version, never reinterpreting old bytes.
//
// # Repositories
//
//   - DocumentRepository: owned documents, content-addressed IDs, owner index
//   - ChunkRepository: per-document chunks carrying embedding vectors
//
// Both embed Repository for transactions and lifecycle. Implementations must
// be thread-safe.
package storage
