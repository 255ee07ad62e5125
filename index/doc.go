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


// Package index provides an in-memory inverted index with BM25 scoring.
//
// The index stores documents in an insertion-ordered arena of integer slots;
// postings reference slots rather than document IDs, which keeps posting
// lists compact and makes iteration order (and therefore tie-breaking)
// deterministic. Field-weighted term frequencies are maintained per posting
// together with per-field hit counts.
//
// Tokenization handles mixed Chinese/English text: ASCII runs become
// lowercase word tokens, CJK runs are segmented into overlapping bigrams so
// partial-phrase queries still match. Stopwords and single-rune tokens are
// discarded.
//
// Read operations (Search, Suggest, PopularTerms) are safe for concurrent
// use with each other. Mutations (Add, Remove, Update) on a single index
// must be serialized by the caller; the ingestion pipeline does this with a
// one-worker mutation queue per owner.
//
// The full index state can be exported to a versioned binary snapshot and
// restored later; see Snapshot and Restore.
package index
