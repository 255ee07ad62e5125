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


package ingestion

import (
	"strings"

	"github.com/poiesic/recall/core"
)

const (
	// chunkSize is the maximum chunk length in runes.
	chunkSize = 500

	// chunkOverlap is the number of runes shared between adjacent chunks.
	chunkOverlap = 50

	// boundaryScan bounds how far back from a cut point the chunker looks
	// for a sentence boundary.
	boundaryScan = 100
)

// SplitIntoChunks splits content into overlapping chunks of at most chunkSize
// runes. When a chunk would end mid-sentence, the cut is pulled back to the
// nearest sentence boundary within the last boundaryScan runes. Adjacent
// chunks share chunkOverlap runes of context. Whitespace-only chunks are
// dropped; Seq numbering stays contiguous.
func SplitIntoChunks(docId core.ID, content string) []*core.Chunk {
	runes := []rune(content)
	if len(runes) == 0 {
		return nil
	}

	var chunks []*core.Chunk
	seq := 0
	start := 0

	for start < len(runes) {
		end := start + chunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = sentenceCut(runes, start, end)
		}

		text := strings.TrimSpace(string(runes[start:end]))
		if text != "" {
			chunks = append(chunks, &core.Chunk{
				DocumentId: docId,
				Seq:        seq,
				Content:    text,
			})
			seq++
		}

		if end == len(runes) {
			break
		}

		next := end - chunkOverlap
		if next <= start {
			// Overlap must never stall the scan.
			next = end
		}
		start = next
	}

	return chunks
}

// sentenceCut returns the cut index for a chunk ending at end, preferring
// the position just after the last sentence-ending rune within boundaryScan.
func sentenceCut(runes []rune, start, end int) int {
	low := end - boundaryScan
	if low < start {
		low = start
	}
	for i := end - 1; i >= low; i-- {
		switch runes[i] {
		case '.', '!', '?', '\n', '。', '！', '？':
			return i + 1
		}
	}
	return end
}
