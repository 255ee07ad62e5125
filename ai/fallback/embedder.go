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


package fallback

import (
	"context"
	"hash/fnv"
	"math"
	"runtime"
	"strings"
	"unicode"

	"github.com/poiesic/recall/ai"
)

const (
	// batchSize bounds how many texts are embedded per batch.
	batchSize = 8
	// yieldEvery is the number of batches processed between scheduler yields,
	// keeping long ingestion runs from starving concurrent searches.
	yieldEvery = 4
)

// Embedder produces deterministic pseudo-embeddings from text features.
// The vectors are not semantically meaningful the way a trained model's are,
// but identical text always maps to the identical vector and related texts
// share hashed word features, which keeps similarity search functional when
// no model backend is reachable.
type Embedder struct {
	dimensions int
}

// NewEmbedder creates a fallback embedder producing vectors of the given
// dimension. Zero or negative selects the 384 default.
func NewEmbedder(dimensions int) *Embedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &Embedder{dimensions: dimensions}
}

// EmbedText generates a deterministic feature vector for the text.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ai.ErrEmptyInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.featureVector(text), nil
}

// EmbedTexts generates vectors in batches, yielding periodically so other
// goroutines keep making progress during large ingestion runs.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ai.ErrEmptyInput
	}

	out := make([][]float32, len(texts))
	for batch := 0; batch*batchSize < len(texts); batch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := batch * batchSize
		end := min(start+batchSize, len(texts))
		for i := start; i < end; i++ {
			if texts[i] == "" {
				return nil, ai.ErrEmptyInput
			}
			out[i] = e.featureVector(texts[i])
		}
		if (batch+1)%yieldEvery == 0 {
			runtime.Gosched()
		}
	}
	return out, nil
}

// Dimensions returns the vector length.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// featureVector spreads hashed word and character-trigram features across the
// vector, mixes in a few global text statistics, squashes each component with
// tanh to bound outliers, and L2-normalizes the result.
func (e *Embedder) featureVector(text string) []float32 {
	vec := make([]float64, e.dimensions)

	lower := strings.ToLower(text)
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	unique := make(map[string]bool, len(words))
	for _, w := range words {
		unique[w] = true
		spread(vec, "w:"+w, 1.0)
	}

	runes := []rune(lower)
	for i := 0; i+3 <= len(runes); i++ {
		spread(vec, "t:"+string(runes[i:i+3]), 0.5)
	}

	// Global statistics occupy fixed positions so texts of very different
	// shape separate even with no token overlap.
	var punct int
	for _, r := range text {
		if unicode.IsPunct(r) {
			punct++
		}
	}
	total := float64(len(runes))
	if total > 0 {
		vec[0] += math.Log1p(total) / 10
		vec[1] += math.Log1p(float64(len(words))) / 10
		if len(words) > 0 {
			vec[2] += float64(len(unique)) / float64(len(words))
		}
		vec[3] += float64(punct) / total
	}

	out := make([]float32, e.dimensions)
	var norm float64
	for i, v := range vec {
		squashed := math.Tanh(v)
		out[i] = float32(squashed)
		norm += squashed * squashed
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range out {
			out[i] *= inv
		}
	}
	return out
}

// spread adds weight at positions derived from a feature hash. Three probe
// positions with alternating sign approximate a signed random projection.
func spread(vec []float64, feature string, weight float64) {
	h := fnv.New64a()
	h.Write([]byte(feature))
	seed := h.Sum64()

	dim := uint64(len(vec))
	for probe := 0; probe < 3; probe++ {
		seed = seed*6364136223846793005 + 1442695040888963407
		pos := seed % dim
		sign := 1.0
		if seed&(1<<63) != 0 {
			sign = -1.0
		}
		vec[pos] += sign * weight
	}
}
