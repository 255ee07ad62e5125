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


package analyzer

import "strings"

// repairJSON fixes a malformation small models commonly produce: object keys
// missing their opening quote, as in `{intent": "how_to"}`. Well-formed
// input passes through unchanged.
func repairJSON(s string) string {
	in := []rune(s)
	out := make([]rune, 0, len(in)+16)

	for i := 0; i < len(in); {
		r := in[i]
		out = append(out, r)
		i++
		if r != '{' && r != ',' {
			continue
		}

		// Keys follow an object opener or a comma, possibly after whitespace.
		for i < len(in) && (in[i] == ' ' || in[i] == '\n' || in[i] == '\t') {
			out = append(out, in[i])
			i++
		}
		if i >= len(in) || !isLetter(in[i]) {
			continue
		}

		// Scan what could be a bare key name.
		end := i
		for end < len(in) && (isLetter(in[end]) || in[end] == '_' || in[end] == ' ') {
			end++
		}

		if end+1 < len(in) && in[end] == '"' && in[end+1] == ':' {
			// Bare key confirmed by the trailing `":` pair. Insert the
			// missing opening quote; the closing one is already there.
			out = append(out, '"')
			out = append(out, []rune(strings.TrimSpace(string(in[i:end])))...)
		} else {
			out = append(out, in[i:end]...)
		}
		i = end
	}

	return string(out)
}

// isLetter returns true if the rune is an ASCII letter.
func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
