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


package ai

import "errors"

var (
	// ErrProviderUnavailable indicates no provider could serve the request.
	ErrProviderUnavailable = errors.New("ai provider unavailable")

	// ErrRateLimited indicates the backend throttled the request.
	ErrRateLimited = errors.New("ai provider rate limited")

	// ErrEmptyInput indicates an embedding or generation call with no text.
	ErrEmptyInput = errors.New("empty input text")
)
