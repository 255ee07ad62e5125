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


package index

import "errors"

var (
	// ErrUnknownSnapshotVersion indicates a snapshot was written by an
	// unsupported format version.
	ErrUnknownSnapshotVersion = errors.New("unknown snapshot version")

	// ErrCorruptSnapshot indicates snapshot data could not be decoded.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")

	// ErrStaleDocument indicates a posting referenced a removed document.
	// Searches log and skip the posting rather than failing.
	ErrStaleDocument = errors.New("stale document reference")
)
