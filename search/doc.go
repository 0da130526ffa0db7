// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package search provides semantic retrieval over embedded document chunks.
//
// The Searcher type embeds a query, ranks stored chunks by cosine
// similarity, filters out weak matches below a minimum score, and boosts
// chunks that contain every significant query word verbatim. Results are
// returned ranked with their scores so callers can present confidence to
// the user.
package search
