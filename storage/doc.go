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

// Package storage provides the storage abstraction layer for docqa.
//
// This package defines repository interfaces that decouple storage
// implementation from the ingestion and search pipelines. Two backends
// implement them: an in-memory store with flat-file snapshots
// (storage/memory) and a persistent BadgerDB store (storage/badger).
//
// Public constructors return interfaces so consumers never couple to a
// specific backend:
//
//	repo, err := memory.NewStore()        // returns storage.ChunkRepository
//	repo, err := badger.NewRepository(p)  // returns storage.ChunkRepository
//
// All implementations must be safe for concurrent use.
package storage
