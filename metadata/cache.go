// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package metadata

import (
	"context"

	"github.com/alphadose/haxmap"
	"github.com/penny-vault/cbsdata/data"
	"github.com/rs/zerolog"
)

// Cache memoizes dataset metadata for the length of a run so that each
// dataset's TableInfos and DataProperties are fetched once no matter how many
// columns are transformed.
type Cache struct {
	fetcher Fetcher
	entries *haxmap.Map[string, *Metadata]
}

func NewCache(fetcher Fetcher) *Cache {
	return &Cache{
		fetcher: fetcher,
		entries: haxmap.New[string, *Metadata](),
	}
}

// Get returns the metadata for the dataset identified by key, loading it from
// the dataset's endpoints on first use. Failed loads are not cached.
func (cache *Cache) Get(ctx context.Context, key string, endpoints []data.Endpoint) (*Metadata, error) {
	if meta, ok := cache.entries.Get(key); ok {
		return meta, nil
	}

	meta, err := Load(ctx, cache.fetcher, endpoints)
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().Str("Dataset", key).Msg("caching dataset metadata")
	cache.entries.Set(key, meta)

	return meta, nil
}

func (cache *Cache) Len() int {
	return int(cache.entries.Len())
}
