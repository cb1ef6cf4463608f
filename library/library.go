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
package library

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/penny-vault/cbsdata/data"
	"github.com/penny-vault/cbsdata/metadata"
	"github.com/rs/zerolog"
)

// Catalog lists the endpoints of a dataset
type Catalog interface {
	Catalog(ctx context.Context, datasetKey string) ([]data.Endpoint, error)
}

// Dataset is a configured dataset together with the endpoints discovered for
// it. It is not modified after discovery.
type Dataset struct {
	Key       string
	Title     string
	Columns   []string
	Commodity map[string]string
	Endpoints []data.Endpoint

	// Modified is when the service last updated the dataset; only filled in
	// by DiscoverDetails
	Modified time.Time

	// DiscoveryErr is set when the catalog of the dataset could not be retrieved
	DiscoveryErr error
}

// PeriodColumn is the column holding the period code
func (dataset *Dataset) PeriodColumn() string {
	return dataset.Columns[0]
}

// ValueColumns are the measured series of the dataset
func (dataset *Dataset) ValueColumns() []string {
	return dataset.Columns[1:]
}

type Library struct {
	Name     string
	datasets []*Dataset
}

func newDataset(key string, dsCfg *DatasetConfig) *Dataset {
	return &Dataset{
		Key:       key,
		Title:     dsCfg.Title,
		Columns:   slices.Clone(dsCfg.Columns),
		Commodity: maps.Clone(dsCfg.Commodity),
	}
}

// New builds a library from the configuration without contacting the catalog
func New(name string, cfg Config, keys []string) (*Library, error) {
	selected, err := cfg.Select(keys)
	if err != nil {
		return nil, err
	}

	myLibrary := &Library{
		Name:     name,
		datasets: make([]*Dataset, 0, len(selected)),
	}

	for _, key := range selected {
		myLibrary.datasets = append(myLibrary.datasets, newDataset(key, cfg[key]))
	}

	return myLibrary, nil
}

// Discover builds a library of the selected datasets and resolves each
// dataset's endpoints from the catalog. Discovery completes for every dataset
// before the library is returned. A dataset whose catalog cannot be retrieved
// keeps the error in DiscoveryErr; the remaining datasets are unaffected.
func Discover(ctx context.Context, name string, cfg Config, keys []string, catalog Catalog) (*Library, error) {
	return discover(ctx, name, cfg, keys, catalog, nil)
}

// DiscoverDetails is Discover followed by a TableInfos lookup for each
// discovered dataset to learn when it was last modified. A failed lookup is
// logged and leaves Modified zero.
func DiscoverDetails(ctx context.Context, name string, cfg Config, keys []string, catalog Catalog, tableInfos metadata.Fetcher) (*Library, error) {
	return discover(ctx, name, cfg, keys, catalog, tableInfos)
}

func discover(ctx context.Context, name string, cfg Config, keys []string, catalog Catalog, tableInfos metadata.Fetcher) (*Library, error) {
	logger := zerolog.Ctx(ctx)

	selected, err := cfg.Select(keys)
	if err != nil {
		return nil, err
	}

	myLibrary := &Library{
		Name:     name,
		datasets: make([]*Dataset, 0, len(selected)),
	}

	for _, key := range selected {
		dataset := newDataset(key, cfg[key])

		endpoints, err := catalog.Catalog(ctx, key)
		if err != nil {
			logger.Error().Err(err).Str("Dataset", key).Msg("could not discover dataset endpoints")
			dataset.DiscoveryErr = err
		} else {
			logger.Debug().Str("Dataset", key).Int("NumEndpoints", len(endpoints)).Msg("discovered dataset endpoints")
			dataset.Endpoints = endpoints

			if tableInfos != nil {
				modified, err := metadata.LoadModified(ctx, tableInfos, endpoints)
				if err != nil {
					logger.Warn().Err(err).Str("Dataset", key).Msg("could not determine when dataset was last modified")
				} else {
					dataset.Modified = modified
				}
			}
		}

		myLibrary.datasets = append(myLibrary.datasets, dataset)
	}

	return myLibrary, nil
}

// Datasets returns the datasets of the library in selection order
func (myLibrary *Library) Datasets() []*Dataset {
	return slices.Clone(myLibrary.datasets)
}

// Dataset returns the dataset with the given key
func (myLibrary *Library) Dataset(key string) (*Dataset, bool) {
	for _, dataset := range myLibrary.datasets {
		if dataset.Key == key {
			return dataset, true
		}
	}
	return nil, false
}
