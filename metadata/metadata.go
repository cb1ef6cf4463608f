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
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/penny-vault/cbsdata/data"
	"github.com/rs/zerolog"
)

const (
	TypedDataSetEndpoint   = "TypedDataSet"
	TableInfosEndpoint     = "TableInfos"
	DataPropertiesEndpoint = "DataProperties"
)

// Fetcher retrieves the "value" records of an OData endpoint
type Fetcher interface {
	Records(ctx context.Context, url string) ([]data.Record, error)
}

// Metadata holds the side-channel information of a dataset that is needed to
// normalize its columns. It does not change between columns of a dataset.
type Metadata struct {
	Frequency  string
	Properties []data.Record

	// Modified is when the dataset was last updated; zero when the service
	// does not say
	Modified time.Time
}

// modifiedLayouts are the timestamp formats seen in the TableInfos Modified field
var modifiedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// Load fetches the TableInfos and DataProperties endpoints of a dataset
func Load(ctx context.Context, fetcher Fetcher, endpoints []data.Endpoint) (*Metadata, error) {
	logger := zerolog.Ctx(ctx)

	tableInfosURL, err := EndpointURL(endpoints, TableInfosEndpoint)
	if err != nil {
		return nil, err
	}

	dataPropertiesURL, err := EndpointURL(endpoints, DataPropertiesEndpoint)
	if err != nil {
		return nil, err
	}

	tableInfos, err := fetcher.Records(ctx, tableInfosURL)
	if err != nil {
		return nil, err
	}

	if len(tableInfos) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrMissingMetadata, TableInfosEndpoint)
	}

	frequency, ok := tableInfos[0].String("Frequency")
	if !ok {
		return nil, fmt.Errorf("%w: %s has no Frequency", ErrMissingMetadata, TableInfosEndpoint)
	}

	properties, err := fetcher.Records(ctx, dataPropertiesURL)
	if err != nil {
		return nil, err
	}

	logger.Debug().Str("Frequency", frequency).Int("NumProperties", len(properties)).Msg("loaded dataset metadata")

	modified, _ := parseModified(tableInfos[0])

	return &Metadata{
		Frequency:  frequency,
		Properties: properties,
		Modified:   modified,
	}, nil
}

// LoadModified fetches only the TableInfos endpoint of a dataset and returns
// its Modified timestamp
func LoadModified(ctx context.Context, fetcher Fetcher, endpoints []data.Endpoint) (time.Time, error) {
	tableInfosURL, err := EndpointURL(endpoints, TableInfosEndpoint)
	if err != nil {
		return time.Time{}, err
	}

	tableInfos, err := fetcher.Records(ctx, tableInfosURL)
	if err != nil {
		return time.Time{}, err
	}

	if len(tableInfos) == 0 {
		return time.Time{}, fmt.Errorf("%w: %s is empty", ErrMissingMetadata, TableInfosEndpoint)
	}

	modified, ok := parseModified(tableInfos[0])
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s has no valid Modified", ErrMissingMetadata, TableInfosEndpoint)
	}

	return modified, nil
}

func parseModified(tableInfo data.Record) (time.Time, bool) {
	raw, ok := tableInfo.String("Modified")
	if !ok {
		return time.Time{}, false
	}

	for _, layout := range modifiedLayouts {
		if modified, err := time.Parse(layout, raw); err == nil {
			return modified, true
		}
	}

	return time.Time{}, false
}

// Unit returns the unit of measure of a raw column with all whitespace removed
func (meta *Metadata) Unit(column string) (string, error) {
	unit, err := LookupString("Key", column, "Unit", meta.Properties)
	if err != nil {
		return "", fmt.Errorf("%w: unit of column %s: %w", ErrMissingMetadata, column, err)
	}

	return stripSpace(unit), nil
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
