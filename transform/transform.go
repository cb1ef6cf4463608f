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
// Package transform reshapes the wide tables returned by the open data service
// into normalized long-format observations. Each value column of a dataset
// becomes one series of observations labelled with its commodity, frequency
// and unit.
package transform

import (
	"context"
	"errors"
	"fmt"

	"github.com/penny-vault/cbsdata/data"
	"github.com/penny-vault/cbsdata/library"
	"github.com/penny-vault/cbsdata/metadata"
	"github.com/rs/zerolog"
)

var (
	ErrNoColumns = errors.New("no value columns to transform")
)

// midnight is what the time of day of every period start formats to
const midnight = "00:00"

// MetadataSource returns the metadata of a dataset. *metadata.Cache satisfies it.
type MetadataSource interface {
	Get(ctx context.Context, key string, endpoints []data.Endpoint) (*metadata.Metadata, error)
}

type Transformer struct {
	Metadata MetadataSource
}

func New(source MetadataSource) *Transformer {
	return &Transformer{
		Metadata: source,
	}
}

// Column normalizes one value column of the table. Rows whose period is not
// monthly are dropped; rows with a malformed monthly period are logged and
// dropped.
func (transformer *Transformer) Column(ctx context.Context, dataset *library.Dataset, table data.Table, column, commodity string) ([]*data.Observation, error) {
	logger := zerolog.Ctx(ctx).With().Str("Column", column).Str("Commodity", commodity).Logger()

	meta, err := transformer.Metadata.Get(ctx, dataset.Key, dataset.Endpoints)
	if err != nil {
		return nil, err
	}

	unit, err := meta.Unit(column)
	if err != nil {
		return nil, err
	}

	periodColumn := dataset.PeriodColumn()
	observations := make([]*data.Observation, 0, len(table))

	for idx, row := range table {
		period, ok := row.String(periodColumn)
		if !ok {
			logger.Warn().Int("Row", idx).Str("PeriodColumn", periodColumn).Msg("row has no period code; skipping")
			continue
		}

		date, monthly, err := data.ParsePeriod(period)
		if err != nil {
			logger.Warn().Err(err).Int("Row", idx).Str("Period", period).Msg("skipping row")
			continue
		}

		if !monthly {
			continue
		}

		value, err := row.Float(column)
		if err != nil {
			logger.Warn().Err(err).Int("Row", idx).Str("Period", period).Msg("value is not numeric; leaving it empty")
			value = nil
		}

		observations = append(observations, &data.Observation{
			Date:      data.Date{Time: date},
			Time:      date.Format(data.TimeLayout),
			Value:     value,
			Commodity: commodity,
			Frequency: meta.Frequency,
			Unit:      unit,
		})
	}

	logger.Debug().Int("NumRows", len(table)).Int("NumObservations", len(observations)).Msg("transformed column")

	return observations, nil
}

// Columns normalizes several value columns. A single column is returned as
// Column produced it; multiple columns are concatenated in column order and
// then stably sorted by date.
func (transformer *Transformer) Columns(ctx context.Context, dataset *library.Dataset, table data.Table, columns []string, commodities map[string]string) ([]*data.Observation, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoColumns, dataset.Key)
	}

	if len(columns) == 1 {
		return transformer.Column(ctx, dataset, table, columns[0], commodities[columns[0]])
	}

	combined := make([]*data.Observation, 0, len(table)*len(columns))
	for _, column := range columns {
		observations, err := transformer.Column(ctx, dataset, table, column, commodities[column])
		if err != nil {
			return nil, err
		}
		combined = append(combined, observations...)
	}

	data.SortByDate(combined)

	return combined, nil
}

// Dataset normalizes every configured value column of a dataset
func (transformer *Transformer) Dataset(ctx context.Context, dataset *library.Dataset, table data.Table) ([]*data.Observation, error) {
	return transformer.Columns(ctx, dataset, table, dataset.ValueColumns(), dataset.Commodity)
}
