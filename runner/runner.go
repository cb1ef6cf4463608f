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
// Package runner drives a run: for every selected dataset it fetches the raw
// table, normalizes it, and writes the per-year and full output files.
// Datasets are processed one after another; a failing dataset is recorded in
// the report and does not stop the run.
package runner

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hako/durafmt"
	"github.com/penny-vault/cbsdata/data"
	"github.com/penny-vault/cbsdata/export"
	"github.com/penny-vault/cbsdata/library"
	"github.com/penny-vault/cbsdata/transform"
	"github.com/rs/zerolog"
)

const DefaultYear = 2018

var (
	ErrNoEndpoints = errors.New("dataset endpoints were not discovered")
)

// TableFetcher retrieves the raw wide table of a dataset
type TableFetcher interface {
	TypedDataSet(ctx context.Context, endpoints []data.Endpoint, columns []string) (data.Table, error)
}

type Options struct {
	// Year selects the observations written to <title>_<year>
	Year int

	// DateRange, when set, restricts the full <title> output
	DateRange *data.DateRange

	Writer *export.Writer

	// MetricsFile, when set, receives prometheus metrics in text format
	MetricsFile string
}

type Runner struct {
	fetcher     TableFetcher
	transformer *transform.Transformer
	options     Options
}

func New(fetcher TableFetcher, transformer *transform.Transformer, options Options) *Runner {
	if options.Year == 0 {
		options.Year = DefaultYear
	}

	if options.Writer == nil {
		options.Writer = &export.Writer{Dir: ".", Format: export.CSV}
	}

	return &Runner{
		fetcher:     fetcher,
		transformer: transformer,
		options:     options,
	}
}

// Run processes every dataset in the library. The returned error is only set
// when the metrics file could not be written; dataset failures are reported
// in the Report.
func (runner *Runner) Run(ctx context.Context, myLibrary *library.Library) (*Report, error) {
	report := &Report{
		RunID:     uuid.New(),
		StartTime: time.Now(),
	}

	logger := zerolog.Ctx(ctx).With().Str("RunID", report.RunID.String()).Logger()
	ctx = logger.WithContext(ctx)

	metrics := newRunMetrics()

	for _, dataset := range myLibrary.Datasets() {
		result := runner.processDataset(ctx, dataset)
		metrics.record(result)
		report.Results = append(report.Results, result)

		if result.Err != nil {
			logger.Error().Object("Result", result).Msg("skipping dataset")
		} else {
			logger.Info().Object("Result", result).Msg("dataset complete")
		}
	}

	report.EndTime = time.Now()
	metrics.finish(report.EndTime)

	logger.Info().Int("NumSucceeded", len(report.Succeeded())).Int("NumSkipped", len(report.Skipped())).
		Str("RunTime", durafmt.Parse(report.Elapsed()).String()).Msg("run finished")

	if runner.options.MetricsFile != "" {
		if err := metrics.writeTextfile(runner.options.MetricsFile); err != nil {
			logger.Error().Err(err).Str("FileName", runner.options.MetricsFile).Msg("could not write metrics")
			return report, err
		}
	}

	return report, nil
}

func (runner *Runner) processDataset(ctx context.Context, dataset *library.Dataset) *DatasetResult {
	startTime := time.Now()
	logger := zerolog.Ctx(ctx).With().Str("Dataset", dataset.Key).Logger()
	ctx = logger.WithContext(ctx)

	result := &DatasetResult{
		Key:   dataset.Key,
		Title: dataset.Title,
	}

	defer func() {
		result.Elapsed = time.Since(startTime)
	}()

	if dataset.DiscoveryErr != nil {
		result.Err = dataset.DiscoveryErr
		return result
	}

	if len(dataset.Endpoints) == 0 {
		result.Err = ErrNoEndpoints
		return result
	}

	table, err := runner.fetcher.TypedDataSet(ctx, dataset.Endpoints, dataset.Columns)
	if err != nil {
		result.Err = err
		return result
	}

	logger.Info().Int("NumRows", len(table)).Msg("fetched dataset")

	observations, err := runner.transformer.Dataset(ctx, dataset, table)
	if err != nil {
		result.Err = err
		return result
	}

	writer := runner.options.Writer

	yearFN := writer.FileName(dataset.Title, runner.options.Year)
	yearly := data.FilterYear(observations, runner.options.Year)
	if err := writer.Write(yearFN, yearly); err != nil {
		result.Err = err
		return result
	}
	result.Files = append(result.Files, yearFN)

	if runner.options.DateRange != nil {
		observations = data.FilterDateRange(observations, *runner.options.DateRange)
		logger.Debug().Stringer("DateRange", runner.options.DateRange).Int("NumObservations", len(observations)).
			Msg("applied date range")
	}

	fullFN := writer.FileName(dataset.Title, 0)
	if err := writer.Write(fullFN, observations); err != nil {
		result.Err = err
		return result
	}
	result.Files = append(result.Files, fullFN)
	result.Rows = len(observations)

	return result
}
