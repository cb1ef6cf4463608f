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
package runner

import (
	"time"

	"github.com/google/uuid"
	"github.com/hako/durafmt"
	"github.com/rs/zerolog"
)

// DatasetResult records the outcome of processing one dataset. Err is nil
// when the dataset succeeded.
type DatasetResult struct {
	Key     string
	Title   string
	Rows    int
	Files   []string
	Elapsed time.Duration
	Err     error
}

func (result *DatasetResult) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Dataset", result.Key)
	e.Str("Title", result.Title)
	e.Int("NumObservations", result.Rows)
	e.Strs("Files", result.Files)
	e.Str("Elapsed", durafmt.Parse(result.Elapsed).LimitFirstN(2).String())
	if result.Err != nil {
		e.AnErr("Reason", result.Err)
	}
}

// Report summarizes a run
type Report struct {
	RunID     uuid.UUID
	StartTime time.Time
	EndTime   time.Time
	Results   []*DatasetResult
}

// Succeeded returns the datasets that produced output
func (report *Report) Succeeded() []*DatasetResult {
	succeeded := make([]*DatasetResult, 0, len(report.Results))
	for _, result := range report.Results {
		if result.Err == nil {
			succeeded = append(succeeded, result)
		}
	}
	return succeeded
}

// Skipped returns the datasets that produced no output along with the reason
func (report *Report) Skipped() []*DatasetResult {
	skipped := make([]*DatasetResult, 0)
	for _, result := range report.Results {
		if result.Err != nil {
			skipped = append(skipped, result)
		}
	}
	return skipped
}

func (report *Report) Elapsed() time.Duration {
	return report.EndTime.Sub(report.StartTime)
}
