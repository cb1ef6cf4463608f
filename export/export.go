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
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/gosimple/slug"
	"github.com/penny-vault/cbsdata/data"
)

type Format string

const (
	CSV     Format = "csv"
	Parquet Format = "parquet"
)

var (
	ErrUnknownFormat = errors.New("unknown output format")
)

// ParseFormat validates the --format flag
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case CSV, "":
		return CSV, nil
	case Parquet:
		return Parquet, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, s)
	}
}

// Writer persists observations to files in a directory
type Writer struct {
	Dir     string
	Format  Format
	Slugify bool
}

// FileName returns the output path for a dataset title. A non-zero year
// produces the per-year file name <title>_<year>.
func (writer *Writer) FileName(title string, year int) string {
	base := title
	if writer.Slugify {
		base = slug.Make(title)
	}

	if year != 0 {
		base = fmt.Sprintf("%s_%d", base, year)
	}

	format := writer.Format
	if format == "" {
		format = CSV
	}

	return filepath.Join(writer.Dir, fmt.Sprintf("%s.%s", base, format))
}

// Write saves observations to fn in the writer's format
func (writer *Writer) Write(fn string, observations []*data.Observation) error {
	if writer.Dir != "" {
		if err := os.MkdirAll(writer.Dir, 0755); err != nil {
			return err
		}
	}

	switch writer.Format {
	case Parquet:
		return WriteParquet(fn, observations)
	default:
		return WriteCSV(fn, observations)
	}
}

// WriteCSV saves observations with the columns Date, Time, Value, Commodity,
// Frequency, Unit
func WriteCSV(fn string, observations []*data.Observation) error {
	fh, err := os.Create(fn)
	if err != nil {
		return err
	}

	if err := gocsv.Marshal(&observations, fh); err != nil {
		fh.Close()
		return fmt.Errorf("write %s: %w", fn, err)
	}

	return fh.Close()
}
