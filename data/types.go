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
package data

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Record is a single JSON object returned in the "value" array of an OData
// endpoint. Raw dataset rows and metadata records share this representation.
type Record map[string]interface{}

// Table is the wide, API-native representation of a dataset: one record per
// period, one column per measured series.
type Table []Record

// Endpoint is a named sub-resource of a dataset as listed in the catalog
// (e.g. TypedDataSet, TableInfos, DataProperties).
type Endpoint struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Date is a calendar day serialized as YYYY-MM-DD
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalCSV() (string, error) {
	return d.Format(DateLayout), nil
}

func (d *Date) UnmarshalCSV(s string) error {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Observation is one normalized row of the long-format output
type Observation struct {
	Date      Date     `csv:"Date"`
	Time      string   `csv:"Time"`
	Value     *float64 `csv:"Value"`
	Commodity string   `csv:"Commodity"`
	Frequency string   `csv:"Frequency"`
	Unit      string   `csv:"Unit"`
}

func (obs *Observation) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Date", obs.Date.Format(DateLayout))
	e.Str("Time", obs.Time)
	if obs.Value != nil {
		e.Float64("Value", *obs.Value)
	}
	e.Str("Commodity", obs.Commodity)
	e.Str("Frequency", obs.Frequency)
	e.Str("Unit", obs.Unit)
}

// Float returns the numeric value of the named column. Absent and null cells
// return nil without an error.
func (rec Record) Float(column string) (*float64, error) {
	raw, ok := rec[column]
	if !ok || raw == nil {
		return nil, nil
	}

	switch v := raw.(type) {
	case float64:
		return &v, nil
	case float32:
		f := float64(v)
		return &f, nil
	case int:
		f := float64(v)
		return &f, nil
	case int64:
		f := float64(v)
		return &f, nil
	case fmt.Stringer:
		return parseFloat(v.String())
	case string:
		return parseFloat(v)
	default:
		return nil, fmt.Errorf("column %s has non-numeric type %T", column, raw)
	}
}

// String returns the named column as a string, or false if the column is
// missing or not a string.
func (rec Record) String(column string) (string, bool) {
	raw, ok := rec[column]
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok
}

func parseFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
