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
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	ErrInvalidDateRange = errors.New("date range must be two dates formatted as YYYY-MM-DD")
)

// DateRange is an open interval; both ends are excluded when filtering
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange orders the endpoints so Start is never after End
func NewDateRange(a, b time.Time) DateRange {
	if b.Before(a) {
		a, b = b, a
	}
	return DateRange{Start: a, End: b}
}

// ParseDateRange parses the argument of --date-range. Exactly two comma
// separated dates are required; their order does not matter.
func ParseDateRange(s string) (DateRange, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return DateRange{}, fmt.Errorf("%w: got %d value(s) in %q", ErrInvalidDateRange, len(parts), s)
	}

	dates := make([]time.Time, 2)
	for idx, part := range parts {
		dt, err := time.Parse(DateLayout, strings.TrimSpace(part))
		if err != nil {
			return DateRange{}, fmt.Errorf("%w: %q", ErrInvalidDateRange, part)
		}
		dates[idx] = dt
	}

	return NewDateRange(dates[0], dates[1]), nil
}

func (dr DateRange) String() string {
	return fmt.Sprintf("%s,%s", dr.Start.Format(DateLayout), dr.End.Format(DateLayout))
}

// Contains reports whether t lies strictly between Start and End
func (dr DateRange) Contains(t time.Time) bool {
	return t.After(dr.Start) && t.Before(dr.End)
}

// FilterYear keeps observations dated within the given calendar year
func FilterYear(observations []*Observation, year int) []*Observation {
	filtered := make([]*Observation, 0, len(observations))
	for _, obs := range observations {
		if obs.Date.Year() == year {
			filtered = append(filtered, obs)
		}
	}
	return filtered
}

// FilterDateRange keeps observations strictly inside the range
func FilterDateRange(observations []*Observation, dateRange DateRange) []*Observation {
	filtered := make([]*Observation, 0, len(observations))
	for _, obs := range observations {
		if dateRange.Contains(obs.Date.Time) {
			filtered = append(filtered, obs)
		}
	}
	return filtered
}

// SortByDate orders observations by ascending date. Observations sharing a
// date keep their relative order.
func SortByDate(observations []*Observation) {
	sort.SliceStable(observations, func(i, j int) bool {
		return observations[i].Date.Before(observations[j].Date.Time)
	})
}
