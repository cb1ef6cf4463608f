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
	"strconv"
	"strings"
	"time"
)

const monthlyMarker = "MM"

var (
	ErrMalformedPeriod = errors.New("malformed monthly period code")
)

// ParsePeriod converts an OData period code into the first day of the month it
// represents. Codes without the monthly marker (quarters, years) return
// ok=false and no error; those rows are not representable and get dropped.
//
//	"2021MM03" -> 2021-03-01
//	"2021KW01" -> not ok
func ParsePeriod(code string) (date time.Time, ok bool, err error) {
	if !strings.Contains(code, monthlyMarker) {
		return time.Time{}, false, nil
	}

	if len(code) < 6 {
		return time.Time{}, false, fmt.Errorf("%w: %q is too short", ErrMalformedPeriod, code)
	}

	yearDigits := code[:4]
	if !isDigits(yearDigits) {
		return time.Time{}, false, fmt.Errorf("%w: %q has invalid year", ErrMalformedPeriod, code)
	}

	monthDigits := code[len(code)-2:]
	if !isDigits(monthDigits) {
		return time.Time{}, false, fmt.Errorf("%w: %q has invalid month", ErrMalformedPeriod, code)
	}

	year, err := strconv.Atoi(yearDigits)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %q has invalid year", ErrMalformedPeriod, code)
	}

	month, err := strconv.Atoi(monthDigits)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %q has invalid month", ErrMalformedPeriod, code)
	}

	if month < 1 || month > 12 {
		return time.Time{}, false, fmt.Errorf("%w: %q month %d out of range", ErrMalformedPeriod, code, month)
	}

	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), true, nil
}

// isDigits reports whether s is non-empty and all ASCII digits (no sign)
func isDigits(s string) bool {
	for idx := 0; idx < len(s); idx++ {
		if s[idx] < '0' || s[idx] > '9' {
			return false
		}
	}
	return s != ""
}
