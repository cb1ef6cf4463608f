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
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xeonx/timeago"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ageFormat is timeago.English without the switch to absolute dates after a few days
var ageFormat = func() timeago.Config {
	cfg := timeago.English
	cfg.Max = 100 * 365 * 24 * time.Hour
	return cfg
}()

// Summary returns a description of the library in markdown
func (myLibrary *Library) Summary() (string, error) {
	p := message.NewPrinter(language.English)
	builder := strings.Builder{}

	if _, err := builder.WriteString(fmt.Sprintf("# %s\n", myLibrary.Name)); err != nil {
		return "", err
	}

	numSeries := 0
	for _, dataset := range myLibrary.datasets {
		numSeries += len(dataset.ValueColumns())
	}

	if _, err := builder.WriteString(p.Sprintf("  * Datasets: %d\n  * Series: %d\n\n", len(myLibrary.datasets), numSeries)); err != nil {
		return "", err
	}

	for _, dataset := range myLibrary.datasets {
		if _, err := builder.WriteString(fmt.Sprintf("## %s (%s)\n\n", dataset.Title, dataset.Key)); err != nil {
			return "", err
		}

		if !dataset.Modified.IsZero() {
			age := ageFormat.Format(dataset.Modified)
			if _, err := builder.WriteString(fmt.Sprintf("Last Updated: %s (%s)\n\n", age, dataset.Modified.Local().Format("01/02/2006"))); err != nil {
				return "", err
			}
		}

		if _, err := builder.WriteString(fmt.Sprintf("Period column: `%s`\n\n", dataset.PeriodColumn())); err != nil {
			return "", err
		}

		for _, column := range dataset.ValueColumns() {
			if _, err := builder.WriteString(fmt.Sprintf("  * `%s` → %s\n", column, dataset.Commodity[column])); err != nil {
				return "", err
			}
		}

		if dataset.DiscoveryErr != nil {
			if _, err := builder.WriteString(fmt.Sprintf("\n**Discovery failed:** %s\n", dataset.DiscoveryErr)); err != nil {
				return "", err
			}
		} else if len(dataset.Endpoints) > 0 {
			if _, err := builder.WriteString("\n### Endpoints\n\n"); err != nil {
				return "", err
			}

			endpoints := make([]string, 0, len(dataset.Endpoints))
			for _, endpoint := range dataset.Endpoints {
				endpoints = append(endpoints, fmt.Sprintf("  * %s: %s\n", endpoint.Name, endpoint.URL))
			}
			sort.Strings(endpoints)

			if _, err := builder.WriteString(strings.Join(endpoints, "")); err != nil {
				return "", err
			}
		}

		if _, err := builder.WriteString("\n"); err != nil {
			return "", err
		}
	}

	return builder.String(), nil
}
