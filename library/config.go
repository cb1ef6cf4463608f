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
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

var (
	ErrInvalidConfig  = errors.New("invalid dataset configuration")
	ErrUnknownDataset = errors.New("dataset is not configured")
)

// DatasetConfig describes which columns of a dataset to retrieve and which
// commodity each value column represents. The first column is the period
// column.
type DatasetConfig struct {
	Title     string            `json:"title"`
	Columns   []string          `json:"columns"`
	Commodity map[string]string `json:"commodity"`
}

// Config maps a dataset catalog key (e.g. 00372eng) to its configuration
type Config map[string]*DatasetConfig

// LoadConfig reads and validates a JSON dataset configuration file
func LoadConfig(fn string) (Config, error) {
	contents, err := os.ReadFile(fn)
	if err != nil {
		return nil, err
	}

	return ParseConfig(contents)
}

func ParseConfig(contents []byte) (Config, error) {
	cfg := make(Config)
	if err := json.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks every dataset and reports all problems at once
func (cfg Config) Validate() error {
	var errs []error

	if len(cfg) == 0 {
		errs = append(errs, fmt.Errorf("%w: no datasets configured", ErrInvalidConfig))
	}

	// titles name the output files and must not collide
	titles := make(map[string]string, len(cfg))

	for _, key := range cfg.Keys() {
		dsCfg := cfg[key]
		if dsCfg == nil {
			errs = append(errs, fmt.Errorf("%w: %s is empty", ErrInvalidConfig, key))
			continue
		}

		title := strings.TrimSpace(dsCfg.Title)
		if title == "" {
			errs = append(errs, fmt.Errorf("%w: %s has no title", ErrInvalidConfig, key))
		} else if other, ok := titles[title]; ok {
			errs = append(errs, fmt.Errorf("%w: %s and %s share the title %q", ErrInvalidConfig, other, key, title))
		} else {
			titles[title] = key
		}

		if len(dsCfg.Columns) < 2 {
			errs = append(errs, fmt.Errorf("%w: %s needs a period column and at least one value column", ErrInvalidConfig, key))
			continue
		}

		for _, column := range dsCfg.Columns[1:] {
			if label, ok := dsCfg.Commodity[column]; !ok || strings.TrimSpace(label) == "" {
				errs = append(errs, fmt.Errorf("%w: %s column %s has no commodity label", ErrInvalidConfig, key, column))
			}
		}
	}

	return errors.Join(errs...)
}

// Keys returns the configured dataset keys in sorted order
func (cfg Config) Keys() []string {
	keys := make([]string, 0, len(cfg))
	for key := range cfg {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Select resolves a --source selection. An empty selection means every
// configured dataset; duplicates are dropped and order is preserved.
func (cfg Config) Select(keys []string) ([]string, error) {
	if len(keys) == 0 {
		return cfg.Keys(), nil
	}

	selected := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" || seen[key] {
			continue
		}

		if _, ok := cfg[key]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownDataset, key)
		}

		seen[key] = true
		selected = append(selected, key)
	}

	if len(selected) == 0 {
		return cfg.Keys(), nil
	}

	return selected, nil
}
