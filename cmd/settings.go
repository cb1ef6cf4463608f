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
package cmd

import (
	"errors"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/penny-vault/cbsdata/odata"
)

var (
	errBlank = errors.New("value must not be blank")
)

// settings mirrors the keys read through viper so that init can write a
// complete configuration file
type settings struct {
	OData    odataSettings    `toml:"odata"`
	Datasets datasetsSettings `toml:"datasets"`
	Output   outputSettings   `toml:"output"`
	Metrics  metricsSettings  `toml:"metrics"`
	Log      logSettings      `toml:"log"`

	Healthchecks healthchecksSettings `toml:"healthchecks"`
}

type odataSettings struct {
	BaseURL   string  `toml:"base_url"`
	Timeout   string  `toml:"timeout"`
	RateLimit float64 `toml:"rate_limit"`
	RateBurst int     `toml:"rate_burst"`
}

type datasetsSettings struct {
	File string `toml:"file"`
}

type outputSettings struct {
	Dir     string `toml:"dir"`
	Format  string `toml:"format"`
	Slugify bool   `toml:"slugify"`
}

type metricsSettings struct {
	File string `toml:"file"`
}

type healthchecksSettings struct {
	PingURL string `toml:"ping_url"`
}

type logSettings struct {
	Level string `toml:"level"`
}

func defaultSettings() *settings {
	return &settings{
		OData: odataSettings{
			BaseURL:   odata.DefaultBaseURL,
			Timeout:   odata.DefaultTimeout.String(),
			RateLimit: odata.DefaultRate,
			RateBurst: odata.DefaultBurst,
		},
		Datasets: datasetsSettings{File: "config.json"},
		Output:   outputSettings{Dir: ".", Format: "csv"},
		Log:      logSettings{Level: "info"},
	}
}

func (mySettings *settings) save(fn string) error {
	contents, err := toml.Marshal(mySettings)
	if err != nil {
		return err
	}

	return os.WriteFile(fn, contents, 0644)
}
