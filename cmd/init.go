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
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/penny-vault/cbsdata/export"
	"github.com/penny-vault/cbsdata/library"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Gather settings and write them to the config file",
	Run: func(cmd *cobra.Command, args []string) {
		mySettings := defaultSettings()

		form := huh.NewForm(
			// Where data comes from
			huh.NewGroup(
				huh.NewInput().
					Title("Base URL of the OData service:").
					Value(&mySettings.OData.BaseURL).
					Validate(func(s string) error {
						if strings.TrimSpace(s) == "" {
							return errBlank
						}
						return nil
					}),
				huh.NewInput().
					Title("Timeout for each request (e.g. 30s):").
					Value(&mySettings.OData.Timeout).
					Validate(func(s string) error {
						_, err := time.ParseDuration(s)
						return err
					}),
				huh.NewInput().
					Title("Dataset configuration file:").
					Value(&mySettings.Datasets.File).
					Validate(func(fn string) error {
						_, err := library.LoadConfig(fn)
						return err
					}),
			),

			// Where data goes
			huh.NewGroup(
				huh.NewInput().
					Title("Directory to write output files to:").
					Value(&mySettings.Output.Dir),
				huh.NewSelect[string]().
					Title("Output format:").
					Options(
						huh.NewOption[string]("CSV", string(export.CSV)),
						huh.NewOption[string]("Parquet", string(export.Parquet)),
					).
					Value(&mySettings.Output.Format),
				huh.NewConfirm().
					Title("Slugify dataset titles in file names?").
					Value(&mySettings.Output.Slugify),
				huh.NewInput().
					Title("healthchecks.io ping URL (leave blank to disable):").
					Value(&mySettings.Healthchecks.PingURL),
			),
		)

		err := form.Run()
		if err != nil {
			log.Fatal().Err(err).Msg("error gathering settings")
		}

		configFN := cfgFile
		if configFN == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				log.Fatal().Err(err).Msg("could not determine user home directory")
			}
			configFN = filepath.Join(home, ".cbsdata.toml")
		}

		log.Info().Str("ConfigFile", configFN).Msg("Saving settings to config file")
		if err := mySettings.save(configFN); err != nil {
			log.Fatal().Err(err).Str("FileName", configFN).Msg("could not save configuration to file")
		}

		log.Info().Msg("cbsdata has been initialized")
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
