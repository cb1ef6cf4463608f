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
	"strings"

	"github.com/penny-vault/cbsdata/odata"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cbsdata",
	Short: "cbsdata downloads energy statistics from the CBS open data service",
	Long: `cbsdata is a command line utility for downloading monthly energy and
commodity statistics from the Statistics Netherlands (CBS) open data OData API
and converting them into a normalized long-format time series:

	Date, Time, Value, Commodity, Frequency, Unit

Which datasets to download, which of their columns to keep, and the commodity
each column represents are listed in a JSON dataset configuration file. Units
and frequencies are read from each dataset's own metadata endpoints.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.cbsdata.toml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	if err := viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for log-level failed")
	}

	rootCmd.PersistentFlags().String("datasets", "", "dataset configuration file (default config.json)")
	if err := viper.BindPFlag("datasets.file", rootCmd.PersistentFlags().Lookup("datasets")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for datasets failed")
	}

	setDefaults()
}

func setDefaults() {
	viper.SetDefault("odata.base_url", odata.DefaultBaseURL)
	viper.SetDefault("odata.timeout", odata.DefaultTimeout)
	viper.SetDefault("odata.rate_limit", odata.DefaultRate)
	viper.SetDefault("odata.rate_burst", odata.DefaultBurst)
	viper.SetDefault("datasets.file", "config.json")
	viper.SetDefault("output.dir", ".")
	viper.SetDefault("output.format", "csv")
	viper.SetDefault("output.slugify", false)
	viper.SetDefault("metrics.file", "")
	viper.SetDefault("healthchecks.ping_url", "")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".cbsdata" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("toml")
		viper.SetConfigName(".cbsdata")
	}

	viper.SetEnvPrefix("cbsdata")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Info().Str("ConfigFN", viper.ConfigFileUsed()).Msg("Using config file")
	}

	level, err := zerolog.ParseLevel(viper.GetString("log.level"))
	if err != nil {
		log.Warn().Err(err).Str("LogLevel", viper.GetString("log.level")).Msg("unknown log level; using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}
