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
	"context"
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/penny-vault/cbsdata/library"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var discover bool

// datasetsCmd represents the datasets command
var datasetsCmd = &cobra.Command{
	Use:   "datasets [key...]",
	Short: "List configured datasets or get details about specific datasets",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := log.Logger.WithContext(context.Background())

		datasetsFN := viper.GetString("datasets.file")
		cfg, err := library.LoadConfig(datasetsFN)
		if err != nil {
			log.Fatal().Err(err).Str("FileName", datasetsFN).Msg("could not load dataset configuration")
		}

		var myLibrary *library.Library
		if discover {
			client := newClient()
			myLibrary, err = library.DiscoverDetails(ctx, datasetsFN, cfg, args, client, client)
		} else {
			myLibrary, err = library.New(datasetsFN, cfg, args)
		}
		if err != nil {
			log.Fatal().Err(err).Strs("Datasets", args).Msg("could not build library")
		}

		summary, err := myLibrary.Summary()
		if err != nil {
			log.Fatal().Err(err).Msg("could not create library summary document")
		}

		r, _ := glamour.NewTermRenderer(
			// detect background color and pick either the default dark or light theme
			glamour.WithAutoStyle(),
			// wrap output at specific width (default is 80)
			glamour.WithWordWrap(80),
		)

		out, err := r.Render(summary)
		if err != nil {
			log.Fatal().Err(err).Msg("could not render summary document")
		}

		fmt.Print(out)
	},
}

func init() {
	rootCmd.AddCommand(datasetsCmd)

	datasetsCmd.Flags().BoolVar(&discover, "discover", false, "query the catalog for each dataset's endpoints")
}
