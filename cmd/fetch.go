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
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/hako/durafmt"
	"github.com/penny-vault/cbsdata/data"
	"github.com/penny-vault/cbsdata/export"
	"github.com/penny-vault/cbsdata/healthcheck"
	"github.com/penny-vault/cbsdata/library"
	"github.com/penny-vault/cbsdata/metadata"
	"github.com/penny-vault/cbsdata/odata"
	"github.com/penny-vault/cbsdata/runner"
	"github.com/penny-vault/cbsdata/transform"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	errNothingPicked = errors.New("no datasets were selected")
)

var (
	fetchSources   []string
	fetchYear      int
	fetchDateRange string
	fetchPick      bool
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download datasets and write normalized CSV files",
	Long: `The fetch sub-command downloads every configured dataset (or only those
named with --source), normalizes the monthly observations and writes two files
per dataset:

    <title>_<year>.csv   observations of the --year calendar year (default 2018)
    <title>.csv          all observations, limited to --date-range when given

--date-range takes two dates (YYYY-MM-DD) in any order; both ends are
excluded. A dataset that cannot be downloaded is reported and skipped.`,
	Example: `  cbsdata fetch
  cbsdata fetch --source=00372eng,84575ENG --year=2020
  cbsdata fetch --date-range=2020-12-01,2021-03-01 --format=parquet`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := log.Logger.WithContext(context.Background())

		if fetchYear <= 0 {
			log.Fatal().Int("Year", fetchYear).Msg("--year must be a positive calendar year")
		}

		var dateRange *data.DateRange
		if cmd.Flags().Changed("date-range") {
			parsed, err := data.ParseDateRange(fetchDateRange)
			if err != nil {
				log.Fatal().Err(err).Str("DateRange", fetchDateRange).Msg("invalid --date-range")
			}
			dateRange = &parsed
		}

		format, err := export.ParseFormat(viper.GetString("output.format"))
		if err != nil {
			log.Fatal().Err(err).Msg("invalid output format")
		}

		datasetsFN := viper.GetString("datasets.file")
		cfg, err := library.LoadConfig(datasetsFN)
		if err != nil {
			log.Fatal().Err(err).Str("FileName", datasetsFN).Msg("could not load dataset configuration")
		}

		sources := fetchSources
		if fetchPick {
			sources, err = pickDatasets(cfg)
			if err != nil {
				log.Fatal().Err(err).Msg("dataset selection failed")
			}
		}

		client := newClient()

		myLibrary, err := library.Discover(ctx, datasetsFN, cfg, sources, client)
		if err != nil {
			log.Fatal().Err(err).Strs("Sources", sources).Msg("invalid --source")
		}

		run := runner.New(client, transform.New(metadata.NewCache(client)), runner.Options{
			Year:      fetchYear,
			DateRange: dateRange,
			Writer: &export.Writer{
				Dir:     viper.GetString("output.dir"),
				Format:  format,
				Slugify: viper.GetBool("output.slugify"),
			},
			MetricsFile: viper.GetString("metrics.file"),
		})

		monitor := healthcheck.New(viper.GetString("healthchecks.ping_url"), viper.GetDuration("odata.timeout"))
		if err := monitor.Start(ctx); err != nil {
			log.Warn().Err(err).Msg("could not signal run start to healthchecks.io")
		}

		report, err := run.Run(ctx, myLibrary)
		fmt.Println(renderReport(report))

		notify := monitor.Success
		if err != nil || len(report.Skipped()) > 0 {
			notify = monitor.Fail
		}
		if err := notify(ctx, reportText(report)); err != nil {
			log.Warn().Err(err).Msg("could not signal run result to healthchecks.io")
		}

		if err != nil {
			log.Fatal().Err(err).Msg("run finished with errors")
		}
	},
}

func newClient() *odata.Client {
	return odata.New(odata.Config{
		BaseURL:   viper.GetString("odata.base_url"),
		Timeout:   viper.GetDuration("odata.timeout"),
		RateLimit: viper.GetFloat64("odata.rate_limit"),
		RateBurst: viper.GetInt("odata.rate_burst"),
	})
}

// pickDatasets asks the user which of the configured datasets to download
func pickDatasets(cfg library.Config) ([]string, error) {
	options := make([]huh.Option[string], 0, len(cfg))
	for _, key := range cfg.Keys() {
		options = append(options, huh.NewOption[string](fmt.Sprintf("%s (%s)", cfg[key].Title, key), key))
	}

	var selected []string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Which datasets should be downloaded?").
				Options(options...).
				Value(&selected),
		),
	)

	if err := form.Run(); err != nil {
		return nil, err
	}

	return checkPicked(selected)
}

// checkPicked rejects an empty interactive selection
func checkPicked(selected []string) ([]string, error) {
	if len(selected) == 0 {
		return nil, errNothingPicked
	}
	return selected, nil
}

// reportText is a plain text version of the report for the healthchecks.io event log
func reportText(report *runner.Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "run %s\n", report.RunID)
	for _, result := range report.Results {
		if result.Err != nil {
			fmt.Fprintf(&sb, "%s: skipped: %s\n", result.Key, result.Err)
		} else {
			fmt.Fprintf(&sb, "%s: %d observations\n", result.Key, result.Rows)
		}
	}
	return sb.String()
}

func renderReport(report *runner.Report) string {
	var sb strings.Builder

	keyword := func(s string) string {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Render(s)
	}
	failure := func(s string) string {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render(s)
	}

	fmt.Fprintf(&sb, "%s\n\nRun: %s\nElapsed: %s\n",
		lipgloss.NewStyle().Bold(true).Render("RUN REPORT"),
		keyword(report.RunID.String()),
		keyword(durafmt.Parse(report.Elapsed()).LimitFirstN(2).String()),
	)

	if succeeded := report.Succeeded(); len(succeeded) > 0 {
		fmt.Fprintf(&sb, "\n%s\n", lipgloss.NewStyle().Bold(true).Render("Written"))
		for _, result := range succeeded {
			fmt.Fprintf(&sb, "\n%s (%s): %s observations\n", keyword(result.Title), result.Key, keyword(fmt.Sprint(result.Rows)))
			for _, fn := range result.Files {
				fmt.Fprintf(&sb, "  %s\n", fn)
			}
		}
	}

	if skipped := report.Skipped(); len(skipped) > 0 {
		fmt.Fprintf(&sb, "\n%s\n", lipgloss.NewStyle().Bold(true).Render("Skipped"))
		for _, result := range skipped {
			fmt.Fprintf(&sb, "\n%s (%s): %s\n", keyword(result.Title), result.Key, failure(result.Err.Error()))
		}
	}

	return lipgloss.NewStyle().
		Width(80).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Padding(1, 2).
		Render(sb.String())
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringSliceVar(&fetchSources, "source", nil, "comma separated dataset keys to download (default all configured datasets)")
	fetchCmd.Flags().IntVar(&fetchYear, "year", runner.DefaultYear, "calendar year written to <title>_<year>.csv")
	fetchCmd.Flags().StringVar(&fetchDateRange, "date-range", "", "two dates start,end (YYYY-MM-DD) limiting <title>.csv")
	fetchCmd.Flags().BoolVar(&fetchPick, "pick", false, "choose datasets interactively")

	fetchCmd.Flags().String("output-dir", "", "directory output files are written to")
	fetchCmd.Flags().String("format", "", "output format: csv or parquet")
	fetchCmd.Flags().String("metrics-file", "", "write prometheus metrics in text format to this file")

	for key, flag := range map[string]string{
		"output.dir":    "output-dir",
		"output.format": "format",
		"metrics.file":  "metrics-file",
	} {
		if err := viper.BindPFlag(key, fetchCmd.Flags().Lookup(flag)); err != nil {
			log.Panic().Err(err).Str("Flag", flag).Msg("BindPFlag failed")
		}
	}
}
