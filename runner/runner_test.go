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
package runner_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/cbsdata/data"
	"github.com/penny-vault/cbsdata/export"
	"github.com/penny-vault/cbsdata/library"
	"github.com/penny-vault/cbsdata/metadata"
	"github.com/penny-vault/cbsdata/odata"
	"github.com/penny-vault/cbsdata/runner"
	"github.com/penny-vault/cbsdata/transform"
)

const configJSON = `{
	"00372eng": {
		"title": "gas",
		"columns": ["Periods", "ElectricityPowerPlants_12"],
		"commodity": {"ElectricityPowerPlants_12": "gas"}
	},
	"84575ENG": {
		"title": "electricity",
		"columns": ["Periods", "NetProductionTotal_3", "NetConsumptionCalculated_30"],
		"commodity": {"NetProductionTotal_3": "el-prod", "NetConsumptionCalculated_30": "el-cons"}
	},
	"99999ENG": {
		"title": "broken",
		"columns": ["Periods", "Value_1"],
		"commodity": {"Value_1": "broken"}
	}
}`

// metadataFailuresJSON lists datasets whose data downloads fine but whose
// metadata endpoints fail
const metadataFailuresJSON = `{
	"88888ENG": {
		"title": "no-table-infos",
		"columns": ["Periods", "Value_1"],
		"commodity": {"Value_1": "gas"}
	},
	"77777ENG": {
		"title": "no-data-properties",
		"columns": ["Periods", "Value_1"],
		"commodity": {"Value_1": "gas"}
	}
}`

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, body)
}

// openDataService serves monthly data for 2017-2021 plus yearly totals
func openDataService() *httptest.Server {
	mux := http.NewServeMux()

	for _, key := range []string{"00372eng", "84575ENG", "99999ENG", "88888ENG", "77777ENG"} {
		key := key
		mux.HandleFunc("/odata/"+key, func(w http.ResponseWriter, r *http.Request) {
			base := "http://" + r.Host + "/odata/" + key
			writeJSON(w, fmt.Sprintf(`{"value": [
				{"name": "TableInfos", "url": "%[1]s/TableInfos"},
				{"name": "DataProperties", "url": "%[1]s/DataProperties"},
				{"name": "TypedDataSet", "url": "%[1]s/TypedDataSet"}
			]}`, base))
		})
	}

	mux.HandleFunc("/odata/00372eng/TableInfos", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"value": [{"Frequency": "Monthly"}]}`)
	})
	mux.HandleFunc("/odata/00372eng/DataProperties", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"value": [{"Key": "ElectricityPowerPlants_12", "Unit": "mln m3"}]}`)
	})
	mux.HandleFunc("/odata/84575ENG/TableInfos", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"value": [{"Frequency": "Monthly"}]}`)
	})
	mux.HandleFunc("/odata/84575ENG/DataProperties", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"value": [
			{"Key": "NetProductionTotal_3", "Unit": "mln kWh"},
			{"Key": "NetConsumptionCalculated_30", "Unit": "mln kWh"}
		]}`)
	})

	typed := func(columns ...string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			rows := make([]string, 0, 65)
			for year := 2017; year <= 2021; year++ {
				for month := 1; month <= 12; month++ {
					cells := []string{fmt.Sprintf(`"Periods": "%dMM%02d"`, year, month)}
					for idx, column := range columns {
						cells = append(cells, fmt.Sprintf(`"%s": %d`, column, year*100+month+idx))
					}
					rows = append(rows, "{"+strings.Join(cells, ", ")+"}")
				}
				rows = append(rows, fmt.Sprintf(`{"Periods": "%dJJ00"}`, year))
			}
			writeJSON(w, `{"value": [`+strings.Join(rows, ",\n")+`]}`)
		}
	}

	serverError := func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}

	mux.HandleFunc("/odata/88888ENG/TableInfos", serverError)
	mux.HandleFunc("/odata/88888ENG/DataProperties", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"value": [{"Key": "Value_1", "Unit": "mln m3"}]}`)
	})
	mux.HandleFunc("/odata/88888ENG/TypedDataSet", typed("Value_1"))
	mux.HandleFunc("/odata/77777ENG/TableInfos", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"value": [{"Frequency": "Monthly"}]}`)
	})
	mux.HandleFunc("/odata/77777ENG/DataProperties", serverError)
	mux.HandleFunc("/odata/77777ENG/TypedDataSet", typed("Value_1"))

	mux.HandleFunc("/odata/00372eng/TypedDataSet", typed("ElectricityPowerPlants_12"))
	mux.HandleFunc("/odata/84575ENG/TypedDataSet", typed("NetProductionTotal_3", "NetConsumptionCalculated_30"))
	mux.HandleFunc("/odata/99999ENG/TypedDataSet", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal server error", http.StatusInternalServerError)
	})

	return httptest.NewServer(mux)
}

func countLines(fn string) int {
	contents, err := os.ReadFile(fn)
	Expect(err).NotTo(HaveOccurred())
	return strings.Count(string(contents), "\n")
}

var _ = Describe("Runner", func() {
	var (
		ctx       context.Context
		server    *httptest.Server
		client    *odata.Client
		dir       string
		myLibrary *library.Library
	)

	BeforeEach(func() {
		ctx = context.Background()
		server = openDataService()
		dir = GinkgoT().TempDir()
		client = odata.New(odata.Config{
			BaseURL:   server.URL + "/odata/",
			Timeout:   5 * time.Second,
			RateLimit: 1000,
			RateBurst: 100,
		})

		cfg, err := library.ParseConfig([]byte(configJSON))
		Expect(err).NotTo(HaveOccurred())

		myLibrary, err = library.Discover(ctx, "config.json", cfg, nil, client)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	newRunner := func(options runner.Options) *runner.Runner {
		options.Writer = &export.Writer{Dir: dir, Format: export.CSV}
		return runner.New(client, transform.New(metadata.NewCache(client)), options)
	}

	It("writes a full and a per-year file for each dataset", func() {
		report, err := newRunner(runner.Options{}).Run(ctx, myLibrary)
		Expect(err).NotTo(HaveOccurred())

		Expect(report.Succeeded()).To(HaveLen(2))
		Expect(report.Skipped()).To(HaveLen(1))
		Expect(report.RunID.String()).NotTo(BeEmpty())

		// header + one line per monthly observation
		Expect(countLines(filepath.Join(dir, "gas.csv"))).To(Equal(1 + 60))
		Expect(countLines(filepath.Join(dir, "gas_2018.csv"))).To(Equal(1 + 12))
		Expect(countLines(filepath.Join(dir, "electricity.csv"))).To(Equal(1 + 120))
		Expect(countLines(filepath.Join(dir, "electricity_2018.csv"))).To(Equal(1 + 24))

		contents, err := os.ReadFile(filepath.Join(dir, "gas_2018.csv"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(contents)).To(HavePrefix("Date,Time,Value,Commodity,Frequency,Unit\n2018-01-01,00:00,201801,gas,Monthly,mlnm3\n"))
	})

	It("skips datasets that fail to download without writing files", func() {
		report, err := newRunner(runner.Options{}).Run(ctx, myLibrary)
		Expect(err).NotTo(HaveOccurred())

		skipped := report.Skipped()
		Expect(skipped[0].Key).To(Equal("99999ENG"))
		Expect(skipped[0].Err).To(MatchError(odata.ErrInvalidStatusCode))
		Expect(skipped[0].Files).To(BeEmpty())
		Expect(filepath.Join(dir, "broken.csv")).NotTo(BeAnExistingFile())
		Expect(filepath.Join(dir, "broken_2018.csv")).NotTo(BeAnExistingFile())
	})

	It("skips datasets whose metadata cannot be fetched without writing files", func() {
		cfg, err := library.ParseConfig([]byte(metadataFailuresJSON))
		Expect(err).NotTo(HaveOccurred())

		failing, err := library.Discover(ctx, "config.json", cfg, nil, client)
		Expect(err).NotTo(HaveOccurred())

		report, err := newRunner(runner.Options{}).Run(ctx, failing)
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Succeeded()).To(BeEmpty())

		skipped := report.Skipped()
		Expect(skipped).To(HaveLen(2))
		for _, result := range skipped {
			Expect(result.Err).To(MatchError(odata.ErrInvalidStatusCode))
			Expect(result.Files).To(BeEmpty())
		}

		for _, title := range []string{"no-table-infos", "no-data-properties"} {
			Expect(filepath.Join(dir, title+".csv")).NotTo(BeAnExistingFile())
			Expect(filepath.Join(dir, title+"_2018.csv")).NotTo(BeAnExistingFile())
		}
	})

	It("restricts the full file to the date range", func() {
		dateRange, err := data.ParseDateRange("2021-03-01,2020-12-01")
		Expect(err).NotTo(HaveOccurred())

		report, err := newRunner(runner.Options{Year: 2020, DateRange: &dateRange}).Run(ctx, myLibrary)
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Succeeded()).To(HaveLen(2))

		Expect(countLines(filepath.Join(dir, "gas.csv"))).To(Equal(1 + 2))
		Expect(countLines(filepath.Join(dir, "electricity.csv"))).To(Equal(1 + 4))
		Expect(countLines(filepath.Join(dir, "gas_2020.csv"))).To(Equal(1 + 12))
		Expect(filepath.Join(dir, "gas_2018.csv")).NotTo(BeAnExistingFile())
	})

	It("reports datasets whose discovery failed", func() {
		server.Close()
		cfg, err := library.ParseConfig([]byte(configJSON))
		Expect(err).NotTo(HaveOccurred())

		offline, err := library.Discover(ctx, "config.json", cfg, []string{"00372eng"}, client)
		Expect(err).NotTo(HaveOccurred())

		report, err := newRunner(runner.Options{}).Run(ctx, offline)
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Succeeded()).To(BeEmpty())
		Expect(report.Skipped()[0].Err).To(MatchError(odata.ErrRequestFailed))
	})

	It("writes metrics when asked to", func() {
		metricsFN := filepath.Join(dir, "cbsdata.prom")
		_, err := newRunner(runner.Options{MetricsFile: metricsFN}).Run(ctx, myLibrary)
		Expect(err).NotTo(HaveOccurred())

		contents, err := os.ReadFile(metricsFN)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(contents)).To(ContainSubstring(`cbsdata_observations_total{dataset="00372eng"} 60`))
		Expect(string(contents)).To(ContainSubstring(`cbsdata_datasets_total{result="skipped"} 1`))
		Expect(string(contents)).To(ContainSubstring(`cbsdata_datasets_total{result="success"} 2`))
	})
})
