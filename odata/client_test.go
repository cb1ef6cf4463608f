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
package odata_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/cbsdata/data"
	"github.com/penny-vault/cbsdata/metadata"
	"github.com/penny-vault/cbsdata/odata"
)

var _ = Describe("Client", func() {
	var (
		ctx        context.Context
		server     *httptest.Server
		client     *odata.Client
		lastQuery  url.Values
		lastUAgent string
	)

	BeforeEach(func() {
		ctx = context.Background()

		mux := http.NewServeMux()
		mux.HandleFunc("/odata/00372eng", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"odata.metadata": "x", "value": [
				{"name": "TableInfos", "url": "http://%[1]s/odata/00372eng/TableInfos"},
				{"name": "TypedDataSet", "url": "http://%[1]s/odata/00372eng/TypedDataSet"},
				{"name": "DataProperties", "url": "http://%[1]s/odata/00372eng/DataProperties"}
			]}`, r.Host)
		})
		mux.HandleFunc("/odata/00372eng/TypedDataSet", func(w http.ResponseWriter, r *http.Request) {
			lastQuery = r.URL.Query()
			lastUAgent = r.UserAgent()
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"value": [
				{"Periods": "2021MM01", "ElectricityPowerPlants_12": 1130.5},
				{"Periods": "2021KW01", "ElectricityPowerPlants_12": 3050},
				{"Periods": "2021MM02", "ElectricityPowerPlants_12": null}
			]}`)
		})
		mux.HandleFunc("/odata/broken/TypedDataSet", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"value": [{"Periods": `)
		})
		mux.HandleFunc("/odata/novalue/TableInfos", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"odata.error": {"code": "x"}}`)
		})
		mux.HandleFunc("/odata/missing", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "not found", http.StatusNotFound)
		})

		server = httptest.NewServer(mux)
		client = odata.New(odata.Config{
			BaseURL:   server.URL + "/odata",
			Timeout:   5 * time.Second,
			RateLimit: 1000,
			RateBurst: 100,
		})
	})

	AfterEach(func() {
		server.Close()
	})

	It("discovers the endpoints of a dataset", func() {
		endpoints, err := client.Catalog(ctx, "00372eng")
		Expect(err).NotTo(HaveOccurred())
		Expect(endpoints).To(HaveLen(3))

		typedURL, err := metadata.EndpointURL(endpoints, metadata.TypedDataSetEndpoint)
		Expect(err).NotTo(HaveOccurred())
		Expect(typedURL).To(HaveSuffix("/odata/00372eng/TypedDataSet"))
	})

	It("fetches the selected columns of a dataset", func() {
		endpoints, err := client.Catalog(ctx, "00372eng")
		Expect(err).NotTo(HaveOccurred())

		table, err := client.TypedDataSet(ctx, endpoints, []string{"Periods", "ElectricityPowerPlants_12"})
		Expect(err).NotTo(HaveOccurred())
		Expect(table).To(HaveLen(3))
		Expect(lastQuery.Get("$select")).To(Equal("Periods,ElectricityPowerPlants_12"))
		Expect(lastUAgent).To(HavePrefix("cbsdata/"))

		val, err := table[0].Float("ElectricityPowerPlants_12")
		Expect(err).NotTo(HaveOccurred())
		Expect(*val).To(Equal(1130.5))

		val, err = table[2].Float("ElectricityPowerPlants_12")
		Expect(err).NotTo(HaveOccurred())
		Expect(val).To(BeNil())
	})

	It("reports non-success status codes as HTTP errors", func() {
		_, err := client.Catalog(ctx, "missing")
		Expect(err).To(MatchError(odata.ErrInvalidStatusCode))
		Expect(err.Error()).To(ContainSubstring("404"))
	})

	It("reports malformed JSON as a decode error", func() {
		endpoints := []data.Endpoint{{Name: metadata.TypedDataSetEndpoint, URL: server.URL + "/odata/broken/TypedDataSet"}}
		_, err := client.TypedDataSet(ctx, endpoints, nil)
		Expect(err).To(MatchError(odata.ErrDecode))
	})

	It("requires a value field", func() {
		_, err := client.Records(ctx, server.URL+"/odata/novalue/TableInfos")
		Expect(err).To(MatchError(odata.ErrDecode))
	})

	It("reports connection failures as request errors", func() {
		closed := httptest.NewServer(http.NotFoundHandler())
		closedURL := closed.URL
		closed.Close()

		_, err := client.Records(ctx, closedURL+"/odata/00372eng/TableInfos")
		Expect(err).To(MatchError(odata.ErrRequestFailed))
	})

	It("needs a TypedDataSet endpoint", func() {
		_, err := client.TypedDataSet(ctx, []data.Endpoint{}, []string{"Periods"})
		Expect(err).To(MatchError(metadata.ErrMissingMetadata))
	})
})
