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
package healthcheck_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/cbsdata/healthcheck"
)

var _ = Describe("Monitor", func() {
	var (
		ctx    context.Context
		server *httptest.Server
		paths  []string
		bodies []string
	)

	BeforeEach(func() {
		ctx = context.Background()
		paths = nil
		bodies = nil
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			paths = append(paths, r.URL.Path)
			bodies = append(bodies, string(body))
			if r.URL.Path == "/ping/gone" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	It("pings start, success and fail", func() {
		monitor := healthcheck.New(server.URL+"/ping/abc/", 5*time.Second)
		Expect(monitor.Start(ctx)).To(Succeed())
		Expect(monitor.Success(ctx, "2 datasets written")).To(Succeed())
		Expect(monitor.Fail(ctx, "gas: offline")).To(Succeed())

		Expect(paths).To(Equal([]string{"/ping/abc/start", "/ping/abc", "/ping/abc/fail"}))
		Expect(bodies[1]).To(Equal("2 datasets written"))
		Expect(bodies[2]).To(Equal("gas: offline"))
	})

	It("does nothing without a ping url", func() {
		monitor := healthcheck.New("", time.Second)
		Expect(monitor.Start(ctx)).To(Succeed())
		Expect(paths).To(BeEmpty())
	})

	It("reports unexpected status codes", func() {
		monitor := healthcheck.New(server.URL+"/ping/gone", 5*time.Second)
		Expect(monitor.Success(ctx, "")).To(MatchError(healthcheck.ErrStatus))
	})
})
