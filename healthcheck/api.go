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
package healthcheck

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/penny-vault/cbsdata/pkginfo"
)

var (
	ErrStatus = errors.New("status code is invalid")
)

// Monitor reports the progress of a run to a healthchecks.io ping URL. A
// Monitor with an empty ping URL does nothing.
type Monitor struct {
	pingURL string
	client  *resty.Client
}

func New(pingURL string, timeout time.Duration) *Monitor {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", pkginfo.UserAgent())

	return &Monitor{
		pingURL: strings.TrimRight(pingURL, "/"),
		client:  client,
	}
}

// Start signals that a run has begun
func (monitor *Monitor) Start(ctx context.Context) error {
	return monitor.ping(ctx, "/start", "")
}

// Success signals that a run finished; the body is shown in the healthchecks.io event log
func (monitor *Monitor) Success(ctx context.Context, body string) error {
	return monitor.ping(ctx, "", body)
}

// Fail signals that a run finished with problems
func (monitor *Monitor) Fail(ctx context.Context, body string) error {
	return monitor.ping(ctx, "/fail", body)
}

func (monitor *Monitor) ping(ctx context.Context, suffix, body string) error {
	if monitor.pingURL == "" {
		return nil
	}

	resp, err := monitor.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "text/plain").
		SetBody(body).
		Post(monitor.pingURL + suffix)

	if err != nil {
		return err
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	return nil
}
