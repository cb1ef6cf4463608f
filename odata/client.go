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
package odata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/penny-vault/cbsdata/data"
	"github.com/penny-vault/cbsdata/metadata"
	"github.com/penny-vault/cbsdata/pkginfo"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://opendata.cbs.nl/ODataApi/odata/"
	DefaultTimeout = 30 * time.Second
	DefaultRate    = 5
	DefaultBurst   = 5
)

var (
	ErrInvalidStatusCode = errors.New("invalid status code received")
	ErrRequestFailed     = errors.New("request failed")
	ErrDecode            = errors.New("could not decode response")
)

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64
	RateBurst int
}

// Client talks to an OData v3 open data service. Every response is expected to
// be a JSON object with the records of interest in its "value" field.
type Client struct {
	baseURL string
	client  *resty.Client
	limiter *rate.Limiter
}

type envelope struct {
	Value []data.Record `json:"value"`
}

type catalogEnvelope struct {
	Value []data.Endpoint `json:"value"`
}

func New(cfg Config) *Client {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultRate
	}

	if cfg.RateBurst <= 0 {
		cfg.RateBurst = DefaultBurst
	}

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", pkginfo.UserAgent())

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/") + "/",
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
	}
}

// Catalog lists the endpoints published for a dataset
func (odata *Client) Catalog(ctx context.Context, datasetKey string) ([]data.Endpoint, error) {
	body, err := odata.get(ctx, odata.baseURL+datasetKey, nil)
	if err != nil {
		return nil, err
	}

	var catalog catalogEnvelope
	if err := json.Unmarshal(body, &catalog); err != nil {
		return nil, fmt.Errorf("%w: catalog of %s: %w", ErrDecode, datasetKey, err)
	}

	if catalog.Value == nil {
		return nil, fmt.Errorf("%w: catalog of %s has no value field", ErrDecode, datasetKey)
	}

	return catalog.Value, nil
}

// Records returns the "value" array of any endpoint
func (odata *Client) Records(ctx context.Context, url string) ([]data.Record, error) {
	return odata.records(ctx, url, nil)
}

// TypedDataSet fetches the raw wide table of a dataset limited to the
// requested columns
func (odata *Client) TypedDataSet(ctx context.Context, endpoints []data.Endpoint, columns []string) (data.Table, error) {
	url, err := metadata.EndpointURL(endpoints, metadata.TypedDataSetEndpoint)
	if err != nil {
		return nil, err
	}

	params := map[string]string{}
	if len(columns) > 0 {
		params["$select"] = strings.Join(columns, ",")
	}

	records, err := odata.records(ctx, url, params)
	if err != nil {
		return nil, err
	}

	return data.Table(records), nil
}

func (odata *Client) records(ctx context.Context, url string, params map[string]string) ([]data.Record, error) {
	body, err := odata.get(ctx, url, params)
	if err != nil {
		return nil, err
	}

	var resp envelope
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, url, err)
	}

	if resp.Value == nil {
		return nil, fmt.Errorf("%w: %s has no value field", ErrDecode, url)
	}

	return resp.Value, nil
}

func (odata *Client) get(ctx context.Context, url string, params map[string]string) ([]byte, error) {
	logger := zerolog.Ctx(ctx)

	if err := odata.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRequestFailed, url, err)
	}

	startTime := time.Now()
	resp, err := odata.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(url)
	if err != nil {
		logger.Error().Err(err).Str("URL", url).Msg("request to open data service failed")
		return nil, fmt.Errorf("%w: %s: %w", ErrRequestFailed, url, err)
	}

	if resp.StatusCode() >= 300 {
		logger.Error().Int("StatusCode", resp.StatusCode()).Str("URL", url).
			Msg("open data service returned an error status code")
		return nil, fmt.Errorf("%w (%d): %s", ErrInvalidStatusCode, resp.StatusCode(), url)
	}

	logger.Debug().Str("URL", resp.Request.URL).Int("StatusCode", resp.StatusCode()).
		Dur("Elapsed", time.Since(startTime)).Msg("fetched")

	return resp.Body(), nil
}
