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
package runner

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "cbsdata_"

	resultSuccess = "success"
	resultSkipped = "skipped"
)

// runMetrics lives in its own registry so that it can be written as a node
// exporter textfile at the end of a run
type runMetrics struct {
	registry *prometheus.Registry

	observations    *prometheus.CounterVec
	datasets        *prometheus.CounterVec
	datasetDuration *prometheus.GaugeVec
	lastRun         prometheus.Gauge
}

func newRunMetrics() *runMetrics {
	metrics := &runMetrics{
		registry: prometheus.NewRegistry(),
		observations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "observations_total",
				Help: "Normalized observations produced by dataset",
			},
			[]string{"dataset"},
		),
		datasets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "datasets_total",
				Help: "Datasets processed by result",
			},
			[]string{"result"},
		),
		datasetDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "dataset_duration_seconds",
				Help: "Time spent fetching, transforming and writing a dataset",
			},
			[]string{"dataset"},
		),
		lastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "last_run_timestamp_seconds",
				Help: "Unix time the last run finished",
			},
		),
	}

	metrics.registry.MustRegister(metrics.observations, metrics.datasets, metrics.datasetDuration, metrics.lastRun)

	return metrics
}

func (metrics *runMetrics) record(result *DatasetResult) {
	metrics.datasetDuration.WithLabelValues(result.Key).Set(result.Elapsed.Seconds())
	if result.Err != nil {
		metrics.datasets.WithLabelValues(resultSkipped).Inc()
		return
	}
	metrics.datasets.WithLabelValues(resultSuccess).Inc()
	metrics.observations.WithLabelValues(result.Key).Add(float64(result.Rows))
}

func (metrics *runMetrics) finish(endTime time.Time) {
	metrics.lastRun.Set(float64(endTime.Unix()))
}

func (metrics *runMetrics) writeTextfile(fn string) error {
	return prometheus.WriteToTextfile(fn, metrics.registry)
}
