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
package export

import (
	"fmt"

	"github.com/penny-vault/cbsdata/data"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

type parquetObservation struct {
	Date      string   `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Time      string   `parquet:"name=time, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Value     *float64 `parquet:"name=value, type=DOUBLE, repetitiontype=OPTIONAL"`
	Commodity string   `parquet:"name=commodity, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Frequency string   `parquet:"name=frequency, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Unit      string   `parquet:"name=unit, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
}

// WriteParquet saves observations as a snappy compressed parquet file with the
// same columns as the CSV output
func WriteParquet(fn string, observations []*data.Observation) error {
	fh, err := local.NewLocalFileWriter(fn)
	if err != nil {
		return err
	}

	pw, err := writer.NewParquetWriter(fh, new(parquetObservation), 1)
	if err != nil {
		fh.Close()
		return err
	}

	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, obs := range observations {
		rec := parquetObservation{
			Date:      obs.Date.Format(data.DateLayout),
			Time:      obs.Time,
			Value:     obs.Value,
			Commodity: obs.Commodity,
			Frequency: obs.Frequency,
			Unit:      obs.Unit,
		}

		if err := pw.Write(rec); err != nil {
			fh.Close()
			return fmt.Errorf("write %s: %w", fn, err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		fh.Close()
		return fmt.Errorf("write %s: %w", fn, err)
	}

	return fh.Close()
}
