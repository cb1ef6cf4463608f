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
package metadata

import (
	"errors"
	"fmt"

	"github.com/penny-vault/cbsdata/data"
)

var (
	ErrNotFound        = errors.New("no matching record")
	ErrMissingMetadata = errors.New("dataset metadata missing expected field or endpoint")
)

// Lookup finds the first record whose key field equals value and returns that
// record's returnKey field.
func Lookup(key, value, returnKey string, records []data.Record) (interface{}, error) {
	for _, rec := range records {
		if field, ok := rec.String(key); ok && field == value {
			ret, ok := rec[returnKey]
			if !ok {
				return nil, fmt.Errorf("%w: record %s=%s has no %s field", ErrNotFound, key, value, returnKey)
			}
			return ret, nil
		}
	}

	return nil, fmt.Errorf("%w: %s=%s", ErrNotFound, key, value)
}

// LookupString is Lookup for fields holding a string
func LookupString(key, value, returnKey string, records []data.Record) (string, error) {
	ret, err := Lookup(key, value, returnKey, records)
	if err != nil {
		return "", err
	}

	str, ok := ret.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s of %s=%s is %T, not a string", ErrNotFound, returnKey, key, value, ret)
	}

	return str, nil
}

// EndpointURL returns the url of the named endpoint in a dataset catalog
func EndpointURL(endpoints []data.Endpoint, name string) (string, error) {
	for _, endpoint := range endpoints {
		if endpoint.Name == name {
			return endpoint.URL, nil
		}
	}

	return "", fmt.Errorf("%w: catalog has no %s endpoint", ErrMissingMetadata, name)
}
