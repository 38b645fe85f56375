/*
 * Copyright (c) 2025, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package utils

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	customerrors "github.com/wso2/identity-consent-enforcement-service/internal/system/errors"
)

func TestHandleError_ClientError(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, customerrors.NewClientError(customerrors.WithDescription(customerrors.BAD_REQUEST, "bad"), http.StatusBadRequest))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, customerrors.BAD_REQUEST.Code, body["code"])
	assert.Equal(t, "bad", body["description"])
}

func TestHandleError_ServerErrorHidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, customerrors.NewServerError(customerrors.FETCH_PREFERENCES, errors.New("password=secret")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")
}

func TestDecodeError(t *testing.T) {
	decode := func(body string) error {
		var target struct {
			Categories map[string]bool `json:"categories"`
		}
		decoder := json.NewDecoder(strings.NewReader(body))
		decoder.DisallowUnknownFields()
		return decoder.Decode(&target)
	}

	cases := map[string]struct {
		err         error
		description string
	}{
		"empty body":    {io.EOF, "The preferences request body is empty."},
		"syntax":        {decode(`{"categories":}`), "The preferences request body is not valid JSON."},
		"truncated":     {decode(`{"categories":{`), "The preferences request body is not valid JSON."},
		"unknown field": {decode(`{"extra":1}`), `The preferences request body has an unknown field "extra".`},
		"field type":    {decode(`{"categories":"yes"}`), "Field 'categories' in the preferences request body must be of type map[string]bool."},
		"top level":     {decode(`[1]`), "The preferences request body has the wrong shape: got a JSON array."},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			clientErr := DecodeError(tc.err, "preferences")
			assert.Equal(t, http.StatusBadRequest, clientErr.StatusCode)
			assert.Equal(t, customerrors.BAD_REQUEST.Code, clientErr.Code)
			assert.Equal(t, tc.description, clientErr.Description)
		})
	}
}
