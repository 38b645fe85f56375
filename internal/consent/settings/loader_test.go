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

package settings

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceLoader_HTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(fullSettings))
	}))
	defer server.Close()

	doc, err := NewSourceLoader(server.URL, time.Second, server.Client()).Load(context.Background())
	require.NoError(t, err)

	cfg := ParseDocument(doc)
	assert.Equal(t, []string{"Analytics", "Advertising"}, cfg.RequiredCategoriesByDestination["Kafka"])
}

func TestSourceLoader_HTTPErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewSourceLoader(server.URL, time.Second, nil).Load(context.Background())
	assert.Error(t, err)
}

func TestSourceLoader_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(fullSettings), 0o600))

	doc, err := NewSourceLoader(path, 0, nil).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, doc.Integrations, 5)

	_, err = NewSourceLoader(filepath.Join(t.TempDir(), "missing.json"), 0, nil).Load(context.Background())
	assert.Error(t, err)
}

func TestSourceLoader_NoSource(t *testing.T) {
	_, err := NewSourceLoader("", 0, nil).Load(context.Background())
	assert.Error(t, err)
}
