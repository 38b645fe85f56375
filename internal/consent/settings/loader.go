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
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/wso2/identity-consent-enforcement-service/internal/pipeline"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/log"
)

const maxSettingsBytes = 4 << 20

// Loader fetches the current settings document.
type Loader interface {
	Load(ctx context.Context) (pipeline.Settings, error)
}

// SourceLoader loads settings from an http(s) URL or a local file path.
type SourceLoader struct {
	source     string
	timeout    time.Duration
	httpClient *http.Client
}

// NewSourceLoader creates a loader for source. A nil httpClient uses http.DefaultClient.
func NewSourceLoader(source string, timeout time.Duration, httpClient *http.Client) *SourceLoader {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &SourceLoader{
		source:     source,
		timeout:    timeout,
		httpClient: httpClient,
	}
}

// Load reads and decodes the settings document.
func (l *SourceLoader) Load(ctx context.Context) (pipeline.Settings, error) {
	if l.source == "" {
		return pipeline.Settings{}, errors.New("no settings source configured")
	}

	var raw []byte
	var err error
	if strings.HasPrefix(l.source, "http://") || strings.HasPrefix(l.source, "https://") {
		raw, err = l.fetch(ctx)
	} else {
		raw, err = os.ReadFile(l.source)
		err = errors.Wrapf(err, "reading settings file %s", l.source)
	}
	if err != nil {
		return pipeline.Settings{}, err
	}
	return Decode(raw)
}

func (l *SourceLoader) fetch(ctx context.Context) ([]byte, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.source, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building settings request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching settings from %s", l.source)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("settings endpoint %s responded with status %d", l.source, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSettingsBytes))
	if err != nil {
		return nil, errors.Wrap(err, "reading settings response")
	}
	log.GetLogger().Debug("Fetched destination settings", log.String("source", l.source), log.Int("bytes", len(body)))
	return body, nil
}
