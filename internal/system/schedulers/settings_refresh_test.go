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

package schedulers

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/identity-consent-enforcement-service/internal/consent/model"
	"github.com/wso2/identity-consent-enforcement-service/internal/consent/service"
	"github.com/wso2/identity-consent-enforcement-service/internal/consent/settings"
	"github.com/wso2/identity-consent-enforcement-service/internal/metrics"
	"github.com/wso2/identity-consent-enforcement-service/internal/pipeline"
)

type stubLoader struct {
	doc pipeline.Settings
	err error
}

func (l *stubLoader) Load(context.Context) (pipeline.Settings, error) {
	return l.doc, l.err
}

type recordingApplier struct {
	mu         sync.Mutex
	docs       []pipeline.Settings
	initiators []string
}

func (a *recordingApplier) ApplySettings(_ context.Context, doc pipeline.Settings, initiator string) model.ConsentConfiguration {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.docs = append(a.docs, doc)
	a.initiators = append(a.initiators, initiator)
	return model.DefaultConsentConfiguration()
}

func (a *recordingApplier) calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.docs)
}

func settingsDoc() pipeline.Settings {
	return pipeline.Settings{Integrations: map[string]json.RawMessage{"Segment.io": json.RawMessage(`{}`)}}
}

func TestNewSettingsRefreshScheduler_InvalidSchedule(t *testing.T) {
	_, err := NewSettingsRefreshScheduler("every now and then", &stubLoader{}, &recordingApplier{}, nil)
	assert.Error(t, err)
}

func TestRefreshNow_AppliesLoadedSettings(t *testing.T) {
	applier := &recordingApplier{}
	s, err := NewSettingsRefreshScheduler("@every 1h", &stubLoader{doc: settingsDoc()}, applier, nil)
	require.NoError(t, err)

	require.NoError(t, s.RefreshNow(context.Background()))
	require.Equal(t, 1, applier.calls())
	assert.Equal(t, settingsDoc(), applier.docs[0])
	assert.Equal(t, refreshInitiator, applier.initiators[0])
}

func TestRefreshNow_LoadFailureIsCounted(t *testing.T) {
	m := metrics.NewConsentMetrics(prometheus.NewRegistry())
	applier := &recordingApplier{}
	cause := errors.New("settings endpoint unavailable")
	s, err := NewSettingsRefreshScheduler("*/5 * * * *", &stubLoader{err: cause}, applier, m)
	require.NoError(t, err)

	err = s.RefreshNow(context.Background())
	assert.ErrorIs(t, err, cause)
	assert.Zero(t, applier.calls())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SettingsUpdatesTotal.WithLabelValues(service.SettingsFailed)))
}

func TestRefreshNow_MalformedDocumentIsRejected(t *testing.T) {
	m := metrics.NewConsentMetrics(prometheus.NewRegistry())
	_, decodeErr := settings.Decode([]byte(`[1, 2]`))
	require.Error(t, decodeErr)
	s, err := NewSettingsRefreshScheduler("*/5 * * * *", &stubLoader{err: decodeErr}, &recordingApplier{}, m)
	require.NoError(t, err)

	assert.Error(t, s.RefreshNow(context.Background()))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SettingsUpdatesTotal.WithLabelValues(service.SettingsRejected)))
	assert.Zero(t, testutil.ToFloat64(m.SettingsUpdatesTotal.WithLabelValues(service.SettingsFailed)))
}

func TestStart_RefreshesImmediately(t *testing.T) {
	applier := &recordingApplier{}
	s, err := NewSettingsRefreshScheduler("@every 1h", &stubLoader{doc: settingsDoc()}, applier, nil)
	require.NoError(t, err)

	s.Start(context.Background())
	defer s.Stop()

	assert.Equal(t, 1, applier.calls())
}

func TestStart_ToleratesInitialFailure(t *testing.T) {
	applier := &recordingApplier{}
	s, err := NewSettingsRefreshScheduler("@every 1h", &stubLoader{err: errors.New("boom")}, applier, nil)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		s.Start(context.Background())
		s.Stop()
		s.Stop()
	})
	assert.Zero(t, applier.calls())
}
