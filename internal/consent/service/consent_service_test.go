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

package service

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wso2/identity-consent-enforcement-service/internal/consent/cmp"
	"github.com/wso2/identity-consent-enforcement-service/internal/consent/manager"
	"github.com/wso2/identity-consent-enforcement-service/internal/consent/model"
	"github.com/wso2/identity-consent-enforcement-service/internal/consent/state"
	"github.com/wso2/identity-consent-enforcement-service/internal/metrics"
	"github.com/wso2/identity-consent-enforcement-service/internal/pipeline"
	"github.com/wso2/identity-consent-enforcement-service/internal/pipeline/pipelinetest"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/constants"
	errors2 "github.com/wso2/identity-consent-enforcement-service/internal/system/errors"
)

const subject = "carbon.super"

type mockPreferenceStore struct {
	mock.Mock
}

func (m *mockPreferenceStore) GetPreferences(ctx context.Context, subject string) (*model.ConsentPreferences, error) {
	args := m.Called(ctx, subject)
	preferences, _ := args.Get(0).(*model.ConsentPreferences)
	return preferences, args.Error(1)
}

func (m *mockPreferenceStore) ReplacePreferences(ctx context.Context, preferences model.ConsentPreferences) error {
	return m.Called(ctx, preferences).Error(0)
}

func (m *mockPreferenceStore) DeletePreferences(ctx context.Context, subject string) error {
	return m.Called(ctx, subject).Error(0)
}

func (m *mockPreferenceStore) GetCategoryList(ctx context.Context, subject string) ([]string, error) {
	args := m.Called(ctx, subject)
	list, _ := args.Get(0).([]string)
	return list, args.Error(1)
}

func (m *mockPreferenceStore) SaveCategoryList(ctx context.Context, subject string, categories []string) error {
	return m.Called(ctx, subject, categories).Error(0)
}

type fixture struct {
	store    *mockPreferenceStore
	pipeline *pipeline.Pipeline
	manager  *manager.Manager
	sink     *pipelinetest.RecordingSink
	service  *ConsentService
	metrics  *metrics.ConsentMetrics
}

func newFixture(t *testing.T, provider cmp.CategoryProvider, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		store:    &mockPreferenceStore{},
		pipeline: pipeline.New(),
		sink:     pipelinetest.NewRecordingSink("archive"),
		metrics:  metrics.NewConsentMetrics(prometheus.NewRegistry()),
	}
	f.pipeline.AddDestination(pipeline.NewDestination(constants.CatchAllDestinationKey, f.sink))
	f.manager = manager.New(state.NewStore(), provider)
	f.pipeline.Add(f.manager)
	f.service = NewConsentService(subject, f.store, f.pipeline, f.manager, append(opts, WithMetrics(f.metrics))...)
	return f
}

func settingsDoc(t *testing.T, raw string) pipeline.Settings {
	t.Helper()
	var doc pipeline.Settings
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc
}

func clientStatus(t *testing.T, err error) int {
	t.Helper()
	var clientErr *errors2.ClientError
	require.True(t, errors.As(err, &clientErr), "expected client error, got %v", err)
	return clientErr.StatusCode
}

func TestGetPreferences(t *testing.T) {
	f := newFixture(t, nil)
	f.store.On("GetPreferences", mock.Anything, subject).Return(&model.ConsentPreferences{
		Subject:    subject,
		Categories: map[string]bool{"Analytics": true},
	}, nil).Once()
	f.store.On("GetPreferences", mock.Anything, subject).Return(nil, nil).Once()

	preferences, err := f.service.GetPreferences(context.Background())
	require.NoError(t, err)
	assert.True(t, preferences.Categories["Analytics"])

	_, err = f.service.GetPreferences(context.Background())
	assert.Equal(t, http.StatusNotFound, clientStatus(t, err))
}

func TestUpdatePreferences_StoresRefreshesAndSignals(t *testing.T) {
	store := &mockPreferenceStore{}
	store.On("GetPreferences", mock.Anything, subject).Return(&model.ConsentPreferences{
		Categories: map[string]bool{"Analytics": false},
	}, nil).Once()
	store.On("GetPreferences", mock.Anything, subject).Return(&model.ConsentPreferences{
		Categories: map[string]bool{"Analytics": true},
	}, nil).Once()
	store.On("ReplacePreferences", mock.Anything, model.ConsentPreferences{
		Subject:    subject,
		Categories: map[string]bool{"Analytics": true},
	}).Return(nil)

	provider := cmp.NewStoreBackedCategoryProvider(subject, store, time.Hour)
	f := newFixture(t, provider)
	f.store = store
	f.service.store = store
	f.manager.Start()

	assert.Equal(t, map[string]bool{"Analytics": false}, provider.GetCategories())

	preferences, err := f.service.UpdatePreferences(context.Background(), map[string]bool{"Analytics": true}, "admin")
	require.NoError(t, err)
	assert.Equal(t, subject, preferences.Subject)

	require.NoError(t, f.pipeline.Close(context.Background()))
	require.Equal(t, []string{constants.ConsentPreferenceEvent}, f.sink.Names())
	stamped := f.sink.Events()[0].Context[constants.ConsentKey].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"Analytics": true}, stamped[constants.CategoryPreferenceKey])
	store.AssertExpectations(t)
}

func TestUpdatePreferences_Validation(t *testing.T) {
	f := newFixture(t, nil)
	f.service.ApplySettings(context.Background(), settingsDoc(t, `{
		"integrations": {},
		"consentSettings": {"allCategories": ["Analytics"]}
	}`), "test")

	_, err := f.service.UpdatePreferences(context.Background(), nil, "admin")
	assert.Equal(t, http.StatusBadRequest, clientStatus(t, err))

	_, err = f.service.UpdatePreferences(context.Background(), map[string]bool{" ": true}, "admin")
	assert.Equal(t, http.StatusBadRequest, clientStatus(t, err))

	_, err = f.service.UpdatePreferences(context.Background(), map[string]bool{"Advertising": true}, "admin")
	assert.Equal(t, http.StatusBadRequest, clientStatus(t, err))

	f.store.AssertNotCalled(t, "ReplacePreferences", mock.Anything, mock.Anything)
}

func TestUpdatePreferences_StoreFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.store.On("ReplacePreferences", mock.Anything, mock.Anything).
		Return(errors2.NewServerError(errors2.UPDATE_PREFERENCES, errors.New("db down")))

	_, err := f.service.UpdatePreferences(context.Background(), map[string]bool{"Analytics": true}, "admin")
	var serverErr *errors2.ServerError
	assert.True(t, errors.As(err, &serverErr))

	require.NoError(t, f.pipeline.Close(context.Background()))
	assert.Empty(t, f.sink.Names())
}

func TestApplySettings_StartsOnFirstDocument(t *testing.T) {
	f := newFixture(t, cmp.NewAllowAllCategoryProvider(), WithStartOnFirstSettings(true))

	f.pipeline.Track("held", nil)
	assert.Equal(t, 1, f.service.GetState().QueueLength)

	cfg := f.service.ApplySettings(context.Background(), settingsDoc(t, `{
		"integrations": {"Kafka": {"consentSettings": {"categories": ["Analytics"]}}},
		"consentSettings": {"allCategories": ["Analytics"], "hasUnmappedDestinations": true}
	}`), "test")
	assert.Equal(t, []string{"Analytics"}, cfg.RequiredCategoriesByDestination["Kafka"])

	view := f.service.GetState()
	assert.True(t, view.Provisioned)
	assert.True(t, view.Started)
	assert.Equal(t, 0, view.QueueLength)
	assert.Equal(t, map[string]bool{"Analytics": true}, view.Preferences)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.SettingsUpdatesTotal.WithLabelValues(SettingsApplied)))

	require.NoError(t, f.pipeline.Close(context.Background()))
	assert.Equal(t, []string{"held"}, f.sink.Names())
}

func TestApplySettings_WithoutAutoStart(t *testing.T) {
	f := newFixture(t, nil)
	f.service.ApplySettings(context.Background(), settingsDoc(t, `{"integrations": {}}`), "test")

	view := f.service.GetState()
	assert.False(t, view.Started)
	assert.Nil(t, view.Preferences)
}
