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

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wso2/identity-consent-enforcement-service/internal/consent/model"
	"github.com/wso2/identity-consent-enforcement-service/internal/pipeline"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/constants"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/errors"
)

type mockConsentService struct {
	mock.Mock
}

func (m *mockConsentService) GetPreferences(ctx context.Context) (*model.ConsentPreferences, error) {
	args := m.Called(ctx)
	preferences, _ := args.Get(0).(*model.ConsentPreferences)
	return preferences, args.Error(1)
}

func (m *mockConsentService) UpdatePreferences(ctx context.Context, categories map[string]bool, initiator string) (*model.ConsentPreferences, error) {
	args := m.Called(ctx, categories, initiator)
	preferences, _ := args.Get(0).(*model.ConsentPreferences)
	return preferences, args.Error(1)
}

func (m *mockConsentService) NotifyConsentChanged(ctx context.Context, initiator string) {
	m.Called(ctx, initiator)
}

func (m *mockConsentService) GetState() model.ConsentStateView {
	return m.Called().Get(0).(model.ConsentStateView)
}

func (m *mockConsentService) ApplySettings(ctx context.Context, doc pipeline.Settings, initiator string) model.ConsentConfiguration {
	return m.Called(ctx, doc, initiator).Get(0).(model.ConsentConfiguration)
}

func allowAll(*http.Request, string) (string, error) { return "admin", nil }

func denyAll(_ *http.Request, operation string) (string, error) {
	return "", errors.NewClientError(errors.WithDescription(errors.FORBIDDEN, operation), http.StatusForbidden)
}

func TestGetPreferences(t *testing.T) {
	svc := &mockConsentService{}
	svc.On("GetPreferences", mock.Anything).Return(&model.ConsentPreferences{
		Subject:    "carbon.super",
		Categories: map[string]bool{"Analytics": true},
	}, nil)

	rec := httptest.NewRecorder()
	NewConsentHandler(svc, allowAll).GetPreferences(rec, httptest.NewRequest(http.MethodGet, "/api/v1/consent/preferences", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"subject":"carbon.super","categories":{"Analytics":true}}`, rec.Body.String())
}

func TestGetPreferences_NotFound(t *testing.T) {
	svc := &mockConsentService{}
	svc.On("GetPreferences", mock.Anything).Return(nil, errors.NewClientError(errors.PREFERENCES_NOT_FOUND, http.StatusNotFound))

	rec := httptest.NewRecorder()
	NewConsentHandler(svc, allowAll).GetPreferences(rec, httptest.NewRequest(http.MethodGet, "/api/v1/consent/preferences", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), errors.PREFERENCES_NOT_FOUND.Code)
}

func TestUpdatePreferences(t *testing.T) {
	svc := &mockConsentService{}
	categories := map[string]bool{"Analytics": true, "Advertising": false}
	svc.On("UpdatePreferences", mock.Anything, categories, "admin").
		Return(&model.ConsentPreferences{Subject: "carbon.super", Categories: categories}, nil)

	body := `{"categories":{"Analytics":true,"Advertising":false}}`
	rec := httptest.NewRecorder()
	NewConsentHandler(svc, allowAll).UpdatePreferences(rec,
		httptest.NewRequest(http.MethodPut, "/api/v1/consent/preferences", strings.NewReader(body)))

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestUpdatePreferences_BadBody(t *testing.T) {
	svc := &mockConsentService{}
	rec := httptest.NewRecorder()
	NewConsentHandler(svc, allowAll).UpdatePreferences(rec,
		httptest.NewRequest(http.MethodPut, "/api/v1/consent/preferences", strings.NewReader(`{"unknown":1}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown field")
	svc.AssertNotCalled(t, "UpdatePreferences", mock.Anything, mock.Anything, mock.Anything)
}

func TestNotifyConsentChanged(t *testing.T) {
	svc := &mockConsentService{}
	svc.On("NotifyConsentChanged", mock.Anything, "admin").Return()

	rec := httptest.NewRecorder()
	NewConsentHandler(svc, allowAll).NotifyConsentChanged(rec, httptest.NewRequest(http.MethodPost, "/api/v1/consent/notify", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	svc.AssertExpectations(t)
}

func TestGetState(t *testing.T) {
	svc := &mockConsentService{}
	svc.On("GetState").Return(model.ConsentStateView{
		Configuration: model.DefaultConsentConfiguration(),
		Provisioned:   true,
		Started:       true,
	})

	rec := httptest.NewRecorder()
	NewConsentHandler(svc, allowAll).GetState(rec, httptest.NewRequest(http.MethodGet, "/api/v1/consent/state", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var view map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, true, view["started"])
	assert.Equal(t, true, view["provisioned"])
}

func TestPushSettings(t *testing.T) {
	svc := &mockConsentService{}
	svc.On("ApplySettings", mock.Anything, mock.MatchedBy(func(doc pipeline.Settings) bool {
		_, ok := doc.Integrations["Kafka"]
		return ok
	}), "admin").Return(model.DefaultConsentConfiguration())

	body := `{"integrations":{"Kafka":{"consentSettings":{"categories":["Analytics"]}}}}`
	rec := httptest.NewRecorder()
	NewConsentHandler(svc, allowAll).PushSettings(rec,
		httptest.NewRequest(http.MethodPost, "/api/v1/consent/settings", strings.NewReader(body)))

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestPushSettings_NotAnObject(t *testing.T) {
	svc := &mockConsentService{}
	rec := httptest.NewRecorder()
	NewConsentHandler(svc, allowAll).PushSettings(rec,
		httptest.NewRequest(http.MethodPost, "/api/v1/consent/settings", strings.NewReader(`[1,2]`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), errors.INVALID_SETTINGS.Code)
}

func TestHandlers_RequireAuthorization(t *testing.T) {
	svc := &mockConsentService{}
	h := NewConsentHandler(svc, denyAll)

	for name, serve := range map[string]http.HandlerFunc{
		constants.OperationViewPreferences:   h.GetPreferences,
		constants.OperationUpdatePreferences: h.UpdatePreferences,
		constants.OperationNotify:            h.NotifyConsentChanged,
		constants.OperationViewState:         h.GetState,
		constants.OperationPushSettings:      h.PushSettings,
	} {
		rec := httptest.NewRecorder()
		serve(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)))
		assert.Equal(t, http.StatusForbidden, rec.Code, name)
		assert.Contains(t, rec.Body.String(), name)
	}
	svc.AssertNotCalled(t, "GetState")
}
