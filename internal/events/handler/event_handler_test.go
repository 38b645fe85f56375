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
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/wso2/identity-consent-enforcement-service/internal/pipeline"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/errors"
)

type mockEventsService struct {
	mock.Mock
}

func (m *mockEventsService) AddEvents(ctx context.Context, events []*pipeline.Event) ([]string, error) {
	args := m.Called(ctx, events)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func withCount(n int) interface{} {
	return mock.MatchedBy(func(events []*pipeline.Event) bool { return len(events) == n })
}

func post(h *EventHandler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.AddEvents(rec, httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(body)))
	return rec
}

func TestAddEvents_SingleEvent(t *testing.T) {
	svc := &mockEventsService{}
	svc.On("AddEvents", mock.Anything, withCount(1)).Return([]string{"m-1"}, nil)

	rec := post(NewEventHandler(svc), `{"event_type":"track","event_name":"Signed Up","message_id":"m-1"}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"accepted":1,"message_ids":["m-1"]}`, rec.Body.String())
	svc.AssertExpectations(t)
}

func TestAddEvents_Batch(t *testing.T) {
	svc := &mockEventsService{}
	svc.On("AddEvents", mock.Anything, withCount(2)).Return([]string{"a", "b"}, nil)

	rec := post(NewEventHandler(svc), ` [{"event_type":"page"},{"event_type":"identify","user_id":"u-1"}]`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"accepted":2,"message_ids":["a","b"]}`, rec.Body.String())
}

func TestAddEvents_BadBodies(t *testing.T) {
	for name, body := range map[string]string{
		"empty":      "",
		"malformed":  `{"event_type":`,
		"wrong type": `{"event_type":1}`,
	} {
		t.Run(name, func(t *testing.T) {
			svc := &mockEventsService{}
			rec := post(NewEventHandler(svc), body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), errors.BAD_REQUEST.Code)
			svc.AssertNotCalled(t, "AddEvents", mock.Anything, mock.Anything)
		})
	}
}

func TestAddEvents_ServiceRejection(t *testing.T) {
	svc := &mockEventsService{}
	svc.On("AddEvents", mock.Anything, withCount(1)).
		Return(nil, errors.NewClientError(errors.INVALID_EVENT, http.StatusBadRequest))

	rec := post(NewEventHandler(svc), `{"event_type":"track"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), errors.INVALID_EVENT.Code)
}
