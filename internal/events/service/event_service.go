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
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wso2/identity-consent-enforcement-service/internal/pipeline"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/constants"
	errors2 "github.com/wso2/identity-consent-enforcement-service/internal/system/errors"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/log"
)

const maxBatchSize = 500

// EventProcessor hands accepted events to the pipeline.
type EventProcessor interface {
	Process(event *pipeline.Event)
}

type EventsServiceInterface interface {
	AddEvents(ctx context.Context, events []*pipeline.Event) ([]string, error)
}

// EventsService is the default implementation of the EventsServiceInterface.
type EventsService struct {
	processor EventProcessor
	now       func() time.Time
}

func NewEventsService(processor EventProcessor) *EventsService {
	return &EventsService{processor: processor, now: time.Now}
}

// AddEvents validates the whole batch before submitting any of it and returns the message ids in order.
func (es *EventsService) AddEvents(ctx context.Context, events []*pipeline.Event) ([]string, error) {

	if len(events) == 0 {
		return nil, invalidEvent("At least one event is required.")
	}
	if len(events) > maxBatchSize {
		return nil, invalidEvent(fmt.Sprintf("A batch may carry at most %d events.", maxBatchSize))
	}

	for i, event := range events {
		if err := es.normalize(event); err != nil {
			log.GetLogger().Debug("Rejected event batch", log.Int("index", i), log.Error(err))
			return nil, err
		}
	}

	ids := make([]string, 0, len(events))
	for _, event := range events {
		es.processor.Process(event)
		ids = append(ids, event.MessageId)
	}
	log.GetLogger().Debug("Accepted events", log.Int("count", len(events)))
	return ids, nil
}

func (es *EventsService) normalize(event *pipeline.Event) error {

	if event == nil {
		return invalidEvent("Event must be a JSON object.")
	}
	event.EventType = strings.ToLower(strings.TrimSpace(event.EventType))
	if !constants.AllowedEventTypes[event.EventType] {
		return invalidEvent(fmt.Sprintf("Unsupported event type '%s'.", event.EventType))
	}
	if event.EventType == constants.TrackEvent && strings.TrimSpace(event.EventName) == "" {
		return invalidEvent("Event name is required for track events.")
	}
	if strings.EqualFold(strings.TrimSpace(event.EventName), constants.ConsentPreferenceEvent) {
		return invalidEvent(fmt.Sprintf("Event name '%s' is reserved.", constants.ConsentPreferenceEvent))
	}
	if event.MessageId == "" {
		event.MessageId = uuid.New().String()
	}
	if event.EventTimestamp.IsZero() {
		event.EventTimestamp = es.now().UTC()
	}
	if event.Context == nil {
		event.Context = map[string]interface{}{}
	}
	return nil
}

func invalidEvent(description string) error {
	return errors2.NewClientError(errors2.WithDescription(errors2.INVALID_EVENT, description), http.StatusBadRequest)
}
