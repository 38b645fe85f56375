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
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/wso2/identity-consent-enforcement-service/internal/events/service"
	"github.com/wso2/identity-consent-enforcement-service/internal/pipeline"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/errors"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/utils"
)

const maxEventsBodySize = 1 << 20

type acceptedResponse struct {
	Accepted   int      `json:"accepted"`
	MessageIds []string `json:"message_ids"`
}

type EventHandler struct {
	service service.EventsServiceInterface
}

func NewEventHandler(eventsService service.EventsServiceInterface) *EventHandler {
	return &EventHandler{service: eventsService}
}

// AddEvents handles POST /events with either a single event object or an array of events.
func (eh *EventHandler) AddEvents(w http.ResponseWriter, r *http.Request) {

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxEventsBodySize))
	if err != nil {
		badRequest(w, "Failed to read request body.")
		return
	}

	events, err := decodeEvents(raw)
	if err != nil {
		utils.HandleError(w, utils.DecodeError(err, "events"))
		return
	}

	ids, err := eh.service.AddEvents(r.Context(), events)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusAccepted, acceptedResponse{Accepted: len(ids), MessageIds: ids})
}

func decodeEvents(raw []byte) ([]*pipeline.Event, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, io.EOF
	}
	if trimmed[0] == '[' {
		var events []*pipeline.Event
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return nil, err
		}
		return events, nil
	}
	var event pipeline.Event
	if err := json.Unmarshal(trimmed, &event); err != nil {
		return nil, err
	}
	return []*pipeline.Event{&event}, nil
}

func badRequest(w http.ResponseWriter, description string) {
	utils.HandleError(w, errors.NewClientError(errors.WithDescription(errors.BAD_REQUEST, description), http.StatusBadRequest))
}
