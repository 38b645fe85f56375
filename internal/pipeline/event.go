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

package pipeline

import (
	"time"

	"github.com/google/uuid"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/constants"
)

type Event struct {
	EventType      string                 `json:"event_type" bson:"event_type"`
	EventName      string                 `json:"event_name,omitempty" bson:"event_name,omitempty"`
	MessageId      string                 `json:"message_id" bson:"message_id"`
	AnonymousId    string                 `json:"anonymous_id,omitempty" bson:"anonymous_id,omitempty"`
	UserId         string                 `json:"user_id,omitempty" bson:"user_id,omitempty"`
	EventTimestamp time.Time              `json:"event_timestamp" bson:"event_timestamp"`
	Properties     map[string]interface{} `json:"properties,omitempty" bson:"properties,omitempty"`
	Context        map[string]interface{} `json:"context,omitempty" bson:"context,omitempty"`

	// signal is set only on events the service emits itself and never decoded from input.
	signal bool
}

// NewTrackEvent builds a track event with a fresh message id.
func NewTrackEvent(name string, properties map[string]interface{}) *Event {
	return &Event{
		EventType:      constants.TrackEvent,
		EventName:      name,
		MessageId:      uuid.New().String(),
		EventTimestamp: time.Now().UTC(),
		Properties:     properties,
		Context:        map[string]interface{}{},
	}
}

// NewSignalEvent builds an internal track event. Unlike events decoded from clients it
// satisfies IsSignal.
func NewSignalEvent(name string) *Event {
	event := NewTrackEvent(name, nil)
	event.signal = true
	return event
}

// IsSignal reports whether the event is the internal track event with the given name.
func (e *Event) IsSignal(name string) bool {
	return e.IsTrack(name) && e.signal
}

// IsTrack reports whether the event is a track event with the given name.
func (e *Event) IsTrack(name string) bool {
	return e != nil && e.EventType == constants.TrackEvent && e.EventName == name
}

// Clone returns a deep copy of the event.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Properties = cloneMap(e.Properties)
	clone.Context = cloneMap(e.Context)
	return &clone
}

func cloneMap(in map[string]interface{}) map[string]interface{} {
	if in == nil {
		return nil
	}
	out := make(map[string]interface{}, len(in))
	for key, value := range in {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		return cloneMap(v)
	case map[string]bool:
		out := make(map[string]bool, len(v))
		for key, b := range v {
			out[key] = b
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	default:
		return v
	}
}
