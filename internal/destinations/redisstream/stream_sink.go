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

package redisstream

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/wso2/identity-consent-enforcement-service/internal/pipeline"
)

const (
	defaultMaxLen  int64 = 10000
	publishTimeout       = 2 * time.Second
)

// Sink appends events to a capped Redis stream.
type Sink struct {
	name   string
	stream string
	maxLen int64
	client goredis.UniversalClient
}

// NewSink creates a stream sink. A non-positive maxLen uses the default cap.
func NewSink(name string, client goredis.UniversalClient, stream string, maxLen int64) *Sink {
	if maxLen <= 0 {
		maxLen = defaultMaxLen
	}
	return &Sink{name: name, stream: stream, maxLen: maxLen, client: client}
}

func (s *Sink) Name() string {
	return s.name
}

func (s *Sink) Send(ctx context.Context, event *pipeline.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrapf(err, "marshal event %s", event.MessageId)
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = s.client.XAdd(pubCtx, &goredis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"message_id": event.MessageId,
			"event_type": event.EventType,
			"payload":    string(payload),
		},
	}).Err()
	return errors.Wrapf(err, "append to stream %s", s.stream)
}

func (s *Sink) Close() error {
	return s.client.Close()
}
