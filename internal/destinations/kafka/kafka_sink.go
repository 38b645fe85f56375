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

package kafka

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/wso2/identity-consent-enforcement-service/internal/pipeline"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/log"
)

const (
	headerEventType = "event_type"
	headerEventName = "event_name"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Sink publishes events to a Kafka topic keyed by message id.
type Sink struct {
	name   string
	topic  string
	writer messageWriter
}

// NewSink creates a sink writing to topic on the given brokers.
func NewSink(name string, brokers []string, topic string) *Sink {
	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireOne,
	}
	return newSinkWithWriter(name, topic, writer)
}

func newSinkWithWriter(name, topic string, writer messageWriter) *Sink {
	return &Sink{name: name, topic: topic, writer: writer}
}

func (s *Sink) Name() string {
	return s.name
}

func (s *Sink) Send(ctx context.Context, event *pipeline.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return errors.Wrapf(err, "marshal event %s", event.MessageId)
	}
	msg := kafkago.Message{
		Key:   []byte(event.MessageId),
		Value: value,
		Headers: []kafkago.Header{
			{Key: headerEventType, Value: []byte(event.EventType)},
		},
	}
	if event.EventName != "" {
		msg.Headers = append(msg.Headers, kafkago.Header{Key: headerEventName, Value: []byte(event.EventName)})
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		log.GetLogger().Debug("Kafka write failed",
			log.String("topic", s.topic), log.String("messageId", event.MessageId), log.Error(err))
		return errors.Wrapf(err, "write to topic %s", s.topic)
	}
	return nil
}

func (s *Sink) Close() error {
	return s.writer.Close()
}
