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

package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/wso2/identity-consent-enforcement-service/internal/pipeline"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const connectTimeout = 10 * time.Second

type collection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// storedEvent uses the message id as document id so re-delivery is a no-op.
type storedEvent struct {
	ID             string `bson:"_id"`
	pipeline.Event `bson:",inline"`
	ReceivedAt     time.Time `bson:"received_at"`
}

// Sink inserts events into a MongoDB collection.
type Sink struct {
	name       string
	collection collection
	disconnect func(ctx context.Context) error
	now        func() time.Time
}

// Connect opens a client for uri and returns a sink over database.collection.
func Connect(ctx context.Context, name, uri, database, collectionName string) (*Sink, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connect to mongodb")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "ping mongodb")
	}
	log.GetLogger().Info("Connected to MongoDB destination",
		log.String("database", database), log.String("collection", collectionName))

	sink := newSink(name, client.Database(database).Collection(collectionName))
	sink.disconnect = client.Disconnect
	return sink, nil
}

func newSink(name string, coll collection) *Sink {
	return &Sink{name: name, collection: coll, now: time.Now}
}

func (s *Sink) Name() string {
	return s.name
}

func (s *Sink) Send(ctx context.Context, event *pipeline.Event) error {
	doc := storedEvent{ID: event.MessageId, Event: *event, ReceivedAt: s.now().UTC()}
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			log.GetLogger().Debug("Event already stored", log.String("messageId", event.MessageId))
			return nil
		}
		return errors.Wrapf(err, "insert event %s", event.MessageId)
	}
	return nil
}

func (s *Sink) Close() error {
	if s.disconnect == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return s.disconnect(ctx)
}
