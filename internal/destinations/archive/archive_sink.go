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

package archive

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/wso2/identity-consent-enforcement-service/internal/pipeline"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/database/client"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/database/scripts"
	errors2 "github.com/wso2/identity-consent-enforcement-service/internal/system/errors"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/log"
)

const (
	sinkName = "postgres-archive"
	dbType   = "postgres"
)

// Sink writes delivered events into the event_archive table.
type Sink struct {
	dbClient client.DBClientInterface
}

// NewSink creates an archive sink over the given database client.
func NewSink(dbClient client.DBClientInterface) *Sink {
	return &Sink{dbClient: dbClient}
}

func (s *Sink) Name() string {
	return sinkName
}

// Send stores the event. Re-delivery of a message id is ignored.
func (s *Sink) Send(ctx context.Context, event *pipeline.Event) error {
	payload, err := marshalJsonb(event)
	if err != nil {
		return err
	}
	_, err = s.dbClient.Execute(ctx, scripts.InsertArchivedEvent[dbType],
		event.MessageId, event.EventType, nullable(event.EventName), nullable(event.AnonymousId),
		nullable(event.UserId), event.EventTimestamp, payload)
	if err != nil {
		errorMsg := "Failed to archive event " + event.MessageId
		log.GetLogger().Debug(errorMsg, log.Error(err))
		return errors2.NewServerError(errors2.WithDescription(errors2.ARCHIVE_EVENT, errorMsg), err)
	}
	return nil
}

// Close is a no-op. The database client is owned by the caller.
func (s *Sink) Close() error {
	return nil
}

func marshalJsonb(event *pipeline.Event) (string, error) {
	bytes, err := json.Marshal(event)
	if err != nil {
		errorMsg := "Failed to marshal event to JSON for archiving."
		log.GetLogger().Debug(errorMsg, log.Error(err))
		return "", errors2.NewServerError(errors2.WithDescription(errors2.MARSHAL_JSON, errorMsg), err)
	}
	return string(bytes), nil
}

func nullable(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
