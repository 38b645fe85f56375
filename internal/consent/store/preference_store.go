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

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/wso2/identity-consent-enforcement-service/internal/consent/model"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/database/client"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/database/scripts"
	errors2 "github.com/wso2/identity-consent-enforcement-service/internal/system/errors"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/log"
)

const dbType = "postgres"

// PreferenceStoreInterface persists consent preferences and category lists per subject.
type PreferenceStoreInterface interface {
	GetPreferences(ctx context.Context, subject string) (*model.ConsentPreferences, error)
	ReplacePreferences(ctx context.Context, preferences model.ConsentPreferences) error
	DeletePreferences(ctx context.Context, subject string) error
	GetCategoryList(ctx context.Context, subject string) ([]string, error)
	SaveCategoryList(ctx context.Context, subject string, categories []string) error
}

// PreferenceStore is the PostgreSQL implementation of PreferenceStoreInterface.
type PreferenceStore struct {
	dbClient client.DBClientInterface
	now      func() time.Time
}

func NewPreferenceStore(dbClient client.DBClientInterface) *PreferenceStore {
	return &PreferenceStore{
		dbClient: dbClient,
		now:      time.Now,
	}
}

// GetPreferences returns the stored preferences of subject, or nil when nothing is stored.
func (s *PreferenceStore) GetPreferences(ctx context.Context, subject string) (*model.ConsentPreferences, error) {

	logger := log.GetLogger()
	results, err := s.dbClient.ExecuteQuery(ctx, scripts.GetPreferencesBySubject[dbType], subject)
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to fetch consent preferences for subject: %s", subject)
		logger.Debug(errorMsg, log.Error(err))
		return nil, errors2.NewServerError(errors2.WithDescription(errors2.FETCH_PREFERENCES, errorMsg), err)
	}
	if len(results) == 0 {
		logger.Debug(fmt.Sprintf("No consent preferences found for subject: %s", subject))
		return nil, nil
	}

	preferences := &model.ConsentPreferences{
		Subject:    subject,
		Categories: make(map[string]bool, len(results)),
	}
	for _, row := range results {
		category, ok := row["category"].(string)
		if !ok {
			continue
		}
		granted, _ := row["granted"].(bool)
		preferences.Categories[category] = granted
		if updatedAt, ok := row["updated_at"].(time.Time); ok && updatedAt.UnixMilli() > preferences.UpdatedAt {
			preferences.UpdatedAt = updatedAt.UnixMilli()
		}
	}
	return preferences, nil
}

// ReplacePreferences swaps the full preference set of a subject in one transaction.
func (s *PreferenceStore) ReplacePreferences(ctx context.Context, preferences model.ConsentPreferences) error {

	logger := log.GetLogger()
	tx, err := s.dbClient.BeginTx(ctx)
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to begin transaction for updating preferences of subject: %s", preferences.Subject)
		logger.Debug(errorMsg, log.Error(err))
		return errors2.NewServerError(errors2.WithDescription(errors2.UPDATE_PREFERENCES, errorMsg), err)
	}

	rollback := func(cause error, errorMsg string) error {
		if errRollback := tx.Rollback(); errRollback != nil {
			logger.Debug(fmt.Sprintf("Failed to rollback preference update for subject: %s", preferences.Subject),
				log.Error(errRollback))
		}
		logger.Debug(errorMsg, log.Error(cause))
		return errors2.NewServerError(errors2.WithDescription(errors2.UPDATE_PREFERENCES, errorMsg), cause)
	}

	if _, err := tx.ExecContext(ctx, scripts.DeletePreferencesBySubject[dbType], preferences.Subject); err != nil {
		return rollback(err, fmt.Sprintf("Failed to clear preferences of subject: %s", preferences.Subject))
	}
	updatedAt := s.now().UTC()
	for category, granted := range preferences.Categories {
		if _, err := tx.ExecContext(ctx, scripts.UpsertPreference[dbType],
			preferences.Subject, category, granted, updatedAt); err != nil {
			return rollback(err, fmt.Sprintf("Failed to store preference %s of subject: %s", category, preferences.Subject))
		}
	}
	if err := tx.Commit(); err != nil {
		errorMsg := fmt.Sprintf("Failed to commit preferences of subject: %s", preferences.Subject)
		logger.Debug(errorMsg, log.Error(err))
		return errors2.NewServerError(errors2.WithDescription(errors2.UPDATE_PREFERENCES, errorMsg), err)
	}
	logger.Info(fmt.Sprintf("Stored %d consent preferences for subject: %s", len(preferences.Categories), preferences.Subject))
	return nil
}

// DeletePreferences removes every preference of subject.
func (s *PreferenceStore) DeletePreferences(ctx context.Context, subject string) error {

	if _, err := s.dbClient.Execute(ctx, scripts.DeletePreferencesBySubject[dbType], subject); err != nil {
		errorMsg := fmt.Sprintf("Failed to delete consent preferences for subject: %s", subject)
		log.GetLogger().Debug(errorMsg, log.Error(err))
		return errors2.NewServerError(errors2.WithDescription(errors2.UPDATE_PREFERENCES, errorMsg), err)
	}
	return nil
}

// GetCategoryList returns the last category list recorded for subject.
func (s *PreferenceStore) GetCategoryList(ctx context.Context, subject string) ([]string, error) {

	results, err := s.dbClient.ExecuteQuery(ctx, scripts.GetCategoryList[dbType], subject)
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to fetch category list for subject: %s", subject)
		log.GetLogger().Debug(errorMsg, log.Error(err))
		return nil, errors2.NewServerError(errors2.WithDescription(errors2.FETCH_PREFERENCES, errorMsg), err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	var categories pq.StringArray
	if err := categories.Scan(results[0]["categories"]); err != nil {
		errorMsg := fmt.Sprintf("Failed to read category list for subject: %s", subject)
		log.GetLogger().Debug(errorMsg, log.Error(err))
		return nil, errors2.NewServerError(errors2.WithDescription(errors2.FETCH_PREFERENCES, errorMsg), err)
	}
	return categories, nil
}

// SaveCategoryList records the category list announced by the latest settings.
func (s *PreferenceStore) SaveCategoryList(ctx context.Context, subject string, categories []string) error {

	if categories == nil {
		categories = []string{}
	}
	_, err := s.dbClient.Execute(ctx, scripts.UpsertCategoryList[dbType], subject, pq.Array(categories), s.now().UTC())
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to store category list for subject: %s", subject)
		log.GetLogger().Debug(errorMsg, log.Error(err))
		return errors2.NewServerError(errors2.WithDescription(errors2.UPDATE_PREFERENCES, errorMsg), err)
	}
	return nil
}
