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
	"slices"
	"strings"
	"sync"

	"github.com/wso2/identity-consent-enforcement-service/internal/consent/manager"
	"github.com/wso2/identity-consent-enforcement-service/internal/consent/model"
	"github.com/wso2/identity-consent-enforcement-service/internal/consent/state"
	"github.com/wso2/identity-consent-enforcement-service/internal/consent/store"
	"github.com/wso2/identity-consent-enforcement-service/internal/metrics"
	"github.com/wso2/identity-consent-enforcement-service/internal/pipeline"
	sysContext "github.com/wso2/identity-consent-enforcement-service/internal/system/context"
	errors2 "github.com/wso2/identity-consent-enforcement-service/internal/system/errors"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/log"
)

// Settings update results recorded in metrics.
const (
	SettingsApplied  = "applied"
	SettingsRejected = "rejected"
	SettingsFailed   = "failed"
)

// ConsentServiceInterface defines the service interface.
type ConsentServiceInterface interface {
	GetPreferences(ctx context.Context) (*model.ConsentPreferences, error)
	UpdatePreferences(ctx context.Context, categories map[string]bool, initiator string) (*model.ConsentPreferences, error)
	NotifyConsentChanged(ctx context.Context, initiator string)
	GetState() model.ConsentStateView
	ApplySettings(ctx context.Context, doc pipeline.Settings, initiator string) model.ConsentConfiguration
}

type refresher interface {
	Refresh()
}

// ConsentService ties the preference store to the running consent manager.
type ConsentService struct {
	subject      string
	store        store.PreferenceStoreInterface
	pipeline     *pipeline.Pipeline
	manager      *manager.Manager
	metrics      *metrics.ConsentMetrics
	startOnFirst bool

	applyMu sync.Mutex
}

type Option func(*ConsentService)

// WithStartOnFirstSettings starts enforcement once the first settings document is applied.
func WithStartOnFirstSettings(start bool) Option {
	return func(s *ConsentService) {
		s.startOnFirst = start
	}
}

func WithMetrics(m *metrics.ConsentMetrics) Option {
	return func(s *ConsentService) {
		s.metrics = m
	}
}

func NewConsentService(subject string, preferenceStore store.PreferenceStoreInterface,
	host *pipeline.Pipeline, consentManager *manager.Manager, opts ...Option) *ConsentService {

	s := &ConsentService{
		subject:  subject,
		store:    preferenceStore,
		pipeline: host,
		manager:  consentManager,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetPreferences returns the stored preferences of the configured subject.
func (s *ConsentService) GetPreferences(ctx context.Context) (*model.ConsentPreferences, error) {

	preferences, err := s.store.GetPreferences(ctx, s.subject)
	if err != nil {
		return nil, err
	}
	if preferences == nil {
		return nil, errors2.NewClientError(errors2.PREFERENCES_NOT_FOUND, http.StatusNotFound)
	}
	return preferences, nil
}

// UpdatePreferences replaces the subject's preferences, drops cached answers and signals the change.
func (s *ConsentService) UpdatePreferences(ctx context.Context, categories map[string]bool,
	initiator string) (*model.ConsentPreferences, error) {

	if err := s.validatePreferences(categories); err != nil {
		return nil, err
	}

	preferences := model.ConsentPreferences{Subject: s.subject, Categories: categories}
	if err := s.store.ReplacePreferences(ctx, preferences); err != nil {
		return nil, err
	}

	if r, ok := s.manager.Provider().(refresher); ok {
		r.Refresh()
	}

	log.GetLogger().Audit(log.AuditEvent{
		InitiatorID:   initiator,
		InitiatorType: log.InitiatorTypeAdmin,
		TargetID:      s.subject,
		TargetType:    log.TargetTypePreferences,
		ActionID:      log.ActionUpdatePreferences,
		TraceID:       sysContext.GetTraceID(ctx),
		Data:          map[string]interface{}{"categories": categories},
	})

	s.NotifyConsentChanged(ctx, initiator)
	return &preferences, nil
}

// NotifyConsentChanged emits the consent change signal through the manager.
func (s *ConsentService) NotifyConsentChanged(ctx context.Context, initiator string) {

	s.manager.NotifyConsentChanged()
	log.GetLogger().Audit(log.AuditEvent{
		InitiatorID:   initiator,
		InitiatorType: log.InitiatorTypeAdmin,
		TargetID:      s.subject,
		TargetType:    log.TargetTypePreferences,
		ActionID:      log.ActionNotifyConsentChange,
		TraceID:       sysContext.GetTraceID(ctx),
	})
}

// GetState returns the enforcement state as currently seen by the blockers.
func (s *ConsentService) GetState() model.ConsentStateView {

	cfg, provisioned := state.Current[model.ConsentConfiguration](s.manager.Store())
	view := model.ConsentStateView{
		Configuration: cfg,
		Provisioned:   provisioned,
		Started:       s.manager.Started(),
		QueueLength:   s.manager.QueueLength(),
	}
	if provider := s.manager.Provider(); provider != nil {
		view.Preferences = provider.GetCategories()
	}
	return view
}

// ApplySettings hands a settings document to the pipeline. When configured, the
// first document also starts enforcement.
func (s *ConsentService) ApplySettings(ctx context.Context, doc pipeline.Settings, initiator string) model.ConsentConfiguration {

	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.pipeline.UpdateSettings(doc)
	s.metrics.RecordSettingsUpdate(SettingsApplied)

	cfg, _ := state.Current[model.ConsentConfiguration](s.manager.Store())
	log.GetLogger().Info(fmt.Sprintf("Applied destination settings from %s", initiator),
		log.Int("destinations", len(cfg.RequiredCategoriesByDestination)),
		log.String("traceId", sysContext.GetTraceID(ctx)))

	if s.startOnFirst && !s.manager.Started() {
		s.manager.Start()
	}
	return cfg
}

func (s *ConsentService) validatePreferences(categories map[string]bool) error {

	if len(categories) == 0 {
		return errors2.NewClientError(errors2.WithDescription(errors2.INVALID_PREFERENCES,
			"At least one category preference is required."), http.StatusBadRequest)
	}

	cfg, _ := state.Current[model.ConsentConfiguration](s.manager.Store())
	for category := range categories {
		if strings.TrimSpace(category) == "" {
			return errors2.NewClientError(errors2.WithDescription(errors2.INVALID_PREFERENCES,
				"Category names must not be empty."), http.StatusBadRequest)
		}
		if len(cfg.AllCategories) > 0 && !slices.Contains(cfg.AllCategories, category) {
			return errors2.NewClientError(errors2.WithDescription(errors2.INVALID_PREFERENCES,
				fmt.Sprintf("Unknown consent category: %s", category)), http.StatusBadRequest)
		}
	}
	return nil
}
