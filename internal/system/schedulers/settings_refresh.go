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

package schedulers

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/wso2/identity-consent-enforcement-service/internal/consent/model"
	"github.com/wso2/identity-consent-enforcement-service/internal/consent/service"
	"github.com/wso2/identity-consent-enforcement-service/internal/consent/settings"
	"github.com/wso2/identity-consent-enforcement-service/internal/metrics"
	"github.com/wso2/identity-consent-enforcement-service/internal/pipeline"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/log"
)

const (
	refreshInitiator      = "settings-scheduler"
	defaultRefreshTimeout = 30 * time.Second
)

// SettingsApplier applies a settings document to the running pipeline.
type SettingsApplier interface {
	ApplySettings(ctx context.Context, doc pipeline.Settings, initiator string) model.ConsentConfiguration
}

// SettingsRefreshScheduler reloads destination settings on a cron schedule.
type SettingsRefreshScheduler struct {
	cron    *cron.Cron
	loader  settings.Loader
	applier SettingsApplier
	metrics *metrics.ConsentMetrics
	timeout time.Duration

	stopOnce sync.Once
}

// NewSettingsRefreshScheduler validates schedule and registers the refresh job.
// schedule accepts standard five-field specs and descriptors such as "@every 5m".
func NewSettingsRefreshScheduler(schedule string, loader settings.Loader, applier SettingsApplier,
	m *metrics.ConsentMetrics) (*SettingsRefreshScheduler, error) {

	s := &SettingsRefreshScheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		loader:  loader,
		applier: applier,
		metrics: m,
		timeout: defaultRefreshTimeout,
	}
	if _, err := s.cron.AddFunc(schedule, s.runScheduled); err != nil {
		return nil, errors.Wrapf(err, "invalid settings refresh schedule %q", schedule)
	}
	return s, nil
}

// Start performs one synchronous refresh and then starts the schedule.
// A failed initial refresh is logged and the schedule still starts.
func (s *SettingsRefreshScheduler) Start(ctx context.Context) {
	if err := s.RefreshNow(ctx); err != nil {
		log.GetLogger().Warn("Initial settings load failed, will retry on schedule", log.Error(err))
	}
	s.cron.Start()
}

// Stop halts the schedule and waits for a running refresh to finish.
func (s *SettingsRefreshScheduler) Stop() {
	s.stopOnce.Do(func() {
		<-s.cron.Stop().Done()
	})
}

// RefreshNow loads the settings document and applies it.
func (s *SettingsRefreshScheduler) RefreshNow(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	doc, err := s.loader.Load(ctx)
	if err != nil {
		result := service.SettingsFailed
		if errors.Is(err, settings.ErrMalformedDocument) {
			result = service.SettingsRejected
		}
		s.metrics.RecordSettingsUpdate(result)
		return errors.Wrap(err, "loading destination settings")
	}
	cfg := s.applier.ApplySettings(ctx, doc, refreshInitiator)
	log.GetLogger().Debug("Destination settings refreshed",
		log.Int("destinations", len(cfg.RequiredCategoriesByDestination)),
		log.Bool("hasUnmappedDestinations", cfg.HasUnmappedDestinations))
	return nil
}

func (s *SettingsRefreshScheduler) runScheduled() {
	if err := s.RefreshNow(context.Background()); err != nil {
		log.GetLogger().Error("Scheduled settings refresh failed", log.Error(err))
	}
}
