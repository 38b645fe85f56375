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

// Package manager hosts the consent manager plugin. It holds events back until
// enforcement starts, stamps the user's consent onto every event, and keeps the
// destination blockers in step with the settings backend.
package manager

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/wso2/identity-consent-enforcement-service/internal/consent/blocker"
	"github.com/wso2/identity-consent-enforcement-service/internal/consent/cmp"
	"github.com/wso2/identity-consent-enforcement-service/internal/consent/model"
	"github.com/wso2/identity-consent-enforcement-service/internal/consent/settings"
	"github.com/wso2/identity-consent-enforcement-service/internal/consent/state"
	"github.com/wso2/identity-consent-enforcement-service/internal/metrics"
	"github.com/wso2/identity-consent-enforcement-service/internal/pipeline"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/constants"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/log"
)

const KindConsentManager pipeline.Kind = "consent-manager"

type Manager struct {
	store             *state.Store
	provider          cmp.CategoryProvider
	consentChange     func()
	allowSignalBypass bool
	metrics           *metrics.ConsentMetrics

	hostMu sync.RWMutex
	host   *pipeline.Pipeline

	mu       sync.Mutex
	started  bool
	draining bool
	queue    []*pipeline.Event
}

type Option func(*Manager)

// WithConsentChange replaces the default consent change signal.
func WithConsentChange(fn func()) Option {
	return func(m *Manager) {
		m.consentChange = fn
	}
}

// WithSignalBypass is passed on to every blocker the manager installs.
func WithSignalBypass(allow bool) Option {
	return func(m *Manager) {
		m.allowSignalBypass = allow
	}
}

func WithMetrics(consentMetrics *metrics.ConsentMetrics) Option {
	return func(m *Manager) {
		m.metrics = consentMetrics
	}
}

// New creates a manager over store. A nil provider leaves events unstamped.
func New(store *state.Store, provider cmp.CategoryProvider, opts ...Option) *Manager {
	m := &Manager{
		store:             store,
		provider:          provider,
		allowSignalBypass: true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Type() pipeline.PluginType { return pipeline.TypeEnrichment }

func (m *Manager) Kind() pipeline.Kind { return KindConsentManager }

// Setup binds the manager to its pipeline and provisions the default configuration.
func (m *Manager) Setup(p *pipeline.Pipeline) {
	m.hostMu.Lock()
	m.host = p
	m.hostMu.Unlock()

	err := state.Provide(m.store, model.DefaultConsentConfiguration())
	if err != nil && !errors.Is(err, state.ErrAlreadyProvided) {
		log.GetLogger().Error("Failed to provision consent state", log.Error(err))
	}
}

// Update rebuilds the consent configuration from settings and installs any missing blockers.
func (m *Manager) Update(doc pipeline.Settings, kind pipeline.UpdateKind) {
	logger := log.GetLogger()
	cfg := settings.ParseDocument(doc)

	if err := state.Dispatch[model.ConsentConfiguration](m.store, model.UpdateConsentConfiguration{Configuration: cfg}); err != nil {
		logger.Error("Failed to apply consent configuration", log.String("updateKind", kind.String()), log.Error(err))
		return
	}
	logger.Audit(log.AuditEvent{
		InitiatorID:   "settings",
		InitiatorType: log.InitiatorTypeSystem,
		TargetID:      kind.String(),
		TargetType:    log.TargetTypeSettings,
		ActionID:      log.ActionApplySettings,
		Data: map[string]interface{}{
			"destinations":            cfg.DestinationKeys(),
			"hasUnmappedDestinations": cfg.HasUnmappedDestinations,
		},
	})

	if m.provider != nil {
		m.provider.SetCategoryList(cfg.AllCategories)
	}

	host := m.hostPipeline()
	if host == nil {
		logger.Warn("Consent manager is not attached to a pipeline, blockers were not installed")
		return
	}

	if d := host.Find(constants.CatchAllDestinationKey); d != nil {
		installed := d.AddIfAbsent(blocker.KindCatchAllBlocker, func() pipeline.Plugin {
			return blocker.NewCatchAllBlocker(m.store, m.blockerOptions()...)
		})
		if installed {
			m.auditInstall(d.Key(), blocker.KindCatchAllBlocker)
		}
	}

	for _, key := range cfg.DestinationKeys() {
		if key == constants.CatchAllDestinationKey {
			continue
		}
		d := host.Find(key)
		if d == nil {
			logger.Debug(fmt.Sprintf("No destination registered for %s, skipping consent blocker", key))
			continue
		}
		installed := d.AddIfAbsent(blocker.KindDestinationBlocker, func() pipeline.Plugin {
			return blocker.NewDestinationBlocker(key, m.store, m.blockerOptions()...)
		})
		if installed {
			m.auditInstall(key, blocker.KindDestinationBlocker)
		}
	}
}

// Execute stamps the event once enforcement has started. Until then the event is
// held back and nil is returned.
func (m *Manager) Execute(event *pipeline.Event) *pipeline.Event {
	if event == nil {
		return nil
	}

	m.mu.Lock()
	if !m.started {
		m.queue = append(m.queue, event)
		m.metrics.SetQueuedEvents(len(m.queue))
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	return m.stamp(event)
}

// Replay stamps an event that was held back and is now being resubmitted.
func (m *Manager) Replay(event *pipeline.Event) *pipeline.Event {
	return m.stamp(event)
}

// Start releases held events through the pipeline in the order they arrived. Events
// that arrive while the release is in progress join the end of the queue. Only the
// first call has any effect.
func (m *Manager) Start() {
	m.mu.Lock()
	if m.started || m.draining {
		m.mu.Unlock()
		return
	}
	m.draining = true
	m.mu.Unlock()

	host := m.hostPipeline()
	released := 0
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.started = true
			m.draining = false
			m.queue = nil
			m.metrics.SetQueuedEvents(0)
			m.mu.Unlock()
			break
		}
		event := m.queue[0]
		m.queue[0] = nil
		m.queue = m.queue[1:]
		m.metrics.SetQueuedEvents(len(m.queue))
		m.mu.Unlock()

		if host == nil {
			log.GetLogger().Warn("Consent manager is not attached to a pipeline, dropping held event",
				log.String("messageId", event.MessageId))
			continue
		}
		host.Resubmit(m, event)
		released++
	}

	log.GetLogger().Audit(log.AuditEvent{
		InitiatorID:   "consent-manager",
		InitiatorType: log.InitiatorTypeSystem,
		TargetID:      "pipeline",
		TargetType:    log.TargetTypeDestination,
		ActionID:      log.ActionStartEnforcement,
		Data:          map[string]interface{}{"releasedEvents": released},
	})
}

// NotifyConsentChanged emits the consent change signal.
func (m *Manager) NotifyConsentChanged() {
	m.metrics.RecordConsentChange()
	if m.consentChange != nil {
		m.consentChange()
		return
	}
	host := m.hostPipeline()
	if host == nil {
		log.GetLogger().Warn("Consent manager is not attached to a pipeline, consent change not signalled")
		return
	}
	host.Signal(constants.ConsentPreferenceEvent)
}

// Started reports whether enforcement has started and the held events were released.
func (m *Manager) Started() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// QueueLength returns the number of events currently held back.
func (m *Manager) QueueLength() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

func (m *Manager) Store() *state.Store {
	return m.store
}

// Provider returns the category provider, which may be nil.
func (m *Manager) Provider() cmp.CategoryProvider {
	return m.provider
}

func (m *Manager) hostPipeline() *pipeline.Pipeline {
	m.hostMu.RLock()
	defer m.hostMu.RUnlock()
	return m.host
}

func (m *Manager) blockerOptions() []blocker.Option {
	return []blocker.Option{
		blocker.WithSignalBypass(m.allowSignalBypass),
		blocker.WithMetrics(m.metrics),
	}
}

func (m *Manager) auditInstall(destination string, kind pipeline.Kind) {
	log.GetLogger().Audit(log.AuditEvent{
		InitiatorID:   "consent-manager",
		InitiatorType: log.InitiatorTypeSystem,
		TargetID:      destination,
		TargetType:    log.TargetTypeDestination,
		ActionID:      log.ActionInstallBlocker,
		Data:          map[string]interface{}{"kind": string(kind)},
	})
}

// stamp writes the provider's current answers under context.consent.categoryPreference.
func (m *Manager) stamp(event *pipeline.Event) (stamped *pipeline.Event) {
	if m.provider == nil {
		return event
	}

	defer func() {
		if r := recover(); r != nil {
			log.GetLogger().Error("Category provider failed, event left unstamped",
				log.String("messageId", event.MessageId), log.Any("panic", r))
			stamped = event
		}
	}()

	categories := m.provider.GetCategories()
	preferences := make(map[string]interface{}, len(categories))
	for category, granted := range categories {
		preferences[category] = granted
	}

	eventContext := make(map[string]interface{}, len(event.Context)+1)
	for key, value := range event.Context {
		eventContext[key] = value
	}
	eventContext[constants.ConsentKey] = map[string]interface{}{
		constants.CategoryPreferenceKey: preferences,
	}
	event.Context = eventContext
	return event
}
