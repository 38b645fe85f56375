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

// Package blocker gates destination delivery on the consent stamped onto each event.
package blocker

import (
	"github.com/wso2/identity-consent-enforcement-service/internal/consent/model"
	"github.com/wso2/identity-consent-enforcement-service/internal/consent/state"
	"github.com/wso2/identity-consent-enforcement-service/internal/metrics"
	"github.com/wso2/identity-consent-enforcement-service/internal/pipeline"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/constants"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/log"
)

const (
	KindDestinationBlocker pipeline.Kind = "generic-consent-blocker"
	KindCatchAllBlocker    pipeline.Kind = "catchall-consent-blocker"
)

// Reasons attached to decisions.
const (
	ReasonUnprovisioned       = "unprovisioned"
	ReasonNoRequirement       = "no_requirement"
	ReasonSignalBypass        = "signal_bypass"
	ReasonConsented           = "consented"
	ReasonMissingCategory     = "missing_category"
	ReasonUnmappedDestination = "unmapped_destinations"
	ReasonNoConsentedCategory = "no_consented_category"
)

// Decision is the outcome of evaluating one event.
type Decision struct {
	Allowed bool
	Reason  string
}

// Blocker drops events whose stamped consent does not cover what its destination requires.
type Blocker struct {
	destinationKey    string
	kind              pipeline.Kind
	store             *state.Store
	allowSignalBypass bool
	metrics           *metrics.ConsentMetrics
}

// Option configures a Blocker.
type Option func(*Blocker)

// WithSignalBypass controls whether the consent change signal event passes regardless of consent.
func WithSignalBypass(allow bool) Option {
	return func(b *Blocker) {
		b.allowSignalBypass = allow
	}
}

// WithMetrics records every decision.
func WithMetrics(m *metrics.ConsentMetrics) Option {
	return func(b *Blocker) {
		b.metrics = m
	}
}

// NewDestinationBlocker creates the blocker for a destination with individually known requirements.
func NewDestinationBlocker(destinationKey string, store *state.Store, opts ...Option) *Blocker {
	return newBlocker(destinationKey, KindDestinationBlocker, store, opts)
}

// NewCatchAllBlocker creates the blocker for the built-in destination that fans out to
// destinations which are not individually modeled.
func NewCatchAllBlocker(store *state.Store, opts ...Option) *Blocker {
	return newBlocker(constants.CatchAllDestinationKey, KindCatchAllBlocker, store, opts)
}

func newBlocker(destinationKey string, kind pipeline.Kind, store *state.Store, opts []Option) *Blocker {
	b := &Blocker{
		destinationKey:    destinationKey,
		kind:              kind,
		store:             store,
		allowSignalBypass: true,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Blocker) Type() pipeline.PluginType { return pipeline.TypeDestination }

func (b *Blocker) Kind() pipeline.Kind { return b.kind }

func (b *Blocker) Setup(*pipeline.Pipeline) {}

// Gates marks the blocker as a pure delivery decision so it runs ahead of other destination plugins.
func (b *Blocker) Gates() bool { return true }

// DestinationKey returns the destination whose requirement this blocker enforces.
func (b *Blocker) DestinationKey() string { return b.destinationKey }

// Execute returns the event when it may be delivered and nil otherwise.
func (b *Blocker) Execute(event *pipeline.Event) *pipeline.Event {
	if event == nil {
		return nil
	}
	decision := b.Decide(event)

	outcome := metrics.DecisionAllow
	if !decision.Allowed {
		outcome = metrics.DecisionBlock
	}
	b.metrics.RecordDecision(b.destinationKey, string(b.kind), outcome, decision.Reason)

	if !decision.Allowed {
		log.GetLogger().Debug("Event blocked by consent",
			log.String("destination", b.destinationKey),
			log.String("messageId", event.MessageId),
			log.String("reason", decision.Reason))
		return nil
	}
	return event
}

// Decide evaluates event against the current consent configuration.
func (b *Blocker) Decide(event *pipeline.Event) Decision {
	cfg, provisioned := state.Current[model.ConsentConfiguration](b.store)
	if !provisioned {
		return Decision{Allowed: false, Reason: ReasonUnprovisioned}
	}

	required, _ := cfg.RequiredCategories(b.destinationKey)
	consented := ConsentedCategories(event)

	if len(required) == 0 {
		if b.kind != KindCatchAllBlocker {
			return Decision{Allowed: true, Reason: ReasonNoRequirement}
		}
		if cfg.HasUnmappedDestinations {
			return Decision{Allowed: true, Reason: ReasonUnmappedDestination}
		}
		if len(consented) > 0 {
			return Decision{Allowed: true, Reason: ReasonConsented}
		}
		if b.isBypassed(event) {
			return Decision{Allowed: true, Reason: ReasonSignalBypass}
		}
		return Decision{Allowed: false, Reason: ReasonNoConsentedCategory}
	}

	for _, category := range required {
		if _, ok := consented[category]; !ok {
			if b.isBypassed(event) {
				return Decision{Allowed: true, Reason: ReasonSignalBypass}
			}
			return Decision{Allowed: false, Reason: ReasonMissingCategory}
		}
	}
	return Decision{Allowed: true, Reason: ReasonConsented}
}

func (b *Blocker) isBypassed(event *pipeline.Event) bool {
	return b.allowSignalBypass && event.IsSignal(constants.ConsentPreferenceEvent)
}

// ConsentedCategories returns the categories stamped as consented on event.
func ConsentedCategories(event *pipeline.Event) map[string]struct{} {
	consented := map[string]struct{}{}
	if event == nil || event.Context == nil {
		return consented
	}

	consent, ok := event.Context[constants.ConsentKey].(map[string]interface{})
	if !ok {
		return consented
	}

	switch preferences := consent[constants.CategoryPreferenceKey].(type) {
	case map[string]interface{}:
		for category, given := range preferences {
			if granted, ok := given.(bool); ok && granted {
				consented[category] = struct{}{}
			}
		}
	case map[string]bool:
		for category, granted := range preferences {
			if granted {
				consented[category] = struct{}{}
			}
		}
	}
	return consented
}
