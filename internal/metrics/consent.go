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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Decision labels.
const (
	DecisionAllow = "allow"
	DecisionBlock = "block"
)

// ConsentMetrics holds Prometheus metrics for consent enforcement and delivery.
// All methods are safe to call on a nil receiver.
type ConsentMetrics struct {
	// DecisionsTotal counts blocker decisions by destination, blocker kind, decision and reason.
	DecisionsTotal *prometheus.CounterVec
	// QueuedEvents tracks events held until enforcement starts.
	QueuedEvents prometheus.Gauge
	// SettingsUpdatesTotal counts settings refresh attempts by result.
	SettingsUpdatesTotal *prometheus.CounterVec
	// DeliveriesTotal counts delivery outcomes by destination and result.
	DeliveriesTotal *prometheus.CounterVec
	// ConsentChangesTotal counts consent change notifications.
	ConsentChangesTotal prometheus.Counter
}

// NewConsentMetrics creates the metrics and registers them with reg.
func NewConsentMetrics(reg prometheus.Registerer) *ConsentMetrics {
	factory := promauto.With(reg)
	return &ConsentMetrics{
		DecisionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "consent_blocker_decisions_total",
			Help: "Total number of consent blocker decisions",
		}, []string{"destination", "kind", "decision", "reason"}),

		QueuedEvents: factory.NewGauge(prometheus.GaugeOpts{
			Name: "consent_queued_events",
			Help: "Number of events held until consent enforcement starts",
		}),

		SettingsUpdatesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "consent_settings_updates_total",
			Help: "Total number of destination settings refreshes",
		}, []string{"result"}),

		DeliveriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "consent_destination_deliveries_total",
			Help: "Total number of destination delivery outcomes",
		}, []string{"destination", "result"}),

		ConsentChangesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "consent_change_notifications_total",
			Help: "Total number of consent change notifications",
		}),
	}
}

// RecordDecision increments the decision counter.
func (m *ConsentMetrics) RecordDecision(destination, kind, decision, reason string) {
	if m == nil {
		return
	}
	m.DecisionsTotal.WithLabelValues(destination, kind, decision, reason).Inc()
}

// SetQueuedEvents sets the queued event gauge.
func (m *ConsentMetrics) SetQueuedEvents(count int) {
	if m == nil {
		return
	}
	m.QueuedEvents.Set(float64(count))
}

// RecordSettingsUpdate increments the settings update counter.
func (m *ConsentMetrics) RecordSettingsUpdate(result string) {
	if m == nil {
		return
	}
	m.SettingsUpdatesTotal.WithLabelValues(result).Inc()
}

// RecordDelivery increments the delivery counter.
func (m *ConsentMetrics) RecordDelivery(destination, result string) {
	if m == nil {
		return
	}
	m.DeliveriesTotal.WithLabelValues(destination, result).Inc()
}

// RecordConsentChange increments the consent change counter.
func (m *ConsentMetrics) RecordConsentChange() {
	if m == nil {
		return
	}
	m.ConsentChangesTotal.Inc()
}
