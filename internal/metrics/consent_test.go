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
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestConsentMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewConsentMetrics(reg)

	m.RecordDecision("Kafka", "generic-consent-blocker", DecisionBlock, "missing_category")
	m.RecordDecision("Kafka", "generic-consent-blocker", DecisionBlock, "missing_category")
	m.RecordDecision("Kafka", "generic-consent-blocker", DecisionAllow, "consented")
	m.SetQueuedEvents(3)
	m.RecordSettingsUpdate("success")
	m.RecordDelivery("Kafka", "delivered")
	m.RecordConsentChange()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DecisionsTotal.WithLabelValues("Kafka", "generic-consent-blocker", DecisionBlock, "missing_category")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DecisionsTotal.WithLabelValues("Kafka", "generic-consent-blocker", DecisionAllow, "consented")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.QueuedEvents))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SettingsUpdatesTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DeliveriesTotal.WithLabelValues("Kafka", "delivered")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConsentChangesTotal))
}

func TestConsentMetrics_NilReceiver(t *testing.T) {
	var m *ConsentMetrics

	assert.NotPanics(t, func() {
		m.RecordDecision("Kafka", "k", DecisionAllow, "r")
		m.SetQueuedEvents(1)
		m.RecordSettingsUpdate("failure")
		m.RecordDelivery("Kafka", "failed")
		m.RecordConsentChange()
	})
}
