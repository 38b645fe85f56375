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

package log

import (
	"log/slog"
	"time"
)

// AuditEvent is one entry of the consent audit trail.
type AuditEvent struct {
	RecordedAt    time.Time
	InitiatorID   string
	InitiatorType string
	TargetID      string
	TargetType    string
	ActionID      string
	TraceID       string
	Data          map[string]interface{}
}

// Audit writes event at INFO level under the "audit" group, regardless of the configured level.
func (l *Logger) Audit(event AuditEvent) {
	if event.RecordedAt.IsZero() {
		event.RecordedAt = time.Now().UTC()
	}

	attrs := []any{
		slog.String("recordedAt", event.RecordedAt.Format(time.RFC3339)),
		slog.String("actionId", event.ActionID),
		slog.String("initiatorType", event.InitiatorType),
		slog.String("initiatorId", event.InitiatorID),
		slog.String("targetType", event.TargetType),
		slog.String("targetId", event.TargetID),
	}
	if event.TraceID != "" {
		attrs = append(attrs, slog.String("traceId", event.TraceID))
	}
	if len(event.Data) > 0 {
		data := make([]any, 0, len(event.Data))
		for key, value := range event.Data {
			data = append(data, slog.Any(key, value))
		}
		attrs = append(attrs, slog.Group("data", data...))
	}
	l.audit.Info("AUDIT", slog.Group("audit", attrs...))
}

const (
	ActionUpdatePreferences   = "update-consent-preferences"
	ActionNotifyConsentChange = "notify-consent-change"

	ActionApplySettings    = "apply-consent-settings"
	ActionInstallBlocker   = "install-consent-blocker"
	ActionStartEnforcement = "start-consent-enforcement"

	ActionAuthenticationSuccess = "authentication-success"
	ActionAuthenticationFailure = "authentication-failure"
)

const (
	InitiatorTypeUser   = "user"
	InitiatorTypeSystem = "system"
	InitiatorTypeAdmin  = "admin"
)

const (
	TargetTypePreferences = "consent-preferences"
	TargetTypeSettings    = "consent-settings"
	TargetTypeDestination = "destination"
	TargetTypeOperation   = "operation"
)
