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

package security

import (
	"net/http"
	"strings"

	"github.com/wso2/identity-consent-enforcement-service/internal/system/authn"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/authz"
	sysContext "github.com/wso2/identity-consent-enforcement-service/internal/system/context"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/errors"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/log"
)

// AuthnAndAuthz performs authentication and authorization for the given HTTP request and operation.
// It returns the authenticated subject.
func AuthnAndAuthz(r *http.Request, operation string) (string, error) {

	logger := log.GetLogger()
	traceID := sysContext.GetTraceID(r.Context())
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", errors.NewClientError(errors.WithTraceID(errors.WithDescription(errors.UN_AUTHORIZED,
			"Missing or invalid Authorization header"), traceID), http.StatusUnauthorized)
	}

	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	claims, err := authn.ValidateAuthenticationAndReturnClaims(token)
	if err != nil {
		logger.Audit(log.AuditEvent{
			InitiatorID:   r.RemoteAddr,
			InitiatorType: log.InitiatorTypeUser,
			TargetID:      operation,
			TargetType:    log.TargetTypeOperation,
			ActionID:      log.ActionAuthenticationFailure,
			TraceID:       traceID,
		})
		return "", err
	}

	subject := authn.Subject(claims)
	if !authz.ValidatePermission(authn.Scopes(claims), operation) {
		return subject, errors.NewClientError(errors.WithTraceID(errors.WithDescription(errors.FORBIDDEN,
			"Do not have permission to perform this operation"), traceID), http.StatusForbidden)
	}

	logger.Audit(log.AuditEvent{
		InitiatorID:   subject,
		InitiatorType: log.InitiatorTypeAdmin,
		TargetID:      operation,
		TargetType:    log.TargetTypeOperation,
		ActionID:      log.ActionAuthenticationSuccess,
		TraceID:       traceID,
	})
	return subject, nil
}
