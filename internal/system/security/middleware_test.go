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
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/config"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/constants"
	errors2 "github.com/wso2/identity-consent-enforcement-service/internal/system/errors"
)

const signingKey = "test-signing-key"

func setupAuthConfig() {
	config.OverrideRuntime(config.Config{
		Auth: config.AuthConfig{
			SigningKey: signingKey,
			Audience:   "consent-admin",
			RequiredScopes: map[string][]string{
				constants.OperationNotify: {"consent_notify"},
			},
		},
	})
}

func signedToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "admin",
		"aud":   "consent-admin",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"scope": "openid consent_notify",
	}
}

func requestWithToken(token string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/api/v1/consent/notify", nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var clientErr *errors2.ClientError
	require.True(t, errors.As(err, &clientErr), "expected a client error, got %v", err)
	return clientErr.StatusCode
}

func TestAuthnAndAuthz_ValidToken(t *testing.T) {
	setupAuthConfig()
	token := signedToken(t, jwt.SigningMethodHS256, []byte(signingKey), validClaims())

	subject, err := AuthnAndAuthz(requestWithToken(token), constants.OperationNotify)
	require.NoError(t, err)
	assert.Equal(t, "admin", subject)
}

func TestAuthnAndAuthz_ScopeList(t *testing.T) {
	setupAuthConfig()
	claims := validClaims()
	claims["scope"] = []interface{}{"consent_notify"}
	token := signedToken(t, jwt.SigningMethodHS256, []byte(signingKey), claims)

	_, err := AuthnAndAuthz(requestWithToken(token), constants.OperationNotify)
	assert.NoError(t, err)
}

func TestAuthnAndAuthz_Rejections(t *testing.T) {
	setupAuthConfig()

	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Minute).Unix()

	otherAudience := validClaims()
	otherAudience["aud"] = "someone-else"

	noExpiry := validClaims()
	delete(noExpiry, "exp")

	missingScope := validClaims()
	missingScope["scope"] = "openid"

	tests := []struct {
		name      string
		token     string
		operation string
		status    int
	}{
		{"missing header", "", constants.OperationNotify, http.StatusUnauthorized},
		{"garbage token", "not-a-jwt", constants.OperationNotify, http.StatusUnauthorized},
		{"wrong key", signedToken(t, jwt.SigningMethodHS256, []byte("other"), validClaims()), constants.OperationNotify, http.StatusUnauthorized},
		{"wrong algorithm", signedToken(t, jwt.SigningMethodHS512, []byte(signingKey), validClaims()), constants.OperationNotify, http.StatusUnauthorized},
		{"expired", signedToken(t, jwt.SigningMethodHS256, []byte(signingKey), expired), constants.OperationNotify, http.StatusUnauthorized},
		{"no expiry", signedToken(t, jwt.SigningMethodHS256, []byte(signingKey), noExpiry), constants.OperationNotify, http.StatusUnauthorized},
		{"other audience", signedToken(t, jwt.SigningMethodHS256, []byte(signingKey), otherAudience), constants.OperationNotify, http.StatusUnauthorized},
		{"missing scope", signedToken(t, jwt.SigningMethodHS256, []byte(signingKey), missingScope), constants.OperationNotify, http.StatusForbidden},
		{"unconfigured operation", signedToken(t, jwt.SigningMethodHS256, []byte(signingKey), validClaims()), constants.OperationPushSettings, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AuthnAndAuthz(requestWithToken(tt.token), tt.operation)
			assert.Equal(t, tt.status, statusOf(t, err))
		})
	}
}
