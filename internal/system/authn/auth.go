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

package authn

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/config"
	errors2 "github.com/wso2/identity-consent-enforcement-service/internal/system/errors"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/log"
)

// ValidateAuthenticationAndReturnClaims verifies an HS256 bearer token against the
// configured signing key and returns its claims.
func ValidateAuthenticationAndReturnClaims(token string) (map[string]interface{}, error) {

	logger := log.GetLogger()
	authConfig := config.GetRuntime().Config.Auth
	if authConfig.SigningKey == "" {
		logger.Warn("No signing key configured, rejecting bearer token.")
		return nil, unauthorizedError()
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if authConfig.Audience != "" {
		options = append(options, jwt.WithAudience(authConfig.Audience))
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(authConfig.SigningKey), nil
	}, options...)
	if err != nil {
		logger.Debug("Bearer token validation failed.", log.Error(err))
		return nil, unauthorizedError()
	}
	return claims, nil
}

// Scopes returns the scopes granted by claims. Both a space separated string and a
// list are accepted.
func Scopes(claims map[string]interface{}) []string {

	switch scope := claims["scope"].(type) {
	case string:
		return strings.Fields(scope)
	case []interface{}:
		scopes := make([]string, 0, len(scope))
		for _, s := range scope {
			if value, ok := s.(string); ok && value != "" {
				scopes = append(scopes, value)
			}
		}
		return scopes
	}
	return nil
}

// Subject returns the sub claim, or an empty string.
func Subject(claims map[string]interface{}) string {
	sub, _ := claims["sub"].(string)
	return sub
}

func unauthorizedError() error {
	return errors2.NewClientError(errors2.ErrorMessage{
		Code:        errors2.UN_AUTHORIZED.Code,
		Message:     errors2.UN_AUTHORIZED.Message,
		Description: errors2.UN_AUTHORIZED.Description,
	}, http.StatusUnauthorized)
}
