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

package authz

import (
	"fmt"
	"slices"

	"github.com/wso2/identity-consent-enforcement-service/internal/system/config"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/log"
)

// ValidatePermission checks that the granted scopes cover every scope required for operation.
func ValidatePermission(grantedScopes []string, operation string) bool {

	logger := log.GetLogger()
	if len(grantedScopes) == 0 {
		logger.Debug(fmt.Sprintf("No scopes provided for operation: %s", operation))
		return false
	}

	requiredScopes := config.GetRuntime().Config.Auth.RequiredScopes
	expectedScopes, ok := requiredScopes[operation]
	if !ok || len(expectedScopes) == 0 {
		logger.Debug(fmt.Sprintf("No scopes configured for operation: %s", operation))
		return false
	}

	for _, expected := range expectedScopes {
		if !slices.Contains(grantedScopes, expected) {
			logger.Debug(fmt.Sprintf("Missing scope %s for operation: %s", expected, operation))
			return false
		}
	}
	return true
}
