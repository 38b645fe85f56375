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

package service

import (
	"context"
	"fmt"

	"github.com/wso2/identity-consent-enforcement-service/internal/consent/model"
	"github.com/wso2/identity-consent-enforcement-service/internal/consent/state"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/database/client"
)

// HealthCheckServiceInterface defines the service interface.
type HealthCheckServiceInterface interface {
	CheckReadiness(ctx context.Context) error
}

// HealthCheckService reports ready once the database answers and the consent state is provisioned.
type HealthCheckService struct {
	dbClient client.DBClientInterface
	store    *state.Store
}

// NewHealthCheckService creates the readiness checker. A nil dbClient skips the database check.
func NewHealthCheckService(dbClient client.DBClientInterface, store *state.Store) HealthCheckServiceInterface {
	return &HealthCheckService{dbClient: dbClient, store: store}
}

func (h *HealthCheckService) CheckReadiness(ctx context.Context) error {

	if h.dbClient != nil {
		if err := h.dbClient.Ping(ctx); err != nil {
			return fmt.Errorf("database connectivity check failed: %v", err)
		}
	}

	if _, ok := state.Current[model.ConsentConfiguration](h.store); !ok {
		return fmt.Errorf("consent state is not provisioned")
	}
	return nil
}
