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

package managers

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	consenthandler "github.com/wso2/identity-consent-enforcement-service/internal/consent/handler"
	eventhandler "github.com/wso2/identity-consent-enforcement-service/internal/events/handler"
	healthhandler "github.com/wso2/identity-consent-enforcement-service/internal/health_check/handler"
	tracectx "github.com/wso2/identity-consent-enforcement-service/internal/system/context"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/services"
)

type ServiceManagerInterface interface {
	RegisterServices(apiBasePath string) error
	Handler() http.Handler
}

// Handlers groups the request handlers mounted by the service manager.
type Handlers struct {
	Consent  *consenthandler.ConsentHandler
	Events   *eventhandler.EventHandler
	Health   *healthhandler.HealthHandler
	Gatherer prometheus.Gatherer
}

type ServiceManager struct {
	mux            *http.ServeMux
	handlers       Handlers
	allowedOrigins []string
}

// NewServiceManager creates a new instance of ServiceManager.
func NewServiceManager(mux *http.ServeMux, handlers Handlers, allowedOrigins []string) ServiceManagerInterface {

	return &ServiceManager{
		mux:            mux,
		handlers:       handlers,
		allowedOrigins: allowedOrigins,
	}
}

func (sm *ServiceManager) RegisterServices(apiBasePath string) error {

	if sm.handlers.Consent == nil || sm.handlers.Events == nil || sm.handlers.Health == nil {
		return errors.New("consent, events and health handlers are required")
	}

	services.NewConsentService(sm.mux, apiBasePath, sm.handlers.Consent)
	services.NewEventService(sm.mux, apiBasePath, sm.handlers.Events)
	services.NewHealthService(sm.mux, apiBasePath, sm.handlers.Health)
	if sm.handlers.Gatherer != nil {
		services.NewMetricsService(sm.mux, apiBasePath, sm.handlers.Gatherer)
	}
	return nil
}

// Handler returns the mux wrapped with trace id and CORS handling.
func (sm *ServiceManager) Handler() http.Handler {
	return enableCORS(sm.allowedOrigins, tracectx.TraceMiddleware(sm.mux))
}
