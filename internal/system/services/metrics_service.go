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

package services

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService exposes the Prometheus registry.
type MetricsService struct {
	handler http.Handler
}

func NewMetricsService(mux *http.ServeMux, apiBasePath string, gatherer prometheus.Gatherer) *MetricsService {
	instance := &MetricsService{
		handler: promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
	}
	instance.RegisterRoutes(mux, apiBasePath)
	return instance
}

func (s *MetricsService) RegisterRoutes(mux *http.ServeMux, apiBasePath string) {
	mux.Handle(fmt.Sprintf("GET %s/metrics", apiBasePath), s.handler)
}
