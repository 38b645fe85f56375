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

package model

// ConsentPreferences is a subject's answer per consent category.
type ConsentPreferences struct {
	Subject    string          `json:"subject"`
	Categories map[string]bool `json:"categories"`
	UpdatedAt  int64           `json:"updated_at,omitempty"`
}

// ConsentStateView is the read model exposed by the state endpoint.
type ConsentStateView struct {
	Configuration ConsentConfiguration `json:"configuration"`
	Provisioned   bool                 `json:"provisioned"`
	Started       bool                 `json:"started"`
	QueueLength   int                  `json:"queue_length"`
	Preferences   map[string]bool      `json:"category_preference"`
}
