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

package constants

type contextKey string

const (
	TraceIDContextKey contextKey = "trace_id"
	TraceIDHeader                = "X-Trace-Id"
)

const ApiBasePath = "/api/v1"

const (
	ConfigFile  = "/repository/conf/deployment.yaml"
	EnvFileGlob = "config/*.env"
	SchemaFile  = "/repository/dbscripts/postgres.sql"
)

// Keys of the destination settings document.
const (
	IntegrationsKey            = "integrations"
	ConsentSettingsKey         = "consentSettings"
	CategoriesKey              = "categories"
	AllCategoriesKey           = "allCategories"
	HasUnmappedDestinationsKey = "hasUnmappedDestinations"
)

// Keys of the consent annotation stamped on event context.
const (
	ConsentKey            = "consent"
	CategoryPreferenceKey = "categoryPreference"
)

// CatchAllDestinationKey identifies the built-in delivery destination.
const CatchAllDestinationKey = "Segment.io"

// ConsentPreferenceEvent is the track event emitted when consent preferences change.
const ConsentPreferenceEvent = "Segment Consent Preference"

// Event types accepted by the ingestion endpoint.
const (
	TrackEvent    = "track"
	PageEvent     = "page"
	ScreenEvent   = "screen"
	IdentifyEvent = "identify"
	GroupEvent    = "group"
	AliasEvent    = "alias"
)

var AllowedEventTypes = map[string]bool{
	TrackEvent:    true,
	PageEvent:     true,
	ScreenEvent:   true,
	IdentifyEvent: true,
	GroupEvent:    true,
	AliasEvent:    true,
}

// Operations guarded by scope checks.
const (
	OperationViewPreferences   = "consent_preferences:view"
	OperationUpdatePreferences = "consent_preferences:update"
	OperationNotify            = "consent:notify"
	OperationPushSettings      = "consent_settings:update"
	OperationViewState         = "consent_state:view"
)
