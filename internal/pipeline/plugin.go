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

package pipeline

import "encoding/json"

// PluginType decides where a plugin runs.
type PluginType int

const (
	// TypeBefore plugins run first on every event.
	TypeBefore PluginType = iota
	// TypeEnrichment plugins run after TypeBefore plugins, in registration order.
	TypeEnrichment
	// TypeDestination plugins run inside a single destination before delivery.
	TypeDestination
)

// Kind identifies a plugin implementation so installed plugins can be looked up without
// inspecting their concrete type.
type Kind string

// Plugin is a step of the event pipeline. Execute returns nil to drop the event.
type Plugin interface {
	Type() PluginType
	Kind() Kind
	Setup(p *Pipeline)
	Execute(event *Event) *Event
}

// Gate is implemented by destination plugins that only decide whether an event may be
// delivered. A destination runs its gates before its other plugins.
type Gate interface {
	Plugin
	Gates() bool
}

// Replayer is a plugin that holds events back and later resubmits them.
type Replayer interface {
	Plugin
	Replay(event *Event) *Event
}

// UpdateKind tells a SettingsListener whether settings are seen for the first time.
type UpdateKind int

const (
	UpdateKindInitial UpdateKind = iota
	UpdateKindRefresh
)

func (k UpdateKind) String() string {
	if k == UpdateKindInitial {
		return "initial"
	}
	return "refresh"
}

// SettingsListener is implemented by plugins that react to settings changes.
type SettingsListener interface {
	Update(settings Settings, kind UpdateKind)
}

// Settings is the destination settings document served by the settings backend.
// Integration entries stay raw because their shape belongs to each destination.
type Settings struct {
	Integrations    map[string]json.RawMessage `json:"integrations"`
	ConsentSettings json.RawMessage            `json:"consentSettings,omitempty"`
}
