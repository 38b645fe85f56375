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

// Package pipeline is the host event pipeline: ordered plugins that transform or drop
// events, and destinations that gate and deliver what is left.
package pipeline

import (
	"context"
	"sort"
	"sync"

	"github.com/wso2/identity-consent-enforcement-service/internal/system/log"
)

type Pipeline struct {
	mu           sync.RWMutex
	plugins      []Plugin
	destinations map[string]*Destination
	order        []string

	settingsMu sync.Mutex
	settings   *Settings
}

// New creates an empty pipeline.
func New() *Pipeline {
	return &Pipeline{
		destinations: make(map[string]*Destination),
	}
}

// Add registers a pipeline level plugin. A plugin added after settings were applied
// receives the latest settings straight away.
func (p *Pipeline) Add(plugin Plugin) {
	if plugin.Type() == TypeDestination {
		log.GetLogger().Warn("Destination plugins must be added to a destination", log.String("kind", string(plugin.Kind())))
		return
	}
	plugin.Setup(p)

	p.mu.Lock()
	p.plugins = append(p.plugins, plugin)
	sort.SliceStable(p.plugins, func(i, j int) bool {
		return p.plugins[i].Type() < p.plugins[j].Type()
	})
	p.mu.Unlock()

	p.settingsMu.Lock()
	current := p.settings
	p.settingsMu.Unlock()
	if listener, ok := plugin.(SettingsListener); ok && current != nil {
		listener.Update(*current, UpdateKindInitial)
	}
}

// AddDestination registers a destination and starts its delivery worker.
func (p *Pipeline) AddDestination(d *Destination) {
	p.mu.Lock()
	if _, exists := p.destinations[d.Key()]; !exists {
		p.order = append(p.order, d.Key())
	}
	p.destinations[d.Key()] = d
	p.mu.Unlock()

	d.attach(p)
}

// Find returns the destination registered under key, or nil.
func (p *Pipeline) Find(key string) *Destination {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.destinations[key]
}

// Destinations returns the registered destinations in registration order.
func (p *Pipeline) Destinations() []*Destination {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]*Destination, 0, len(p.order))
	for _, key := range p.order {
		out = append(out, p.destinations[key])
	}
	return out
}

// Process runs event through the pipeline plugins and every destination.
func (p *Pipeline) Process(event *Event) {
	p.process(event, nil)
}

// Resubmit processes an event that owner held back earlier. It takes the full path
// of a new event, except that owner receives it through Replay instead of Execute.
func (p *Pipeline) Resubmit(owner Replayer, event *Event) {
	p.process(event, owner)
}

func (p *Pipeline) process(event *Event, owner Replayer) {
	if event == nil {
		return
	}

	p.mu.RLock()
	plugins := append([]Plugin(nil), p.plugins...)
	p.mu.RUnlock()

	for _, plugin := range plugins {
		if owner != nil && plugin == Plugin(owner) {
			event = owner.Replay(event)
		} else {
			event = plugin.Execute(event)
		}
		if event == nil {
			return
		}
	}

	for _, d := range p.Destinations() {
		if out := d.process(event.Clone()); out != nil {
			d.enqueue(out)
		}
	}
}

// Track builds a track event and processes it.
func (p *Pipeline) Track(name string, properties map[string]interface{}) {
	p.Process(NewTrackEvent(name, properties))
}

// Signal builds an internal signal event and processes it.
func (p *Pipeline) Signal(name string) {
	p.Process(NewSignalEvent(name))
}

// UpdateSettings hands settings to every plugin and destination plugin that listens for them.
func (p *Pipeline) UpdateSettings(settings Settings) {
	p.settingsMu.Lock()
	kind := UpdateKindRefresh
	if p.settings == nil {
		kind = UpdateKindInitial
	}
	p.settings = &settings
	p.settingsMu.Unlock()

	p.mu.RLock()
	plugins := append([]Plugin(nil), p.plugins...)
	p.mu.RUnlock()

	for _, plugin := range plugins {
		if listener, ok := plugin.(SettingsListener); ok {
			listener.Update(settings, kind)
		}
	}
	for _, d := range p.Destinations() {
		d.mu.RLock()
		destinationPlugins := append([]Plugin(nil), d.plugins...)
		d.mu.RUnlock()
		for _, plugin := range destinationPlugins {
			if listener, ok := plugin.(SettingsListener); ok {
				listener.Update(settings, kind)
			}
		}
	}
}

// Settings returns the last applied settings and whether any were applied.
func (p *Pipeline) Settings() (Settings, bool) {
	p.settingsMu.Lock()
	defer p.settingsMu.Unlock()
	if p.settings == nil {
		return Settings{}, false
	}
	return *p.settings, true
}

// Close closes every destination, waiting for queued deliveries until ctx expires.
func (p *Pipeline) Close(ctx context.Context) error {
	var firstErr error
	for _, d := range p.Destinations() {
		if err := d.Close(ctx); err != nil {
			log.GetLogger().Warn("Failed to close destination", log.String("destination", d.Key()), log.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
