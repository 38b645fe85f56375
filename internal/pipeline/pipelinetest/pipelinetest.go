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

// Package pipelinetest provides in-memory sinks and plugins for pipeline tests.
package pipelinetest

import (
	"context"
	"sync"
	"time"

	"github.com/wso2/identity-consent-enforcement-service/internal/pipeline"
)

// RecordingSink keeps every event it receives.
type RecordingSink struct {
	name string

	mu       sync.Mutex
	events   []*pipeline.Event
	sendErr  error
	closed   bool
	received chan struct{}
}

func NewRecordingSink(name string) *RecordingSink {
	return &RecordingSink{name: name, received: make(chan struct{}, 1024)}
}

func (s *RecordingSink) Name() string { return s.name }

func (s *RecordingSink) Send(_ context.Context, event *pipeline.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	s.events = append(s.events, event)
	select {
	case s.received <- struct{}{}:
	default:
	}
	return nil
}

func (s *RecordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// FailWith makes subsequent sends return err.
func (s *RecordingSink) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendErr = err
}

// Events returns a copy of the delivered events.
func (s *RecordingSink) Events() []*pipeline.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*pipeline.Event(nil), s.events...)
}

// Names returns the names of delivered events in delivery order.
func (s *RecordingSink) Names() []string {
	var names []string
	for _, event := range s.Events() {
		names = append(names, event.EventName)
	}
	return names
}

// Closed reports whether Close was called.
func (s *RecordingSink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// WaitFor blocks until at least n events were delivered or the timeout passes.
func (s *RecordingSink) WaitFor(n int, timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		if len(s.Events()) >= n {
			return true
		}
		select {
		case <-s.received:
		case <-deadline:
			return len(s.Events()) >= n
		}
	}
}

// RecordingPlugin records every event reaching it and passes it on.
type RecordingPlugin struct {
	PluginType pipeline.PluginType
	PluginKind pipeline.Kind

	mu     sync.Mutex
	events []*pipeline.Event
	setups int
}

func NewRecordingPlugin(pluginType pipeline.PluginType, kind pipeline.Kind) *RecordingPlugin {
	return &RecordingPlugin{PluginType: pluginType, PluginKind: kind}
}

func (p *RecordingPlugin) Type() pipeline.PluginType { return p.PluginType }

func (p *RecordingPlugin) Kind() pipeline.Kind { return p.PluginKind }

func (p *RecordingPlugin) Setup(*pipeline.Pipeline) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setups++
}

func (p *RecordingPlugin) Execute(event *pipeline.Event) *pipeline.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return event
}

// Names returns the names of recorded events in order.
func (p *RecordingPlugin) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.events))
	for _, event := range p.events {
		names = append(names, event.EventName)
	}
	return names
}

// Events returns a copy of the recorded events.
func (p *RecordingPlugin) Events() []*pipeline.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*pipeline.Event(nil), p.events...)
}

// Setups returns how many times Setup was called.
func (p *RecordingPlugin) Setups() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setups
}

// DropPlugin drops every event.
type DropPlugin struct {
	PluginType pipeline.PluginType
}

func (DropPlugin) Kind() pipeline.Kind { return "drop-all" }

func (d DropPlugin) Type() pipeline.PluginType { return d.PluginType }

func (DropPlugin) Setup(*pipeline.Pipeline) {}

func (DropPlugin) Execute(*pipeline.Event) *pipeline.Event { return nil }

// Track builds a named track event with the given consent stamping.
func Track(name string, preferences map[string]interface{}) *pipeline.Event {
	event := pipeline.NewTrackEvent(name, nil)
	if preferences != nil {
		event.Context["consent"] = map[string]interface{}{
			"categoryPreference": preferences,
		}
	}
	return event
}

// Signal builds the internal signal event carrying the given stamped preferences.
func Signal(name string, preferences map[string]interface{}) *pipeline.Event {
	event := pipeline.NewSignalEvent(name)
	if preferences != nil {
		event.Context["consent"] = map[string]interface{}{
			"categoryPreference": preferences,
		}
	}
	return event
}
