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

import (
	"context"
	"sync"
	"time"

	"github.com/wso2/identity-consent-enforcement-service/internal/metrics"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/log"
)

const (
	defaultQueueSize   = 1000
	defaultSendTimeout = 10 * time.Second
)

// Sink delivers events to an external system.
type Sink interface {
	Name() string
	Send(ctx context.Context, event *Event) error
	Close() error
}

// Destination owns the plugins gating one sink and a single delivery worker.
type Destination struct {
	key         string
	sink        Sink
	metrics     *metrics.ConsentMetrics
	queueSize   int
	sendTimeout time.Duration

	mu       sync.RWMutex
	plugins  []Plugin
	pipeline *Pipeline

	queue     chan *Event
	startOnce sync.Once
	closeOnce sync.Once
	done      chan struct{}
}

// DestinationOption configures a Destination.
type DestinationOption func(*Destination)

// WithQueueSize sets the delivery queue capacity.
func WithQueueSize(size int) DestinationOption {
	return func(d *Destination) {
		if size > 0 {
			d.queueSize = size
		}
	}
}

// WithSendTimeout bounds a single sink call.
func WithSendTimeout(timeout time.Duration) DestinationOption {
	return func(d *Destination) {
		if timeout > 0 {
			d.sendTimeout = timeout
		}
	}
}

// WithDeliveryMetrics records delivery outcomes.
func WithDeliveryMetrics(m *metrics.ConsentMetrics) DestinationOption {
	return func(d *Destination) {
		d.metrics = m
	}
}

// NewDestination creates a destination delivering to sink under key.
func NewDestination(key string, sink Sink, opts ...DestinationOption) *Destination {
	d := &Destination{
		key:         key,
		sink:        sink,
		queueSize:   defaultQueueSize,
		sendTimeout: defaultSendTimeout,
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.queue = make(chan *Event, d.queueSize)
	return d
}

// Key returns the destination key used by settings documents.
func (d *Destination) Key() string {
	return d.key
}

// Add appends a plugin to the destination.
func (d *Destination) Add(plugin Plugin) {
	d.mu.Lock()
	d.plugins = append(d.plugins, plugin)
	p := d.pipeline
	d.mu.Unlock()

	if p != nil {
		plugin.Setup(p)
	}
}

// FindAll returns every installed plugin of the given kind.
func (d *Destination) FindAll(kind Kind) []Plugin {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var found []Plugin
	for _, plugin := range d.plugins {
		if plugin.Kind() == kind {
			found = append(found, plugin)
		}
	}
	return found
}

// AddIfAbsent installs the plugin built by create unless one of the same kind exists.
// It reports whether a plugin was installed.
func (d *Destination) AddIfAbsent(kind Kind, create func() Plugin) bool {
	d.mu.Lock()
	for _, plugin := range d.plugins {
		if plugin.Kind() == kind {
			d.mu.Unlock()
			return false
		}
	}
	plugin := create()
	d.plugins = append(d.plugins, plugin)
	p := d.pipeline
	d.mu.Unlock()

	if p != nil {
		plugin.Setup(p)
	}
	return true
}

// Remove drops every plugin of the given kind and returns how many were removed.
func (d *Destination) Remove(kind Kind) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	kept := d.plugins[:0]
	removed := 0
	for _, plugin := range d.plugins {
		if plugin.Kind() == kind {
			removed++
			continue
		}
		kept = append(kept, plugin)
	}
	for i := len(kept); i < len(d.plugins); i++ {
		d.plugins[i] = nil
	}
	d.plugins = kept
	return removed
}

func (d *Destination) attach(p *Pipeline) {
	d.mu.Lock()
	d.pipeline = p
	plugins := append([]Plugin(nil), d.plugins...)
	d.mu.Unlock()

	for _, plugin := range plugins {
		plugin.Setup(p)
	}
	d.startOnce.Do(func() {
		go d.deliver()
	})
}

// process runs the destination plugins and returns the event to deliver, or nil.
func (d *Destination) process(event *Event) *Event {
	d.mu.RLock()
	plugins := gatesFirst(d.plugins)
	d.mu.RUnlock()

	for _, plugin := range plugins {
		if event = plugin.Execute(event); event == nil {
			return nil
		}
	}
	return event
}

func gatesFirst(plugins []Plugin) []Plugin {
	ordered := make([]Plugin, 0, len(plugins))
	for _, plugin := range plugins {
		if isGate(plugin) {
			ordered = append(ordered, plugin)
		}
	}
	for _, plugin := range plugins {
		if !isGate(plugin) {
			ordered = append(ordered, plugin)
		}
	}
	return ordered
}

func isGate(plugin Plugin) bool {
	gate, ok := plugin.(Gate)
	return ok && gate.Gates()
}

func (d *Destination) enqueue(event *Event) {
	defer func() {
		// Enqueue after Close drops the event.
		if recover() != nil {
			d.metrics.RecordDelivery(d.key, "dropped")
		}
	}()

	select {
	case d.queue <- event:
	default:
		log.GetLogger().Warn("Delivery queue full, dropping event",
			log.String("destination", d.key), log.String("messageId", event.MessageId))
		d.metrics.RecordDelivery(d.key, "dropped")
	}
}

func (d *Destination) deliver() {
	defer close(d.done)
	logger := log.GetLogger().With(log.String("destination", d.key))

	for event := range d.queue {
		if d.sink == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
		err := d.sink.Send(ctx, event)
		cancel()
		if err != nil {
			logger.Error("Failed to deliver event", log.String("messageId", event.MessageId), log.Error(err))
			d.metrics.RecordDelivery(d.key, "failed")
			continue
		}
		d.metrics.RecordDelivery(d.key, "delivered")
	}
}

// Close stops accepting events, drains the delivery queue and closes the sink. When ctx
// ends first the sink is closed later, once the worker has finished with it.
func (d *Destination) Close(ctx context.Context) error {
	var err error
	d.closeOnce.Do(func() {
		close(d.queue)
		d.startOnce.Do(func() {
			go d.deliver()
		})
		select {
		case <-d.done:
		case <-ctx.Done():
			log.GetLogger().Warn("Delivery queue not drained before shutdown deadline",
				log.String("destination", d.key), log.Int("pending", len(d.queue)))
			go d.closeSinkWhenDone()
			err = ctx.Err()
			return
		}
		err = d.closeSink()
	})
	return err
}

func (d *Destination) closeSinkWhenDone() {
	<-d.done
	if err := d.closeSink(); err != nil {
		log.GetLogger().Warn("Failed to close sink", log.String("destination", d.key), log.Error(err))
	}
}

func (d *Destination) closeSink() error {
	if d.sink == nil {
		return nil
	}
	return d.sink.Close()
}
