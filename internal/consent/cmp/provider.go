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

// Package cmp adapts consent management platforms to the consent manager.
package cmp

import (
	"context"
	"sync"
	"time"

	"github.com/wso2/identity-consent-enforcement-service/internal/consent/store"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/cache"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/log"
)

// CategoryProvider reports the user's current answer for every consent category.
type CategoryProvider interface {
	GetCategories() map[string]bool
	SetCategoryList(categories []string)
}

// StaticCategoryProvider answers with a fixed preference map.
type StaticCategoryProvider struct {
	mu         sync.RWMutex
	categories map[string]bool
	list       []string
}

func NewStaticCategoryProvider(categories map[string]bool) *StaticCategoryProvider {
	return &StaticCategoryProvider{categories: copyPreferences(categories)}
}

func (p *StaticCategoryProvider) GetCategories() map[string]bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return copyPreferences(p.categories)
}

func (p *StaticCategoryProvider) SetCategoryList(categories []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.list = append([]string(nil), categories...)
}

// Set replaces the preference map.
func (p *StaticCategoryProvider) Set(categories map[string]bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.categories = copyPreferences(categories)
}

// CategoryList returns the last list received from settings.
func (p *StaticCategoryProvider) CategoryList() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.list...)
}

// AllowAllCategoryProvider consents to every category in the last list.
type AllowAllCategoryProvider struct {
	mu   sync.RWMutex
	list []string
}

func NewAllowAllCategoryProvider() *AllowAllCategoryProvider {
	return &AllowAllCategoryProvider{}
}

func (p *AllowAllCategoryProvider) GetCategories() map[string]bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	categories := make(map[string]bool, len(p.list))
	for _, category := range p.list {
		categories[category] = true
	}
	return categories
}

func (p *AllowAllCategoryProvider) SetCategoryList(categories []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.list = append([]string(nil), categories...)
}

// StoreBackedCategoryProvider reads a subject's preferences from the preference store
// and keeps them in a TTL cache.
type StoreBackedCategoryProvider struct {
	subject string
	store   store.PreferenceStoreInterface
	cache   *cache.Cache[map[string]bool]
	timeout time.Duration

	mu   sync.RWMutex
	list []string

	// generation changes whenever the cached answer is invalidated. A read only fills
	// the cache if no invalidation happened while it was in flight.
	genMu      sync.Mutex
	generation uint64
}

// StoreBackedOption configures a StoreBackedCategoryProvider.
type StoreBackedOption func(*StoreBackedCategoryProvider)

// WithRequestTimeout bounds each store read.
func WithRequestTimeout(timeout time.Duration) StoreBackedOption {
	return func(p *StoreBackedCategoryProvider) {
		p.timeout = timeout
	}
}

func NewStoreBackedCategoryProvider(subject string, preferenceStore store.PreferenceStoreInterface,
	ttl time.Duration, opts ...StoreBackedOption) *StoreBackedCategoryProvider {

	p := &StoreBackedCategoryProvider{
		subject: subject,
		store:   preferenceStore,
		cache:   cache.NewCache[map[string]bool](ttl),
		timeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetCategories returns the subject's preferences. Categories in the current list
// without a stored answer are reported as not consented.
func (p *StoreBackedCategoryProvider) GetCategories() map[string]bool {
	if cached, ok := p.cache.Get(p.subject); ok {
		return copyPreferences(cached)
	}

	p.genMu.Lock()
	generation := p.generation
	p.genMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	preferences, err := p.store.GetPreferences(ctx, p.subject)
	if err != nil {
		log.GetLogger().Warn("Failed to load consent preferences, using last known values",
			log.String("subject", p.subject), log.Error(err))
		stale, _ := p.cache.GetStale(p.subject)
		return copyPreferences(stale)
	}

	categories := map[string]bool{}
	for _, category := range p.categoryList() {
		categories[category] = false
	}
	if preferences != nil {
		for category, granted := range preferences.Categories {
			categories[category] = granted
		}
	}
	p.genMu.Lock()
	if p.generation == generation {
		p.cache.Set(p.subject, categories)
	}
	p.genMu.Unlock()
	return copyPreferences(categories)
}

// SetCategoryList records the announced categories and persists them for the subject.
func (p *StoreBackedCategoryProvider) SetCategoryList(categories []string) {
	p.mu.Lock()
	p.list = append([]string(nil), categories...)
	p.mu.Unlock()
	p.invalidate()

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.store.SaveCategoryList(ctx, p.subject, categories); err != nil {
		log.GetLogger().Warn("Failed to persist category list",
			log.String("subject", p.subject), log.Error(err))
	}
}

// Refresh drops the cached preferences so the next read goes to the store.
func (p *StoreBackedCategoryProvider) Refresh() {
	p.invalidate()
}

func (p *StoreBackedCategoryProvider) invalidate() {
	p.genMu.Lock()
	defer p.genMu.Unlock()
	p.generation++
	p.cache.Delete(p.subject)
}

// Subject returns the subject whose preferences are served.
func (p *StoreBackedCategoryProvider) Subject() string {
	return p.subject
}

func (p *StoreBackedCategoryProvider) categoryList() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.list
}

func copyPreferences(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in))
	for category, granted := range in {
		out[category] = granted
	}
	return out
}
