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

// Package state holds versioned, typed state snapshots.
//
// Each state type occupies one slot. Writers go through Dispatch, which applies a
// pure reducer to the latest snapshot and publishes the result in a single atomic
// swap; writers to the same slot are serialized. Readers load the latest snapshot
// without locking and never see a partially applied update.
package state

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

var (
	ErrAlreadyProvided = errors.New("state already provided")
	ErrNotProvided     = errors.New("state not provided")
)

// Action computes the next state from the current one. Reduce must not mutate its input.
type Action[S any] interface {
	Reduce(current S) S
}

// ActionFunc adapts a plain function to an Action.
type ActionFunc[S any] func(current S) S

func (f ActionFunc[S]) Reduce(current S) S {
	return f(current)
}

// Snapshot is a published state value together with its version.
type Snapshot[S any] struct {
	State   S
	Version uint64
}

type slot[S any] struct {
	writeMu sync.Mutex
	current atomic.Pointer[Snapshot[S]]
}

// Store is a registry of typed state slots.
type Store struct {
	mu    sync.RWMutex
	slots map[reflect.Type]any
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{slots: make(map[reflect.Type]any)}
}

// Provide establishes the slot for S with the given initial value at version 1.
func Provide[S any](s *Store, initial S) error {
	key := reflect.TypeOf((*S)(nil)).Elem()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.slots[key]; exists {
		return errors.Wrapf(ErrAlreadyProvided, "type %s", key)
	}
	sl := &slot[S]{}
	sl.current.Store(&Snapshot[S]{State: initial, Version: 1})
	s.slots[key] = sl
	return nil
}

// Dispatch applies action to the current state of S and publishes the result.
// A panicking reducer leaves the published state untouched.
func Dispatch[S any](s *Store, action Action[S]) (err error) {
	sl, ok := lookup[S](s)
	if !ok {
		return errors.Wrapf(ErrNotProvided, "type %s", reflect.TypeOf((*S)(nil)).Elem())
	}

	sl.writeMu.Lock()
	defer sl.writeMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reducer for %s panicked: %v", reflect.TypeOf((*S)(nil)).Elem(), r)
		}
	}()

	prior := sl.current.Load()
	next := action.Reduce(prior.State)
	sl.current.Store(&Snapshot[S]{State: next, Version: prior.Version + 1})
	return nil
}

// Current returns the latest state of S and whether S has been provided.
func Current[S any](s *Store) (S, bool) {
	snap, ok := CurrentSnapshot[S](s)
	return snap.State, ok
}

// CurrentSnapshot returns the latest snapshot of S and whether S has been provided.
func CurrentSnapshot[S any](s *Store) (Snapshot[S], bool) {
	sl, ok := lookup[S](s)
	if !ok {
		return Snapshot[S]{}, false
	}
	return *sl.current.Load(), true
}

func lookup[S any](s *Store) (*slot[S], bool) {
	if s == nil {
		return nil, false
	}
	s.mu.RLock()
	raw, ok := s.slots[reflect.TypeOf((*S)(nil)).Elem()]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return raw.(*slot[S]), true
}
