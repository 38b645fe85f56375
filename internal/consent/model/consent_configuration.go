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

import "sort"

// ConsentConfiguration is the consent snapshot published by the state store.
// A snapshot is never mutated after publication; updates replace it wholesale.
type ConsentConfiguration struct {
	// RequiredCategoriesByDestination maps a destination key to the categories it needs.
	// A missing key means no declared requirement. An empty slice means a declared, empty one.
	RequiredCategoriesByDestination map[string][]string `json:"required_categories_by_destination"`
	HasUnmappedDestinations         bool                `json:"has_unmapped_destinations"`
	EnabledAtSegment                bool                `json:"enabled_at_segment"`
	AllCategories                   []string            `json:"all_categories"`
}

// DefaultConsentConfiguration is the state provisioned before any settings arrive.
func DefaultConsentConfiguration() ConsentConfiguration {
	return ConsentConfiguration{
		RequiredCategoriesByDestination: map[string][]string{},
		HasUnmappedDestinations:         true,
		EnabledAtSegment:                true,
		AllCategories:                   []string{},
	}
}

// RequiredCategories returns the requirement declared for destination and whether one exists.
func (c ConsentConfiguration) RequiredCategories(destination string) ([]string, bool) {
	categories, ok := c.RequiredCategoriesByDestination[destination]
	return categories, ok
}

// DestinationKeys lists every destination carrying a declared requirement, sorted.
func (c ConsentConfiguration) DestinationKeys() []string {
	keys := make([]string, 0, len(c.RequiredCategoriesByDestination))
	for key := range c.RequiredCategoriesByDestination {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy.
func (c ConsentConfiguration) Clone() ConsentConfiguration {
	return ConsentConfiguration{
		RequiredCategoriesByDestination: cloneMapping(c.RequiredCategoriesByDestination),
		HasUnmappedDestinations:         c.HasUnmappedDestinations,
		EnabledAtSegment:                c.EnabledAtSegment,
		AllCategories:                   cloneStrings(c.AllCategories),
	}
}

func cloneMapping(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for key, categories := range in {
		out[key] = cloneStrings(categories)
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
