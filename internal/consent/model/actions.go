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

// UpdateConsentConfiguration replaces the whole snapshot.
type UpdateConsentConfiguration struct {
	Configuration ConsentConfiguration
}

func (a UpdateConsentConfiguration) Reduce(_ ConsentConfiguration) ConsentConfiguration {
	return a.Configuration.Clone()
}

// UpdateDestinationMappings replaces only the destination requirements.
type UpdateDestinationMappings struct {
	Mappings map[string][]string
}

func (a UpdateDestinationMappings) Reduce(current ConsentConfiguration) ConsentConfiguration {
	next := current.Clone()
	next.RequiredCategoriesByDestination = cloneMapping(a.Mappings)
	return next
}

// UpdateHasUnmappedDestinations replaces only the unmapped destinations flag.
type UpdateHasUnmappedDestinations struct {
	HasUnmappedDestinations bool
}

func (a UpdateHasUnmappedDestinations) Reduce(current ConsentConfiguration) ConsentConfiguration {
	next := current.Clone()
	next.HasUnmappedDestinations = a.HasUnmappedDestinations
	return next
}

// UpdateEnabledAtSegment replaces only the enforcement flag.
type UpdateEnabledAtSegment struct {
	EnabledAtSegment bool
}

func (a UpdateEnabledAtSegment) Reduce(current ConsentConfiguration) ConsentConfiguration {
	next := current.Clone()
	next.EnabledAtSegment = a.EnabledAtSegment
	return next
}
