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

package settings

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/wso2/identity-consent-enforcement-service/internal/consent/model"
	"github.com/wso2/identity-consent-enforcement-service/internal/pipeline"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/constants"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/log"
)

// ErrMalformedDocument is returned when the settings payload is not a JSON object.
var ErrMalformedDocument = errors.New("settings document is not a JSON object")

// Decode reads a settings payload. Malformed sections are dropped with a warning so the
// rest of the document survives; only a payload that is not an object is rejected.
func Decode(raw []byte) (pipeline.Settings, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return pipeline.Settings{}, errors.Wrap(ErrMalformedDocument, err.Error())
	}
	if top == nil {
		return pipeline.Settings{}, ErrMalformedDocument
	}

	doc := pipeline.Settings{ConsentSettings: top[constants.ConsentSettingsKey]}
	if rawIntegrations, ok := top[constants.IntegrationsKey]; ok {
		if err := json.Unmarshal(rawIntegrations, &doc.Integrations); err != nil {
			log.GetLogger().Warn("Ignoring malformed integrations block in settings", log.Error(err))
			doc.Integrations = nil
		}
	}
	return doc, nil
}

// Parse decodes raw settings and derives the consent configuration from them. When the
// payload cannot be decoded the default configuration is returned alongside the error.
func Parse(raw []byte) (model.ConsentConfiguration, error) {
	doc, err := Decode(raw)
	if err != nil {
		log.GetLogger().Warn("Falling back to default consent configuration", log.Error(err))
		return model.DefaultConsentConfiguration(), err
	}
	return ParseDocument(doc), nil
}

// ParseDocument derives the consent configuration from a decoded settings document.
func ParseDocument(doc pipeline.Settings) model.ConsentConfiguration {
	logger := log.GetLogger()
	cfg := model.DefaultConsentConfiguration()

	for key, rawIntegration := range doc.Integrations {
		categories, declared := integrationCategories(key, rawIntegration)
		if declared {
			cfg.RequiredCategoriesByDestination[key] = categories
		}
	}

	if len(doc.ConsentSettings) == 0 || isJSONNull(doc.ConsentSettings) {
		return cfg
	}

	var consentSettings map[string]json.RawMessage
	if err := json.Unmarshal(doc.ConsentSettings, &consentSettings); err != nil {
		logger.Warn("Could not read consentSettings, keeping cautious defaults", log.Error(err))
		return cfg
	}

	if rawFlag, ok := consentSettings[constants.HasUnmappedDestinationsKey]; ok {
		var hasUnmapped bool
		if err := json.Unmarshal(rawFlag, &hasUnmapped); err != nil {
			logger.Warn("Could not read hasUnmappedDestinations, assuming unmapped destinations exist",
				log.String("value", string(rawFlag)))
			hasUnmapped = true
		}
		cfg.HasUnmappedDestinations = hasUnmapped
	}

	if rawAll, ok := consentSettings[constants.AllCategoriesKey]; ok {
		cfg.AllCategories = stringEntries(rawAll, constants.AllCategoriesKey)
	}

	return cfg
}

// integrationCategories reports the categories an integration requires and whether it
// declares a consent block at all.
func integrationCategories(key string, rawIntegration json.RawMessage) ([]string, bool) {
	var integration map[string]json.RawMessage
	if err := json.Unmarshal(rawIntegration, &integration); err != nil {
		log.GetLogger().Debug("Integration settings are not an object", log.String("destination", key))
		return nil, false
	}

	rawConsent, ok := integration[constants.ConsentSettingsKey]
	if !ok || isJSONNull(rawConsent) {
		return nil, false
	}

	var consent map[string]json.RawMessage
	if err := json.Unmarshal(rawConsent, &consent); err != nil {
		log.GetLogger().Warn("Malformed consentSettings for destination, treating as empty requirement",
			log.String("destination", key))
		return []string{}, true
	}
	return stringEntries(consent[constants.CategoriesKey], key), true
}

func stringEntries(raw json.RawMessage, owner string) []string {
	out := []string{}
	if len(raw) == 0 || isJSONNull(raw) {
		return out
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		log.GetLogger().Warn("Expected an array of categories", log.String("owner", owner))
		return out
	}
	for _, entry := range entries {
		var category string
		if err := json.Unmarshal(entry, &category); err != nil {
			log.GetLogger().Debug("Skipping non-string category", log.String("owner", owner),
				log.String("value", string(entry)))
			continue
		}
		if category = strings.TrimSpace(category); category != "" {
			out = append(out, category)
		}
	}
	return out
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
