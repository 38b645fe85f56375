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

package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/wso2/identity-consent-enforcement-service/internal/consent/service"
	"github.com/wso2/identity-consent-enforcement-service/internal/consent/settings"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/constants"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/errors"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/security"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/utils"
)

const maxSettingsBodySize = 4 << 20

// Authorizer authenticates a request for an operation and returns the caller.
type Authorizer func(r *http.Request, operation string) (string, error)

type preferencesRequest struct {
	Categories map[string]bool `json:"categories"`
}

type ConsentHandler struct {
	service   service.ConsentServiceInterface
	authorize Authorizer
}

// NewConsentHandler creates the handler. A nil authorize uses bearer token validation.
func NewConsentHandler(consentService service.ConsentServiceInterface, authorize Authorizer) *ConsentHandler {
	if authorize == nil {
		authorize = security.AuthnAndAuthz
	}
	return &ConsentHandler{service: consentService, authorize: authorize}
}

// GetPreferences handles GET /consent/preferences
func (h *ConsentHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {

	if _, err := h.authorize(r, constants.OperationViewPreferences); err != nil {
		utils.HandleError(w, err)
		return
	}
	preferences, err := h.service.GetPreferences(r.Context())
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, preferences)
}

// UpdatePreferences handles PUT /consent/preferences
func (h *ConsentHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {

	caller, err := h.authorize(r, constants.OperationUpdatePreferences)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	var request preferencesRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		utils.HandleError(w, utils.DecodeError(err, "consent preferences"))
		return
	}

	preferences, err := h.service.UpdatePreferences(r.Context(), request.Categories, caller)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, preferences)
}

// NotifyConsentChanged handles POST /consent/notify
func (h *ConsentHandler) NotifyConsentChanged(w http.ResponseWriter, r *http.Request) {

	caller, err := h.authorize(r, constants.OperationNotify)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	h.service.NotifyConsentChanged(r.Context(), caller)
	w.WriteHeader(http.StatusAccepted)
}

// GetState handles GET /consent/state
func (h *ConsentHandler) GetState(w http.ResponseWriter, r *http.Request) {

	if _, err := h.authorize(r, constants.OperationViewState); err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, h.service.GetState())
}

// PushSettings handles POST /consent/settings
func (h *ConsentHandler) PushSettings(w http.ResponseWriter, r *http.Request) {

	caller, err := h.authorize(r, constants.OperationPushSettings)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxSettingsBodySize))
	if err != nil {
		utils.HandleError(w, errors.NewClientError(errors.WithDescription(errors.BAD_REQUEST,
			"Failed to read settings document."), http.StatusBadRequest))
		return
	}
	doc, err := settings.Decode(raw)
	if err != nil {
		utils.HandleError(w, errors.NewClientError(errors.WithDescription(errors.INVALID_SETTINGS,
			"Settings document must be a JSON object."), http.StatusBadRequest))
		return
	}

	cfg := h.service.ApplySettings(r.Context(), doc, caller)
	utils.WriteJSON(w, http.StatusOK, cfg)
}
