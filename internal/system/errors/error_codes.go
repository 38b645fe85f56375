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

package errors

const errorPrefix = "CES-"

var (
	// Server error codes

	DB_CLIENT_INIT = ErrorMessage{
		Code:    errorPrefix + "15001",
		Message: "Unable to initialize database client.",
	}

	FETCH_PREFERENCES = ErrorMessage{
		Code:    errorPrefix + "15002",
		Message: "Error while fetching consent preferences.",
	}

	UPDATE_PREFERENCES = ErrorMessage{
		Code:    errorPrefix + "15003",
		Message: "Error while updating consent preferences.",
	}

	ARCHIVE_EVENT = ErrorMessage{
		Code:    errorPrefix + "15004",
		Message: "Error while archiving event.",
	}

	FETCH_SETTINGS = ErrorMessage{
		Code:    errorPrefix + "15005",
		Message: "Error while fetching destination settings.",
	}

	MARSHAL_JSON = ErrorMessage{
		Code:    errorPrefix + "15006",
		Message: "Error while marshalling JSON.",
	}

	UNMARSHAL_JSON = ErrorMessage{
		Code:    errorPrefix + "15007",
		Message: "Error while un-marshalling JSON.",
	}

	PARSING_ERROR = ErrorMessage{
		Code:    errorPrefix + "15008",
		Message: "Parsing token failed.",
	}

	// Client error codes
	BAD_REQUEST = ErrorMessage{
		Code:    errorPrefix + "11001",
		Message: "Invalid body format.",
	}

	UN_AUTHORIZED = ErrorMessage{
		Code:        errorPrefix + "11002",
		Message:     "Unauthorized",
		Description: "Authorization failure. Authorization information was invalid or missing from your request.",
	}

	FORBIDDEN = ErrorMessage{
		Code:        errorPrefix + "11003",
		Message:     "Forbidden",
		Description: "You do not have permission to perform this operation.",
	}

	INVALID_EVENT = ErrorMessage{
		Code:    errorPrefix + "11004",
		Message: "Invalid event.",
	}

	INVALID_PREFERENCES = ErrorMessage{
		Code:    errorPrefix + "11005",
		Message: "Invalid consent preferences.",
	}

	INVALID_SETTINGS = ErrorMessage{
		Code:    errorPrefix + "11006",
		Message: "Invalid destination settings document.",
	}

	PREFERENCES_NOT_FOUND = ErrorMessage{
		Code:        errorPrefix + "11007",
		Message:     "Consent preferences not found.",
		Description: "No consent preferences are recorded for the subject.",
	}
)
