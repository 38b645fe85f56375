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

package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	customerrors "github.com/wso2/identity-consent-enforcement-service/internal/system/errors"
)

const unknownFieldPrefix = "json: unknown field "

// DecodeError converts a request body decoding failure into a 400 client error.
func DecodeError(err error, resource string) *customerrors.ClientError {
	return customerrors.NewClientError(
		customerrors.WithDescription(customerrors.BAD_REQUEST, describeDecodeError(err, resource)),
		http.StatusBadRequest)
}

func describeDecodeError(err error, resource string) string {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, io.EOF):
		return fmt.Sprintf("The %s request body is empty.", resource)
	case errors.Is(err, io.ErrUnexpectedEOF), errors.As(err, &syntaxErr):
		return fmt.Sprintf("The %s request body is not valid JSON.", resource)
	case strings.HasPrefix(err.Error(), unknownFieldPrefix):
		return fmt.Sprintf("The %s request body has an unknown field %s.", resource,
			strings.TrimPrefix(err.Error(), unknownFieldPrefix))
	case errors.As(err, &typeErr):
		if typeErr.Field == "" {
			return fmt.Sprintf("The %s request body has the wrong shape: got a JSON %s.", resource, typeErr.Value)
		}
		return fmt.Sprintf("Field '%s' in the %s request body must be of type %s.", typeErr.Field, resource, typeErr.Type)
	default:
		return fmt.Sprintf("The %s request body could not be read.", resource)
	}
}
