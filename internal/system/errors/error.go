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

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorMessage is the error body returned to API callers.
type ErrorMessage struct {
	Code        string `json:"error_code"`
	Message     string `json:"error_message"`
	Description string `json:"error_description"`
	TraceID     string `json:"trace_id,omitempty"`
}

// WithDescription returns a copy of msg carrying the given description.
func WithDescription(msg ErrorMessage, description string) ErrorMessage {
	msg.Description = description
	return msg
}

// WithTraceID returns a copy of msg tagged with traceID.
func WithTraceID(msg ErrorMessage, traceID string) ErrorMessage {
	msg.TraceID = traceID
	return msg
}

// ClientError is a rejected request. StatusCode is returned to the caller as is.
type ClientError struct {
	ErrorMessage
	StatusCode int
}

func NewClientError(msg ErrorMessage, statusCode int) *ClientError {
	return &ClientError{ErrorMessage: msg, StatusCode: statusCode}
}

func (e *ClientError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s %s", e.Code, e.Message, e.Description)
}

// Is matches any client error with the same code.
func (e *ClientError) Is(target error) bool {
	var other *ClientError
	return errors.As(target, &other) && other.Code == e.Code
}

// ServerError is an internal failure. Its cause is logged and never sent to callers.
type ServerError struct {
	ErrorMessage
	Err error
}

func NewServerError(msg ErrorMessage, cause error) *ServerError {
	return &ServerError{ErrorMessage: msg, Err: cause}
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
}

func (e *ServerError) Unwrap() error {
	return e.Err
}

// HTTPStatus is the status code err should be reported with.
func HTTPStatus(err error) int {
	var clientErr *ClientError
	if errors.As(err, &clientErr) && clientErr.StatusCode != 0 {
		return clientErr.StatusCode
	}
	return http.StatusInternalServerError
}
