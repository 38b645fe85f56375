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

package log

import (
	"log/slog"
	"time"
)

// Field is a typed key-value pair attached to a log record.
type Field struct {
	attr slog.Attr
}

func String(key, value string) Field {
	return Field{attr: slog.String(key, value)}
}

func Int(key string, value int) Field {
	return Field{attr: slog.Int(key, value)}
}

func Bool(key string, value bool) Field {
	return Field{attr: slog.Bool(key, value)}
}

func Duration(key string, value time.Duration) Field {
	return Field{attr: slog.Duration(key, value)}
}

func Strings(key string, values []string) Field {
	return Field{attr: slog.Any(key, values)}
}

// Any records value as is. Prefer the typed constructors.
func Any(key string, value interface{}) Field {
	return Field{attr: slog.Any(key, value)}
}

// Error records err under the "error" key.
func Error(err error) Field {
	if err == nil {
		return Field{attr: slog.String("error", "<nil>")}
	}
	return Field{attr: slog.String("error", err.Error())}
}
