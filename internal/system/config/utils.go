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

package config

import (
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	defaultPort              = 8900
	defaultLogLevel          = "INFO"
	defaultSubject           = "carbon.super"
	defaultCacheTTL          = 5 * time.Minute
	defaultRefreshSchedule   = "@every 5m"
	defaultRequestTimeout    = 10 * time.Second
	defaultDestinationQueue  = 1000
	defaultKafkaKey          = "Kafka"
	defaultRedisKey          = "Redis Streams"
	defaultMongoKey          = "MongoDB"
	defaultRedisStream       = "consented-events"
	defaultMongoCollection   = "events"
	defaultKafkaTopic        = "consented-events"
	defaultMongoDatabaseName = "consent"
)

// LoadConfig reads the deployment file, expands environment references and applies defaults.
func LoadConfig(home, filePath string) (*Config, error) {
	file, err := os.ReadFile(path.Join(home, filePath))
	if err != nil {
		return nil, err
	}

	return ParseConfig(file)
}

// ParseConfig decodes a deployment document.
func ParseConfig(raw []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(raw))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Addr.Port == 0 {
		cfg.Addr.Port = defaultPort
	}
	if cfg.Log.LogLevel == "" {
		cfg.Log.LogLevel = defaultLogLevel
	}
	if cfg.Consent.Subject == "" {
		cfg.Consent.Subject = defaultSubject
	}
	if cfg.Settings.RefreshSchedule == "" {
		cfg.Settings.RefreshSchedule = defaultRefreshSchedule
	}
	if cfg.Destinations.QueueSize <= 0 {
		cfg.Destinations.QueueSize = defaultDestinationQueue
	}
	if cfg.Destinations.Kafka.Key == "" {
		cfg.Destinations.Kafka.Key = defaultKafkaKey
	}
	if cfg.Destinations.Kafka.Topic == "" {
		cfg.Destinations.Kafka.Topic = defaultKafkaTopic
	}
	if cfg.Destinations.Redis.Key == "" {
		cfg.Destinations.Redis.Key = defaultRedisKey
	}
	if cfg.Destinations.Redis.Stream == "" {
		cfg.Destinations.Redis.Stream = defaultRedisStream
	}
	if cfg.Destinations.MongoDB.Key == "" {
		cfg.Destinations.MongoDB.Key = defaultMongoKey
	}
	if cfg.Destinations.MongoDB.Database == "" {
		cfg.Destinations.MongoDB.Database = defaultMongoDatabaseName
	}
	if cfg.Destinations.MongoDB.Collection == "" {
		cfg.Destinations.MongoDB.Collection = defaultMongoCollection
	}
}

// PreferenceCacheTTLOrDefault returns the configured cache TTL or the default when unset or invalid.
func (c ConsentConfig) PreferenceCacheTTLOrDefault() time.Duration {
	return parseDurationOr(c.PreferenceCacheTTL, defaultCacheTTL)
}

// RequestTimeoutOrDefault returns the settings request timeout.
func (c SettingsConfig) RequestTimeoutOrDefault() time.Duration {
	return parseDurationOr(c.RequestTimeout, defaultRequestTimeout)
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// OverrideRuntime replaces the runtime configuration. Intended for tests.
func OverrideRuntime(conf Config) {
	runtimeConfig = &Runtime{
		Config: conf,
	}
}
