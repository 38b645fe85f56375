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

type AddrConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

type LogConfig struct {
	LogLevel string `yaml:"log_level"`
}

type AuthConfig struct {
	CORSAllowedOrigins []string            `yaml:"cors_allowed_origins"`
	SigningKey         string              `yaml:"signing_key"`
	Audience           string              `yaml:"audience"`
	RequiredScopes     map[string][]string `yaml:"required_scopes"`
}

type DataSourceConfig struct {
	Hostname string `yaml:"hostname"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// ConsentConfig controls the enforcement layer.
type ConsentConfig struct {
	Subject              string `yaml:"subject"`
	AllowSignalBypass    *bool  `yaml:"allow_signal_bypass"`
	PreferenceCacheTTL   string `yaml:"preference_cache_ttl"`
	StartOnFirstSettings bool   `yaml:"start_on_first_settings"`
	AllowAllCategories   bool   `yaml:"allow_all_categories"`
}

// SettingsConfig describes where destination settings are loaded from.
type SettingsConfig struct {
	Source          string `yaml:"source"`
	RefreshSchedule string `yaml:"refresh_schedule"`
	RequestTimeout  string `yaml:"request_timeout"`
}

type KafkaDestinationConfig struct {
	Enabled bool     `yaml:"enabled"`
	Key     string   `yaml:"key"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type RedisDestinationConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Key      string `yaml:"key"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Stream   string `yaml:"stream"`
	MaxLen   int64  `yaml:"max_len"`
}

type MongoDestinationConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Key        string `yaml:"key"`
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

type ArchiveDestinationConfig struct {
	Enabled bool `yaml:"enabled"`
}

type DestinationsConfig struct {
	QueueSize int                      `yaml:"queue_size"`
	Kafka     KafkaDestinationConfig   `yaml:"kafka"`
	Redis     RedisDestinationConfig   `yaml:"redis"`
	MongoDB   MongoDestinationConfig   `yaml:"mongodb"`
	Archive   ArchiveDestinationConfig `yaml:"archive"`
}

type Config struct {
	Addr         AddrConfig         `yaml:"addr"`
	Log          LogConfig          `yaml:"log"`
	Auth         AuthConfig         `yaml:"auth"`
	DataSource   DataSourceConfig   `yaml:"datasource"`
	Consent      ConsentConfig      `yaml:"consent"`
	Settings     SettingsConfig     `yaml:"settings"`
	Destinations DestinationsConfig `yaml:"destinations"`
}

// SignalBypassEnabled reports whether the consent change signal may pass blockers.
// Defaults to true when unset.
func (c ConsentConfig) SignalBypassEnabled() bool {
	if c.AllowSignalBypass == nil {
		return true
	}
	return *c.AllowSignalBypass
}
