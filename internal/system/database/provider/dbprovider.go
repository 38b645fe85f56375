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

package provider

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/wso2/identity-consent-enforcement-service/internal/system/config"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/database/client"
)

// DBConfig represents the local database configuration.
type DBConfig struct {
	dsn        string
	driverName string
}

// DBProviderInterface defines the interface for getting database clients.
type DBProviderInterface interface {
	GetDBClient() (client.DBClientInterface, error)
}

// DBProvider opens a single pooled connection from the runtime data source configuration.
type DBProvider struct {
	once     sync.Once
	dbClient client.DBClientInterface
	err      error
}

var (
	instance     *DBProvider
	instanceOnce sync.Once
)

// NewDBProvider returns the process-wide database provider.
func NewDBProvider() DBProviderInterface {

	instanceOnce.Do(func() {
		instance = &DBProvider{}
	})
	return instance
}

// GetDBClient returns the shared database client, connecting on first use.
func (d *DBProvider) GetDBClient() (client.DBClientInterface, error) {

	d.once.Do(func() {
		dbConfig := getDBConfig(config.GetRuntime().Config.DataSource)

		db, err := sql.Open(dbConfig.driverName, dbConfig.dsn)
		if err != nil {
			d.err = fmt.Errorf("failed to connect to database: %w", err)
			return
		}
		if err := db.Ping(); err != nil {
			_ = db.Close()
			d.err = fmt.Errorf("failed to ping database: %w", err)
			return
		}
		d.dbClient = client.NewDBClient(db)
	})
	return d.dbClient, d.err
}

func getDBConfig(dataSource config.DataSourceConfig) DBConfig {

	sslMode := dataSource.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return DBConfig{
		driverName: "postgres",
		dsn: fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			dataSource.Hostname, dataSource.Port, dataSource.Username, dataSource.Password,
			dataSource.Name, sslMode),
	}
}
