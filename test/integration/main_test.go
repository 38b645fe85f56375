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

package integration

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"

	"github.com/wso2/identity-consent-enforcement-service/internal/system/config"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/constants"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/database/client"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/log"
	"github.com/wso2/identity-consent-enforcement-service/test/setup"
)

const projectHome = "../.."

var dbClient client.DBClientInterface

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		fmt.Println("Skipping Postgres integration tests in short mode")
		os.Exit(0)
	}

	ctx := context.Background()
	config.OverrideRuntime(config.Config{Log: config.LogConfig{LogLevel: "DEBUG"}})
	_ = log.Init("DEBUG")

	pg, err := setup.SetupTestPostgres(ctx)
	if err != nil {
		fmt.Println("Failed to start test DB:", err)
		os.Exit(1)
	}

	dbClient = client.NewDBClient(pg.DB)
	if err := dbClient.InitDatabase(projectHome, constants.SchemaFile); err != nil {
		fmt.Println("Failed to create tables from schema:", err)
		_ = pg.Terminate(ctx)
		os.Exit(1)
	}

	code := m.Run()

	_ = pg.Terminate(ctx)
	os.Exit(code)
}
