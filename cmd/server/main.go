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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/wso2/identity-consent-enforcement-service/internal/consent/cmp"
	consenthandler "github.com/wso2/identity-consent-enforcement-service/internal/consent/handler"
	"github.com/wso2/identity-consent-enforcement-service/internal/consent/manager"
	consentservice "github.com/wso2/identity-consent-enforcement-service/internal/consent/service"
	"github.com/wso2/identity-consent-enforcement-service/internal/consent/settings"
	"github.com/wso2/identity-consent-enforcement-service/internal/consent/state"
	"github.com/wso2/identity-consent-enforcement-service/internal/consent/store"
	"github.com/wso2/identity-consent-enforcement-service/internal/destinations/archive"
	"github.com/wso2/identity-consent-enforcement-service/internal/destinations/kafka"
	"github.com/wso2/identity-consent-enforcement-service/internal/destinations/mongodb"
	"github.com/wso2/identity-consent-enforcement-service/internal/destinations/redisstream"
	eventhandler "github.com/wso2/identity-consent-enforcement-service/internal/events/handler"
	eventservice "github.com/wso2/identity-consent-enforcement-service/internal/events/service"
	healthhandler "github.com/wso2/identity-consent-enforcement-service/internal/health_check/handler"
	healthservice "github.com/wso2/identity-consent-enforcement-service/internal/health_check/service"
	"github.com/wso2/identity-consent-enforcement-service/internal/metrics"
	"github.com/wso2/identity-consent-enforcement-service/internal/pipeline"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/config"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/constants"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/database/client"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/database/provider"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/log"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/managers"
	"github.com/wso2/identity-consent-enforcement-service/internal/system/schedulers"
)

const shutdownTimeout = 15 * time.Second

func main() {
	home := getHome()

	envFiles, err := filepath.Glob(filepath.Join(home, constants.EnvFileGlob))
	if err == nil && len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			log.GetLogger().Warn("Failed to load env files", log.Error(err))
		}
	}

	cesConfig, err := config.LoadConfig(home, constants.ConfigFile)
	if err != nil {
		log.GetLogger().Fatal("Failed to load configuration", log.Error(err))
	}
	if err := config.InitializeRuntime(home, cesConfig); err != nil {
		log.GetLogger().Fatal("Failed to initialize runtime", log.Error(err))
	}
	if err := log.Init(cesConfig.Log.LogLevel); err != nil {
		log.GetLogger().Fatal("Failed to initialize logger", log.Error(err))
	}
	logger := log.GetLogger()

	dbClient, err := provider.NewDBProvider().GetDBClient()
	if err != nil {
		logger.Fatal("Failed to connect to the database", log.Error(err))
	}
	if err := dbClient.InitDatabase(home, constants.SchemaFile); err != nil {
		logger.Fatal("Failed to initialize the database schema", log.Error(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	consentMetrics := metrics.NewConsentMetrics(registry)

	preferenceStore := store.NewPreferenceStore(dbClient)
	categoryProvider := newCategoryProvider(cesConfig.Consent, preferenceStore)

	host := pipeline.New()
	if err := attachDestinations(host, cesConfig.Destinations, dbClient, consentMetrics); err != nil {
		logger.Fatal("Failed to attach destinations", log.Error(err))
	}

	consentState := state.NewStore()
	consentManager := manager.New(consentState, categoryProvider,
		manager.WithSignalBypass(cesConfig.Consent.SignalBypassEnabled()),
		manager.WithMetrics(consentMetrics))
	host.Add(consentManager)

	consentService := consentservice.NewConsentService(cesConfig.Consent.Subject, preferenceStore, host, consentManager,
		consentservice.WithStartOnFirstSettings(cesConfig.Consent.StartOnFirstSettings),
		consentservice.WithMetrics(consentMetrics))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var scheduler *schedulers.SettingsRefreshScheduler
	if cesConfig.Settings.Source != "" {
		loader := settings.NewSourceLoader(cesConfig.Settings.Source, cesConfig.Settings.RequestTimeoutOrDefault(), nil)
		scheduler, err = schedulers.NewSettingsRefreshScheduler(cesConfig.Settings.RefreshSchedule, loader, consentService, consentMetrics)
		if err != nil {
			logger.Fatal("Failed to create settings scheduler", log.Error(err))
		}
		scheduler.Start(ctx)
	}
	if !cesConfig.Consent.StartOnFirstSettings {
		consentManager.Start()
	}

	mux := http.NewServeMux()
	serviceManager := managers.NewServiceManager(mux, managers.Handlers{
		Consent:  consenthandler.NewConsentHandler(consentService, nil),
		Events:   eventhandler.NewEventHandler(eventservice.NewEventsService(host)),
		Health:   healthhandler.NewHealthHandler(healthservice.NewHealthCheckService(dbClient, consentState)),
		Gatherer: registry,
	}, cesConfig.Auth.CORSAllowedOrigins)
	if err := serviceManager.RegisterServices(constants.ApiBasePath); err != nil {
		logger.Fatal("Failed to register the services", log.Error(err))
	}

	serverAddr := fmt.Sprintf("%s:%d", cesConfig.Addr.Host, cesConfig.Addr.Port)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           serviceManager.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Consent enforcement service starting", log.String("address", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to serve requests", log.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down consent enforcement service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if scheduler != nil {
		scheduler.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", log.Error(err))
	}
	if err := host.Close(shutdownCtx); err != nil {
		logger.Error("Pipeline shutdown failed", log.Error(err))
	}
	if err := dbClient.Close(); err != nil {
		logger.Error("Failed to close the database", log.Error(err))
	}
}

func newCategoryProvider(consentConfig config.ConsentConfig, preferenceStore store.PreferenceStoreInterface) cmp.CategoryProvider {
	if consentConfig.AllowAllCategories {
		log.GetLogger().Warn("All consent categories are treated as granted")
		return cmp.NewAllowAllCategoryProvider()
	}
	return cmp.NewStoreBackedCategoryProvider(consentConfig.Subject, preferenceStore, consentConfig.PreferenceCacheTTLOrDefault())
}

// attachDestinations creates a destination for every enabled sink.
func attachDestinations(host *pipeline.Pipeline, destinations config.DestinationsConfig,
	dbClient client.DBClientInterface, consentMetrics *metrics.ConsentMetrics) error {

	opts := []pipeline.DestinationOption{
		pipeline.WithQueueSize(destinations.QueueSize),
		pipeline.WithDeliveryMetrics(consentMetrics),
	}
	attach := func(key string, sink pipeline.Sink) {
		host.AddDestination(pipeline.NewDestination(key, sink, opts...))
		log.GetLogger().Info("Destination attached", log.String("destination", key), log.String("sink", sink.Name()))
	}

	if destinations.Archive.Enabled {
		attach(constants.CatchAllDestinationKey, archive.NewSink(dbClient))
	}
	if cfg := destinations.Kafka; cfg.Enabled {
		attach(cfg.Key, kafka.NewSink(cfg.Key, cfg.Brokers, cfg.Topic))
	}
	if cfg := destinations.Redis; cfg.Enabled {
		redisClient := goredis.NewClient(&goredis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
		attach(cfg.Key, redisstream.NewSink(cfg.Key, redisClient, cfg.Stream, cfg.MaxLen))
	}
	if cfg := destinations.MongoDB; cfg.Enabled {
		sink, err := mongodb.Connect(context.Background(), cfg.Key, cfg.URI, cfg.Database, cfg.Collection)
		if err != nil {
			return err
		}
		attach(cfg.Key, sink)
	}
	return nil
}

func getHome() string {

	homeFlag := flag.String("home", "", "Path to the consent enforcement service home directory")
	flag.Parse()

	if *homeFlag != "" {
		return *homeFlag
	}
	dir, err := os.Getwd()
	if err != nil {
		log.GetLogger().Fatal("Failed to get current working directory", log.Error(err))
	}
	return dir
}
