// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/gops/agent"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/railwire/datatracks/internal/config"
	"github.com/railwire/datatracks/internal/protocol"
	"github.com/railwire/datatracks/pkg/log"
	"github.com/railwire/datatracks/pkg/workerpool"
)

func main() {
	cliInit()

	if err := config.Init(flagConfigFile); err != nil {
		log.Fatal(err)
	}
	if flagPlanDir != "" {
		config.Keys.PlanDir = flagPlanDir
	}
	if flagLogLevel != "" {
		config.Keys.LogLevel = flagLogLevel
		log.SetLogLevel(flagLogLevel)
	}

	// See https://github.com/google/gops (runtime overhead is near zero).
	if flagGops || config.Keys.EnableGops {
		if err := agent.Listen(agent.Options{}); err != nil {
			log.Fatalf("gops/agent.Listen failed: %s", err.Error())
		}
	}

	var mongoDB *mongo.Database
	if config.Keys.StorageDriver == "mongo" {
		client, err := mongo.Connect(options.Client().ApplyURI(config.Keys.StorageDSN))
		if err != nil {
			log.Fatalf("mongo connect failed: %s", err.Error())
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := client.Ping(ctx, nil); err != nil {
			cancel()
			log.Fatalf("mongo ping failed: %s", err.Error())
		}
		cancel()
		mongoDB = client.Database("datatracks")
	}

	maxAge, err := time.ParseDuration(config.Keys.JWTMaxAge)
	if err != nil {
		maxAge = 0
	}
	var issuer *protocol.TokenIssuer
	if config.Keys.JWTSecret != "" {
		issuer = protocol.NewTokenIssuer([]byte(config.Keys.JWTSecret), maxAge)
	}

	pool := workerpool.New()
	registry := buildRegistry(mongoDB)
	manager := NewManager(config.Keys.PlanDir, registry, pool)
	if err := manager.Load(); err != nil {
		log.Fatalf("loading persisted plans failed: %s", err.Error())
	}

	server := protocol.NewServer(manager, issuer)

	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- server.Serve(config.Keys.ListenAddr, stop)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("shutting down")

	close(stop)
	if err := <-done; err != nil {
		log.Errorf("server shutdown: %s", err.Error())
	}

	for _, name := range mustPlanNames(manager) {
		if err := manager.StopPlan(name); err != nil {
			log.Debugf("stopping plan %q during shutdown: %s", name, err.Error())
		}
	}

	log.Print("graceful shutdown completed")
}

func mustPlanNames(m *Manager) []string {
	names, err := m.GetPlans()
	if err != nil {
		log.Errorf("listing plans during shutdown: %s", err.Error())
		return nil
	}
	return names
}
