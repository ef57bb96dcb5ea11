/*
 * Copyright 2017-2022 Provide Technologies Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/provideplatform/counter/api"
	"github.com/provideplatform/counter/bootstrap"
	"github.com/provideplatform/counter/common"
	"github.com/provideplatform/counter/store"
	zkp "github.com/provideplatform/counter/zkp/providers"
)

const defaultListenAddr = "0.0.0.0:8080"
const runloopSleepInterval = 250 * time.Millisecond
const runloopTickInterval = 5000 * time.Millisecond

var (
	cancelF     context.CancelFunc
	closing     uint32
	shutdownCtx context.Context
	sigs        chan os.Signal

	mutex   sync.Mutex
	srv     *http.Server
	service *api.Service
)

func main() {
	simulate := flag.Bool("simulate", bootstrap.SimulateFromEnvironment(), "serve an in-memory standalone network")
	ageProofs := flag.Bool("age-proofs", false, "enable groth16 age proofs")
	flag.Parse()

	common.Log.Debugf("starting counter API service...")
	installSignalHandlers()

	if err := runAPI(*simulate, *ageProofs); err != nil {
		common.Log.Warningf("failed to start counter API service; %s", err.Error())
		os.Exit(1)
	}

	timer := time.NewTicker(runloopTickInterval)
	defer timer.Stop()

	for !shuttingDown() {
		select {
		case <-timer.C:
			// tick... no-op
		case sig := <-sigs:
			common.Log.Debugf("received signal: %s", sig)
			shutdown()
		default:
			time.Sleep(runloopSleepInterval)
		}
	}

	common.Log.Debug("exiting counter API service")
	cancelF()
}

func installSignalHandlers() {
	common.Log.Debug("installing signal handlers for counter API service")
	sigs = make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	shutdownCtx, cancelF = context.WithCancel(context.Background())
}

func shutdown() {
	if atomic.AddUint32(&closing, 1) == 1 {
		common.Log.Debug("shutting down counter API service")

		mutex.Lock()
		defer mutex.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if srv != nil {
			srv.Shutdown(ctx)
		}
		if service != nil {
			service.Close()
		}
		cancelF()
	}
}

func shuttingDown() bool {
	return (atomic.LoadUint32(&closing) > 0)
}

func runAPI(simulate, ageProofs bool) error {
	profile, err := bootstrap.ProfileFromEnvironment()
	if err != nil {
		return err
	}

	opts := bootstrap.Options{
		Profile:  profile,
		Simulate: simulate,
	}
	cfg, err := bootstrap.ResolveConfig(opts)
	if err != nil {
		return err
	}

	rt, err := bootstrap.Start(shutdownCtx, cfg, opts)
	if err != nil {
		return err
	}

	var prover *zkp.AgeProver
	if ageProofs {
		prover = zkp.InitAgeProver(nil)
	}

	r := gin.Default()

	mutex.Lock()
	service = api.NewService(cfg, rt.Contract, rt.Providers, prover)
	api.InstallAPI(r, service)
	if ps, ok := rt.Providers.PrivateState().(*store.PrivateStateStore); ok {
		store.InstallAPI(r, ps)
	}

	srv = &http.Server{
		Addr:    common.EnvOrDefault("API_LISTEN_ADDR", defaultListenAddr),
		Handler: r,
	}
	mutex.Unlock()

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.Log.Warningf("counter API service failed; %s", err.Error())
			shutdown()
		}
	}()

	common.Log.Debugf("listening on %s; profile: %s, simulated: %v", srv.Addr, cfg.Profile, simulate)
	return nil
}
