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

package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/provideplatform/counter/common"
	"github.com/provideplatform/counter/config"
	"github.com/provideplatform/counter/counter"
	"github.com/provideplatform/counter/env"
	"github.com/provideplatform/counter/providers"
	"github.com/provideplatform/counter/simulator"
	"github.com/provideplatform/counter/state"
	"github.com/provideplatform/counter/store"
	storage "github.com/provideplatform/counter/store/providers"
	"github.com/provideplatform/counter/wallet"
	zkp "github.com/provideplatform/counter/zkp/providers"
)

// Options select the deployment target for a counter runtime
type Options struct {
	Env      env.Environment
	Profile  config.Profile
	StartDir string

	// Simulate runs against an in-memory network instead of the profile's services
	Simulate bool

	// Wallet is used as-is when set; otherwise a remote wallet is built from the resolved config
	Wallet wallet.Wallet

	// ProofCallback receives proof progress in addition to the NATS notifications
	ProofCallback zkp.ProofEventCallback
}

// Runtime is a resolved configuration with its counter contract and validated provider bundle
type Runtime struct {
	Config    *config.Config
	Contract  *counter.Contract
	Providers *providers.Providers
	Simulator *simulator.Simulator

	restoreLogger func()
}

// ProfileFromEnvironment returns the COUNTER_PROFILE profile, falling back to standalone
func ProfileFromEnvironment() (config.Profile, error) {
	return config.ParseProfile(common.EnvOrDefault("COUNTER_PROFILE", string(config.ProfileStandalone)))
}

// SimulateFromEnvironment reports whether COUNTER_SIMULATE is set to true
func SimulateFromEnvironment() bool {
	return strings.ToLower(os.Getenv("COUNTER_SIMULATE")) == "true"
}

// ResolveConfig resolves the configuration for opts; a simulated runtime always targets an undeployed network
func ResolveConfig(opts Options) (*config.Config, error) {
	e := opts.Env
	if e == nil {
		e = env.Detect()
	}

	startDir := opts.StartDir
	if startDir == "" && e.IsServer() {
		if wd, err := os.Getwd(); err == nil {
			startDir = wd
		}
	}

	cfg, err := config.Resolve(e, opts.Profile, startDir)
	if err != nil {
		return nil, err
	}
	if opts.Simulate {
		cfg.NetworkID = config.NetworkIDUndeployed
	}
	return cfg, nil
}

// Start assembles the provider bundle for cfg and returns the runtime
func Start(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	e := opts.Env
	if e == nil {
		e = env.Detect()
	}

	restoreLogger, err := configureLogging(e, cfg)
	if err != nil {
		return nil, err
	}

	contract := counter.NewContract(counter.NewWitnesses())
	rt := &Runtime{
		Config:        cfg,
		Contract:      contract,
		restoreLogger: restoreLogger,
	}

	params := providers.Params{
		Operation: providers.OperationDeployment,
		Env:       e,
		Config:    cfg,
		Wallet:    opts.Wallet,
	}

	if opts.Simulate {
		sim := simulator.New(cfg.NetworkID, contract)
		rt.Simulator = sim

		params.PublicData = sim.Network
		params.ZKConfig = sim.ZKConfig
		params.Proof = zkp.WithProofNotifications(sim.Prover, proofCallback(opts.ProofCallback))
		params.Store = &store.Store{
			Name:     common.StringOrNil(cfg.PrivateStateStoreName),
			Provider: common.StringOrNil(storage.StoreProviderMemory),
		}
		if params.Wallet == nil {
			params.Wallet = sim.Wallet
		}
	} else {
		zkConfig, err := zkConfigProvider(e, cfg)
		if err != nil {
			rt.Close()
			return nil, err
		}
		params.ZKConfig = zkConfig
		params.Proof = zkp.WithProofNotifications(zkp.InitHTTPProofProvider(cfg.ProofServer), proofCallback(opts.ProofCallback))
		if params.Wallet == nil {
			params.Wallet = wallet.NewRemoteWallet(cfg.Wallet)
		}
	}

	p, err := providers.Assemble(ctx, params)
	if err != nil {
		common.Log.Warningf("failed to assemble %s providers; %s", cfg.Profile, err.Error())
		rt.Close()
		return nil, err
	}
	rt.Providers = p

	common.Log.Debugf("started counter runtime; profile: %s, network: %s, simulated: %v", cfg.Profile, cfg.NetworkID, opts.Simulate)
	return rt, nil
}

// Close releases the runtime's private state store and log file
func (rt *Runtime) Close() error {
	if rt.restoreLogger != nil {
		defer rt.restoreLogger()
		rt.restoreLogger = nil
	}
	if rt.Providers == nil {
		return nil
	}
	if closer, ok := rt.Providers.PrivateState().(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// configureLogging applies the profile's logging level unless LOG_LEVEL is set; on a server
// the log is written to the configured log file
func configureLogging(e env.Environment, cfg *config.Config) (func(), error) {
	lvl := common.EnvOrDefault("LOG_LEVEL", cfg.LoggingLevel)

	var path *string
	if e.IsServer() && cfg.LogDir != "" {
		path = common.StringOrNil(cfg.LogDir)
	}

	restore, err := common.ConfigureLogger(lvl, path)
	if err != nil {
		return nil, fmt.Errorf("failed to configure logging; %s", err.Error())
	}
	if path != nil {
		common.Log.Debugf("logging at %s to %s", lvl, *path)
	}
	return restore, nil
}

// zkConfigProvider reads artifacts from disk on a server and over http in a browser
func zkConfigProvider(e env.Environment, cfg *config.Config) (providers.ZKConfigProvider, error) {
	if e.IsServer() {
		return zkp.InitFileZKConfigProvider(e, cfg.ZKConfigPath), nil
	}

	p, err := zkp.InitFetchZKConfigProvider(cfg.ZKConfigPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize zk config provider; %s", err.Error())
	}
	return p, nil
}

func proofCallback(cb zkp.ProofEventCallback) zkp.ProofEventCallback {
	return func(event zkp.ProofEvent, address state.ContractAddress, circuitID string, err error) {
		counter.NotifyProofEvent(event, address, circuitID, err)
		if cb != nil {
			cb(event, address, circuitID, err)
		}
	}
}
