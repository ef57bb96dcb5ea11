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

package config

import (
	"fmt"
	"time"

	"github.com/provideplatform/counter/common"
	"github.com/provideplatform/counter/env"
)

// Profile names a deployment target
type Profile string

// ProfileStandalone targets a local undeployed network
const ProfileStandalone Profile = "standalone"

// ProfileTestnetLocal targets a locally hosted testnet indexer and node
const ProfileTestnetLocal Profile = "testnet-local"

// ProfileTestnetRemote targets the public testnet
const ProfileTestnetRemote Profile = "testnet-remote"

// NetworkIDUndeployed is the network id for standalone networks
const NetworkIDUndeployed = "undeployed"

// NetworkIDTestnet is the network id for testnet profiles
const NetworkIDTestnet = "testnet"

// PrivateStateStoreName is the namespace of the counter private-state store
const PrivateStateStoreName = "counter-private-state"

// ContractArtifactsDir is the workspace-relative location of the compiled counter contract artifacts
const ContractArtifactsDir = "contract/managed/counter"

// browserWorkspaceRoot is the logical workspace root used when no filesystem is available
const browserWorkspaceRoot = "/workspace"

const defaultProofServer = "http://127.0.0.1:6300"
const defaultWallet = "http://127.0.0.1:8090"

// Config is the resolved set of endpoints and paths for a profile
type Config struct {
	Profile   Profile `json:"profile"`
	NetworkID string  `json:"network_id"`

	Indexer     string `json:"indexer"`
	IndexerWS   string `json:"indexer_ws"`
	Node        string `json:"node"`
	ProofServer string `json:"proof_server"`
	Wallet      string `json:"wallet"`

	LogDir       string `json:"log_dir"`
	LoggingLevel string `json:"logging_level"`
	ZKConfigPath string `json:"zk_config_path"`

	PrivateStateStoreName string `json:"private_state_store_name"`
}

type endpoints struct {
	networkID    string
	indexer      string
	indexerWS    string
	node         string
	loggingLevel string
}

var profiles = map[Profile]endpoints{
	ProfileStandalone: {
		networkID:    NetworkIDUndeployed,
		indexer:      "http://127.0.0.1:8088/api/v1/graphql",
		indexerWS:    "ws://127.0.0.1:8088/api/v1/graphql/ws",
		node:         "http://127.0.0.1:9944",
		loggingLevel: "info",
	},
	ProfileTestnetLocal: {
		networkID:    NetworkIDTestnet,
		indexer:      "http://127.0.0.1:8088/api/v1/graphql",
		indexerWS:    "ws://127.0.0.1:8088/api/v1/graphql/ws",
		node:         "http://127.0.0.1:9944",
		loggingLevel: "info",
	},
	ProfileTestnetRemote: {
		networkID:    NetworkIDTestnet,
		indexer:      "https://indexer.testnet-02.midnight.network/api/v1/graphql",
		indexerWS:    "wss://indexer.testnet-02.midnight.network/api/v1/graphql/ws",
		node:         "https://rpc.testnet-02.midnight.network",
		loggingLevel: "trace",
	},
}

// Profiles returns the names of all known profiles
func Profiles() []Profile {
	return []Profile{ProfileStandalone, ProfileTestnetLocal, ProfileTestnetRemote}
}

// ParseProfile returns the named profile, or an error if it is unknown
func ParseProfile(name string) (Profile, error) {
	p := Profile(name)
	if _, ok := profiles[p]; !ok {
		return "", fmt.Errorf("unknown profile %q; expected one of %v", name, Profiles())
	}
	return p, nil
}

// Resolve builds the configuration for the given profile; startDir anchors the workspace-root search
func Resolve(e env.Environment, profile Profile, startDir string) (*Config, error) {
	ep, ok := profiles[profile]
	if !ok {
		return nil, fmt.Errorf("failed to resolve configuration; unknown profile %q", profile)
	}

	cfg := &Config{
		Profile:               profile,
		NetworkID:             ep.networkID,
		Indexer:               ep.indexer,
		IndexerWS:             ep.indexerWS,
		Node:                  ep.node,
		ProofServer:           defaultProofServer,
		Wallet:                defaultWallet,
		LoggingLevel:          ep.loggingLevel,
		PrivateStateStoreName: PrivateStateStoreName,
	}

	if e.IsServer() {
		root := FindWorkspaceRoot(e, startDir)
		p := e.Path()
		cfg.ZKConfigPath = p.Join(root, ContractArtifactsDir)
		cfg.LogDir = p.Join(root, "logs", string(profile), fmt.Sprintf("%s.log", time.Now().UTC().Format("2006-01-02T15-04-05.000Z")))
	} else {
		cfg.ZKConfigPath = "/" + ContractArtifactsDir
		cfg.LogDir = e.Path().Join(browserWorkspaceRoot, "logs", string(profile))
	}

	applyOverrides(cfg)

	common.Log.Debugf("resolved %s configuration; indexer: %s, node: %s, proof server: %s", profile, cfg.Indexer, cfg.Node, cfg.ProofServer)
	return cfg, nil
}

func applyOverrides(cfg *Config) {
	cfg.Indexer = common.EnvOrDefault("INDEXER_URL", cfg.Indexer)
	cfg.IndexerWS = common.EnvOrDefault("INDEXER_WS_URL", cfg.IndexerWS)
	cfg.Node = common.EnvOrDefault("NODE_URL", cfg.Node)
	cfg.ProofServer = common.EnvOrDefault("PROOF_SERVER_URL", cfg.ProofServer)
	cfg.Wallet = common.EnvOrDefault("WALLET_URL", cfg.Wallet)
	cfg.ZKConfigPath = common.EnvOrDefault("ZK_CONFIG_PATH", cfg.ZKConfigPath)
	cfg.PrivateStateStoreName = common.EnvOrDefault("PRIVATE_STATE_STORE_NAME", cfg.PrivateStateStoreName)
}
