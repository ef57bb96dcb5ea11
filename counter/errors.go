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

package counter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/provideplatform/counter/common"
	"github.com/provideplatform/counter/contracts"
)

var connectivityMarkers = []string{
	"connection refused",
	"failed to reach",
	"failed to query",
	"failed to dial",
	"failed to fetch",
	"network",
	"timeout",
	"unreachable",
}

func isConnectivityError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range connectivityMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// classifyDeployError keeps the original error text and adds guidance by failure class
func classifyDeployError(err error) error {
	if common.IsKind(err, common.ErrorKindConfiguration) {
		return err
	}

	switch {
	case errors.Is(err, contracts.ErrVerifierKeyMismatch):
		return common.NewError(common.ErrorKindCompatibility, "deploy", "", verifierKeyDeployMessage, err)
	case errors.Is(err, contracts.ErrArtifactsUnavailable):
		return classifyArtifactsError(err, "deploy", "")
	case isConnectivityError(err):
		return common.NewError(common.ErrorKindConnectivity, "deploy", "",
			"Contract deployment failed because a network service could not be reached. Please check that the indexer, node, proof server and wallet are running.", err)
	case strings.Contains(err.Error(), "verifier key"):
		return common.NewError(common.ErrorKindCompatibility, "deploy", "", verifierKeyDeployMessage, err)
	case strings.Contains(err.Error(), "Unsupported version"):
		return common.NewError(common.ErrorKindCompatibility, "deploy", "",
			"Contract deployment failed due to version incompatibility. The contract runtime version does not match the client version.", err)
	}
	return err
}

const verifierKeyDeployMessage = "Contract deployment failed due to verifier key compatibility issue. This may be due to version mismatch between the contract and runtime environment. Please ensure your client and network are using compatible versions."

// local artifacts that cannot be loaded are a connectivity failure when fetched remotely,
// otherwise a configuration failure
func classifyArtifactsError(err error, op, address string) error {
	if isConnectivityError(err) {
		return common.NewError(common.ErrorKindConnectivity, op, address,
			"Unable to load circuit artifacts because the zk config source could not be reached.", err)
	}
	return common.NewError(common.ErrorKindConfiguration, op, address,
		"Unable to load circuit artifacts. Please check the configured zk config path.", err)
}

func classifyConnectError(err error, address string) error {
	if common.IsKind(err, common.ErrorKindConfiguration) {
		return err
	}

	switch {
	case errors.Is(err, contracts.ErrVerifierKeyMismatch):
		return common.NewError(common.ErrorKindCompatibility, "connect", address,
			fmt.Sprintf("Unable to connect to contract at %s. This contract may have been deployed with different circuit parameters or is not a compatible counter contract.", address), err)
	case errors.Is(err, contracts.ErrArtifactsUnavailable):
		return classifyArtifactsError(err, "connect", address)
	case errors.Is(err, contracts.ErrContractNotFound):
		return common.NewError(common.ErrorKindExistence, "connect", address,
			fmt.Sprintf("No contract found at %s.", address), err)
	case isConnectivityError(err):
		return common.NewError(common.ErrorKindConnectivity, "connect", address,
			fmt.Sprintf("Unable to connect to contract at %s because a network service could not be reached.", address), err)
	}
	return err
}

func classifyCallError(err error, op, address string) error {
	switch {
	case errors.Is(err, contracts.ErrArtifactsUnavailable):
		return classifyArtifactsError(err, op, address)
	case errors.Is(err, contracts.ErrContractNotFound):
		return common.NewError(common.ErrorKindExistence, op, address, fmt.Sprintf("No contract found at %s.", address), err)
	case isConnectivityError(err):
		return common.NewError(common.ErrorKindConnectivity, op, address,
			fmt.Sprintf("Unable to %s contract at %s because a network service could not be reached.", op, address), err)
	}
	return err
}
