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
	"encoding/json"
	"fmt"

	natsutil "github.com/kthomas/go-natsutil"
	"github.com/nats-io/nats.go"
	"github.com/provideplatform/counter/common"
	"github.com/provideplatform/counter/state"
	zkp "github.com/provideplatform/counter/zkp/providers"
)

const defaultNatsStream = "counter"

const natsCounterNotificationDeployed = "deployed"
const natsCounterNotificationIncremented = "incremented"
const natsCounterNotificationStateRetry = "state.retry"
const natsCounterNotificationProofStarted = "proof.started"
const natsCounterNotificationProofDone = "proof.done"

func init() {
	if !common.DispatchNATSNotifications {
		common.Log.Debug("counter package configured to skip NATS notification setup")
		return
	}

	natsutil.EstablishSharedNatsConnection(nil)
	natsutil.NatsCreateStream(defaultNatsStream, []string{
		fmt.Sprintf("%s.>", defaultNatsStream),
	})
}

// notificationsSubject returns the namespaced subject for an event on the contract at address
func notificationsSubject(address state.ContractAddress, event string) string {
	return fmt.Sprintf("%s.notification.%s.%s", defaultNatsStream, address, event)
}

// dispatchNotification broadcasts an event to the contract's subject; it is a no-op unless enabled
func dispatchNotification(address state.ContractAddress, event string, params map[string]interface{}) (*nats.PubAck, error) {
	if !common.DispatchNATSNotifications {
		return nil, nil
	}
	if address == "" || event == "" {
		return nil, fmt.Errorf("failed to dispatch event notification for contract %s", address)
	}

	payload, _ := json.Marshal(params)
	ack, err := natsutil.NatsJetstreamPublish(notificationsSubject(address, event), payload)
	if err != nil {
		common.Log.Warningf("failed to dispatch %s notification for contract %s; %s", event, address, err.Error())
	}
	return ack, err
}

// NotifyProofEvent publishes proof progress for a contract; it satisfies zkp.ProofEventCallback
func NotifyProofEvent(event zkp.ProofEvent, address state.ContractAddress, circuitID string, err error) {
	if address == "" {
		return
	}

	params := map[string]interface{}{
		"circuit": circuitID,
	}
	if err != nil {
		params["error"] = err.Error()
	}

	switch event {
	case zkp.ProveTxStarted:
		dispatchNotification(address, natsCounterNotificationProofStarted, params)
	case zkp.ProveTxDone:
		dispatchNotification(address, natsCounterNotificationProofDone, params)
	}
}
