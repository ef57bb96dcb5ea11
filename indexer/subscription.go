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

package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/provideplatform/counter/common"
	"github.com/provideplatform/counter/state"
)

const graphQLTransportWSProtocol = "graphql-transport-ws"

const subscriptionID = "1"

const (
	messageConnectionInit = "connection_init"
	messageConnectionAck  = "connection_ack"
	messagePing           = "ping"
	messagePong           = "pong"
	messageSubscribe      = "subscribe"
	messageNext           = "next"
	messageError          = "error"
	messageComplete       = "complete"
)

type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// subscription is a single graphql-transport-ws subscription on its own connection
type subscription struct {
	conn    *websocket.Conn
	updates chan *state.ContractState
	errs    chan error
	done    chan struct{}

	closeOnce  sync.Once
	writeMutex sync.Mutex
}

func (s *subscription) Updates() <-chan *state.ContractState {
	return s.updates
}

func (s *subscription) Err() <-chan error {
	return s.errs
}

// Close unsubscribes and closes the connection
func (s *subscription) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.write(&wsMessage{ID: subscriptionID, Type: messageComplete})
		s.conn.Close()
	})
}

func (s *subscription) write(msg *wsMessage) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	return s.conn.WriteJSON(msg)
}

func (s *subscription) fail(err error) {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.errs <- err:
	default:
	}
}

func (s *subscription) deliver(cs *state.ContractState) bool {
	select {
	case s.updates <- cs:
		return true
	case <-s.done:
		return false
	}
}

func (c *Client) subscribe(ctx context.Context, query string, variables map[string]interface{}) (*subscription, error) {
	conn, resp, err := c.dialer.DialContext(ctx, c.subscriptionURL, nil)
	if err != nil {
		common.Log.Warningf("failed to dial indexer subscription endpoint %s; %s", c.subscriptionURL, err.Error())
		return nil, fmt.Errorf("failed to dial indexer subscription endpoint; %s", err.Error())
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	if err := conn.WriteJSON(&wsMessage{Type: messageConnectionInit}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize indexer subscription; %s", err.Error())
	}

	var ack wsMessage
	if err := conn.ReadJSON(&ack); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize indexer subscription; %s", err.Error())
	}
	if ack.Type != messageConnectionAck {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize indexer subscription; unexpected %s message", ack.Type)
	}

	payload, _ := json.Marshal(&graphQLRequest{Query: query, Variables: variables})
	if err := conn.WriteJSON(&wsMessage{ID: subscriptionID, Type: messageSubscribe, Payload: payload}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to subscribe; %s", err.Error())
	}

	return &subscription{
		conn:    conn,
		updates: make(chan *state.ContractState),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
	}, nil
}

// readLoop delivers contract states until the server completes, errors or the subscription is closed;
// states below the current one's block height are skipped when current is given
func (s *subscription) readLoop(current *state.ContractState) {
	defer close(s.updates)

	var minHeight uint64
	if current != nil {
		minHeight = current.BlockHeight
		if !s.deliver(current) {
			return
		}
	}

	for {
		var msg wsMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			s.fail(fmt.Errorf("indexer subscription interrupted; %s", err.Error()))
			return
		}

		switch msg.Type {
		case messagePing:
			s.write(&wsMessage{Type: messagePong})
		case messageNext:
			var next struct {
				Data struct {
					ContractActions *contractAction `json:"contractActions"`
				} `json:"data"`
				Errors []graphQLError `json:"errors"`
			}
			if err := json.Unmarshal(msg.Payload, &next); err != nil {
				s.fail(fmt.Errorf("failed to decode subscription payload; %s", err.Error()))
				return
			}
			if len(next.Errors) > 0 {
				s.fail(errors.New(joinGraphQLErrors(next.Errors)))
				return
			}
			if next.Data.ContractActions == nil {
				continue
			}

			cs, err := decodeContractAction(next.Data.ContractActions)
			if err != nil {
				s.fail(err)
				return
			}
			if current != nil && cs.BlockHeight <= minHeight {
				continue
			}
			if !s.deliver(cs) {
				return
			}
		case messageError:
			var errs []graphQLError
			json.Unmarshal(msg.Payload, &errs)
			s.fail(fmt.Errorf("indexer subscription failed; %s", joinGraphQLErrors(errs)))
			return
		case messageComplete:
			common.Log.Debugf("indexer completed subscription %s", msg.ID)
			return
		}
	}
}
