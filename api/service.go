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

package api

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	uuid "github.com/kthomas/go.uuid"
	"github.com/provideplatform/counter/common"
	"github.com/provideplatform/counter/config"
	"github.com/provideplatform/counter/counter"
	"github.com/provideplatform/counter/providers"
	zkp "github.com/provideplatform/counter/zkp/providers"
	provide "github.com/provideplatform/provide-go/common"
)

// Service holds the provider bundle and the open counter sessions served over http
type Service struct {
	config    *config.Config
	contract  *counter.Contract
	providers *providers.Providers
	prover    *zkp.AgeProver

	mutex    sync.RWMutex
	sessions map[uuid.UUID]*counter.API
}

// NewService returns a service deploying and connecting through p; prover may be nil
func NewService(cfg *config.Config, contract *counter.Contract, p *providers.Providers, prover *zkp.AgeProver) *Service {
	return &Service{
		config:    cfg,
		contract:  contract,
		providers: p,
		prover:    prover,
		sessions:  map[uuid.UUID]*counter.API{},
	}
}

func (s *Service) session(c *gin.Context) (uuid.UUID, *counter.API) {
	sessionID, err := uuid.FromString(c.Param("id"))
	if err != nil {
		provide.RenderError("bad request", 400, c)
		return uuid.Nil, nil
	}

	s.mutex.RLock()
	api, ok := s.sessions[sessionID]
	s.mutex.RUnlock()
	if !ok {
		provide.RenderError("session not found", 404, c)
		return uuid.Nil, nil
	}
	return sessionID, api
}

func (s *Service) register(api *counter.API) (uuid.UUID, error) {
	sessionID, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, err
	}

	s.mutex.Lock()
	s.sessions[sessionID] = api
	s.mutex.Unlock()
	return sessionID, nil
}

// Close ends every open session
func (s *Service) Close() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for sessionID, api := range s.sessions {
		api.Close()
		delete(s.sessions, sessionID)
	}
}

// statusForError maps a classified error onto an http status
func statusForError(err error) int {
	switch {
	case common.IsKind(err, common.ErrorKindConfiguration):
		return http.StatusUnprocessableEntity
	case common.IsKind(err, common.ErrorKindCompatibility):
		return http.StatusConflict
	case common.IsKind(err, common.ErrorKindConnectivity):
		return http.StatusBadGateway
	case common.IsKind(err, common.ErrorKindExistence):
		return http.StatusNotFound
	case common.IsKind(err, common.ErrorKindWitness):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
