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
	"encoding/json"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/provideplatform/counter/common"
	"github.com/provideplatform/counter/counter"
	"github.com/provideplatform/counter/state"
	provide "github.com/provideplatform/provide-go/common"
)

const birthDateLayout = "2006-01-02"

type sessionRequest struct {
	Address *string `json:"address"`
	Value   int64   `json:"value"`
}

type sessionResponse struct {
	ID      string                `json:"id"`
	Address state.ContractAddress `json:"address"`
	TxID    state.TransactionID   `json:"tx_id,omitempty"`
	TxHash  string                `json:"tx_hash,omitempty"`
	Height  uint64                `json:"block_height,omitempty"`
}

type credentialRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	BirthDate string `json:"birth_date"`
}

// InstallAPI registers the counter session API handlers with gin
func InstallAPI(r *gin.Engine, s *Service) {
	r.GET("/status", statusHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/api/v1/config", s.configHandler)
	r.GET("/api/v1/contracts/:address", s.contractDetailsHandler)

	r.POST("/api/v1/sessions", s.createSessionHandler)
	r.GET("/api/v1/sessions/:id", s.sessionDetailsHandler)
	r.DELETE("/api/v1/sessions/:id", s.deleteSessionHandler)

	r.POST("/api/v1/sessions/:id/increment", s.incrementHandler)
	r.GET("/api/v1/sessions/:id/state", s.stateStreamHandler)

	r.PUT("/api/v1/sessions/:id/credential", s.setCredentialHandler)
	r.GET("/api/v1/sessions/:id/verification", s.verificationHandler)
	r.POST("/api/v1/sessions/:id/verification/proof", s.verificationProofHandler)
}

func statusHandler(c *gin.Context) {
	provide.Render(nil, 204, c)
}

func (s *Service) configHandler(c *gin.Context) {
	provide.Render(s.config, 200, c)
}

// read a counter without opening a session
func (s *Service) contractDetailsHandler(c *gin.Context) {
	address := c.Param("address")
	if !counter.ContractExists(c.Request.Context(), s.contract, s.providers, address) {
		provide.RenderError("contract not found", 404, c)
		return
	}

	value, err := counter.GetCounterValueDirect(c.Request.Context(), s.contract, s.providers, address)
	if err != nil {
		provide.RenderError(err.Error(), statusForError(err), c)
		return
	}

	provide.Render(&counter.CounterInfo{
		Address: state.ContractAddress(address),
		Value:   value,
		Found:   true,
	}, 200, c)
}

// deploy a new counter, or connect when an address is given
func (s *Service) createSessionHandler(c *gin.Context) {
	buf, err := c.GetRawData()
	if err != nil {
		provide.RenderError(err.Error(), 400, c)
		return
	}

	params := &sessionRequest{}
	if len(buf) > 0 {
		if err := json.Unmarshal(buf, params); err != nil {
			provide.RenderError(err.Error(), 422, c)
			return
		}
	}

	var api *counter.API
	if params.Address != nil {
		api, err = counter.Connect(c.Request.Context(), s.contract, s.providers, *params.Address)
	} else {
		api, err = counter.Deploy(c.Request.Context(), s.contract, s.providers, &state.PrivateState{Value: params.Value})
	}
	if err != nil {
		provide.RenderError(err.Error(), statusForError(err), c)
		return
	}

	sessionID, err := s.register(api)
	if err != nil {
		api.Close()
		provide.RenderError(err.Error(), 500, c)
		return
	}

	resp := &sessionResponse{ID: sessionID.String(), Address: api.Address()}
	status := 200
	if tx := api.DeployTxData(); tx != nil {
		resp.TxID = tx.TxID
		resp.TxHash = tx.TxHash
		resp.Height = tx.BlockHeight
		status = 201
	}
	common.Log.Debugf("opened session %s on counter contract %s", sessionID, api.Address())
	provide.Render(resp, status, c)
}

func (s *Service) sessionDetailsHandler(c *gin.Context) {
	_, api := s.session(c)
	if api == nil {
		return
	}

	info, err := api.GetCounterInfo(c.Request.Context())
	if err != nil {
		provide.RenderError(err.Error(), statusForError(err), c)
		return
	}
	provide.Render(info, 200, c)
}

func (s *Service) deleteSessionHandler(c *gin.Context) {
	sessionID, api := s.session(c)
	if api == nil {
		return
	}

	s.mutex.Lock()
	delete(s.sessions, sessionID)
	s.mutex.Unlock()

	api.Close()
	provide.Render(nil, 204, c)
}

func (s *Service) incrementHandler(c *gin.Context) {
	_, api := s.session(c)
	if api == nil {
		return
	}

	tx, err := api.Increment(c.Request.Context(), counter.IncrementWithTxInfo)
	if err != nil {
		provide.RenderError(err.Error(), statusForError(err), c)
		return
	}
	provide.Render(tx, 200, c)
}

// stream counter values as server-sent events until the client goes away
func (s *Service) stateStreamHandler(c *gin.Context) {
	_, api := s.session(c)
	if api == nil {
		return
	}

	stream := api.State(c.Request.Context())
	defer stream.Close()

	c.Stream(func(w io.Writer) bool {
		select {
		case update, ok := <-stream.Updates():
			if !ok {
				return false
			}
			c.SSEvent("state", update)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (s *Service) setCredentialHandler(c *gin.Context) {
	_, api := s.session(c)
	if api == nil {
		return
	}

	params := &credentialRequest{}
	if err := c.ShouldBindJSON(params); err != nil {
		provide.RenderError(err.Error(), 422, c)
		return
	}

	birth, err := time.Parse(birthDateLayout, params.BirthDate)
	if err != nil {
		provide.RenderError("birth_date must be formatted as YYYY-MM-DD", 422, c)
		return
	}

	subject, err := state.NewCredentialSubject(params.FirstName, params.LastName, birth)
	if err != nil {
		provide.RenderError(err.Error(), 422, c)
		return
	}

	if err := api.SetCredentialSubject(c.Request.Context(), subject); err != nil {
		provide.RenderError(err.Error(), statusForError(err), c)
		return
	}
	provide.Render(nil, 204, c)
}

func (s *Service) verificationHandler(c *gin.Context) {
	_, api := s.session(c)
	if api == nil {
		return
	}

	verified, err := api.IsUserVerified(c.Request.Context(), time.Now())
	if err != nil {
		provide.RenderError(err.Error(), statusForError(err), c)
		return
	}
	provide.Render(gin.H{"verified": verified}, 200, c)
}

func (s *Service) verificationProofHandler(c *gin.Context) {
	_, api := s.session(c)
	if api == nil {
		return
	}
	if s.prover == nil {
		provide.RenderError("age proofs are not enabled", 501, c)
		return
	}

	proof, err := api.ProveUserVerified(c.Request.Context(), s.prover, time.Now())
	if err != nil {
		provide.RenderError(err.Error(), statusForError(err), c)
		return
	}
	provide.Render(proof, 200, c)
}
