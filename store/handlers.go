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

package store

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/provideplatform/counter/state"
	provide "github.com/provideplatform/provide-go/common"
)

// InstallAPI registers the private state store handlers with gin
func InstallAPI(r *gin.Engine, s *PrivateStateStore) {
	r.GET("/api/v1/private-state/:key", privateStateDetailsHandler(s))
	r.DELETE("/api/v1/private-state/:key", removePrivateStateHandler(s))
	r.DELETE("/api/v1/private-state", clearPrivateStateHandler(s))

	r.GET("/api/v1/signing-keys/:address", signingKeyDetailsHandler(s))
	r.DELETE("/api/v1/signing-keys/:address", removeSigningKeyHandler(s))
	r.DELETE("/api/v1/signing-keys", clearSigningKeysHandler(s))
}

func privateStateDetailsHandler(s *PrivateStateStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ps, err := s.Get(c.Request.Context(), c.Param("key"))
		if errors.Is(err, ErrReservedKey) {
			provide.RenderError(err.Error(), 400, c)
			return
		} else if err != nil {
			provide.RenderError(err.Error(), 500, c)
			return
		}
		if ps == nil {
			provide.RenderError("private state not found", 404, c)
			return
		}
		provide.Render(privateStateView(ps), 200, c)
	}
}

func privateStateView(ps *state.PrivateState) gin.H {
	view := gin.H{"value": ps.Value}
	if subject := ps.CredentialSubject; subject != nil {
		view["credential_subject"] = gin.H{
			"first_name": state.UnpadString(subject.FirstName),
			"last_name":  state.UnpadString(subject.LastName),
			"birth_date": subject.Birth().UTC().Format("2006-01-02"),
		}
	}
	return view
}

func removePrivateStateHandler(s *PrivateStateStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := s.Remove(c.Request.Context(), c.Param("key"))
		if errors.Is(err, ErrReservedKey) {
			provide.RenderError(err.Error(), 400, c)
			return
		} else if err != nil {
			provide.RenderError(err.Error(), 500, c)
			return
		}
		provide.Render(nil, 204, c)
	}
}

func clearPrivateStateHandler(s *PrivateStateStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.Clear(c.Request.Context()); err != nil {
			provide.RenderError(err.Error(), 500, c)
			return
		}
		provide.Render(nil, 204, c)
	}
}

// signing keys are never rendered; only their presence is reported
func signingKeyDetailsHandler(s *PrivateStateStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		address, err := state.ParseContractAddress(c.Param("address"))
		if err != nil {
			provide.RenderError(err.Error(), 400, c)
			return
		}

		key, err := s.GetSigningKey(c.Request.Context(), address)
		if err != nil {
			provide.RenderError(err.Error(), 500, c)
			return
		}
		if key == nil {
			provide.RenderError("signing key not found", 404, c)
			return
		}
		provide.Render(gin.H{"address": address}, 200, c)
	}
}

func removeSigningKeyHandler(s *PrivateStateStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		address, err := state.ParseContractAddress(c.Param("address"))
		if err != nil {
			provide.RenderError(err.Error(), 400, c)
			return
		}
		if err := s.RemoveSigningKey(c.Request.Context(), address); err != nil {
			provide.RenderError(err.Error(), 500, c)
			return
		}
		provide.Render(nil, 204, c)
	}
}

func clearSigningKeysHandler(s *PrivateStateStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.ClearSigningKeys(c.Request.Context()); err != nil {
			provide.RenderError(err.Error(), 500, c)
			return
		}
		provide.Render(nil, 204, c)
	}
}
