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
	"time"

	"github.com/provideplatform/counter/common"
	"github.com/provideplatform/counter/state"
)

// AgeOfMajority is the minimum age in years for a verified user
const AgeOfMajority = 18

// ageYear is the year length used for age checks; leap days are not counted
const ageYear = 365 * 24 * time.Hour

// ErrNoIdentity is returned by the identity witness when the private state holds no credential
var ErrNoIdentity = common.NewError(common.ErrorKindWitness, "get_identity", "", "No identity found in private state", nil)

// Witnesses supply private inputs to circuits during transaction construction
type Witnesses struct {
	// Clock defaults to time.Now
	Clock func() time.Time
}

// NewWitnesses returns witnesses reading the wall clock
func NewWitnesses() Witnesses {
	return Witnesses{Clock: time.Now}
}

func (w Witnesses) now() time.Time {
	if w.Clock == nil {
		return time.Now()
	}
	return w.Clock()
}

// GetCurrentTime returns the current time in epoch milliseconds; the private state is returned unchanged
func (w Witnesses) GetCurrentTime(ps *state.PrivateState) (*state.PrivateState, uint64) {
	return ps, uint64(w.now().UnixMilli())
}

// GetIdentity returns the credential subject held in the private state
func (w Witnesses) GetIdentity(ps *state.PrivateState) (*state.PrivateState, *state.CredentialSubject, error) {
	if ps == nil || ps.CredentialSubject == nil {
		return ps, nil, ErrNoIdentity
	}
	subject := *ps.CredentialSubject
	return ps, &subject, nil
}

// AgeCutoff returns the latest birth time that is of age at now
func AgeCutoff(now time.Time) time.Time {
	return now.Add(-AgeOfMajority * ageYear)
}

// IsOfAge reports whether subject was born at least AgeOfMajority 365-day years before now; the boundary is inclusive
func IsOfAge(subject *state.CredentialSubject, now time.Time) bool {
	if subject == nil {
		return false
	}
	return subject.BirthTimestamp <= AgeCutoff(now).UnixMilli()
}
