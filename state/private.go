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

package state

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// CredentialFieldLength is the fixed byte width of each credential text field
const CredentialFieldLength = 32

// CredentialSubject is the identity credential held in private state and read by the identity witness
type CredentialSubject struct {
	ID             [CredentialFieldLength]byte `cbor:"id"`
	FirstName      [CredentialFieldLength]byte `cbor:"first_name"`
	LastName       [CredentialFieldLength]byte `cbor:"last_name"`
	BirthTimestamp int64                       `cbor:"birth_timestamp"`
}

// PrivateState is the locally held secret state of a counter contract
type PrivateState struct {
	Value             int64              `cbor:"value"`
	CredentialSubject *CredentialSubject `cbor:"credential_subject,omitempty"`
}

// SigningKey is a contract maintenance authority key
type SigningKey []byte

// PadString encodes s as UTF-8 right-padded with zero bytes to CredentialFieldLength
func PadString(s string) ([CredentialFieldLength]byte, error) {
	var out [CredentialFieldLength]byte
	if len(s) > CredentialFieldLength {
		return out, fmt.Errorf("failed to pad %q; %d bytes exceeds the %d byte field width", s, len(s), CredentialFieldLength)
	}
	copy(out[:], s)
	return out, nil
}

// UnpadString strips the zero padding written by PadString
func UnpadString(b [CredentialFieldLength]byte) string {
	return string(bytes.TrimRight(b[:], "\x00"))
}

// NewCredentialSubject builds a credential whose id is derived from the lowercased "first_last" name
func NewCredentialSubject(firstName, lastName string, birth time.Time) (*CredentialSubject, error) {
	id, err := PadString(strings.ToLower(fmt.Sprintf("%s_%s", firstName, lastName)))
	if err != nil {
		return nil, fmt.Errorf("failed to derive credential id; %s", err.Error())
	}
	first, err := PadString(firstName)
	if err != nil {
		return nil, err
	}
	last, err := PadString(lastName)
	if err != nil {
		return nil, err
	}

	return &CredentialSubject{
		ID:             id,
		FirstName:      first,
		LastName:       last,
		BirthTimestamp: birth.UnixMilli(),
	}, nil
}

// Birth returns the birth timestamp as a time
func (c *CredentialSubject) Birth() time.Time {
	return time.UnixMilli(c.BirthTimestamp).UTC()
}

// NewPrivateState returns the default private state
func NewPrivateState() *PrivateState {
	return &PrivateState{}
}

// Clone returns a deep copy of the private state
func (p *PrivateState) Clone() *PrivateState {
	if p == nil {
		return nil
	}
	c := &PrivateState{Value: p.Value}
	if p.CredentialSubject != nil {
		subject := *p.CredentialSubject
		c.CredentialSubject = &subject
	}
	return c
}

// MarshalPrivateState encodes the private state for storage
func MarshalPrivateState(p *PrivateState) ([]byte, error) {
	return cbor.Marshal(p)
}

// UnmarshalPrivateState decodes a stored private state
func UnmarshalPrivateState(raw []byte) (*PrivateState, error) {
	var p PrivateState
	if err := cbor.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to decode private state; %s", err.Error())
	}
	return &p, nil
}

// NewSigningKey samples a fresh ed25519 signing key
func NewSigningKey() (SigningKey, error) {
	_, sk, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to sample signing key; %s", err.Error())
	}
	return SigningKey(sk), nil
}
