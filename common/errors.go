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

package common

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced to callers of a contract session
type ErrorKind int

const (
	// ErrorKindConfiguration indicates a missing or invalid provider or setting
	ErrorKindConfiguration ErrorKind = iota + 1
	// ErrorKindCompatibility indicates a circuit/verifier key or version mismatch
	ErrorKindCompatibility
	// ErrorKindConnectivity indicates an unreachable indexer, node or proof server
	ErrorKindConnectivity
	// ErrorKindExistence indicates no contract state at the given address
	ErrorKindExistence
	// ErrorKindWitness indicates a witness could not supply its value
	ErrorKindWitness
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindConfiguration:
		return "configuration"
	case ErrorKindCompatibility:
		return "compatibility"
	case ErrorKindConnectivity:
		return "connectivity"
	case ErrorKindExistence:
		return "existence"
	case ErrorKindWitness:
		return "witness"
	}
	return "unknown"
}

// Error is a classified failure; the original cause is always retained
type Error struct {
	Kind    ErrorKind
	Op      string
	Address string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil || e.Err.Error() == e.Message {
		return e.Message
	}
	return fmt.Sprintf("%s\n\nOriginal error: %s", e.Message, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError returns a classified error for the given operation
func NewError(kind ErrorKind, op, address, message string, err error) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Address: address,
		Message: message,
		Err:     err,
	}
}

// IsKind returns true if err, or any error it wraps, is a classified error of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
