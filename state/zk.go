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

// ZKConfig holds the artifacts needed to prove and verify one circuit
type ZKConfig struct {
	CircuitID   string      `cbor:"circuit_id"`
	ProverKey   []byte      `cbor:"prover_key"`
	VerifierKey VerifierKey `cbor:"verifier_key"`
	ZKIR        []byte      `cbor:"zkir"`
}
