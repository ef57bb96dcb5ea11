package providers

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/provideplatform/counter/common"
	"github.com/provideplatform/counter/state"
	"github.com/provideplatform/counter/zkp/lib/circuits/gnark"
)

type gnarkArtifacts struct {
	ccs constraint.ConstraintSystem
	pk  groth16.ProvingKey
	vk  groth16.VerifyingKey
}

// GnarkCircuitProvider interacts with the go-native gnark package
type GnarkCircuitProvider struct {
	curveID        ecc.ID
	circuitLibrary map[string]frontend.Circuit
	artifacts      map[string]*gnarkArtifacts
	mutex          sync.Mutex
}

// InitGnarkCircuitProvider initializes and configures a new GnarkCircuitProvider instance
func InitGnarkCircuitProvider() *GnarkCircuitProvider {
	return &GnarkCircuitProvider{
		curveID: ecc.BN254,
		circuitLibrary: map[string]frontend.Circuit{
			GnarkCircuitIdentifierAge: &gnark.AgeCircuit{},
		},
		artifacts: map[string]*gnarkArtifacts{},
	}
}

// CircuitFactory returns a library circuit by name
func (p *GnarkCircuitProvider) CircuitFactory(identifier string) frontend.Circuit {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.circuitLibrary[strings.ToLower(identifier)]
}

// AddCircuit adds a gnark circuit to the library
func (p *GnarkCircuitProvider) AddCircuit(identifier string, circuit frontend.Circuit) error {
	if circuit == nil {
		return fmt.Errorf("invalid gnark circuit %s", identifier)
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	id := strings.ToLower(identifier)
	p.circuitLibrary[id] = circuit
	delete(p.artifacts, id)
	return nil
}

// Setup compiles the circuit and runs the groth16 setup once; later calls are cached
func (p *GnarkCircuitProvider) Setup(identifier string) error {
	_, err := p.setup(identifier)
	return err
}

func (p *GnarkCircuitProvider) setup(identifier string) (*gnarkArtifacts, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	id := strings.ToLower(identifier)
	if a, ok := p.artifacts[id]; ok {
		return a, nil
	}

	circuit, ok := p.circuitLibrary[id]
	if !ok {
		return nil, fmt.Errorf("failed to resolve gnark circuit %s", identifier)
	}

	ccs, err := frontend.Compile(p.curveID.ScalarField(), r1cs.NewBuilder, circuit)
	if err != nil {
		return nil, fmt.Errorf("failed to compile gnark circuit %s; %s", identifier, err.Error())
	}

	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("failed to setup gnark circuit %s; %s", identifier, err.Error())
	}

	common.Log.Debugf("compiled gnark circuit %s with %d constraints", identifier, ccs.GetNbConstraints())
	a := &gnarkArtifacts{ccs: ccs, pk: pk, vk: vk}
	p.artifacts[id] = a
	return a, nil
}

// Prove generates a serialized groth16 proof for the given full assignment
func (p *GnarkCircuitProvider) Prove(identifier string, assignment frontend.Circuit) ([]byte, error) {
	a, err := p.setup(identifier)
	if err != nil {
		return nil, err
	}

	w, err := frontend.NewWitness(assignment, p.curveID.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("failed to compute witness for gnark circuit %s; %s", identifier, err.Error())
	}

	proof, err := groth16.Prove(a.ccs, a.pk, w)
	if err != nil {
		return nil, fmt.Errorf("failed to generate proof for gnark circuit %s; %s", identifier, err.Error())
	}

	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize proof; %s", err.Error())
	}
	return buf.Bytes(), nil
}

// Verify checks a serialized proof against the public part of an assignment
func (p *GnarkCircuitProvider) Verify(identifier string, raw []byte, publicAssignment frontend.Circuit) error {
	a, err := p.setup(identifier)
	if err != nil {
		return err
	}

	proof := groth16.NewProof(p.curveID)
	if _, err := proof.ReadFrom(bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("failed to deserialize proof; %s", err.Error())
	}

	w, err := frontend.NewWitness(publicAssignment, p.curveID.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return fmt.Errorf("failed to compute public witness for gnark circuit %s; %s", identifier, err.Error())
	}

	if err := groth16.Verify(proof, a.vk, w); err != nil {
		return fmt.Errorf("failed to verify proof for gnark circuit %s; %s", identifier, err.Error())
	}
	return nil
}

// VerifierKey returns the serialized verifying key of the circuit
func (p *GnarkCircuitProvider) VerifierKey(identifier string) (state.VerifierKey, error) {
	a, err := p.setup(identifier)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := a.vk.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize verifying key; %s", err.Error())
	}
	return state.VerifierKey(buf.Bytes()), nil
}
