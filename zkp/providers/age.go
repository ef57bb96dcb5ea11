package providers

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/provideplatform/counter/common"
	"github.com/provideplatform/counter/state"
	"github.com/provideplatform/counter/zkp/lib/circuits/gnark"
)

// ErrNotOfAge is returned when the credential's birth date is after the cutoff
var ErrNotOfAge = errors.New("credential subject was born after the cutoff")

// AgeProof attests that a committed credential subject was born on or before Cutoff
type AgeProof struct {
	Proof      []byte `cbor:"proof" json:"proof"`
	Cutoff     int64  `cbor:"cutoff" json:"cutoff"`
	Commitment []byte `cbor:"commitment" json:"commitment"`
}

// AgeProver proves age claims with the gnark age circuit
type AgeProver struct {
	provider ZKSnarkCircuitProvider
}

// InitAgeProver returns an age prover; a nil provider gets a fresh gnark provider
func InitAgeProver(provider ZKSnarkCircuitProvider) *AgeProver {
	if provider == nil {
		provider = InitGnarkCircuitProvider()
	}
	return &AgeProver{provider: provider}
}

// Prove generates an age proof for subject against cutoff without disclosing the birth date
func (a *AgeProver) Prove(subject *state.CredentialSubject, cutoff time.Time) (*AgeProof, error) {
	if subject == nil {
		return nil, errors.New("failed to prove age; no credential subject")
	}
	if subject.BirthTimestamp > cutoff.UnixMilli() {
		return nil, ErrNotOfAge
	}

	commitment, err := gnark.AgeCommitment(subject.ID, subject.BirthTimestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to commit to credential subject; %s", err.Error())
	}
	birth, err := gnark.OffsetTimestamp(subject.BirthTimestamp)
	if err != nil {
		return nil, err
	}
	c, err := gnark.OffsetTimestamp(cutoff.UnixMilli())
	if err != nil {
		return nil, err
	}

	proof, err := a.provider.Prove(GnarkCircuitIdentifierAge, &gnark.AgeCircuit{
		Cutoff:     c,
		Commitment: commitment,
		ID:         gnark.CredentialIDElement(subject.ID),
		Birth:      birth,
	})
	if err != nil {
		return nil, err
	}

	common.Log.Debugf("generated age proof against cutoff %s", cutoff.UTC().Format(time.RFC3339))
	return &AgeProof{
		Proof:      proof,
		Cutoff:     cutoff.UnixMilli(),
		Commitment: commitment.Bytes(),
	}, nil
}

// Verify checks an age proof
func (a *AgeProver) Verify(proof *AgeProof) error {
	if proof == nil {
		return errors.New("failed to verify age proof; no proof")
	}
	c, err := gnark.OffsetTimestamp(proof.Cutoff)
	if err != nil {
		return err
	}

	return a.provider.Verify(GnarkCircuitIdentifierAge, proof.Proof, &gnark.AgeCircuit{
		Cutoff:     c,
		Commitment: new(big.Int).SetBytes(proof.Commitment),
	})
}
