package gnark

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/consensys/gnark/frontend"
	gnarkmimc "github.com/consensys/gnark/std/hash/mimc"
)

// TimestampOffset shifts epoch-millisecond timestamps into the non-negative range;
// births up to ~278 years before 1970 are representable
const TimestampOffset int64 = 1 << 43

// AgeCircuit proves that a committed birth timestamp is not after a public cutoff
// mimc(ID, Birth) == Commitment && Birth <= Cutoff
type AgeCircuit struct {
	Cutoff     frontend.Variable `gnark:",public"`
	Commitment frontend.Variable `gnark:",public"`

	ID    frontend.Variable
	Birth frontend.Variable
}

// Define declares the circuit's constraints
func (circuit *AgeCircuit) Define(api frontend.API) error {
	h, err := gnarkmimc.NewMiMC(api)
	if err != nil {
		return err
	}

	h.Write(circuit.ID, circuit.Birth)
	api.AssertIsEqual(circuit.Commitment, h.Sum())
	api.AssertIsLessOrEqual(circuit.Birth, circuit.Cutoff)

	return nil
}

// OffsetTimestamp maps an epoch-millisecond timestamp onto the circuit's timestamp domain
func OffsetTimestamp(millis int64) (*big.Int, error) {
	if millis < -TimestampOffset || millis > TimestampOffset {
		return nil, fmt.Errorf("timestamp %d out of range", millis)
	}
	return big.NewInt(millis + TimestampOffset), nil
}

// CredentialIDElement reduces a 32-byte credential id into the scalar field
func CredentialIDElement(id [32]byte) *big.Int {
	var e fr.Element
	e.SetBytes(id[:])
	return e.BigInt(new(big.Int))
}

// AgeCommitment computes mimc(id, birth) outside the circuit
func AgeCommitment(id [32]byte, birthMillis int64) (*big.Int, error) {
	birth, err := OffsetTimestamp(birthMillis)
	if err != nil {
		return nil, err
	}

	var idElem, birthElem fr.Element
	idElem.SetBytes(id[:])
	birthElem.SetBigInt(birth)

	h := mimc.NewMiMC()
	idBytes := idElem.Bytes()
	h.Write(idBytes[:])
	birthBytes := birthElem.Bytes()
	h.Write(birthBytes[:])

	var sum fr.Element
	sum.SetBytes(h.Sum(nil))
	return sum.BigInt(new(big.Int)), nil
}
