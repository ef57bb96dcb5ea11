package state

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddress = "0200d5a4e1b5f2b1d2c3e4f5a6b7c8d9e0f1a2b3c4d5e6f7a8b9c0d1e2f3a4b5"

func TestParseContractAddress(t *testing.T) {
	addr, err := ParseContractAddress("0x" + strings.ToUpper(testAddress))
	require.NoError(t, err)
	assert.Equal(t, ContractAddress(testAddress), addr)

	_, err = ParseContractAddress("abc")
	assert.ErrorIs(t, err, ErrInvalidContractAddress)

	_, err = ParseContractAddress(strings.Repeat("zz", ContractAddressLength))
	assert.ErrorIs(t, err, ErrInvalidContractAddress)

	_, err = ContractAddressFromBytes([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidContractAddress)
}

func TestPadString(t *testing.T) {
	padded, err := PadString("alice")
	require.NoError(t, err)
	assert.Equal(t, byte('a'), padded[0])
	assert.Equal(t, byte(0), padded[5])
	assert.Equal(t, "alice", UnpadString(padded))

	_, err = PadString(strings.Repeat("x", CredentialFieldLength+1))
	assert.Error(t, err)

	exact, err := PadString(strings.Repeat("x", CredentialFieldLength))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("x", CredentialFieldLength), UnpadString(exact))
}

func TestNewCredentialSubject(t *testing.T) {
	birth := time.Date(1990, time.March, 4, 0, 0, 0, 0, time.UTC)
	subject, err := NewCredentialSubject("Alice", "Liddell", birth)
	require.NoError(t, err)

	assert.Equal(t, "alice_liddell", UnpadString(subject.ID))
	assert.Equal(t, "Alice", UnpadString(subject.FirstName))
	assert.Equal(t, "Liddell", UnpadString(subject.LastName))
	assert.Equal(t, birth.UnixMilli(), subject.BirthTimestamp)
	assert.True(t, birth.Equal(subject.Birth()))

	_, err = NewCredentialSubject(strings.Repeat("a", 20), strings.Repeat("b", 20), birth)
	assert.Error(t, err)
}

func TestPrivateStateRoundTrip(t *testing.T) {
	subject, err := NewCredentialSubject("Bob", "Builder", time.UnixMilli(-315619200000))
	require.NoError(t, err)

	for _, ps := range []*PrivateState{
		NewPrivateState(),
		{Value: 42},
		{Value: -7, CredentialSubject: subject},
	} {
		raw, err := MarshalPrivateState(ps)
		require.NoError(t, err)

		decoded, err := UnmarshalPrivateState(raw)
		require.NoError(t, err)
		assert.Equal(t, ps, decoded)

		reencoded, err := MarshalPrivateState(decoded)
		require.NoError(t, err)
		assert.Equal(t, raw, reencoded)
	}
}

func TestPrivateStateClone(t *testing.T) {
	subject, err := NewCredentialSubject("Carol", "Danvers", time.Now())
	require.NoError(t, err)

	ps := &PrivateState{Value: 1, CredentialSubject: subject}
	clone := ps.Clone()
	clone.CredentialSubject.BirthTimestamp = 0
	clone.Value = 2

	assert.Equal(t, int64(1), ps.Value)
	assert.NotEqual(t, int64(0), ps.CredentialSubject.BirthTimestamp)
	assert.Nil(t, (*PrivateState)(nil).Clone())
}

func TestTransactionSerialization(t *testing.T) {
	tx := &Transaction{
		Kind:            TxKindCall,
		ContractAddress: ContractAddress(testAddress),
		Circuit:         "increment",
		Transcript:      []byte{1, 2, 3},
		Nonce:           []byte{9},
	}

	raw, err := tx.Serialize("testnet")
	require.NoError(t, err)

	decoded, err := DeserializeTransaction(raw, "testnet")
	require.NoError(t, err)
	assert.Equal(t, tx, decoded)

	_, err = DeserializeTransaction(raw, "undeployed")
	assert.Error(t, err)

	hash, err := tx.Hash()
	require.NoError(t, err)
	assert.Regexp(t, "^[0-9a-f]{64}$", hash)
}

func TestContractStateSerialization(t *testing.T) {
	s := &ContractState{
		Data:        StateData{0xa1},
		Operations:  map[string]VerifierKey{"increment": {1, 2}},
		BlockHeight: 7,
	}

	raw, err := s.Serialize()
	require.NoError(t, err)

	decoded, err := DeserializeContractState(raw)
	require.NoError(t, err)
	assert.Equal(t, s, decoded)

	clone := s.Clone()
	clone.Operations["increment"][0] = 9
	assert.Equal(t, byte(1), s.Operations["increment"][0])

	_, err = DeserializeContractState([]byte{0xff})
	assert.Error(t, err)
}

func TestNewSigningKey(t *testing.T) {
	a, err := NewSigningKey()
	require.NoError(t, err)
	b, err := NewSigningKey()
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
