package counter

import (
	"testing"
	"time"

	"github.com/provideplatform/counter/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsOfAgeBoundary(t *testing.T) {
	now := time.Date(2026, time.March, 15, 9, 30, 0, 0, time.UTC)

	exactly, err := state.NewCredentialSubject("Ada", "Exact", now.Add(-18*365*24*time.Hour))
	require.NoError(t, err)
	assert.True(t, IsOfAge(exactly, now))

	dayShort, err := state.NewCredentialSubject("Ada", "Short", now.Add(-18*365*24*time.Hour).Add(24*time.Hour))
	require.NoError(t, err)
	assert.False(t, IsOfAge(dayShort, now))

	msShort, err := state.NewCredentialSubject("Ada", "Late", now.Add(-18*365*24*time.Hour).Add(time.Millisecond))
	require.NoError(t, err)
	assert.False(t, IsOfAge(msShort, now))

	// eighteen calendar years include leap days and are of age
	calendar, err := state.NewCredentialSubject("Ada", "Calendar", now.AddDate(-18, 0, 0))
	require.NoError(t, err)
	assert.True(t, IsOfAge(calendar, now))

	older, err := state.NewCredentialSubject("Ada", "Older", time.Date(1950, time.January, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, IsOfAge(older, now))

	assert.False(t, IsOfAge(nil, now))
}

func TestWitnesses(t *testing.T) {
	w := fixedWitnesses()
	ps := &state.PrivateState{Value: 9}

	next, ts := w.GetCurrentTime(ps)
	assert.Same(t, ps, next)
	assert.Equal(t, uint64(fixedNow.UnixMilli()), ts)

	_, _, err := w.GetIdentity(ps)
	assert.ErrorIs(t, err, ErrNoIdentity)
	assert.EqualError(t, err, "No identity found in private state")

	subject, err := state.NewCredentialSubject("Alice", "Liddell", fixedNow.AddDate(-20, 0, 0))
	require.NoError(t, err)
	ps.CredentialSubject = subject

	_, got, err := w.GetIdentity(ps)
	require.NoError(t, err)
	assert.Equal(t, *subject, *got)
	assert.Equal(t, "alice_liddell", state.UnpadString(got.ID))

	var zero Witnesses
	_, ts = zero.GetCurrentTime(ps)
	assert.NotZero(t, ts)
}

func TestContractDescriptor(t *testing.T) {
	c := NewContract(fixedWitnesses())
	assert.Equal(t, []string{CircuitIncrement}, c.Circuits())

	initial, err := c.InitialState(state.NewPrivateState())
	require.NoError(t, err)
	ledger, err := DecodeLedger(initial)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), ledger.Round)

	result, err := c.Call(CircuitIncrement, initial, state.NewPrivateState())
	require.NoError(t, err)
	local, err := DecodeLedger(result.Ledger)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), local.Round)

	applied, err := c.ApplyTranscript(initial, CircuitIncrement, result.Transcript)
	require.NoError(t, err)
	assert.Equal(t, result.Ledger, applied)

	_, err = c.ApplyTranscript(initial, "decrement", result.Transcript)
	assert.Error(t, err)
	_, err = c.Call("decrement", initial, state.NewPrivateState())
	assert.Error(t, err)
}
