package simulator

import (
	"context"
	"errors"
	"sync"

	"github.com/provideplatform/counter/common"
	"github.com/provideplatform/counter/state"
	"github.com/provideplatform/counter/wallet"
)

// DefaultFee is charged for every balanced transaction
const DefaultFee = 1

// ErrInsufficientFunds is returned when a wallet cannot pay the fee
var ErrInsufficientFunds = errors.New("insufficient funds to balance transaction")

// Wallet is a simulated wallet paying fees on a simulated network
type Wallet struct {
	network *Network

	mutex sync.Mutex
	state wallet.State
}

// NewWallet returns a synced wallet whose keys derive from seed
func NewWallet(n *Network, seed string, balance uint64) *Wallet {
	return &Wallet{
		network: n,
		state: wallet.State{
			Address:             common.SHA256([]byte("address:" + seed)),
			CoinPublicKey:       common.SHA256([]byte("coin:" + seed)),
			EncryptionPublicKey: common.SHA256([]byte("encryption:" + seed)),
			Balance:             balance,
			Synced:              true,
		},
	}
}

func (w *Wallet) State(ctx context.Context) (*wallet.State, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	s := w.state
	return &s, nil
}

// BalanceTransaction deducts DefaultFee and records it on the transaction
func (w *Wallet) BalanceTransaction(ctx context.Context, raw []byte) ([]byte, error) {
	tx, err := state.DeserializeTransaction(raw, w.network.NetworkID())
	if err != nil {
		return nil, err
	}

	w.mutex.Lock()
	if w.state.Balance < DefaultFee {
		w.mutex.Unlock()
		return nil, ErrInsufficientFunds
	}
	w.state.Balance -= DefaultFee
	w.mutex.Unlock()

	tx.Fee = DefaultFee
	return tx.Serialize(w.network.NetworkID())
}

// ProveTransaction is a no-op; fee inputs need no separate proof on the simulated network
func (w *Wallet) ProveTransaction(ctx context.Context, raw []byte) ([]byte, error) {
	return raw, nil
}

func (w *Wallet) SubmitTransaction(ctx context.Context, raw []byte) (state.TransactionID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return w.network.submitRaw(raw)
}
