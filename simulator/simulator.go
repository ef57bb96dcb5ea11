package simulator

import (
	"context"

	"github.com/provideplatform/counter/contracts"
	"github.com/provideplatform/counter/providers"
	"github.com/provideplatform/counter/state"
	"github.com/provideplatform/counter/wallet"
)

// GenesisBalance funds wallets created by New
const GenesisBalance = 1_000_000

// Simulator bundles a network with a funded wallet and matching proof and zk config providers
type Simulator struct {
	Network  *Network
	Wallet   *Wallet
	ZKConfig *ZKConfig
	Prover   Prover
}

// New returns a simulator with contract registered; its circuits get deterministic artifacts
func New(networkID string, contract contracts.Contract) *Simulator {
	n := NewNetwork(networkID, contract)
	return &Simulator{
		Network:  n,
		Wallet:   NewWallet(n, wallet.GenesisMintWalletSeed, GenesisBalance),
		ZKConfig: NewZKConfig(contract.Circuits()...),
	}
}

// Providers returns a complete bundle backed by the simulator and privateState
func (s *Simulator) Providers(ctx context.Context, privateState providers.PrivateStateProvider) (*providers.Providers, error) {
	w, err := wallet.NewProviders(ctx, s.Wallet, s.Network.NetworkID())
	if err != nil {
		return nil, err
	}

	return providers.New(providers.Set{
		PublicData:   s.Network,
		PrivateState: privateState,
		Wallet:       w,
		Proof:        s.Prover,
		ZKConfig:     s.ZKConfig,
		Midnight:     w,
	}), nil
}

// DeployedAddresses lists every address holding a contract state
func (n *Network) DeployedAddresses() []state.ContractAddress {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	addresses := make([]state.ContractAddress, 0, len(n.history))
	for address := range n.history {
		addresses = append(addresses, address)
	}
	return addresses
}
