package providers

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/provideplatform/counter/state"
)

// ProofEvent is emitted around each proving call
type ProofEvent string

const (
	ProveTxStarted ProofEvent = "proveTxStarted"
	ProveTxDone    ProofEvent = "proveTxDone"
)

// ProofEventCallback receives proof events; err is only set on a failed ProveTxDone
type ProofEventCallback func(event ProofEvent, address state.ContractAddress, circuitID string, err error)

var proveTxDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "counter",
	Subsystem: "proof",
	Name:      "prove_tx_duration_seconds",
	Help:      "Duration of transaction proving calls.",
	Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
}, []string{"circuit", "outcome"})

// NotifyingProofProvider wraps a proof provider and reports progress to a callback
type NotifyingProofProvider struct {
	inner    proofProvider
	callback ProofEventCallback
}

// WithProofNotifications wraps inner; a nil callback only records metrics
func WithProofNotifications(inner proofProvider, callback ProofEventCallback) *NotifyingProofProvider {
	return &NotifyingProofProvider{inner: inner, callback: callback}
}

func (p *NotifyingProofProvider) emit(event ProofEvent, address state.ContractAddress, circuitID string, err error) {
	if p.callback != nil {
		p.callback(event, address, circuitID, err)
	}
}

// ProveTx proves through the wrapped provider, emitting started and done events
func (p *NotifyingProofProvider) ProveTx(ctx context.Context, tx *state.UnprovenTransaction, zkConfig *state.ZKConfig) (*state.UnbalancedTransaction, error) {
	circuitID := tx.Circuit
	if circuitID == "" {
		circuitID = string(tx.Kind)
	}

	p.emit(ProveTxStarted, tx.ContractAddress, circuitID, nil)
	start := time.Now()

	proven, err := p.inner.ProveTx(ctx, tx, zkConfig)

	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	proveTxDuration.WithLabelValues(circuitID, outcome).Observe(time.Since(start).Seconds())
	p.emit(ProveTxDone, tx.ContractAddress, circuitID, err)

	return proven, err
}
