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

package counter

import (
	"context"
	"sync"
	"time"

	"github.com/provideplatform/counter/common"
	"github.com/provideplatform/counter/providers"
	"github.com/provideplatform/counter/state"
)

// DefaultRetryDelay is the fixed pause before resubscribing after a stream failure
const DefaultRetryDelay = 500 * time.Millisecond

// CounterState is one observed value of the counter ledger
type CounterState struct {
	Address     state.ContractAddress `json:"address"`
	Value       uint64                `json:"value"`
	BlockHeight uint64                `json:"block_height"`
}

// StreamOption configures a StateStream
type StreamOption func(*streamOptions)

type streamOptions struct {
	retryDelay  time.Duration
	threshold   int
	onThreshold func(failures int, err error)
	latestOnly  bool
}

// WithRetryDelay overrides DefaultRetryDelay
func WithRetryDelay(delay time.Duration) StreamOption {
	return func(o *streamOptions) {
		o.retryDelay = delay
	}
}

// WithRetryThreshold calls fn whenever consecutive failures reach n; the count resets after a successful emission
func WithRetryThreshold(n int, fn func(failures int, err error)) StreamOption {
	return func(o *streamOptions) {
		o.threshold = n
		o.onThreshold = fn
	}
}

// WithLatestOnly keeps only the most recent unread value; a reader that falls behind
// sees the current counter rather than every intermediate one, and the subscription is never held up
func WithLatestOnly() StreamOption {
	return func(o *streamOptions) {
		o.latestOnly = true
	}
}

// StateStream emits the counter value on every public state change, resubscribing forever on failure
type StateStream struct {
	address   state.ContractAddress
	providers *providers.Providers
	opts      streamOptions

	updates   chan CounterState
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

func newStateStream(ctx context.Context, p *providers.Providers, address state.ContractAddress, opts ...StreamOption) *StateStream {
	o := streamOptions{retryDelay: DefaultRetryDelay}
	for _, opt := range opts {
		opt(&o)
	}

	size := 0
	if o.latestOnly {
		size = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &StateStream{
		address:   address,
		providers: p,
		opts:      o,
		updates:   make(chan CounterState, size),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	trackObservedRound(address.String())
	go s.run(ctx)
	return s
}

// Updates returns the channel of observed values; it is closed when the stream ends
func (s *StateStream) Updates() <-chan CounterState {
	return s.updates
}

// Close stops the stream and waits for it to release its subscription
func (s *StateStream) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.done
		releaseObservedRound(s.address.String())
	})
}

func (s *StateStream) run(ctx context.Context) {
	defer close(s.done)
	defer close(s.updates)

	failures := 0
	for {
		err := s.observe(ctx, &failures)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			common.Log.Debugf("state stream for contract %s completed", s.address)
			return
		}

		failures++
		stateStreamRetries.Inc()
		common.Log.Warningf("state stream for contract %s failed; retrying in %s; %s", s.address, s.opts.retryDelay, err.Error())
		dispatchNotification(s.address, natsCounterNotificationStateRetry, map[string]interface{}{
			"failures": failures,
			"error":    err.Error(),
		})

		if s.opts.threshold > 0 && failures == s.opts.threshold && s.opts.onThreshold != nil {
			s.opts.onThreshold(failures, err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.opts.retryDelay):
		}
	}
}

// observe relays one subscription; nil means the subscription completed or ctx ended
func (s *StateStream) observe(ctx context.Context, failures *int) error {
	sub, err := s.providers.PublicData().ContractStateObservable(ctx, s.address, state.ObserveConfig{Type: state.ObserveAll})
	if err != nil {
		return err
	}
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case cs, ok := <-sub.Updates():
			if !ok {
				select {
				case err := <-sub.Err():
					return err
				default:
					return nil
				}
			}

			ledger, err := DecodeLedger(cs.Data)
			if err != nil {
				return err
			}
			*failures = 0
			observedRound.WithLabelValues(s.address.String()).Set(float64(ledger.Round))

			if !s.emit(ctx, CounterState{Address: s.address, Value: ledger.Round, BlockHeight: cs.BlockHeight}) {
				return nil
			}
		}
	}
}

// emit returns false when ctx ended before update was delivered
func (s *StateStream) emit(ctx context.Context, update CounterState) bool {
	if !s.opts.latestOnly {
		select {
		case s.updates <- update:
			return true
		case <-ctx.Done():
			return false
		}
	}

	// run is the only sender, so a drained slot is always free for update
	for {
		select {
		case s.updates <- update:
			return true
		default:
		}
		select {
		case <-s.updates:
		default:
		}
	}
}
