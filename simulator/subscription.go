package simulator

import (
	"sync"

	"github.com/provideplatform/counter/state"
)

// subscription queues states without bound so the network never blocks on a slow reader
type subscription struct {
	network *Network
	address state.ContractAddress

	updates chan *state.ContractState
	errs    chan error
	notify  chan struct{}
	done    chan struct{}

	mutex     sync.Mutex
	queue     []*state.ContractState
	failed    error
	closeOnce sync.Once
}

func newSubscription(n *Network, address state.ContractAddress) *subscription {
	return &subscription{
		network: n,
		address: address,
		updates: make(chan *state.ContractState),
		errs:    make(chan error, 1),
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

func (s *subscription) Updates() <-chan *state.ContractState {
	return s.updates
}

func (s *subscription) Err() <-chan error {
	return s.errs
}

func (s *subscription) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.network.unsubscribe(s)
	})
}

func (s *subscription) signal() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *subscription) push(cs *state.ContractState) {
	s.mutex.Lock()
	s.queue = append(s.queue, cs)
	s.mutex.Unlock()
	s.signal()
}

func (s *subscription) fail(err error) {
	s.mutex.Lock()
	s.failed = err
	s.mutex.Unlock()
	s.signal()
}

// pump drains queued states, then reports a failure before closing updates
func (s *subscription) pump() {
	defer close(s.updates)

	for {
		s.mutex.Lock()
		if len(s.queue) > 0 {
			next := s.queue[0]
			s.queue = s.queue[1:]
			s.mutex.Unlock()

			select {
			case s.updates <- next:
			case <-s.done:
				return
			}
			continue
		}
		if s.failed != nil {
			err := s.failed
			s.mutex.Unlock()
			s.errs <- err
			return
		}
		s.mutex.Unlock()

		select {
		case <-s.notify:
		case <-s.done:
			return
		}
	}
}
