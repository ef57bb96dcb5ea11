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
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	deploymentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "counter",
		Name:      "deployments_total",
		Help:      "Number of counter contract deployments by outcome.",
	}, []string{"outcome"})

	incrementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "counter",
		Name:      "increments_total",
		Help:      "Number of increment transactions by outcome.",
	}, []string{"outcome"})

	stateStreamRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "counter",
		Name:      "state_stream_retries_total",
		Help:      "Number of state stream resubscriptions after a failure.",
	})

	observedRound = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "counter",
		Name:      "observed_round",
		Help:      "Latest counter value observed on the state stream.",
	}, []string{"address"})
)

// open state streams per address; the observed_round series is deleted with the last one
var (
	observedStreams      = map[string]int{}
	observedStreamsMutex sync.Mutex
)

func trackObservedRound(address string) {
	observedStreamsMutex.Lock()
	defer observedStreamsMutex.Unlock()
	observedStreams[address]++
}

func releaseObservedRound(address string) {
	observedStreamsMutex.Lock()
	defer observedStreamsMutex.Unlock()
	observedStreams[address]--
	if observedStreams[address] > 0 {
		return
	}
	delete(observedStreams, address)
	observedRound.DeleteLabelValues(address)
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
