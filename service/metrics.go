/*
 * Copyright 2020 Guardtime, Inc.
 *
 * This file is part of the Guardtime client SDK.
 *
 * Licensed under the Apache License, Version 2.0 (the "License").
 * You may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *     http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES, CONDITIONS, OR OTHER LICENSES OF ANY KIND, either
 * express or implied. See the License for the specific language governing
 * permissions and limitations under the License.
 * "Guardtime" and "KSI" are trademarks or registered trademarks of
 * Guardtime, Inc., and no license to trademarks is granted; Guardtime
 * reserves and retains all trademark rights.
 */

package service

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/guardtime/ksipdu/errors"
)

var (
	registerOnce sync.Once

	serviceRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ksipdu",
			Subsystem: "service",
			Name:      "requests_total",
			Help:      "Total KSI service requests by outcome.",
		},
		[]string{"service", "request", "outcome"},
	)
	serviceDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ksipdu",
			Subsystem: "service",
			Name:      "request_duration_seconds",
			Help:      "KSI service request round trip duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "request", "outcome"},
	)
)

// RegisterMetrics registers the service collectors with the default prometheus registerer.
// It is safe to call more than once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(serviceRequests, serviceDuration)
	})
}

// outcome is "ok" for a successful request, otherwise the error kind.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return errors.KindOf(err).String()
}

func recordRequest(srv, request string, err error, duration time.Duration) {
	RegisterMetrics()
	label := outcome(err)
	serviceRequests.WithLabelValues(srv, request, label).Inc()
	serviceDuration.WithLabelValues(srv, request, label).Observe(duration.Seconds())
}
