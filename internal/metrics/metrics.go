// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics holds the Prometheus collectors shared by the project
// core. Every collector is registered lazily against a caller-supplied
// registry so that tests can use their own isolated registry instead of
// the global default.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors bundles the project core's metrics. Construct one with New
// and register it with a prometheus.Registerer (prometheus.DefaultRegisterer
// in production, a fresh prometheus.NewRegistry() in tests).
type Collectors struct {
	BufferOpensTotal     *prometheus.CounterVec
	RegistryHitsTotal    *prometheus.CounterVec
	SearchDuration       prometheus.Histogram
	SearchResultsTotal   prometheus.Counter
	SearchCancelledTotal prometheus.Counter
}

// New constructs a Collectors bundle without registering it.
func New() *Collectors {
	return &Collectors{
		BufferOpensTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "projectcore",
			Name:      "buffer_opens_total",
			Help:      "Count of open_path calls that created a new buffer (outcome=miss); registry hits and open_buffer calls are not counted.",
		}, []string{"outcome"}),
		RegistryHitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "projectcore",
			Name:      "registry_lookups_total",
			Help:      "Count of open_path's first buffer registry probe (before the file read) by hit/miss; other probes are not counted.",
		}, []string{"result"}),
		SearchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "projectcore",
			Name:      "search_duration_seconds",
			Help:      "Wall time of a single PathSearch poll to completion.",
			Buckets:   prometheus.DefBuckets,
		}),
		SearchResultsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "projectcore",
			Name:      "search_results_total",
			Help:      "Count of results published by completed path searches.",
		}),
		SearchCancelledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "projectcore",
			Name:      "search_cancelled_total",
			Help:      "Count of path searches that ended in cancellation.",
		}),
	}
}

// MustRegister registers every collector against reg, panicking on a
// duplicate-registration error (mirrors prometheus.MustRegister).
func (c *Collectors) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		c.BufferOpensTotal,
		c.RegistryHitsTotal,
		c.SearchDuration,
		c.SearchResultsTotal,
		c.SearchCancelledTotal,
	)
}
