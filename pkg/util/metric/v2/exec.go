// Copyright 2021 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package v2

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	operatorDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "columnar",
			Subsystem: "exec",
			Name:      "operator_duration_seconds",
			Help:      "Bucketed histogram of operator execution duration.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2.0, 20),
		}, []string{"op"})

	OrderByDurationHistogram   = operatorDurationHistogram.WithLabelValues("order_by")
	FilterDurationHistogram    = operatorDurationHistogram.WithLabelValues("filter")
	GroupByDurationHistogram   = operatorDurationHistogram.WithLabelValues("group_by")
	JoinBuildDurationHistogram = operatorDurationHistogram.WithLabelValues("join_build")
	JoinProbeDurationHistogram = operatorDurationHistogram.WithLabelValues("join_probe")

	operatorRowsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "columnar",
			Subsystem: "exec",
			Name:      "rows_total",
			Help:      "Total number of rows consumed or produced by operators.",
		}, []string{"type"})

	GroupByInputRowsCounter = operatorRowsCounter.WithLabelValues("group_by_input")
	GroupByGroupsCounter    = operatorRowsCounter.WithLabelValues("group_by_groups")
	JoinBuildRowsCounter    = operatorRowsCounter.WithLabelValues("join_build")
	JoinProbeRowsCounter    = operatorRowsCounter.WithLabelValues("join_probe")
	JoinOutputRowsCounter   = operatorRowsCounter.WithLabelValues("join_output")
	FilterOutputRowsCounter = operatorRowsCounter.WithLabelValues("filter_output")
	OrderByInputRowsCounter = operatorRowsCounter.WithLabelValues("order_by_input")

	HashTableCapacityOverflowCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "columnar",
			Subsystem: "exec",
			Name:      "hashtable_capacity_overflow_total",
			Help:      "Total number of inserts rejected by a full hash table.",
		})

	JoinBuildDistinctKeysGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "columnar",
			Subsystem: "exec",
			Name:      "join_build_distinct_keys",
			Help:      "Estimated distinct keys of the last built join table.",
		})
)
