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

package groupby

import (
	"github.com/matrixorigin/columnar/pkg/common/mpool"
	"github.com/matrixorigin/columnar/pkg/container/batch"
	"github.com/matrixorigin/columnar/pkg/container/hashtable"
	"github.com/matrixorigin/columnar/pkg/container/types"
	"github.com/matrixorigin/columnar/pkg/container/vector"
	"github.com/matrixorigin/columnar/pkg/dispatch"
	"github.com/matrixorigin/columnar/pkg/vm/process"
)

type AggOp uint8

const (
	CountValid AggOp = iota
	CountAll
	Sum
	Min
	Max
	SumOfSquares
	// compound
	Avg
	Variance
	Std
	// holistic
	Median
)

var opNames = [...]string{
	CountValid:   "COUNT_VALID",
	CountAll:     "COUNT_ALL",
	Sum:          "SUM",
	Min:          "MIN",
	Max:          "MAX",
	SumOfSquares: "SUM_OF_SQUARES",
	Avg:          "AVG",
	Variance:     "VARIANCE",
	Std:          "STD",
	Median:       "MEDIAN",
}

func (op AggOp) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "UNKNOWN"
}

// parts returns the simple aggregations op is computed from.
func (op AggOp) parts() []AggOp {
	switch op {
	case Avg:
		return []AggOp{Sum, CountValid}
	case Variance, Std:
		return []AggOp{Sum, SumOfSquares, CountValid}
	case Median:
		return nil
	}
	return []AggOp{op}
}

// Request asks for one aggregation of one value column. Values must have
// as many rows as the keys.
type Request struct {
	Values vector.View
	Op     AggOp
}

type Options struct {
	// IgnoreNullKeys drops the rows with a null key column. Otherwise
	// null keys are equal to each other and form one group.
	IgnoreNullKeys bool
}

type simpleKey struct {
	col vector.Key
	op  AggOp
}

// simpleAgg is one simple aggregation of one column. Its accumulators
// are indexed by hash table slot and start at the identity of op.
type simpleAgg struct {
	op     AggOp
	values vector.View

	kind    dispatch.NumKind
	intAt   func(i int) int64
	uintAt  func(i int) uint64
	floatAt func(i int) float64
	cmp     dispatch.RowCompare
	// index of the COUNT_VALID of the same column, for SUM and
	// SUM_OF_SQUARES whose groups without a valid value are null
	countIdx int

	counts []int64
	ints   []int64
	uints  []uint64
	floats []uint64
	rows   []int64

	result *vector.Vector
	taken  bool
}

// compound describes how one request is put back together.
type compound struct {
	op    AggOp
	parts []int
}

type container struct {
	proc *process.Process
	mp   *mpool.MPool
	keys batch.View
	opts Options

	simples []*simpleAgg
	index   map[simpleKey]int
	reqs    []compound

	ht      *hashtable.AggTable
	rowSlot []int64
	// slots[g] is the table slot of output group g
	slots []int64
}

var float64Type = types.T_float64.ToType()
