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

package join

import (
	"sync/atomic"

	"github.com/matrixorigin/columnar/pkg/common/mpool"
	"github.com/matrixorigin/columnar/pkg/compare"
	"github.com/matrixorigin/columnar/pkg/container/batch"
	"github.com/matrixorigin/columnar/pkg/container/hashtable"
)

type Kind uint8

const (
	Inner Kind = iota
	Left
	Full
)

func (k Kind) String() string {
	switch k {
	case Inner:
		return "inner"
	case Left:
		return "left"
	case Full:
		return "full"
	}
	return "unknown"
}

// ColumnPair names a left column and a right column that come out of the
// join as one coalesced column.
type ColumnPair struct {
	Left  int
	Right int
}

type Options struct {
	// NullEquality defaults to compare.NullsUnequal: a null key matches
	// nothing.
	NullEquality compare.NullEquality
}

// Indices are the row pairs of a join result. Left[k] and Right[k] are
// the rows of the two relations joined into output row k; -1 marks the
// missing side of an unmatched row.
type Indices struct {
	Left  []int64
	Right []int64
}

func (idx *Indices) Len() int {
	return len(idx.Left)
}

// HashJoin is a hash table built once on one relation. It is read only
// after Build, and many goroutines may probe it at the same time.
type HashJoin struct {
	refCnt atomic.Int64

	build   batch.View
	buildOn []int
	keys    batch.View
	opts    Options

	mp       *mpool.MPool
	mm       *hashtable.MultiMap
	distinct uint64
}

// outer tells a probe which unmatched rows come out too.
type outer struct {
	probe bool
	build bool
}

var outerOf = [...]outer{
	Inner: {},
	Left:  {probe: true},
	Full:  {probe: true, build: true},
}
