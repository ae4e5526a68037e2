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
	"sync/atomic"

	"github.com/matrixorigin/columnar/pkg/container/vector"
	"github.com/matrixorigin/columnar/pkg/dispatch"
	"golang.org/x/exp/slices"
)

// median has no simple decomposition: the valid values of every group
// are scattered into one contiguous segment per group, and each segment
// is sorted on its own.
func (ctr *container) median(values vector.View) (*vector.Vector, error) {
	ops, err := dispatch.Numeric(values.Type().Oid, Median.String())
	if err != nil {
		return nil, err
	}
	at := ops.Float64At(values)
	groups := len(ctr.slots)
	groupOf := make([]int32, ctr.ht.Cap())
	for g, s := range ctr.slots {
		groupOf[s] = int32(g)
	}
	n := values.Length()

	offsets := make([]int64, groups+1)
	if err = ctr.proc.For(n, func(_, lo, hi int) error {
		for i := lo; i < hi; i++ {
			if s := ctr.rowSlot[i]; s >= 0 && !values.IsNull(i) {
				atomic.AddInt64(&offsets[groupOf[s]+1], 1)
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}
	for g := 0; g < groups; g++ {
		offsets[g+1] += offsets[g]
	}

	cursors := make([]int64, groups)
	copy(cursors, offsets)
	vals := make([]float64, offsets[groups])
	if err = ctr.proc.For(n, func(_, lo, hi int) error {
		for i := lo; i < hi; i++ {
			if s := ctr.rowSlot[i]; s >= 0 && !values.IsNull(i) {
				k := atomic.AddInt64(&cursors[groupOf[s]], 1) - 1
				vals[k] = at(i)
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	res := make([]float64, groups)
	isNulls := make([]bool, groups)
	if err = ctr.proc.For(groups, func(_, lo, hi int) error {
		for g := lo; g < hi; g++ {
			seg := vals[offsets[g]:offsets[g+1]]
			if len(seg) == 0 {
				isNulls[g] = true
				continue
			}
			slices.SortFunc(seg, cmpFloat)
			if m := len(seg) / 2; len(seg)%2 == 1 {
				res[g] = seg[m]
			} else {
				res[g] = (seg[m-1] + seg[m]) / 2
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return newResult(float64Type, res, isNulls, ctr.mp)
}

// cmpFloat sorts NaN after every other value.
func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	case a == b:
		return 0
	case a != a && b != b:
		return 0
	case a != a:
		return 1
	}
	return -1
}
