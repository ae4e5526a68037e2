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

// Package sort orders the rows of a table by its columns.
package sort

import (
	"time"

	"github.com/matrixorigin/columnar/pkg/compare"
	"github.com/matrixorigin/columnar/pkg/container/batch"
	v2 "github.com/matrixorigin/columnar/pkg/util/metric/v2"
	"github.com/matrixorigin/columnar/pkg/vm/process"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

// OrderBy returns the permutation of the rows of keys that sorts them by
// every column from the left, each column ascending or descending as
// orders says. The sort is stable: rows comparing equal keep their input
// order. A nil orders sorts every column ascending.
func OrderBy(proc *process.Process, keys batch.View, orders []compare.Order, nullOrder compare.NullOrder) ([]int64, error) {
	start := time.Now()
	cmp, err := compare.New(keys, keys, compare.Options{
		Orders:    orders,
		NullOrder: nullOrder,
	})
	if err != nil {
		return nil, err
	}
	n := keys.RowCount()
	perm := make([]int64, n)
	for i := range perm {
		perm[i] = int64(i)
	}
	if n < 2 || keys.ColumnCount() == 0 {
		return perm, nil
	}
	rowCmp := func(a, b int64) int {
		return cmp.Compare(int(a), int(b))
	}

	// sort every chunk on its own, then merge the sorted runs
	var run int
	if err = proc.For(n, func(chunk, lo, hi int) error {
		if chunk == 0 {
			run = hi - lo
		}
		slices.SortStableFunc(perm[lo:hi], rowCmp)
		return nil
	}); err != nil {
		return nil, err
	}
	perm = mergeRuns(perm, run, rowCmp)

	v2.OrderByInputRowsCounter.Add(float64(n))
	v2.OrderByDurationHistogram.Observe(time.Since(start).Seconds())
	proc.Debug("order by",
		zap.Int("rows", n),
		zap.Int("columns", keys.ColumnCount()),
		zap.Int("chunks", proc.Chunks(n)))
	return perm, nil
}

// mergeRuns merges the consecutive sorted runs of width run in src. On a
// tie the row of the left run goes first.
func mergeRuns(src []int64, run int, cmp func(a, b int64) int) []int64 {
	n := len(src)
	if run <= 0 || run >= n {
		return src
	}
	dst := make([]int64, n)
	for ; run < n; run *= 2 {
		for lo := 0; lo < n; lo += 2 * run {
			mid, hi := min(lo+run, n), min(lo+2*run, n)
			merge(dst[lo:hi], src[lo:mid], src[mid:hi], cmp)
		}
		src, dst = dst, src
	}
	return src
}

func merge(dst, a, b []int64, cmp func(a, b int64) int) {
	i, j, k := 0, 0, 0
	for i < len(a) && j < len(b) {
		if cmp(b[j], a[i]) < 0 {
			dst[k] = b[j]
			j++
		} else {
			dst[k] = a[i]
			i++
		}
		k++
	}
	k += copy(dst[k:], a[i:])
	copy(dst[k:], b[j:])
}
