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

// Package filter compacts the indices of the rows of a table that pass a
// row predicate. Output keeps input order and is sized exactly: a first
// launch counts the matches of every chunk, a prefix sum gives each chunk
// its write offset and a second launch fills the indices.
package filter

import (
	"bytes"
	"time"

	"github.com/matrixorigin/columnar/pkg/common/moerr"
	"github.com/matrixorigin/columnar/pkg/compare"
	"github.com/matrixorigin/columnar/pkg/container/batch"
	v2 "github.com/matrixorigin/columnar/pkg/util/metric/v2"
	"github.com/matrixorigin/columnar/pkg/vm/process"
	"go.uber.org/zap"
)

const opName = "filter"

// Filter returns the indices of the rows of input equal to the single
// row of target, column by column. A null in target matches a null.
func Filter(proc *process.Process, input batch.View, target batch.View) (int, []int64, error) {
	if target.RowCount() != 1 {
		return 0, nil, moerr.NewInvalidInput(proc.Ctx, "filter target has %d rows", target.RowCount())
	}
	cmp, err := compare.New(input, target, compare.Options{NullEquality: compare.NullsEqual})
	if err != nil {
		return 0, nil, err
	}
	return compact(proc, "equal", input.RowCount(), func(i int) bool {
		return cmp.Equal(i, 0)
	})
}

// DropNulls returns the indices of the rows of input without a null in
// any column.
func DropNulls(proc *process.Process, input batch.View) (int, []int64, error) {
	cols := input.Cols()
	return compact(proc, "drop nulls", input.RowCount(), func(i int) bool {
		for _, col := range cols {
			if col.IsNull(i) {
				return false
			}
		}
		return true
	})
}

func compact(proc *process.Process, what string, n int, pred func(i int) bool) (int, []int64, error) {
	start := time.Now()
	counts := make([]int, proc.Chunks(n))
	if err := proc.For(n, func(chunk, lo, hi int) error {
		cnt := 0
		for i := lo; i < hi; i++ {
			if pred(i) {
				cnt++
			}
		}
		counts[chunk] = cnt
		return nil
	}); err != nil {
		return 0, nil, err
	}

	total := 0
	for c, cnt := range counts {
		counts[c] = total
		total += cnt
	}
	sels := make([]int64, total)
	if err := proc.For(n, func(chunk, lo, hi int) error {
		k := counts[chunk]
		for i := lo; i < hi; i++ {
			if pred(i) {
				sels[k] = int64(i)
				k++
			}
		}
		return nil
	}); err != nil {
		return 0, nil, err
	}

	v2.FilterOutputRowsCounter.Add(float64(total))
	v2.FilterDurationHistogram.Observe(time.Since(start).Seconds())
	proc.Debug(opName,
		zap.String("predicate", what),
		zap.Int("rows", n),
		zap.Int("selected", total))
	return total, sels, nil
}

// String describes a filter for plans and logs.
func String(buf *bytes.Buffer, target batch.View) {
	buf.WriteString(opName)
	buf.WriteString(": equal to (")
	for j, col := range target.Cols() {
		if j > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(col.RowString(0))
	}
	buf.WriteString(")")
}
