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

package testutil

import (
	"context"
	"strings"
	"testing"

	"github.com/matrixorigin/columnar/pkg/common/mpool"
	"github.com/matrixorigin/columnar/pkg/common/parallel"
	"github.com/matrixorigin/columnar/pkg/container/batch"
	"github.com/matrixorigin/columnar/pkg/container/types"
	"github.com/matrixorigin/columnar/pkg/container/vector"
	"github.com/matrixorigin/columnar/pkg/vm/process"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slices"
)

// NewProcess returns a Process with its own allocator and a small worker
// pool. The pool is released when the test ends.
func NewProcess(t testing.TB) *process.Process {
	return NewProcessWithGrain(t, parallel.DefaultGrain)
}

// NewProcessWithGrain is NewProcess with a chunk size of grain rows, so
// that tiny inputs still spread over several chunks.
func NewProcessWithGrain(t testing.TB, grain int) *process.Process {
	pool, err := parallel.NewPool(4, grain)
	require.NoError(t, err)
	t.Cleanup(pool.Release)
	return process.New(context.Background(), mpool.MustNewZero(), pool)
}

var NewProc = NewProcess

// NewVector builds a column of oid from vals. A row listed in nullRows
// is null whatever its value.
func NewVector[T any](t testing.TB, oid types.T, mp *mpool.MPool, vals []T, nullRows ...int) *vector.Vector {
	v := vector.NewVec(oid.ToType())
	require.NoError(t, vector.AppendFixedList(v, vals, isNulls(len(vals), nullRows), mp))
	return v
}

func NewInt32Vector(t testing.TB, mp *mpool.MPool, vals []int32, nullRows ...int) *vector.Vector {
	return NewVector(t, types.T_int32, mp, vals, nullRows...)
}

func NewInt64Vector(t testing.TB, mp *mpool.MPool, vals []int64, nullRows ...int) *vector.Vector {
	return NewVector(t, types.T_int64, mp, vals, nullRows...)
}

func NewFloat64Vector(t testing.TB, mp *mpool.MPool, vals []float64, nullRows ...int) *vector.Vector {
	return NewVector(t, types.T_float64, mp, vals, nullRows...)
}

func NewStringVector(t testing.TB, mp *mpool.MPool, vals []string, nullRows ...int) *vector.Vector {
	v := vector.NewVec(types.T_varchar.ToType())
	require.NoError(t, vector.AppendStringList(v, vals, isNulls(len(vals), nullRows), mp))
	return v
}

// NewDictionaryVector encodes vals against a dictionary of the distinct
// values in first seen order.
func NewDictionaryVector(t testing.TB, mp *mpool.MPool, vals []string, nullRows ...int) *vector.Vector {
	var words []string
	seen := make(map[string]int32)
	codes := make([]int32, len(vals))
	nulls := isNulls(len(vals), nullRows)
	for i, s := range vals {
		if len(nulls) > 0 && nulls[i] {
			continue
		}
		code, ok := seen[s]
		if !ok {
			code = int32(len(words))
			seen[s] = code
			words = append(words, s)
		}
		codes[i] = code
	}
	dict := NewStringVector(t, mp, words)
	v, err := vector.NewDictionaryVec(codes, nulls, dict, mp)
	require.NoError(t, err)
	return v
}

// NewBatch wraps vecs into a batch.
func NewBatch(t testing.TB, vecs ...*vector.Vector) *batch.Batch {
	bat, err := batch.FromVectors(vecs...)
	require.NoError(t, err)
	return bat
}

func isNulls(n int, nullRows []int) []bool {
	if len(nullRows) == 0 {
		return nil
	}
	nulls := make([]bool, n)
	for _, r := range nullRows {
		nulls[r] = true
	}
	return nulls
}

// Rows renders every row of v as its values joined by commas.
func Rows(v batch.View) []string {
	rows := make([]string, v.RowCount())
	vals := make([]string, v.ColumnCount())
	for i := range rows {
		for j, col := range v.Cols() {
			vals[j] = col.RowString(i)
		}
		rows[i] = strings.Join(vals, ",")
	}
	return rows
}

// SortedRows is Rows in lexical order, for results whose row order is
// unspecified.
func SortedRows(v batch.View) []string {
	rows := Rows(v)
	slices.Sort(rows)
	return rows
}
