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

// Package groupby aggregates value columns per distinct key. Compound
// aggregations are split into simple ones, each distinct (column, simple
// aggregation) pair is computed once into a concurrent hash table, and
// the requests are put back together from the simple results.
package groupby

import (
	"bytes"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/matrixorigin/columnar/pkg/common/moerr"
	"github.com/matrixorigin/columnar/pkg/common/mpool"
	"github.com/matrixorigin/columnar/pkg/compare"
	"github.com/matrixorigin/columnar/pkg/container/batch"
	"github.com/matrixorigin/columnar/pkg/container/hashtable"
	"github.com/matrixorigin/columnar/pkg/container/types"
	"github.com/matrixorigin/columnar/pkg/container/vector"
	"github.com/matrixorigin/columnar/pkg/dispatch"
	v2 "github.com/matrixorigin/columnar/pkg/util/metric/v2"
	"github.com/matrixorigin/columnar/pkg/vm/process"
	"go.uber.org/zap"
)

const opName = "group by"

func String(buf *bytes.Buffer, reqs []Request) {
	buf.WriteString(opName)
	buf.WriteString(": ")
	for i, req := range reqs {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(req.Op.String())
	}
}

// GroupBy returns the distinct rows of keys and, for every request, a
// column holding the aggregate of each group. Group k of every result is
// the key row k. Group order is unspecified.
func GroupBy(proc *process.Process, keys batch.View, reqs []Request, opts Options) (*batch.Batch, []*vector.Vector, error) {
	start := time.Now()
	ctr, err := newContainer(proc, keys, reqs, opts)
	if err != nil {
		return nil, nil, err
	}
	defer ctr.free()

	if err = ctr.build(); err != nil {
		return nil, nil, err
	}
	if err = ctr.extract(); err != nil {
		return nil, nil, err
	}
	uniq, err := ctr.uniqueKeys()
	if err != nil {
		return nil, nil, err
	}
	results, err := ctr.recompose(reqs)
	if err != nil {
		uniq.Clean(ctr.mp)
		return nil, nil, err
	}

	v2.GroupByInputRowsCounter.Add(float64(keys.RowCount()))
	v2.GroupByGroupsCounter.Add(float64(len(ctr.slots)))
	v2.GroupByDurationHistogram.Observe(time.Since(start).Seconds())
	proc.Debug(opName,
		zap.Int("rows", keys.RowCount()),
		zap.Int("groups", len(ctr.slots)),
		zap.Int("requests", len(reqs)),
		zap.Int("simple-aggregations", len(ctr.simples)),
		zap.Int("capacity", ctr.ht.Cap()))
	return uniq, results, nil
}

func newContainer(proc *process.Process, keys batch.View, reqs []Request, opts Options) (*container, error) {
	if keys.ColumnCount() == 0 {
		return nil, moerr.NewInvalidInput(proc.Ctx, "group by without key columns")
	}
	ctr := &container{
		proc:  proc,
		mp:    proc.Mp(),
		keys:  keys,
		opts:  opts,
		index: make(map[simpleKey]int),
		reqs:  make([]compound, len(reqs)),
	}
	n := keys.RowCount()
	for r, req := range reqs {
		if !req.Values.IsValid() {
			return nil, moerr.NewInvalidInput(proc.Ctx, "%s request %d has no values", req.Op, r)
		}
		if req.Values.Length() != n {
			return nil, moerr.NewInvalidInput(proc.Ctx, "%s request %d has %d rows, keys have %d",
				req.Op, r, req.Values.Length(), n)
		}
		if req.Op > Median {
			return nil, moerr.NewInvalidInput(proc.Ctx, "unknown aggregation %d", req.Op)
		}
		if req.Op == Median {
			if _, err := dispatch.Numeric(req.Values.Type().Oid, req.Op.String()); err != nil {
				return nil, err
			}
		}
		ctr.reqs[r].op = req.Op
		for _, op := range req.Op.parts() {
			idx, err := ctr.addSimple(req.Values, op)
			if err != nil {
				return nil, err
			}
			ctr.reqs[r].parts = append(ctr.reqs[r].parts, idx)
		}
	}
	return ctr, nil
}

// addSimple returns the index of the simple aggregation op of values,
// adding it when no request asked for it yet.
func (ctr *container) addSimple(values vector.View, op AggOp) (int, error) {
	key := simpleKey{col: values.Key(), op: op}
	if idx, ok := ctr.index[key]; ok {
		return idx, nil
	}
	agg := &simpleAgg{op: op, values: values, countIdx: -1}
	switch op {
	case Sum, SumOfSquares:
		ops, err := dispatch.Numeric(values.Type().Oid, op.String())
		if err != nil {
			return -1, err
		}
		agg.kind = ops.Kind
		agg.floatAt = ops.Float64At(values)
		if op == Sum {
			switch ops.Kind {
			case dispatch.Signed:
				agg.intAt = ops.Int64At(values)
			case dispatch.Unsigned:
				agg.uintAt = ops.Uint64At(values)
			}
		}
	case Min, Max:
		cmp, err := dispatch.Comparator(values, values)
		if err != nil {
			return -1, err
		}
		agg.cmp = cmp
	}
	idx := len(ctr.simples)
	ctr.simples = append(ctr.simples, agg)
	ctr.index[key] = idx
	if op == Sum || op == SumOfSquares {
		cnt, err := ctr.addSimple(values, CountValid)
		if err != nil {
			return -1, err
		}
		agg.countIdx = cnt
	}
	return idx, nil
}

func (agg *simpleAgg) init(capacity int) {
	switch agg.op {
	case CountValid, CountAll:
		agg.counts = make([]int64, capacity)
	case Sum:
		switch agg.kind {
		case dispatch.Signed:
			agg.ints = make([]int64, capacity)
		case dispatch.Unsigned:
			agg.uints = make([]uint64, capacity)
		default:
			agg.floats = make([]uint64, capacity)
		}
	case SumOfSquares:
		agg.floats = make([]uint64, capacity)
	case Min, Max:
		agg.rows = make([]int64, capacity)
		for s := range agg.rows {
			agg.rows[s] = hashtable.Empty
		}
	}
}

func addFloat(addr *uint64, v float64) {
	for {
		old := atomic.LoadUint64(addr)
		if atomic.CompareAndSwapUint64(addr, old, math.Float64bits(math.Float64frombits(old)+v)) {
			return
		}
	}
}

// update folds row i into the accumulator of slot s.
func (agg *simpleAgg) update(s, i int) {
	if agg.op == CountAll {
		atomic.AddInt64(&agg.counts[s], 1)
		return
	}
	if agg.values.IsNull(i) {
		return
	}
	switch agg.op {
	case CountValid:
		atomic.AddInt64(&agg.counts[s], 1)
	case Sum:
		switch agg.kind {
		case dispatch.Signed:
			atomic.AddInt64(&agg.ints[s], agg.intAt(i))
		case dispatch.Unsigned:
			atomic.AddUint64(&agg.uints[s], agg.uintAt(i))
		default:
			addFloat(&agg.floats[s], agg.floatAt(i))
		}
	case SumOfSquares:
		v := agg.floatAt(i)
		addFloat(&agg.floats[s], v*v)
	case Min:
		agg.keep(s, i, -1)
	case Max:
		agg.keep(s, i, 1)
	}
}

// keep makes row i the value of slot s when it compares to the current
// one with the given sign.
func (agg *simpleAgg) keep(s, i int, sign int) {
	for {
		cur := atomic.LoadInt64(&agg.rows[s])
		if cur != hashtable.Empty && agg.cmp(i, int(cur))*sign <= 0 {
			return
		}
		if atomic.CompareAndSwapInt64(&agg.rows[s], cur, int64(i)) {
			return
		}
	}
}

func (ctr *container) build() error {
	n := ctr.keys.RowCount()
	capacity, err := hashtable.PlanCapacity(n, ctr.proc.GroupByOccupancy)
	if err != nil {
		return err
	}
	if ctr.ht, err = hashtable.NewAggTable(capacity, ctr.mp); err != nil {
		return err
	}
	for _, agg := range ctr.simples {
		agg.init(capacity)
	}
	hasher, err := compare.NewRowHasher(ctr.keys)
	if err != nil {
		return err
	}
	cmp, err := compare.New(ctr.keys, ctr.keys, compare.Options{NullEquality: compare.NullsEqual})
	if err != nil {
		return err
	}
	eq := func(a, b int64) bool {
		return cmp.Equal(int(a), int(b))
	}

	ctr.rowSlot = make([]int64, n)
	return ctr.proc.For(n, func(_, lo, hi int) error {
		for i := lo; i < hi; i++ {
			if ctr.opts.IgnoreNullKeys && hasher.HasNull(i) {
				ctr.rowSlot[i] = -1
				continue
			}
			s, err := ctr.ht.Insert(hasher.Hash(i), int64(i), eq)
			if err != nil {
				return err
			}
			ctr.rowSlot[i] = int64(s)
			for _, agg := range ctr.simples {
				agg.update(s, i)
			}
		}
		return nil
	})
}

// extract lists the used slots of the table. Every chunk claims a range
// of the output with one add on the shared cursor.
func (ctr *container) extract() error {
	ctr.slots = make([]int64, ctr.ht.GroupCount())
	var cursor atomic.Int64
	return ctr.proc.For(ctr.ht.Cap(), func(_, lo, hi int) error {
		var local []int64
		for s := lo; s < hi; s++ {
			if ctr.ht.Row(s) != hashtable.Empty {
				local = append(local, int64(s))
			}
		}
		if len(local) == 0 {
			return nil
		}
		end := cursor.Add(int64(len(local)))
		if int(end) > len(ctr.slots) {
			return moerr.NewInternalError(ctr.proc.Ctx, "group by found more than %d groups", len(ctr.slots))
		}
		copy(ctr.slots[end-int64(len(local)):], local)
		return nil
	})
}

func (ctr *container) uniqueKeys() (*batch.Batch, error) {
	reps := make([]int64, len(ctr.slots))
	for g, s := range ctr.slots {
		reps[g] = ctr.ht.Row(int(s))
	}
	return batch.Gather(ctr.keys, reps, ctr.mp)
}

// finish turns the accumulators of agg into its result column.
func (ctr *container) finish(agg *simpleAgg) (*vector.Vector, error) {
	groups := len(ctr.slots)
	var valid []int64
	if agg.countIdx >= 0 {
		valid = ctr.simples[agg.countIdx].counts
	}
	isNulls := make([]bool, groups)
	for g, s := range ctr.slots {
		isNulls[g] = valid != nil && valid[s] == 0
	}

	switch agg.op {
	case CountValid, CountAll:
		vals := make([]int64, groups)
		for g, s := range ctr.slots {
			vals[g] = agg.counts[s]
		}
		return newResult(types.T_int64.ToType(), vals, nil, ctr.mp)
	case Min, Max:
		rows := make([]int64, groups)
		for g, s := range ctr.slots {
			rows[g] = agg.rows[s]
		}
		return vector.Gather(agg.values, rows, ctr.mp)
	case Sum:
		switch agg.kind {
		case dispatch.Signed:
			if typ := agg.values.Type(); typ.Oid == types.T_decimal64 {
				vals := make([]types.Decimal64, groups)
				for g, s := range ctr.slots {
					vals[g] = types.Decimal64(agg.ints[s])
				}
				return newResult(types.New(types.T_decimal64, typ.Scale), vals, isNulls, ctr.mp)
			}
			vals := make([]int64, groups)
			for g, s := range ctr.slots {
				vals[g] = agg.ints[s]
			}
			return newResult(types.T_int64.ToType(), vals, isNulls, ctr.mp)
		case dispatch.Unsigned:
			vals := make([]uint64, groups)
			for g, s := range ctr.slots {
				vals[g] = agg.uints[s]
			}
			return newResult(types.T_uint64.ToType(), vals, isNulls, ctr.mp)
		}
	}
	// float sums and sums of squares
	vals := make([]float64, groups)
	for g, s := range ctr.slots {
		vals[g] = math.Float64frombits(agg.floats[s])
	}
	return newResult(float64Type, vals, isNulls, ctr.mp)
}

func newResult[T any](typ types.Type, vals []T, isNulls []bool, mp *mpool.MPool) (*vector.Vector, error) {
	v := vector.NewVec(typ)
	if err := vector.AppendFixedList(v, vals, isNulls, mp); err != nil {
		v.Free(mp)
		return nil, err
	}
	return v, nil
}

// take hands out the result of simple aggregation idx; a second request
// for the same result gets a copy.
func (ctr *container) take(idx int) (*vector.Vector, error) {
	agg := ctr.simples[idx]
	if agg.taken {
		return agg.result.Dup(ctr.mp)
	}
	agg.taken = true
	return agg.result, nil
}

func (ctr *container) recompose(reqs []Request) (results []*vector.Vector, err error) {
	for _, agg := range ctr.simples {
		if agg.result, err = ctr.finish(agg); err != nil {
			return nil, err
		}
	}
	defer func() {
		if err != nil {
			for _, res := range results {
				res.Free(ctr.mp)
			}
			results = nil
		}
	}()
	for r, c := range ctr.reqs {
		var res *vector.Vector
		switch c.op {
		case Avg:
			res, err = ctr.average(c.parts[0], c.parts[1])
		case Variance, Std:
			res, err = ctr.variance(c.parts[0], c.parts[1], c.parts[2], c.op == Std)
		case Median:
			res, err = ctr.median(reqs[r].Values)
		default:
			res, err = ctr.take(c.parts[0])
		}
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// sumsAndCounts reads a sum result as float64 next to its count result.
func (ctr *container) sumsAndCounts(sumIdx, cntIdx int) ([]float64, []int64, error) {
	sum, cnt := ctr.simples[sumIdx].result, ctr.simples[cntIdx].result
	if sum.Length() != cnt.Length() {
		return nil, nil, moerr.NewSizeNotMatch(ctr.proc.Ctx,
			fmt.Sprintf("sum has %d groups, count has %d", sum.Length(), cnt.Length()))
	}
	ops, err := dispatch.Numeric(sum.GetType().Oid, "SUM")
	if err != nil {
		return nil, nil, err
	}
	at := ops.Float64At(sum.View())
	sums := make([]float64, sum.Length())
	for g := range sums {
		sums[g] = at(g)
	}
	return sums, vector.MustFixedCol[int64](cnt), nil
}

func (ctr *container) average(sumIdx, cntIdx int) (*vector.Vector, error) {
	sums, counts, err := ctr.sumsAndCounts(sumIdx, cntIdx)
	if err != nil {
		return nil, err
	}
	vals := make([]float64, len(sums))
	isNulls := make([]bool, len(sums))
	for g := range vals {
		if counts[g] == 0 {
			isNulls[g] = true
			continue
		}
		vals[g] = sums[g] / float64(counts[g])
	}
	return newResult(float64Type, vals, isNulls, ctr.mp)
}

// variance is the sample variance, with one degree of freedom taken.
func (ctr *container) variance(sumIdx, sqIdx, cntIdx int, std bool) (*vector.Vector, error) {
	sums, counts, err := ctr.sumsAndCounts(sumIdx, cntIdx)
	if err != nil {
		return nil, err
	}
	sq := ctr.simples[sqIdx].result
	if sq.Length() != len(sums) {
		return nil, moerr.NewSizeNotMatch(ctr.proc.Ctx,
			fmt.Sprintf("sum of squares has %d groups, sum has %d", sq.Length(), len(sums)))
	}
	squares := vector.MustFixedCol[float64](sq)
	vals := make([]float64, len(sums))
	isNulls := make([]bool, len(sums))
	for g := range vals {
		n := float64(counts[g])
		if counts[g] < 2 {
			isNulls[g] = true
			continue
		}
		v := (squares[g] - sums[g]*sums[g]/n) / (n - 1)
		if v < 0 {
			v = 0
		}
		if std {
			v = math.Sqrt(v)
		}
		vals[g] = v
	}
	return newResult(float64Type, vals, isNulls, ctr.mp)
}

func (ctr *container) free() {
	for _, agg := range ctr.simples {
		if agg.result != nil && !agg.taken {
			agg.result.Free(ctr.mp)
		}
		agg.result = nil
	}
	if ctr.ht != nil {
		ctr.ht.Free(ctr.mp)
	}
}
