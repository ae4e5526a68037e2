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
	"math"
	"time"

	hll "github.com/axiomhq/hyperloglog"
	"github.com/matrixorigin/columnar/pkg/common/moerr"
	"github.com/matrixorigin/columnar/pkg/compare"
	"github.com/matrixorigin/columnar/pkg/container/batch"
	"github.com/matrixorigin/columnar/pkg/container/hashtable"
	v2 "github.com/matrixorigin/columnar/pkg/util/metric/v2"
	"github.com/matrixorigin/columnar/pkg/vm/process"
	"go.uber.org/zap"
)

// Build hashes the buildOn columns of build into a multimap of its rows.
// The returned HashJoin holds one reference.
func Build(proc *process.Process, build batch.View, buildOn []int, opts Options) (*HashJoin, error) {
	start := time.Now()
	keys, err := selectKeys(proc, build, buildOn, "build")
	if err != nil {
		return nil, err
	}
	n := build.RowCount()
	if uint64(n) > math.MaxUint32 {
		return nil, moerr.NewCapacityOverflow(proc.Ctx, "hash join build side of %d rows", n)
	}
	hasher, err := compare.NewRowHasher(keys)
	if err != nil {
		return nil, err
	}
	// the probe needs a comparator between the keys, so check them now
	if _, err = compare.New(keys, keys, compare.Options{}); err != nil {
		return nil, err
	}
	capacity, err := hashtable.PlanCapacity(n, proc.JoinOccupancy)
	if err != nil {
		return nil, err
	}
	mm, err := hashtable.NewMultiMap(capacity, proc.Mp())
	if err != nil {
		return nil, err
	}

	sketches := make([]*hll.Sketch, proc.Chunks(n))
	skipNulls := opts.NullEquality == compare.NullsUnequal
	if err = proc.For(n, func(chunk, lo, hi int) error {
		sk := hll.New()
		sketches[chunk] = sk
		for i := lo; i < hi; i++ {
			if skipNulls && hasher.HasNull(i) {
				continue
			}
			h := hasher.Hash(i)
			if err := mm.Insert(h, int64(i)); err != nil {
				return err
			}
			sk.InsertHash(h)
		}
		return nil
	}); err != nil {
		mm.Free(proc.Mp())
		return nil, err
	}

	sk := hll.New()
	for _, s := range sketches {
		if err = sk.Merge(s); err != nil {
			mm.Free(proc.Mp())
			return nil, moerr.NewInternalError(proc.Ctx, "merge key sketches: %v", err)
		}
	}
	hj := &HashJoin{
		build:   build,
		buildOn: buildOn,
		keys:    keys,
		opts:    opts,
		mp:      proc.Mp(),
		mm:      mm,
	}
	if mm.Len() > 0 {
		hj.distinct = sk.Estimate()
	}
	hj.refCnt.Store(1)

	v2.JoinBuildRowsCounter.Add(float64(n))
	v2.JoinBuildDistinctKeysGauge.Set(float64(hj.distinct))
	v2.JoinBuildDurationHistogram.Observe(time.Since(start).Seconds())
	proc.Debug("hash join build",
		zap.Int("rows", n),
		zap.Int("keys", mm.Len()),
		zap.Uint64("distinct-keys", hj.distinct),
		zap.Int("capacity", mm.Cap()),
		zap.Int64("size", mm.Size()))
	return hj, nil
}

func selectKeys(proc *process.Process, v batch.View, on []int, side string) (batch.View, error) {
	if len(on) == 0 {
		return batch.View{}, moerr.NewInvalidInput(proc.Ctx, "no %s key columns", side)
	}
	for _, c := range on {
		if c < 0 || c >= v.ColumnCount() {
			return batch.View{}, moerr.NewInvalidInput(proc.Ctx, "%s key column %d out of %d columns", side, c, v.ColumnCount())
		}
	}
	return v.Select(on)
}

// Rows is the row count of the build relation.
func (hj *HashJoin) Rows() int {
	return hj.build.RowCount()
}

// DistinctKeys estimates how many distinct keys the table holds.
func (hj *HashJoin) DistinctKeys() uint64 {
	return hj.distinct
}

func (hj *HashJoin) IsValid() bool {
	return hj.mm != nil
}

// IncRef adds cnt owners that will each call Free.
func (hj *HashJoin) IncRef(cnt int) {
	hj.refCnt.Add(int64(cnt))
}

// Free drops one reference; the last one releases the table.
func (hj *HashJoin) Free() {
	if hj.refCnt.Add(-1) != 0 {
		return
	}
	if hj.mm != nil {
		hj.mm.Free(hj.mp)
		hj.mm = nil
	}
}
