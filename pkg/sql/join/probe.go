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
	"time"

	"github.com/RoaringBitmap/roaring"
	"github.com/matrixorigin/columnar/pkg/common/moerr"
	"github.com/matrixorigin/columnar/pkg/compare"
	"github.com/matrixorigin/columnar/pkg/container/batch"
	v2 "github.com/matrixorigin/columnar/pkg/util/metric/v2"
	"github.com/matrixorigin/columnar/pkg/vm/process"
	"go.uber.org/zap"
)

// Probe looks up the probeOn key of every row of probe. In the result
// Left holds probe rows and Right holds build rows. Probe does not change
// hj and may run concurrently with other probes.
func (hj *HashJoin) Probe(proc *process.Process, probe batch.View, probeOn []int, kind Kind) (*Indices, error) {
	if int(kind) >= len(outerOf) {
		return nil, moerr.NewInvalidInput(proc.Ctx, "unknown join kind %d", kind)
	}
	return hj.probe(proc, probe, probeOn, outerOf[kind])
}

// probe runs in two passes over the probe rows. The first counts the
// output rows of every chunk, so that the second writes each chunk at its
// exact offset and the result is never undersized.
func (hj *HashJoin) probe(proc *process.Process, probe batch.View, probeOn []int, out outer) (*Indices, error) {
	start := time.Now()
	if !hj.IsValid() {
		return nil, moerr.NewInvalidState(proc.Ctx, "probe of a freed hash join")
	}
	if len(probeOn) != len(hj.buildOn) {
		return nil, moerr.NewInvalidInput(proc.Ctx, "%d probe keys for %d build keys", len(probeOn), len(hj.buildOn))
	}
	keys, err := selectKeys(proc, probe, probeOn, "probe")
	if err != nil {
		return nil, err
	}
	hasher, err := compare.NewRowHasher(keys)
	if err != nil {
		return nil, err
	}
	cmp, err := compare.New(keys, hj.keys, compare.Options{NullEquality: hj.opts.NullEquality})
	if err != nil {
		return nil, err
	}
	skipNulls := hj.opts.NullEquality == compare.NullsUnequal
	n := probe.RowCount()

	// each calls fn on every build row matching probe row i
	each := func(i int, fn func(row int64)) {
		if skipNulls && hasher.HasNull(i) {
			return
		}
		hj.mm.Find(hasher.Hash(i), func(row int64) bool {
			if cmp.Equal(i, int(row)) {
				fn(row)
			}
			return true
		})
	}

	chunks := proc.Chunks(n)
	counts := make([]int, chunks)
	var matched []*roaring.Bitmap
	if out.build {
		matched = make([]*roaring.Bitmap, chunks)
	}
	if err = proc.For(n, func(chunk, lo, hi int) error {
		var bm *roaring.Bitmap
		if matched != nil {
			bm = roaring.New()
			matched[chunk] = bm
		}
		cnt := 0
		for i := lo; i < hi; i++ {
			m := 0
			each(i, func(row int64) {
				m++
				if bm != nil {
					bm.Add(uint32(row))
				}
			})
			if m == 0 && out.probe {
				m = 1
			}
			cnt += m
		}
		counts[chunk] = cnt
		return nil
	}); err != nil {
		return nil, err
	}

	pairs := 0
	for c, cnt := range counts {
		counts[c] = pairs
		pairs += cnt
	}
	total := pairs
	var unmatched *roaring.Bitmap
	if out.build {
		unmatched = roaring.FastOr(matched...)
		unmatched.Flip(0, uint64(hj.build.RowCount()))
		total += int(unmatched.GetCardinality())
	}

	idx := &Indices{
		Left:  make([]int64, total),
		Right: make([]int64, total),
	}
	if err = proc.For(n, func(chunk, lo, hi int) error {
		k := counts[chunk]
		for i := lo; i < hi; i++ {
			first := k
			each(i, func(row int64) {
				idx.Left[k], idx.Right[k] = int64(i), row
				k++
			})
			if k == first && out.probe {
				idx.Left[k], idx.Right[k] = int64(i), -1
				k++
			}
		}
		end := pairs
		if chunk+1 < len(counts) {
			end = counts[chunk+1]
		}
		if k != end {
			return moerr.NewInternalError(proc.Ctx, "probe chunk %d wrote %d rows, counted %d",
				chunk, k-counts[chunk], end-counts[chunk])
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if unmatched != nil {
		k := pairs
		it := unmatched.Iterator()
		for it.HasNext() {
			idx.Left[k], idx.Right[k] = -1, int64(it.Next())
			k++
		}
	}

	v2.JoinProbeRowsCounter.Add(float64(n))
	v2.JoinProbeDurationHistogram.Observe(time.Since(start).Seconds())
	proc.Debug("hash join probe",
		zap.Int("rows", n),
		zap.Int("output", total),
		zap.Bool("outer-probe", out.probe),
		zap.Bool("outer-build", out.build))
	return idx, nil
}
