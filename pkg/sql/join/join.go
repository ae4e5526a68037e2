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

// Package join implements hash joins. The build relation is hashed once
// into a multimap of its rows; any number of probe relations are then
// looked up in it, concurrently if need be. Every match is verified on the
// full key, not just its hash.
package join

import (
	"bytes"
	"time"

	"github.com/matrixorigin/columnar/pkg/common/moerr"
	"github.com/matrixorigin/columnar/pkg/container/batch"
	"github.com/matrixorigin/columnar/pkg/container/vector"
	v2 "github.com/matrixorigin/columnar/pkg/util/metric/v2"
	"github.com/matrixorigin/columnar/pkg/vm/process"
	"go.uber.org/zap"
)

const opName = "hash join"

func String(buf *bytes.Buffer, kind Kind) {
	buf.WriteString(opName)
	buf.WriteString(": ")
	buf.WriteString(kind.String())
	buf.WriteString(" join")
}

// Join joins left and right on leftOn[i] == rightOn[i] for every i. The
// smaller relation is the one hashed. The output holds the common
// columns first, coalesced from both sides, then the other columns of
// left, then the other columns of right. Row order is unspecified.
func Join(proc *process.Process, left, right batch.View, leftOn, rightOn []int,
	common []ColumnPair, kind Kind, opts Options) (*batch.Batch, error) {
	if int(kind) >= len(outerOf) {
		return nil, moerr.NewInvalidInput(proc.Ctx, "unknown join kind %d", kind)
	}
	if len(leftOn) != len(rightOn) {
		return nil, moerr.NewInvalidInput(proc.Ctx, "%d left keys for %d right keys", len(leftOn), len(rightOn))
	}
	if err := validateCommon(proc, left, right, leftOn, rightOn, common); err != nil {
		return nil, err
	}
	idx, err := joinIndices(proc, left, right, leftOn, rightOn, kind, opts)
	if err != nil {
		return nil, err
	}
	return materialize(proc, left, right, common, idx)
}

// joinIndices hashes the smaller relation. When that is left, the roles
// of the two sides are swapped for the probe and swapped back after.
func joinIndices(proc *process.Process, left, right batch.View, leftOn, rightOn []int,
	kind Kind, opts Options) (*Indices, error) {
	out := outerOf[kind]
	swap := left.RowCount() < right.RowCount()
	build, buildOn, probe, probeOn := right, rightOn, left, leftOn
	if swap {
		build, buildOn, probe, probeOn = left, leftOn, right, rightOn
		out = outer{probe: out.build, build: out.probe}
	}
	proc.Debug(opName,
		zap.Stringer("kind", kind),
		zap.Int("left", left.RowCount()),
		zap.Int("right", right.RowCount()),
		zap.Bool("build-left", swap))

	hj, err := Build(proc, build, buildOn, opts)
	if err != nil {
		return nil, err
	}
	defer hj.Free()
	idx, err := hj.probe(proc, probe, probeOn, out)
	if err != nil {
		return nil, err
	}
	if swap {
		idx.Left, idx.Right = idx.Right, idx.Left
	}
	return idx, nil
}

// InnerJoin joins probe, as the left relation, with the build relation
// of hj as the right one.
func (hj *HashJoin) InnerJoin(proc *process.Process, probe batch.View, probeOn []int, common []ColumnPair) (*batch.Batch, error) {
	return hj.join(proc, probe, probeOn, common, Inner)
}

// LeftJoin keeps every row of probe.
func (hj *HashJoin) LeftJoin(proc *process.Process, probe batch.View, probeOn []int, common []ColumnPair) (*batch.Batch, error) {
	return hj.join(proc, probe, probeOn, common, Left)
}

// FullJoin keeps every row of probe and of the build relation.
func (hj *HashJoin) FullJoin(proc *process.Process, probe batch.View, probeOn []int, common []ColumnPair) (*batch.Batch, error) {
	return hj.join(proc, probe, probeOn, common, Full)
}

func (hj *HashJoin) join(proc *process.Process, probe batch.View, probeOn []int, common []ColumnPair, kind Kind) (*batch.Batch, error) {
	if err := validateCommon(proc, probe, hj.build, probeOn, hj.buildOn, common); err != nil {
		return nil, err
	}
	idx, err := hj.Probe(proc, probe, probeOn, kind)
	if err != nil {
		return nil, err
	}
	return materialize(proc, probe, hj.build, common, idx)
}

// validateCommon checks that every common pair is one of the key pairs,
// that paired columns have one type and that no column is paired twice.
func validateCommon(proc *process.Process, left, right batch.View, leftOn, rightOn []int, common []ColumnPair) error {
	usedL := make(map[int]bool, len(common))
	usedR := make(map[int]bool, len(common))
	for _, p := range common {
		if p.Left < 0 || p.Left >= left.ColumnCount() || p.Right < 0 || p.Right >= right.ColumnCount() {
			return moerr.NewInvalidInput(proc.Ctx, "common column pair (%d, %d) out of range", p.Left, p.Right)
		}
		if usedL[p.Left] || usedR[p.Right] {
			return moerr.NewInvalidInput(proc.Ctx, "common column pair (%d, %d) reuses a column", p.Left, p.Right)
		}
		usedL[p.Left], usedR[p.Right] = true, true
		isKey := false
		for i := range leftOn {
			if i < len(rightOn) && leftOn[i] == p.Left && rightOn[i] == p.Right {
				isKey = true
				break
			}
		}
		if !isKey {
			return moerr.NewInvalidInput(proc.Ctx, "common column pair (%d, %d) is not a key pair", p.Left, p.Right)
		}
		if !vector.SameType(left.Col(p.Left), right.Col(p.Right)) {
			return moerr.NewInvalidInput(proc.Ctx, "common column pair (%d, %d) joins %s with %s",
				p.Left, p.Right, left.Col(p.Left).Type(), right.Col(p.Right).Type())
		}
	}
	return nil
}

func materialize(proc *process.Process, left, right batch.View, common []ColumnPair, idx *Indices) (*batch.Batch, error) {
	start := time.Now()
	mp := proc.Mp()
	sharedL := make(map[int]bool, len(common))
	sharedR := make(map[int]bool, len(common))
	vecs := make([]*vector.Vector, 0, left.ColumnCount()+right.ColumnCount()-len(common))
	fail := func(err error) (*batch.Batch, error) {
		for _, v := range vecs {
			v.Free(mp)
		}
		return nil, err
	}

	for _, p := range common {
		sharedL[p.Left], sharedR[p.Right] = true, true
		v, err := vector.GatherCoalesce(left.Col(p.Left), idx.Left, right.Col(p.Right), idx.Right, mp)
		if err != nil {
			return fail(err)
		}
		vecs = append(vecs, v)
	}
	for j, col := range left.Cols() {
		if sharedL[j] {
			continue
		}
		v, err := vector.Gather(col, idx.Left, mp)
		if err != nil {
			return fail(err)
		}
		vecs = append(vecs, v)
	}
	for j, col := range right.Cols() {
		if sharedR[j] {
			continue
		}
		v, err := vector.Gather(col, idx.Right, mp)
		if err != nil {
			return fail(err)
		}
		vecs = append(vecs, v)
	}
	bat, err := batch.FromVectors(vecs...)
	if err != nil {
		return fail(err)
	}
	bat.SetRowCount(idx.Len())

	v2.JoinOutputRowsCounter.Add(float64(idx.Len()))
	proc.Debug("hash join output",
		zap.Int("rows", idx.Len()),
		zap.Int("columns", len(vecs)),
		zap.Duration("materialize", time.Since(start)))
	return bat, nil
}
