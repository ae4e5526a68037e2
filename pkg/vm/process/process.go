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

// Package process carries the explicit execution context every operator
// takes: the allocator, the worker pool and the hash table tuning.
package process

import (
	"context"

	"github.com/google/uuid"
	"github.com/matrixorigin/columnar/pkg/common/moerr"
	"github.com/matrixorigin/columnar/pkg/common/mpool"
	"github.com/matrixorigin/columnar/pkg/common/parallel"
	"github.com/matrixorigin/columnar/pkg/config"
	"github.com/matrixorigin/columnar/pkg/logutil"
	"go.uber.org/zap"
)

const DefaultOccupancy = 50

// Process is the execution stream of an operator call. Work issued on
// one Process runs in program order.
type Process struct {
	Ctx context.Context

	id   uuid.UUID
	mp   *mpool.MPool
	pool *parallel.Pool

	ownPool bool

	GroupByOccupancy int
	JoinOccupancy    int
}

// New creates a Process on mp and pool. A nil mp falls back to the
// process wide default pool.
func New(ctx context.Context, mp *mpool.MPool, pool *parallel.Pool) *Process {
	if mp == nil {
		mp = mpool.Default()
	}
	proc := &Process{
		id:               uuid.New(),
		mp:               mp,
		pool:             pool,
		GroupByOccupancy: DefaultOccupancy,
		JoinOccupancy:    DefaultOccupancy,
	}
	proc.Ctx = logutil.WithFields(ctx, zap.String("proc", proc.id.String()))
	return proc
}

// NewFromConfig sets up logging, the default allocator and a worker pool
// from cfg. The caller must call Free.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Process, error) {
	if err := cfg.Validate(ctx); err != nil {
		return nil, err
	}
	logutil.SetupLogger(&cfg.Log)
	mp, err := mpool.NewMPool("default", cfg.MPool.Capacity)
	if err != nil {
		return nil, err
	}
	if !mpool.SetDefault(mp) {
		mpool.DeleteMPool(mp)
		mp = mpool.Default()
	}
	pool, err := parallel.NewPool(cfg.Workers.Size, cfg.Workers.GrainRows)
	if err != nil {
		return nil, err
	}
	proc := New(ctx, mp, pool)
	proc.ownPool = true
	proc.GroupByOccupancy = cfg.HashTable.GroupByOccupancy
	proc.JoinOccupancy = cfg.HashTable.JoinOccupancy
	logutil.Info(proc.Ctx, "process created",
		zap.Int("workers", pool.Size()),
		zap.Int("grain", pool.Grain()),
		zap.Int64("mpool-capacity", mp.Cap()))
	return proc, nil
}

// Free releases the worker pool if the Process created it.
func (proc *Process) Free() {
	if proc.ownPool && proc.pool != nil {
		proc.pool.Release()
		proc.pool = nil
	}
}

func (proc *Process) Id() string {
	return proc.id.String()
}

func (proc *Process) Mp() *mpool.MPool {
	return proc.mp
}

func (proc *Process) GetMPool() *mpool.MPool {
	return proc.mp
}

// Pool returns the worker pool; a Process without one is invalid input
// for every parallel operator.
func (proc *Process) Pool() (*parallel.Pool, error) {
	if proc.pool == nil {
		return nil, moerr.NewInvalidInput(proc.Ctx, "process %s has no worker pool", proc.Id())
	}
	return proc.pool, nil
}

// For runs fn over [0, n) on the worker pool.
func (proc *Process) For(n int, fn func(chunk, lo, hi int) error) error {
	pool, err := proc.Pool()
	if err != nil {
		return err
	}
	return pool.For(proc.Ctx, n, fn)
}

// Chunks returns how many chunks For(n) hands out.
func (proc *Process) Chunks(n int) int {
	if proc.pool == nil {
		return 0
	}
	return proc.pool.Chunks(n)
}

func (proc *Process) Debug(msg string, fields ...zap.Field) {
	logutil.Debug(proc.Ctx, msg, fields...)
}

func (proc *Process) Info(msg string, fields ...zap.Field) {
	logutil.Info(proc.Ctx, msg, fields...)
}

func (proc *Process) Warn(msg string, fields ...zap.Field) {
	logutil.Warn(proc.Ctx, msg, fields...)
}

func (proc *Process) Error(msg string, fields ...zap.Field) {
	logutil.Error(proc.Ctx, msg, fields...)
}
