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

// Package parallel runs data parallel loops on a shared goroutine pool.
// A call to For is one launch: it returns only after every chunk has
// finished, so it also acts as the synchronization barrier.
package parallel

import (
	"context"
	"runtime"
	"sync"

	"github.com/matrixorigin/columnar/pkg/common/moerr"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/multierr"
)

// DefaultGrain is the chunk size used by pools created without one.
var DefaultGrain = 8192

type Pool struct {
	pool  *ants.Pool
	grain int
}

// NewPool creates a pool of size goroutines handing out chunks of grain
// rows. size <= 0 means runtime.NumCPU(); grain <= 0 means DefaultGrain.
func NewPool(size, grain int) (*Pool, error) {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, moerr.NewInternalErrorNoCtx("create worker pool: %v", err)
	}
	return &Pool{pool: pool, grain: grain}, nil
}

// Release stops the pool. Goroutines exit once their current task ends.
func (p *Pool) Release() {
	p.pool.Release()
}

func (p *Pool) Size() int {
	return p.pool.Cap()
}

func (p *Pool) Grain() int {
	if p.grain > 0 {
		return p.grain
	}
	return DefaultGrain
}

// Chunks returns how many chunks For(n) runs, so that callers can keep
// one piece of state per chunk.
func (p *Pool) Chunks(n int) int {
	if n <= 0 {
		return 0
	}
	g := p.Grain()
	return (n + g - 1) / g
}

// For calls fn(chunk, lo, hi) for consecutive [lo, hi) ranges covering
// [0, n). Chunks run concurrently. A panic inside fn becomes a device
// fault; every error is returned, combined.
func (p *Pool) For(ctx context.Context, n int, fn func(chunk, lo, hi int) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	chunks := p.Chunks(n)
	if chunks == 0 {
		return nil
	}
	g := p.Grain()
	if chunks == 1 {
		return runChunk(ctx, fn, 0, 0, n)
	}

	errs := make([]error, chunks)
	var wg sync.WaitGroup
	for c := 0; c < chunks; c++ {
		lo, hi := c*g, (c+1)*g
		if hi > n {
			hi = n
		}
		c := c
		wg.Add(1)
		if err := p.pool.Submit(func() {
			defer wg.Done()
			errs[c] = runChunk(ctx, fn, c, lo, hi)
		}); err != nil {
			wg.Done()
			errs[c] = moerr.NewDeviceFault(ctx, "submit chunk %d: %v", c, err)
		}
	}
	wg.Wait()
	return multierr.Combine(errs...)
}

func runChunk(ctx context.Context, fn func(chunk, lo, hi int) error, c, lo, hi int) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = moerr.ConvertPanicError(ctx, e)
		}
	}()
	return fn(c, lo, hi)
}
