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

// Package mpool is the allocator context handed to every operation.
// It accounts the bytes held by columns and rejects allocations beyond
// its capacity with an out of memory error.
package mpool

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/matrixorigin/columnar/pkg/common/moerr"
	v2 "github.com/matrixorigin/columnar/pkg/util/metric/v2"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	NoLimit = 0

	KB = 1 << 10
	MB = 1 << 20
	GB = 1 << 30
)

type MPoolStats struct {
	NumAlloc      atomic.Int64
	NumFree       atomic.Int64
	NumCurrBytes  atomic.Int64
	HighWaterMark atomic.Int64
}

func (s *MPoolStats) Report() string {
	type report struct {
		NumAlloc      int64 `json:"num_alloc"`
		NumFree       int64 `json:"num_free"`
		NumCurrBytes  int64 `json:"curr_bytes"`
		HighWaterMark int64 `json:"high_water_mark"`
	}
	data, _ := json.Marshal(report{
		NumAlloc:      s.NumAlloc.Load(),
		NumFree:       s.NumFree.Load(),
		NumCurrBytes:  s.NumCurrBytes.Load(),
		HighWaterMark: s.HighWaterMark.Load(),
	})
	return string(data)
}

func (s *MPoolStats) RecordAlloc(sz int64) int64 {
	s.NumAlloc.Add(1)
	curr := s.NumCurrBytes.Add(sz)
	for {
		hw := s.HighWaterMark.Load()
		if curr <= hw || s.HighWaterMark.CompareAndSwap(hw, curr) {
			break
		}
	}
	return curr
}

func (s *MPoolStats) RecordFree(sz int64) int64 {
	s.NumFree.Add(1)
	return s.NumCurrBytes.Add(-sz)
}

type MPool struct {
	tag   string
	cap   int64
	stats MPoolStats
	gauge prometheus.Gauge
}

var globalPools sync.Map

// NewMPool creates a pool named tag that may hold at most cap bytes;
// cap == NoLimit means unbounded.
func NewMPool(tag string, cap int64) (*MPool, error) {
	if cap < 0 {
		return nil, moerr.NewInvalidInputNoCtx("mpool %s capacity %d", tag, cap)
	}
	mp := &MPool{
		tag:   tag,
		cap:   cap,
		gauge: v2.MemMPoolAllocatedSizeGauge(tag),
	}
	globalPools.Store(mp, tag)
	return mp, nil
}

func MustNewZero() *MPool {
	mp, err := NewMPool("zero", NoLimit)
	if err != nil {
		panic(err)
	}
	return mp
}

func DeleteMPool(mp *MPool) {
	if mp == nil {
		return
	}
	globalPools.Delete(mp)
}

func (mp *MPool) Tag() string {
	return mp.tag
}

func (mp *MPool) Cap() int64 {
	return mp.cap
}

func (mp *MPool) CurrNB() int64 {
	return mp.stats.NumCurrBytes.Load()
}

func (mp *MPool) Stats() *MPoolStats {
	return &mp.stats
}

// Alloc returns a zeroed buffer of sz bytes.
func (mp *MPool) Alloc(sz int) ([]byte, error) {
	if sz < 0 {
		return nil, moerr.NewInternalErrorNoCtx("mpool alloc size %d", sz)
	}
	if sz == 0 {
		return nil, nil
	}
	curr := mp.stats.RecordAlloc(int64(sz))
	if mp.cap > 0 && curr > mp.cap {
		mp.stats.RecordFree(int64(sz))
		v2.MemMPoolAllocFailedCounter.Inc()
		return nil, moerr.NewOOM(context.TODO())
	}
	mp.gauge.Set(float64(curr))
	return make([]byte, sz), nil
}

// Realloc grows old to sz bytes, keeping its content.
func (mp *MPool) Realloc(old []byte, sz int) ([]byte, error) {
	if sz <= cap(old) {
		return old[:sz], nil
	}
	ret, err := mp.Alloc(sz)
	if err != nil {
		return nil, err
	}
	copy(ret, old)
	mp.Free(old)
	return ret, nil
}

// Grow returns old extended to sz bytes, growing the capacity
// geometrically the way append does.
func (mp *MPool) Grow(old []byte, sz int) ([]byte, error) {
	if sz <= cap(old) {
		return old[:sz], nil
	}
	newCap := cap(old) * 2
	if newCap < sz {
		newCap = sz
	}
	if newCap < 64 {
		newCap = 64
	}
	ret, err := mp.Realloc(old[:cap(old)], newCap)
	if err != nil {
		return nil, err
	}
	return ret[:sz], nil
}

func (mp *MPool) Free(bs []byte) {
	if cap(bs) == 0 {
		return
	}
	curr := mp.stats.RecordFree(int64(cap(bs)))
	mp.gauge.Set(float64(curr))
}

// ReportMemUsage returns a json report of the pool named tag, or of
// every pool when tag is empty.
func ReportMemUsage(tag string) string {
	var total MPoolStats
	globalPools.Range(func(k, v any) bool {
		mp := k.(*MPool)
		if tag == "" || tag == v.(string) {
			total.NumAlloc.Add(mp.stats.NumAlloc.Load())
			total.NumFree.Add(mp.stats.NumFree.Load())
			total.NumCurrBytes.Add(mp.stats.NumCurrBytes.Load())
			total.HighWaterMark.Add(mp.stats.HighWaterMark.Load())
		}
		return true
	})
	return total.Report()
}

var (
	defaultOnce sync.Once
	defaultPool *MPool
)

// SetDefault installs the process wide default pool. Only the first
// call has an effect; it reports whether mp was installed.
func SetDefault(mp *MPool) bool {
	installed := false
	defaultOnce.Do(func() {
		defaultPool = mp
		installed = true
	})
	return installed
}

// Default returns the pool installed by SetDefault, or an unbounded
// pool when none was installed.
func Default() *MPool {
	defaultOnce.Do(func() {
		defaultPool = MustNewZero()
	})
	return defaultPool
}
