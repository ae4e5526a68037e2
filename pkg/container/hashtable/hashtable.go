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

// Package hashtable holds the fixed capacity, open addressing tables the
// group-by and join operators build. Tables never rehash: the caller
// sizes them up front with PlanCapacity and an insert into a full table
// is reported as a capacity overflow.
package hashtable

import (
	"math"
	"math/bits"
	"unsafe"

	"github.com/matrixorigin/columnar/pkg/common/moerr"
	"github.com/matrixorigin/columnar/pkg/common/mpool"
	"github.com/matrixorigin/columnar/pkg/container/types"
	v2 "github.com/matrixorigin/columnar/pkg/util/metric/v2"
)

// Empty marks an unused slot.
const Empty int64 = -1

const minCapacity = 16

const (
	m1 = 0xa0761d6478bd642f
	m2 = 0xe7037ed1a0b428db
	m5 = 0x1d8e4e27c47d124f
)

func mix(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	return hi ^ lo
}

// Combine folds the hash of one more key column into seed.
func Combine(seed, h uint64) uint64 {
	return mix(m5^seed, mix(h^m2, seed^m1))
}

// PlanCapacity returns the slot count of a table that holds rows entries
// at no more than occupancy percent.
func PlanCapacity(rows int, occupancy int) (int, error) {
	if occupancy <= 0 || occupancy >= 100 {
		return 0, moerr.NewInvalidInputNoCtx("hash table occupancy %d not in (0, 100)", occupancy)
	}
	if rows < 0 {
		return 0, moerr.NewInvalidInputNoCtx("hash table rows %d", rows)
	}
	if rows > math.MaxInt64/100 {
		return 0, moerr.NewCapacityOverflow(moerr.Context(), "hash table for %d rows", rows)
	}
	want := uint64(rows)*100/uint64(occupancy) + 1
	if want < minCapacity {
		want = minCapacity
	}
	if want > 1<<62 {
		return 0, moerr.NewCapacityOverflow(moerr.Context(), "hash table for %d rows", rows)
	}
	return 1 << bits.Len64(want-1), nil
}

func checkCapacity(capacity int) error {
	if capacity <= 0 || capacity&(capacity-1) != 0 {
		return moerr.NewInvalidInputNoCtx("hash table capacity %d is not a power of two", capacity)
	}
	return nil
}

func allocSlots[T any](capacity int, mp *mpool.MPool, init T) ([]byte, []T, error) {
	var zero T
	raw, err := mp.Alloc(capacity * int(unsafe.Sizeof(zero)))
	if err != nil {
		return nil, nil, err
	}
	slots := types.DecodeSlice[T](raw)
	for i := range slots {
		slots[i] = init
	}
	return raw, slots, nil
}

func overflow(capacity int) error {
	v2.HashTableCapacityOverflowCounter.Inc()
	return moerr.NewCapacityOverflow(moerr.Context(), "hash table of %d slots is full", capacity)
}
