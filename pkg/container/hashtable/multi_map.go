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

package hashtable

import (
	"sync/atomic"

	"github.com/matrixorigin/columnar/pkg/common/mpool"
)

// MultiMap maps a key hash to every row inserted with it; duplicate keys
// take one slot each. Inserts may run concurrently. Once every insert has
// returned the map is read only and Find may run concurrently.
type MultiMap struct {
	rawRows   []byte
	rawHashes []byte
	rows      []int64
	hashes    []uint64
	mask      uint64
	cnt       atomic.Int64
}

func NewMultiMap(capacity int, mp *mpool.MPool) (*MultiMap, error) {
	if err := checkCapacity(capacity); err != nil {
		return nil, err
	}
	rawRows, rows, err := allocSlots(capacity, mp, Empty)
	if err != nil {
		return nil, err
	}
	rawHashes, hashes, err := allocSlots(capacity, mp, uint64(0))
	if err != nil {
		mp.Free(rawRows)
		return nil, err
	}
	return &MultiMap{
		rawRows:   rawRows,
		rawHashes: rawHashes,
		rows:      rows,
		hashes:    hashes,
		mask:      uint64(capacity - 1),
	}, nil
}

func (mm *MultiMap) Insert(hash uint64, row int64) error {
	s := hash & mm.mask
	for i := 0; i < len(mm.rows); i++ {
		if atomic.LoadInt64(&mm.rows[s]) == Empty &&
			atomic.CompareAndSwapInt64(&mm.rows[s], Empty, row) {
			// only the winner of the slot writes its hash
			mm.hashes[s] = hash
			mm.cnt.Add(1)
			return nil
		}
		s = (s + 1) & mm.mask
	}
	return overflow(len(mm.rows))
}

// Find calls fn on every row inserted with hash until fn returns false.
// Rows of other keys may share the hash, fn has to verify the key.
func (mm *MultiMap) Find(hash uint64, fn func(row int64) bool) {
	s := hash & mm.mask
	for i := 0; i < len(mm.rows); i++ {
		row := mm.rows[s]
		if row == Empty {
			return
		}
		if mm.hashes[s] == hash && !fn(row) {
			return
		}
		s = (s + 1) & mm.mask
	}
}

func (mm *MultiMap) Len() int {
	return int(mm.cnt.Load())
}

func (mm *MultiMap) Cap() int {
	return len(mm.rows)
}

func (mm *MultiMap) Size() int64 {
	return int64(len(mm.rawRows) + len(mm.rawHashes))
}

func (mm *MultiMap) Free(mp *mpool.MPool) {
	if mm.rawRows != nil {
		mp.Free(mm.rawRows)
		mp.Free(mm.rawHashes)
		mm.rawRows, mm.rawHashes = nil, nil
		mm.rows, mm.hashes = nil, nil
	}
}
