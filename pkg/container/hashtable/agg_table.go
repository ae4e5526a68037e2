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

// AggTable maps a key to the slot of its group. A slot stores the index
// of the first row that reached it, which stands for the whole group.
// Insert is safe for concurrent use.
type AggTable struct {
	rawData []byte
	slots   []int64
	mask    uint64
	groups  atomic.Int64
}

func NewAggTable(capacity int, mp *mpool.MPool) (*AggTable, error) {
	if err := checkCapacity(capacity); err != nil {
		return nil, err
	}
	raw, slots, err := allocSlots(capacity, mp, Empty)
	if err != nil {
		return nil, err
	}
	return &AggTable{
		rawData: raw,
		slots:   slots,
		mask:    uint64(capacity - 1),
	}, nil
}

// Insert returns the slot of row's group, claiming an empty slot when row
// is the first of its group. eq reports whether two rows hold the same key.
func (ht *AggTable) Insert(hash uint64, row int64, eq func(a, b int64) bool) (int, error) {
	s := hash & ht.mask
	for i := 0; i < len(ht.slots); i++ {
		k := atomic.LoadInt64(&ht.slots[s])
		if k == Empty {
			if atomic.CompareAndSwapInt64(&ht.slots[s], Empty, row) {
				ht.groups.Add(1)
				return int(s), nil
			}
			k = atomic.LoadInt64(&ht.slots[s])
		}
		if k == row || eq(k, row) {
			return int(s), nil
		}
		s = (s + 1) & ht.mask
	}
	return -1, overflow(len(ht.slots))
}

// Row returns the representative row of slot s, or Empty.
func (ht *AggTable) Row(s int) int64 {
	return atomic.LoadInt64(&ht.slots[s])
}

func (ht *AggTable) Cap() int {
	return len(ht.slots)
}

func (ht *AggTable) GroupCount() int {
	return int(ht.groups.Load())
}

func (ht *AggTable) Size() int64 {
	return int64(len(ht.rawData))
}

func (ht *AggTable) Free(mp *mpool.MPool) {
	if ht.rawData != nil {
		mp.Free(ht.rawData)
		ht.rawData = nil
		ht.slots = nil
	}
}
