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
	"sort"
	"testing"

	"github.com/matrixorigin/columnar/pkg/common/moerr"
	"github.com/matrixorigin/columnar/pkg/common/mpool"
	v2 "github.com/matrixorigin/columnar/pkg/util/metric/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestPlanCapacity(t *testing.T) {
	n, err := PlanCapacity(0, 50)
	require.NoError(t, err)
	require.Equal(t, 16, n)
	n, err = PlanCapacity(100, 50)
	require.NoError(t, err)
	require.Equal(t, 256, n)
	n, err = PlanCapacity(1000, 90)
	require.NoError(t, err)
	require.Equal(t, 2048, n)

	_, err = PlanCapacity(10, 0)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidInput))
	_, err = PlanCapacity(10, 100)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidInput))

	_, err = NewAggTable(100, mpool.MustNewZero())
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidInput))
}

func TestAggTableConcurrentInsert(t *testing.T) {
	mp := mpool.MustNewZero()
	keys := make([]int64, 10000)
	for i := range keys {
		keys[i] = int64(i % 37)
	}
	capacity, err := PlanCapacity(len(keys), 50)
	require.NoError(t, err)
	ht, err := NewAggTable(capacity, mp)
	require.NoError(t, err)
	eq := func(a, b int64) bool { return keys[a] == keys[b] }

	slots := make([]int, len(keys))
	var g errgroup.Group
	for w := 0; w < 8; w++ {
		w := w
		g.Go(func() error {
			for i := w; i < len(keys); i += 8 {
				s, err := ht.Insert(uint64(keys[i])*0x9e3779b97f4a7c15, int64(i), eq)
				if err != nil {
					return err
				}
				slots[i] = s
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.Equal(t, 37, ht.GroupCount())
	for i := range keys {
		require.Equal(t, slots[i%37], slots[i])
		require.Equal(t, keys[i], keys[ht.Row(slots[i])])
	}
	ht.Free(mp)
	require.Equal(t, int64(0), mp.CurrNB())
}

func TestAggTableOverflow(t *testing.T) {
	mp := mpool.MustNewZero()
	ht, err := NewAggTable(16, mp)
	require.NoError(t, err)
	before := testutil.ToFloat64(v2.HashTableCapacityOverflowCounter)
	eq := func(a, b int64) bool { return a == b }
	for i := 0; i < 16; i++ {
		_, err = ht.Insert(uint64(i), int64(i), eq)
		require.NoError(t, err)
	}
	_, err = ht.Insert(3, 3, eq)
	require.NoError(t, err)
	_, err = ht.Insert(16, 16, eq)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrCapacityOverflow))
	require.Equal(t, before+1, testutil.ToFloat64(v2.HashTableCapacityOverflowCounter))
	ht.Free(mp)
}

func TestMultiMap(t *testing.T) {
	mp := mpool.MustNewZero()
	keys := []int64{5, 7, 5, 9, 5, 7}
	mm, err := NewMultiMap(16, mp)
	require.NoError(t, err)
	var g errgroup.Group
	for i := range keys {
		i := i
		g.Go(func() error {
			// 5 and 9 collide on purpose
			return mm.Insert(uint64(keys[i]%4), int64(i))
		})
	}
	require.NoError(t, g.Wait())
	require.Equal(t, len(keys), mm.Len())

	find := func(key int64) []int64 {
		var rows []int64
		mm.Find(uint64(key%4), func(row int64) bool {
			if keys[row] == key {
				rows = append(rows, row)
			}
			return true
		})
		sort.Slice(rows, func(i, j int) bool { return rows[i] < rows[j] })
		return rows
	}
	require.Equal(t, []int64{0, 2, 4}, find(5))
	require.Equal(t, []int64{1, 5}, find(7))
	require.Equal(t, []int64{3}, find(9))
	require.Empty(t, find(6))

	n := 0
	mm.Find(1, func(int64) bool {
		n++
		return false
	})
	require.Equal(t, 1, n)

	mm.Free(mp)
	require.Equal(t, int64(0), mp.CurrNB())
}

func TestMultiMapOverflow(t *testing.T) {
	mp := mpool.MustNewZero()
	mm, err := NewMultiMap(16, mp)
	require.NoError(t, err)
	for i := 0; i < 16; i++ {
		require.NoError(t, mm.Insert(0, int64(i)))
	}
	err = mm.Insert(0, 16)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrCapacityOverflow))

	rows := 0
	mm.Find(0, func(int64) bool {
		rows++
		return true
	})
	require.Equal(t, 16, rows)
	mm.Free(mp)
}

func TestCombine(t *testing.T) {
	require.NotEqual(t, Combine(1, 2), Combine(2, 1))
	require.Equal(t, Combine(7, 9), Combine(7, 9))
}
