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

package compare

import (
	"testing"

	"github.com/matrixorigin/columnar/pkg/common/moerr"
	"github.com/matrixorigin/columnar/pkg/common/mpool"
	"github.com/matrixorigin/columnar/pkg/container/batch"
	"github.com/matrixorigin/columnar/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func newTable(t *testing.T, mp *mpool.MPool) batch.View {
	// rows: (1,"b") (1,"a") (null,"a") (2,null) (1,"b")
	ints := testutil.NewInt64Vector(t, mp, []int64{1, 1, 0, 2, 1}, 2)
	strs := testutil.NewStringVector(t, mp, []string{"b", "a", "a", "", "b"}, 3)
	return testutil.NewBatch(t, ints, strs).View()
}

func TestReflexive(t *testing.T) {
	v := newTable(t, mpool.MustNewZero())
	c, err := New(v, v, Options{NullEquality: NullsEqual})
	require.NoError(t, err)
	for i := 0; i < v.RowCount(); i++ {
		require.True(t, c.Equal(i, i))
		require.False(t, c.Less(i, i))
	}
	require.True(t, c.Equal(0, 4))
	require.False(t, c.Equal(0, 1))

	c, err = New(v, v, Options{})
	require.NoError(t, err)
	require.False(t, c.Equal(2, 2))
	require.False(t, c.Equal(3, 3))
	require.True(t, c.Equal(0, 4))
}

func TestLexicographic(t *testing.T) {
	v := newTable(t, mpool.MustNewZero())
	c, err := New(v, v, Options{})
	require.NoError(t, err)
	require.True(t, c.Less(1, 0))
	require.True(t, c.Less(2, 1))
	require.True(t, c.Less(0, 3))
	require.Equal(t, 0, c.Compare(0, 4))

	c, err = New(v, v, Options{NullOrder: NullsLargest})
	require.NoError(t, err)
	require.True(t, c.Less(1, 2))
	require.True(t, c.Less(0, 3))

	c, err = New(v, v, Options{Orders: []Order{Descending, Ascending}})
	require.NoError(t, err)
	require.True(t, c.Less(3, 0))
	require.True(t, c.Less(1, 0))
	// a null is the smallest value, so it sorts last when descending
	require.True(t, c.Less(0, 2))
}

func TestBadInput(t *testing.T) {
	mp := mpool.MustNewZero()
	v := newTable(t, mp)
	one, err := v.Select([]int{0})
	require.NoError(t, err)
	_, err = New(v, one, Options{})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidInput))
	_, err = New(v, v, Options{Orders: []Order{Ascending}})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidInput))

	swapped, err := v.Select([]int{1, 0})
	require.NoError(t, err)
	_, err = New(v, swapped, Options{})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidInput))
}

func TestRowHasher(t *testing.T) {
	mp := mpool.MustNewZero()
	v := newTable(t, mp)
	h, err := NewRowHasher(v)
	require.NoError(t, err)
	require.Equal(t, h.Hash(0), h.Hash(4))
	require.NotEqual(t, h.Hash(0), h.Hash(1))
	require.False(t, h.HasNull(0))
	require.True(t, h.HasNull(2))
	require.True(t, h.HasNull(3))

	// a dictionary column hashes like the plain column it encodes
	dict := testutil.NewDictionaryVector(t, mp, []string{"b", "a", "a", "", "b"}, 3)
	ints := testutil.NewInt64Vector(t, mp, []int64{1, 1, 0, 2, 1}, 2)
	hd, err := NewRowHasher(testutil.NewBatch(t, ints, dict).View())
	require.NoError(t, err)
	for i := 0; i < v.RowCount(); i++ {
		require.Equal(t, h.Hash(i), hd.Hash(i))
	}
}

func TestCrossTable(t *testing.T) {
	mp := mpool.MustNewZero()
	a := testutil.NewBatch(t, testutil.NewDictionaryVector(t, mp, []string{"x", "y"})).View()
	b := testutil.NewBatch(t, testutil.NewDictionaryVector(t, mp, []string{"y", "z", "x"})).View()
	c, err := New(a, b, Options{})
	require.NoError(t, err)
	require.True(t, c.Equal(0, 2))
	require.True(t, c.Equal(1, 0))
	require.True(t, c.Less(1, 1))
}
