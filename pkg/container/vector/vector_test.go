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

package vector

import (
	"testing"

	"github.com/matrixorigin/columnar/pkg/common/moerr"
	"github.com/matrixorigin/columnar/pkg/common/mpool"
	"github.com/matrixorigin/columnar/pkg/container/types"
	"github.com/stretchr/testify/require"
)

func newInt64(t *testing.T, mp *mpool.MPool, vals []int64, isNulls []bool) *Vector {
	v := NewVec(types.T_int64.ToType())
	require.NoError(t, AppendFixedList(v, vals, isNulls, mp))
	return v
}

func newStr(t *testing.T, mp *mpool.MPool, vals []string, isNulls []bool) *Vector {
	v := NewVec(types.T_varchar.ToType())
	require.NoError(t, AppendStringList(v, vals, isNulls, mp))
	return v
}

func TestAppendFixed(t *testing.T) {
	mp := mpool.MustNewZero()
	v := newInt64(t, mp, []int64{1, 2, 3, 4}, []bool{false, true, false, false})
	require.Equal(t, 4, v.Length())
	require.Equal(t, []int64{1, 0, 3, 4}, MustFixedCol[int64](v))
	require.True(t, v.IsNull(1))
	require.Equal(t, 1, v.NullCount())
	require.Equal(t, "[1 null 3 4]", v.String())

	v.SetNull(3)
	require.Equal(t, 2, v.NullCount())
	v.Free(mp)
	require.Equal(t, int64(0), mp.CurrNB())
}

func TestAppendBytes(t *testing.T) {
	mp := mpool.MustNewZero()
	v := newStr(t, mp, []string{"a", "", "bcd", "x"}, []bool{false, false, false, true})
	require.Equal(t, 4, v.Length())
	for i, want := range []string{"a", "", "bcd", "null"} {
		require.Equal(t, want, v.View().RowString(i))
	}
	require.Equal(t, 1, v.NullCount())
	require.Equal(t, "bcd", string(v.View().GetBytesAt(2)))
	v.Free(mp)
	require.Equal(t, int64(0), mp.CurrNB())
}

func TestViewSlice(t *testing.T) {
	mp := mpool.MustNewZero()
	v := newInt64(t, mp, []int64{1, 2, 3, 4, 5}, []bool{true, false, false, true, false})
	w, err := v.Slice(1, 3)
	require.NoError(t, err)
	require.Equal(t, 3, w.Length())
	require.Equal(t, []int64{2, 3, 0}, ViewFixedCol[int64](w))
	require.True(t, w.IsNull(2))
	require.Equal(t, 1, w.NullCount())
	require.Equal(t, v, w.Vector())

	w2, err := w.Slice(1, 2)
	require.NoError(t, err)
	require.Equal(t, 2, w2.Offset())
	require.NotEqual(t, w.Key(), w2.Key())
	require.Equal(t, w.Key(), w.Key())

	_, err = v.Slice(3, 3)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidInput))
}

func TestGather(t *testing.T) {
	mp := mpool.MustNewZero()
	v := newInt64(t, mp, []int64{10, 20, 30}, []bool{false, true, false})
	g, err := Gather(v.View(), []int64{2, -1, 1, 0, 2}, mp)
	require.NoError(t, err)
	require.Equal(t, "[30 null null 10 30]", g.String())
	require.Equal(t, 2, g.NullCount())

	s := newStr(t, mp, []string{"x", "yy", "zzz"}, nil)
	w, err := s.Slice(1, 2)
	require.NoError(t, err)
	gs, err := Gather(w, []int64{1, -1, 0}, mp)
	require.NoError(t, err)
	require.Equal(t, "[zzz null yy]", gs.String())

	_, err = Gather(w, []int64{2}, mp)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidInput))

	empty, err := Gather(s.View(), nil, mp)
	require.NoError(t, err)
	require.Equal(t, 0, empty.Length())
}

func TestNestedVectors(t *testing.T) {
	mp := mpool.MustNewZero()

	dict := newStr(t, mp, []string{"red", "green"}, nil)
	dv, err := NewDictionaryVec([]int32{1, 0, 0, 1}, []bool{false, false, true, false}, dict, mp)
	require.NoError(t, err)
	require.Equal(t, "[green red null green]", dv.String())
	g, err := Gather(dv.View(), []int64{3, 0, 1}, mp)
	require.NoError(t, err)
	require.Equal(t, "[green green red]", g.String())

	_, err = NewDictionaryVec([]int32{2}, nil, newStr(t, mp, []string{"a"}, nil), mp)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidInput))

	child := newInt64(t, mp, []int64{1, 2, 3, 4, 5, 6}, nil)
	lv, err := NewListVec([]int32{0, 2, 2, 6}, []bool{false, true, false}, child, mp)
	require.NoError(t, err)
	require.Equal(t, "[[1 2] null [3 4 5 6]]", lv.String())
	gl, err := Gather(lv.View(), []int64{2, 0, -1}, mp)
	require.NoError(t, err)
	require.Equal(t, "[[3 4 5 6] [1 2] null]", gl.String())

	f0 := newInt64(t, mp, []int64{1, 2, 3}, nil)
	f1 := newStr(t, mp, []string{"a", "b", "c"}, nil)
	sv, err := NewStructVec([]*Vector{f0, f1}, []bool{false, false, true})
	require.NoError(t, err)
	sw, err := sv.Slice(1, 2)
	require.NoError(t, err)
	require.Equal(t, "[{2,b} null]", sw.String())
	gv, err := Gather(sw, []int64{0, 0, 1}, mp)
	require.NoError(t, err)
	require.Equal(t, "[{2,b} {2,b} null]", gv.String())
	require.True(t, SameType(sv.View(), gv.View()))
	require.False(t, SameType(sv.View(), lv.View()))
}

func TestGatherCoalesce(t *testing.T) {
	mp := mpool.MustNewZero()
	a := newInt64(t, mp, []int64{1, 2}, nil)
	b := newInt64(t, mp, []int64{7, 8, 9}, nil)
	out, err := GatherCoalesce(a.View(), []int64{0, -1, -1, 1}, b.View(), []int64{2, 1, -1, -1}, mp)
	require.NoError(t, err)
	require.Equal(t, "[1 8 null 2]", out.String())

	_, err = GatherCoalesce(a.View(), []int64{0}, b.View(), nil, mp)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidInput))

	s := newStr(t, mp, []string{"a"}, nil)
	_, err = GatherCoalesce(a.View(), []int64{0}, s.View(), []int64{0}, mp)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidInput))

	d1, err := NewDictionaryVec([]int32{0, 1}, nil, newStr(t, mp, []string{"p", "q"}, nil), mp)
	require.NoError(t, err)
	d2, err := NewDictionaryVec([]int32{0}, nil, newStr(t, mp, []string{"z"}, nil), mp)
	require.NoError(t, err)
	dc, err := GatherCoalesce(d1.View(), []int64{1, -1, 0}, d2.View(), []int64{-1, 0, -1}, mp)
	require.NoError(t, err)
	require.Equal(t, "[q z p]", dc.String())
}

func TestDup(t *testing.T) {
	mp := mpool.MustNewZero()
	v := newInt64(t, mp, []int64{5, 6, 7}, []bool{false, true, false})
	d, err := v.Dup(mp)
	require.NoError(t, err)
	require.Equal(t, v.String(), d.String())
	require.Equal(t, 1, d.NullCount())
	v.Free(mp)
	require.Equal(t, "[5 null 7]", d.String())
	d.Free(mp)
}
