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

package dispatch

import (
	"math"
	"testing"

	"github.com/matrixorigin/columnar/pkg/common/moerr"
	"github.com/matrixorigin/columnar/pkg/common/mpool"
	"github.com/matrixorigin/columnar/pkg/container/types"
	"github.com/matrixorigin/columnar/pkg/container/vector"
	"github.com/matrixorigin/columnar/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	for _, oid := range []types.T{
		types.T_bool, types.T_int8, types.T_int64, types.T_uint32, types.T_float32,
		types.T_decimal64, types.T_decimal128, types.T_date, types.T_timestamp_ms,
		types.T_duration_ns, types.T_varchar, types.T_dictionary32,
	} {
		ops, err := Lookup(oid)
		require.NoError(t, err, oid.String())
		require.Equal(t, oid, ops.Oid)
	}

	_, err := Lookup(types.T_list)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrNYI))
	_, err = Lookup(types.T_struct)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrNYI))
	_, err = Lookup(types.T(250))
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidInput))
}

func TestNumeric(t *testing.T) {
	ops, err := Numeric(types.T_int16, "SUM")
	require.NoError(t, err)
	require.Equal(t, Signed, ops.Kind)
	ops, err = Numeric(types.T_uint8, "SUM")
	require.NoError(t, err)
	require.Equal(t, Unsigned, ops.Kind)
	ops, err = Numeric(types.T_float32, "SUM")
	require.NoError(t, err)
	require.Equal(t, Float, ops.Kind)

	_, err = Numeric(types.T_varchar, "SUM")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrNYI))
	_, err = Numeric(types.T_date, "AVG")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrNYI))
}

func TestDecimalAsFloat(t *testing.T) {
	mp := mpool.MustNewZero()
	v := vector.NewVec(types.New(types.T_decimal64, 2))
	require.NoError(t, vector.AppendFixedList(v, []types.Decimal64{150, -25}, nil, mp))
	ops, err := Numeric(types.T_decimal64, "AVG")
	require.NoError(t, err)
	at := ops.Float64At(v.View())
	require.Equal(t, 1.5, at(0))
	require.Equal(t, -0.25, at(1))
	require.Equal(t, int64(150), ops.Int64At(v.View())(0))
}

func TestCompareIntegers(t *testing.T) {
	mp := mpool.MustNewZero()
	a := testutil.NewInt32Vector(t, mp, []int32{-5, 0, 7})
	b := testutil.NewInt32Vector(t, mp, []int32{0, 7})
	cmp, err := Comparator(a.View(), b.View())
	require.NoError(t, err)
	require.Equal(t, -1, cmp(0, 0))
	require.Equal(t, 0, cmp(1, 0))
	require.Equal(t, 0, cmp(2, 1))
	require.Equal(t, 1, cmp(2, 0))

	c := testutil.NewInt64Vector(t, mp, []int64{0})
	_, err = Comparator(a.View(), c.View())
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidInput))
}

func TestFloatOrderAndHash(t *testing.T) {
	mp := mpool.MustNewZero()
	nan := math.NaN()
	other := math.Float64frombits(0x7ff8000000000abc)
	v := testutil.NewFloat64Vector(t, mp, []float64{nan, other, math.Inf(1), 0, math.Copysign(0, -1), -1})
	cmp, err := Comparator(v.View(), v.View())
	require.NoError(t, err)
	require.Equal(t, 0, cmp(0, 1))
	require.Equal(t, 1, cmp(0, 2))
	require.Equal(t, -1, cmp(2, 1))
	require.Equal(t, 0, cmp(3, 4))
	require.Equal(t, -1, cmp(5, 4))

	hash, err := Hasher(v.View())
	require.NoError(t, err)
	require.Equal(t, hash(0), hash(1))
	require.Equal(t, hash(3), hash(4))
	require.NotEqual(t, hash(3), hash(5))
}

func TestVarchar(t *testing.T) {
	mp := mpool.MustNewZero()
	v := testutil.NewStringVector(t, mp, []string{"abc", "abd", "ab", "abc"})
	cmp, err := Comparator(v.View(), v.View())
	require.NoError(t, err)
	require.Equal(t, -1, cmp(0, 1))
	require.Equal(t, 1, cmp(0, 2))
	require.Equal(t, 0, cmp(0, 3))

	hash, err := Hasher(v.View())
	require.NoError(t, err)
	require.Equal(t, hash(0), hash(3))
	require.NotEqual(t, hash(0), hash(1))
}

func TestDictionaryByValue(t *testing.T) {
	mp := mpool.MustNewZero()
	a := testutil.NewDictionaryVector(t, mp, []string{"x", "y", "z"})
	b := testutil.NewDictionaryVector(t, mp, []string{"z", "x"})
	cmp, err := Comparator(a.View(), b.View())
	require.NoError(t, err)
	require.Equal(t, 0, cmp(0, 1))
	require.Equal(t, 0, cmp(2, 0))
	require.Equal(t, -1, cmp(1, 0))

	ha, err := Hasher(a.View())
	require.NoError(t, err)
	hb, err := Hasher(b.View())
	require.NoError(t, err)
	require.Equal(t, ha(0), hb(1))
	require.Equal(t, ha(2), hb(0))

	s := testutil.NewStringVector(t, mp, []string{"x"})
	h, err := Hasher(s.View())
	require.NoError(t, err)
	require.Equal(t, h(0), ha(0))

	allNull := testutil.NewDictionaryVector(t, mp, []string{"", ""}, 0, 1)
	hn, err := Hasher(allNull.View())
	require.NoError(t, err)
	require.Equal(t, uint64(0), hn(1))
}

func TestNestedTypesNotComparable(t *testing.T) {
	mp := mpool.MustNewZero()
	child := testutil.NewInt64Vector(t, mp, []int64{1, 2, 3})
	l, err := vector.NewListVec([]int32{0, 1, 3}, nil, child, mp)
	require.NoError(t, err)
	_, err = Comparator(l.View(), l.View())
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrNYI))
	_, err = Hasher(l.View())
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrNYI))
}
