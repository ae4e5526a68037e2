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

package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestType_String(t *testing.T) {
	myType := T_int64.ToType()
	require.Equal(t, "BIGINT", myType.String())
	require.Equal(t, "DECIMAL64(2)", New(T_decimal64, 2).String())
}

func TestType_Eq(t *testing.T) {
	myType := T_int64.ToType()
	myType1 := T_int64.ToType()
	require.True(t, myType.Eq(myType1))
	require.False(t, myType.Eq(T_uint64.ToType()))
}

func TestT_ToType(t *testing.T) {
	require.Equal(t, int32(1), T_int8.ToType().Size)
	require.Equal(t, int32(2), T_int16.ToType().Size)
	require.Equal(t, int32(4), T_int32.ToType().Size)
	require.Equal(t, int32(8), T_int64.ToType().Size)
	require.Equal(t, int32(1), T_uint8.ToType().Size)
	require.Equal(t, int32(2), T_uint16.ToType().Size)
	require.Equal(t, int32(4), T_uint32.ToType().Size)
	require.Equal(t, int32(8), T_uint64.ToType().Size)
	require.Equal(t, int32(16), T_decimal128.ToType().Size)
	require.Equal(t, int32(4), T_varchar.ToType().Size)
	require.Equal(t, int32(0), T_struct.ToType().Size)
}

func TestT_OidString(t *testing.T) {
	for name, oid := range Types {
		require.True(t, oid.IsKnown(), name)
	}
	require.False(t, T(200).IsKnown())
	require.Equal(t, "T_timestamp_ms", T_timestamp_ms.OidString())
}

func TestDecimal(t *testing.T) {
	require.Equal(t, "1.25", Decimal64(125).Format(2))
	require.Equal(t, "-1.25", Decimal64(-125).Format(2))
	require.Equal(t, -1, Decimal64(-3).Compare(2))

	a := Decimal128FromInt64(-5)
	b := Decimal128FromInt64(3)
	require.True(t, a.Sign())
	require.Equal(t, -1, a.Compare(b))
	require.Equal(t, 1, b.Compare(a))
	require.Equal(t, "-0.05", a.Format(2))
	require.InDelta(t, 0.03, b.Float64(2), 1e-12)
}

func TestEncodeSlice(t *testing.T) {
	vs := []int32{1, -2, 3}
	data := EncodeSlice(vs)
	require.Equal(t, 12, len(data))
	require.Equal(t, vs, DecodeSlice[int32](data))
	require.Equal(t, int64(-7), DecodeFixed[int64](EncodeFixed(int64(-7))))
}
