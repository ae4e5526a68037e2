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
	"bytes"
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/matrixorigin/columnar/pkg/container/types"
	"github.com/matrixorigin/columnar/pkg/container/vector"
	"golang.org/x/exp/constraints"
)

func init() {
	registerInteger[int8](types.T_int8, Signed)
	registerInteger[int16](types.T_int16, Signed)
	registerInteger[int32](types.T_int32, Signed)
	registerInteger[int64](types.T_int64, Signed)
	registerInteger[uint8](types.T_uint8, Unsigned)
	registerInteger[uint16](types.T_uint16, Unsigned)
	registerInteger[uint32](types.T_uint32, Unsigned)
	registerInteger[uint64](types.T_uint64, Unsigned)

	registerFloat[float32](types.T_float32)
	registerFloat[float64](types.T_float64)

	registerInteger[types.Date](types.T_date, NotNumeric)
	for _, oid := range []types.T{
		types.T_timestamp_s, types.T_timestamp_ms, types.T_timestamp_us, types.T_timestamp_ns,
	} {
		registerInteger[types.Timestamp](oid, NotNumeric)
	}
	for _, oid := range []types.T{
		types.T_duration_s, types.T_duration_ms, types.T_duration_us, types.T_duration_ns,
	} {
		registerInteger[types.Duration](oid, NotNumeric)
	}

	registerDecimal64()
	registerDecimal128()
	registerBool()
	registerVarchar()
	registerDictionary()
}

func cmpOrdered[T constraints.Ordered](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// cmpFloat orders NaN after every other value and equal to itself.
// -0 and +0 compare equal.
func cmpFloat[T constraints.Float](a, b T) int {
	aNaN, bNaN := a != a, b != b
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	}
	return cmpOrdered(a, b)
}

func hashUint64(x uint64) uint64 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], x)
	return xxhash.Sum64(b[:])
}

const canonicalNaN = 0x7ff8000000000001

func floatBits[T constraints.Float](v T) uint64 {
	switch {
	case v != v:
		return canonicalNaN
	case v == 0:
		// folds -0 into +0
		return 0
	}
	return math.Float64bits(float64(v))
}

func fixedCompare[T any](cmp func(a, b T) int) func(a, b vector.View) (RowCompare, error) {
	return func(a, b vector.View) (RowCompare, error) {
		ca, cb := vector.ViewFixedCol[T](a), vector.ViewFixedCol[T](b)
		return func(i, j int) int {
			return cmp(ca[i], cb[j])
		}, nil
	}
}

func fixedHash[T any](hash func(T) uint64) func(a vector.View) (RowHash, error) {
	return func(a vector.View) (RowHash, error) {
		ca := vector.ViewFixedCol[T](a)
		return func(i int) uint64 {
			return hash(ca[i])
		}, nil
	}
}

func registerInteger[T constraints.Integer](oid types.T, kind NumKind) {
	ops := &Ops{
		Oid:     oid,
		Compare: fixedCompare[T](cmpOrdered[T]),
		Hash: fixedHash[T](func(v T) uint64 {
			return hashUint64(uint64(v))
		}),
		Kind: kind,
	}
	switch kind {
	case Signed:
		ops.Int64At = func(w vector.View) func(i int) int64 {
			col := vector.ViewFixedCol[T](w)
			return func(i int) int64 { return int64(col[i]) }
		}
	case Unsigned:
		ops.Uint64At = func(w vector.View) func(i int) uint64 {
			col := vector.ViewFixedCol[T](w)
			return func(i int) uint64 { return uint64(col[i]) }
		}
	}
	if kind != NotNumeric {
		ops.Float64At = func(w vector.View) func(i int) float64 {
			col := vector.ViewFixedCol[T](w)
			return func(i int) float64 { return float64(col[i]) }
		}
	}
	register(ops)
}

func registerFloat[T constraints.Float](oid types.T) {
	register(&Ops{
		Oid:     oid,
		Compare: fixedCompare[T](cmpFloat[T]),
		Hash: fixedHash[T](func(v T) uint64 {
			return hashUint64(floatBits(v))
		}),
		Kind: Float,
		Float64At: func(w vector.View) func(i int) float64 {
			col := vector.ViewFixedCol[T](w)
			return func(i int) float64 { return float64(col[i]) }
		},
	})
}

func registerDecimal64() {
	register(&Ops{
		Oid:     types.T_decimal64,
		Compare: fixedCompare[types.Decimal64](types.Decimal64.Compare),
		Hash: fixedHash[types.Decimal64](func(v types.Decimal64) uint64 {
			return hashUint64(uint64(v))
		}),
		Kind: Signed,
		Int64At: func(w vector.View) func(i int) int64 {
			col := vector.ViewFixedCol[types.Decimal64](w)
			return func(i int) int64 { return int64(col[i]) }
		},
		Float64At: func(w vector.View) func(i int) float64 {
			col := vector.ViewFixedCol[types.Decimal64](w)
			scale := w.Type().Scale
			return func(i int) float64 { return col[i].Float64(scale) }
		},
	})
}

func registerDecimal128() {
	register(&Ops{
		Oid:     types.T_decimal128,
		Compare: fixedCompare[types.Decimal128](types.Decimal128.Compare),
		Hash: fixedHash[types.Decimal128](func(v types.Decimal128) uint64 {
			var b [16]byte
			binary.LittleEndian.PutUint64(b[:8], v.B0_63)
			binary.LittleEndian.PutUint64(b[8:], v.B64_127)
			return xxhash.Sum64(b[:])
		}),
	})
}

func registerBool() {
	register(&Ops{
		Oid: types.T_bool,
		Compare: fixedCompare[bool](func(a, b bool) int {
			switch {
			case a == b:
				return 0
			case !a:
				return -1
			}
			return 1
		}),
		Hash: fixedHash[bool](func(v bool) uint64 {
			if v {
				return hashUint64(1)
			}
			return hashUint64(0)
		}),
	})
}

func registerVarchar() {
	register(&Ops{
		Oid: types.T_varchar,
		Compare: func(a, b vector.View) (RowCompare, error) {
			return func(i, j int) int {
				return bytes.Compare(a.GetBytesAt(i), b.GetBytesAt(j))
			}, nil
		},
		Hash: func(a vector.View) (RowHash, error) {
			return func(i int) uint64 {
				return xxhash.Sum64(a.GetBytesAt(i))
			}, nil
		},
	})
}

// Dictionary columns compare and hash by the values the codes decode to,
// so that two columns with different dictionaries still agree.
func registerDictionary() {
	register(&Ops{
		Oid: types.T_dictionary32,
		Compare: func(a, b vector.View) (RowCompare, error) {
			inner, err := Comparator(a.Child(0), b.Child(0))
			if err != nil {
				return nil, err
			}
			ca, cb := vector.ViewFixedCol[int32](a), vector.ViewFixedCol[int32](b)
			return func(i, j int) int {
				return inner(int(ca[i]), int(cb[j]))
			}, nil
		},
		Hash: func(a vector.View) (RowHash, error) {
			dict := a.Child(0)
			inner, err := Hasher(dict)
			if err != nil {
				return nil, err
			}
			hs := make([]uint64, dict.Length())
			for k := range hs {
				hs[k] = inner(k)
			}
			codes := vector.ViewFixedCol[int32](a)
			if len(hs) == 0 {
				// every row is null
				return func(int) uint64 { return 0 }, nil
			}
			return func(i int) uint64 {
				return hs[codes[i]]
			}, nil
		},
	})
}
