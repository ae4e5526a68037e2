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
	"fmt"

	"golang.org/x/exp/constraints"
)

// T is the closed set of runtime type tags a column may carry.
type T uint8

const (
	T_any T = 0

	T_bool T = 10

	T_int8  T = 20
	T_int16 T = 21
	T_int32 T = 22
	T_int64 T = 23

	T_uint8  T = 25
	T_uint16 T = 26
	T_uint32 T = 27
	T_uint64 T = 28

	T_float32 T = 30
	T_float64 T = 31

	T_decimal64  T = 32
	T_decimal128 T = 33

	T_date T = 50

	T_timestamp_s  T = 51
	T_timestamp_ms T = 52
	T_timestamp_us T = 53
	T_timestamp_ns T = 54

	T_duration_s  T = 55
	T_duration_ms T = 56
	T_duration_us T = 57
	T_duration_ns T = 58

	// T_varchar stores int32 offsets (n+1 of them) plus a character area.
	T_varchar T = 60

	// T_dictionary32 stores int32 codes into child 0.
	T_dictionary32 T = 70
	// T_list stores int32 offsets (n+1 of them) into child 0.
	T_list T = 71
	// T_struct has no own data; fields are the children.
	T_struct T = 72
)

type Date int32

type Timestamp int64

type Duration int64

// Decimal64 is an unscaled value; the scale lives in the column Type.
type Decimal64 int64

// Decimal128 is a two's complement 128 bit unscaled value.
type Decimal128 struct {
	B0_63   uint64
	B64_127 uint64
}

type Type struct {
	Oid T

	// Size is the element width in bytes for fixed width types, 0 otherwise.
	Size int32

	// Scale is used by the decimal types.
	Scale int32
}

type Ints interface {
	int8 | int16 | int32 | int64
}

type UInts interface {
	uint8 | uint16 | uint32 | uint64
}

type Floats interface {
	float32 | float64
}

type Decimal interface {
	Decimal64 | Decimal128
}

// FixedSizeT is every Go type stored inline in a fixed width column.
type FixedSizeT interface {
	bool | Ints | UInts | Floats | Date | Timestamp | Duration | Decimal
}

// Number is the set of element types arithmetic aggregates accept.
type Number interface {
	constraints.Integer | constraints.Float
}

var Types = map[string]T{
	"bool": T_bool,

	"tinyint":  T_int8,
	"smallint": T_int16,
	"int":      T_int32,
	"bigint":   T_int64,

	"tinyint unsigned":  T_uint8,
	"smallint unsigned": T_uint16,
	"int unsigned":      T_uint32,
	"bigint unsigned":   T_uint64,

	"float":  T_float32,
	"double": T_float64,

	"decimal64":  T_decimal64,
	"decimal128": T_decimal128,

	"date": T_date,

	"timestamp_s":  T_timestamp_s,
	"timestamp_ms": T_timestamp_ms,
	"timestamp_us": T_timestamp_us,
	"timestamp_ns": T_timestamp_ns,

	"duration_s":  T_duration_s,
	"duration_ms": T_duration_ms,
	"duration_us": T_duration_us,
	"duration_ns": T_duration_ns,

	"varchar": T_varchar,

	"dictionary": T_dictionary32,
	"list":       T_list,
	"struct":     T_struct,
}

func New(oid T, scale int32) Type {
	return Type{
		Oid:   oid,
		Size:  int32(TypeSize(oid)),
		Scale: scale,
	}
}

func (t T) ToType() Type {
	return New(t, 0)
}

func (t Type) Eq(b Type) bool {
	return t.Oid == b.Oid && t.Size == b.Size && t.Scale == b.Scale
}

func (t Type) String() string {
	if t.Oid == T_decimal64 || t.Oid == T_decimal128 {
		return fmt.Sprintf("%s(%d)", t.Oid.String(), t.Scale)
	}
	return t.Oid.String()
}

func (t Type) IsFixedLen() bool {
	return t.Oid.FixedLength() > 0
}

func (t Type) IsVarlen() bool {
	return t.Oid == T_varchar || t.Oid == T_list
}

func (t Type) IsNested() bool {
	return t.Oid == T_dictionary32 || t.Oid == T_list || t.Oid == T_struct
}

func (t T) String() string {
	switch t {
	case T_bool:
		return "BOOL"
	case T_int8:
		return "TINYINT"
	case T_int16:
		return "SMALLINT"
	case T_int32:
		return "INT"
	case T_int64:
		return "BIGINT"
	case T_uint8:
		return "TINYINT UNSIGNED"
	case T_uint16:
		return "SMALLINT UNSIGNED"
	case T_uint32:
		return "INT UNSIGNED"
	case T_uint64:
		return "BIGINT UNSIGNED"
	case T_float32:
		return "FLOAT"
	case T_float64:
		return "DOUBLE"
	case T_decimal64:
		return "DECIMAL64"
	case T_decimal128:
		return "DECIMAL128"
	case T_date:
		return "DATE"
	case T_timestamp_s:
		return "TIMESTAMP(S)"
	case T_timestamp_ms:
		return "TIMESTAMP(MS)"
	case T_timestamp_us:
		return "TIMESTAMP(US)"
	case T_timestamp_ns:
		return "TIMESTAMP(NS)"
	case T_duration_s:
		return "DURATION(S)"
	case T_duration_ms:
		return "DURATION(MS)"
	case T_duration_us:
		return "DURATION(US)"
	case T_duration_ns:
		return "DURATION(NS)"
	case T_varchar:
		return "VARCHAR"
	case T_dictionary32:
		return "DICTIONARY"
	case T_list:
		return "LIST"
	case T_struct:
		return "STRUCT"
	}
	return fmt.Sprintf("unexpected type: %d", t)
}

// OidString returns T string
func (t T) OidString() string {
	switch t {
	case T_bool:
		return "T_bool"
	case T_int8:
		return "T_int8"
	case T_int16:
		return "T_int16"
	case T_int32:
		return "T_int32"
	case T_int64:
		return "T_int64"
	case T_uint8:
		return "T_uint8"
	case T_uint16:
		return "T_uint16"
	case T_uint32:
		return "T_uint32"
	case T_uint64:
		return "T_uint64"
	case T_float32:
		return "T_float32"
	case T_float64:
		return "T_float64"
	case T_decimal64:
		return "T_decimal64"
	case T_decimal128:
		return "T_decimal128"
	case T_date:
		return "T_date"
	case T_timestamp_s:
		return "T_timestamp_s"
	case T_timestamp_ms:
		return "T_timestamp_ms"
	case T_timestamp_us:
		return "T_timestamp_us"
	case T_timestamp_ns:
		return "T_timestamp_ns"
	case T_duration_s:
		return "T_duration_s"
	case T_duration_ms:
		return "T_duration_ms"
	case T_duration_us:
		return "T_duration_us"
	case T_duration_ns:
		return "T_duration_ns"
	case T_varchar:
		return "T_varchar"
	case T_dictionary32:
		return "T_dictionary32"
	case T_list:
		return "T_list"
	case T_struct:
		return "T_struct"
	}
	return "unknown_type"
}

// TypeSize returns the byte width of one stored element. Offset and code
// based layouts report the width of their int32 slots.
func TypeSize(oid T) int {
	switch oid {
	case T_varchar, T_list, T_dictionary32:
		return 4
	}
	return oid.FixedLength()
}

// FixedLength returns the inline value width, or 0 for nested and
// variable length types.
func (t T) FixedLength() int {
	switch t {
	case T_bool, T_int8, T_uint8:
		return 1
	case T_int16, T_uint16:
		return 2
	case T_int32, T_uint32, T_float32, T_date:
		return 4
	case T_int64, T_uint64, T_float64, T_decimal64,
		T_timestamp_s, T_timestamp_ms, T_timestamp_us, T_timestamp_ns,
		T_duration_s, T_duration_ms, T_duration_us, T_duration_ns:
		return 8
	case T_decimal128:
		return 16
	}
	return 0
}

func (t T) IsInteger() bool {
	return t.IsSignedInt() || t.IsUnsignedInt()
}

func (t T) IsSignedInt() bool {
	switch t {
	case T_int8, T_int16, T_int32, T_int64:
		return true
	}
	return false
}

func (t T) IsUnsignedInt() bool {
	switch t {
	case T_uint8, T_uint16, T_uint32, T_uint64:
		return true
	}
	return false
}

func (t T) IsFloat() bool {
	return t == T_float32 || t == T_float64
}

func (t T) IsDecimal() bool {
	return t == T_decimal64 || t == T_decimal128
}

// IsTemporal reports dates, timestamps and durations.
func (t T) IsTemporal() bool {
	return t >= T_date && t <= T_duration_ns
}

// IsKnown reports whether t belongs to the closed set.
func (t T) IsKnown() bool {
	return t.OidString() != "unknown_type"
}
