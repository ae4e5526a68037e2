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
	"math"
	"math/big"
)

func (a Decimal64) Compare(b Decimal64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (a Decimal64) Format(scale int32) string {
	return new(big.Rat).SetFrac(big.NewInt(int64(a)), pow10(scale)).FloatString(int(scale))
}

func (a Decimal64) Float64(scale int32) float64 {
	return float64(a) / math.Pow10(int(scale))
}

// Decimal128FromInt64 sign extends x.
func Decimal128FromInt64(x int64) Decimal128 {
	d := Decimal128{B0_63: uint64(x)}
	if x < 0 {
		d.B64_127 = math.MaxUint64
	}
	return d
}

func (a Decimal128) Sign() bool {
	return a.B64_127>>63 == 1
}

func (a Decimal128) Compare(b Decimal128) int {
	ah, bh := int64(a.B64_127), int64(b.B64_127)
	switch {
	case ah < bh:
		return -1
	case ah > bh:
		return 1
	case a.B0_63 < b.B0_63:
		return -1
	case a.B0_63 > b.B0_63:
		return 1
	}
	return 0
}

func (a Decimal128) Big() *big.Int {
	x := new(big.Int).SetUint64(a.B64_127)
	x.Lsh(x, 64)
	x.Or(x, new(big.Int).SetUint64(a.B0_63))
	if a.Sign() {
		x.Sub(x, new(big.Int).Lsh(big.NewInt(1), 128))
	}
	return x
}

func (a Decimal128) Format(scale int32) string {
	return new(big.Rat).SetFrac(a.Big(), pow10(scale)).FloatString(int(scale))
}

func (a Decimal128) Float64(scale int32) float64 {
	f, _ := new(big.Rat).SetFrac(a.Big(), pow10(scale)).Float64()
	return f
}

func pow10(scale int32) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(scale)), nil)
}

func (d Date) String() string {
	return fmt.Sprintf("date(%d)", int32(d))
}
