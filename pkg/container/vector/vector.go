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
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"unsafe"

	"github.com/matrixorigin/columnar/pkg/common/moerr"
	"github.com/matrixorigin/columnar/pkg/common/mpool"
	"github.com/matrixorigin/columnar/pkg/container/nulls"
	"github.com/matrixorigin/columnar/pkg/container/types"
)

// UnknownNullCount marks a cached null count that must be recomputed.
const UnknownNullCount = -1

// Vector represent a column. It owns its buffers and its children.
//
//	fixed width:  data holds length values of typ.Size bytes
//	varchar:      data holds length+1 int32 offsets into area
//	dictionary32: data holds length int32 codes into children[0]
//	list:         data holds length+1 int32 offsets into children[0]
//	struct:       no data, children are the fields
type Vector struct {
	// type represent the type of column
	typ types.Type
	nsp *nulls.Nulls // nulls list

	data []byte
	// area for holding the characters of varchar values.
	area []byte

	length  int
	nullCnt atomic.Int64

	children []*Vector

	// dictSrc is the dictionary codes were last copied against.
	dictSrc *Vector
}

func NewVec(typ types.Type) *Vector {
	v := &Vector{
		typ: typ,
		nsp: &nulls.Nulls{},
	}
	v.nullCnt.Store(0)
	return v
}

// NewVecWithChildren creates an empty nested vector.
func NewVecWithChildren(typ types.Type, children ...*Vector) *Vector {
	v := NewVec(typ)
	v.children = children
	return v
}

func (v *Vector) Length() int {
	return v.length
}

// SetLength is used by fillers that wrote the data through PreExtend.
func (v *Vector) SetLength(n int) {
	v.length = n
	v.nullCnt.Store(UnknownNullCount)
}

// Size is used in memory accounting.
func (v *Vector) Size() int {
	sz := len(v.data) + len(v.area) + nulls.Size(v.nsp)
	for _, c := range v.children {
		sz += c.Size()
	}
	return sz
}

func (v *Vector) GetType() *types.Type {
	return &v.typ
}

// Dictionary returns the value column of a dictionary vector.
func (v *Vector) Dictionary() *Vector {
	if v.typ.Oid != types.T_dictionary32 || len(v.children) == 0 {
		return nil
	}
	return v.children[0]
}

func (v *Vector) IsNull(i uint64) bool {
	return v.nsp.Contains(i)
}

// NullCount returns the cached null count, recomputing it when unknown.
func (v *Vector) NullCount() int {
	cnt := v.nullCnt.Load()
	if cnt == UnknownNullCount {
		cnt = int64(v.nsp.CountRange(0, uint64(v.length)))
		v.nullCnt.Store(cnt)
	}
	return int(cnt)
}

// MarkNullCountUnknown forces the next NullCount to recompute.
func (v *Vector) MarkNullCountUnknown() {
	v.nullCnt.Store(UnknownNullCount)
}

func (v *Vector) HasNull() bool {
	return v.NullCount() > 0
}

func (v *Vector) SetNull(i uint64) {
	v.nsp.Set(i)
	v.nullCnt.Store(UnknownNullCount)
}

// MustFixedCol returns the values of a fixed width or code vector.
func MustFixedCol[T any](v *Vector) []T {
	if v.length == 0 || len(v.data) == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&v.data[0])), v.length)
}

func GetFixedAt[T any](v *Vector, idx int) T {
	return MustFixedCol[T](v)[idx]
}

// offsets returns the length+1 offsets of a varchar or list vector.
func (v *Vector) offsets() []int32 {
	if len(v.data) == 0 {
		return []int32{0}
	}
	return unsafe.Slice((*int32)(unsafe.Pointer(&v.data[0])), v.length+1)
}

func (v *Vector) GetBytesAt(i int) []byte {
	offs := v.offsets()
	return v.area[offs[i]:offs[i+1]]
}

func (v *Vector) GetStringAt(i int) string {
	return string(v.GetBytesAt(i))
}

// ListRange returns the child rows [lo, hi) of list row i.
func (v *Vector) ListRange(i int) (int, int) {
	offs := v.offsets()
	return int(offs[i]), int(offs[i+1])
}

func (v *Vector) Free(mp *mpool.MPool) {
	mp.Free(v.data)
	mp.Free(v.area)
	for _, c := range v.children {
		c.Free(mp)
	}
	v.data = nil
	v.area = nil
	v.children = nil
	v.dictSrc = nil
	v.length = 0
	v.nsp = &nulls.Nulls{}
	v.nullCnt.Store(0)
}

// PreExtend makes room for rows more fixed width values, to be filled
// in place before SetLength.
func (v *Vector) PreExtend(rows int, mp *mpool.MPool) error {
	sz := types.TypeSize(v.typ.Oid)
	if sz == 0 || v.typ.IsVarlen() {
		return moerr.NewInternalErrorNoCtx("pre-extend %s vector", v.typ)
	}
	if err := v.growData((v.length+rows)*sz, mp); err != nil {
		return err
	}
	nulls.TryExpand(v.nsp, v.length+rows)
	return nil
}

// Dup use to copy an identical vector
func (v *Vector) Dup(mp *mpool.MPool) (*Vector, error) {
	w := NewVec(v.typ)
	w.length = v.length
	w.nsp = v.nsp.Clone()
	w.nullCnt.Store(v.nullCnt.Load())
	var err error
	if len(v.data) > 0 {
		if w.data, err = mp.Alloc(len(v.data)); err != nil {
			return nil, err
		}
		copy(w.data, v.data)
	}
	if len(v.area) > 0 {
		if w.area, err = mp.Alloc(len(v.area)); err != nil {
			w.Free(mp)
			return nil, err
		}
		copy(w.area, v.area)
	}
	for _, c := range v.children {
		d, err := c.Dup(mp)
		if err != nil {
			w.Free(mp)
			return nil, err
		}
		w.children = append(w.children, d)
	}
	if v.typ.Oid == types.T_dictionary32 && len(v.children) > 0 {
		w.dictSrc = v.children[0]
	}
	return w, nil
}

func (v *Vector) growData(sz int, mp *mpool.MPool) error {
	if sz <= len(v.data) {
		return nil
	}
	data, err := mp.Grow(v.data, sz)
	if err != nil {
		return err
	}
	v.data = data
	return nil
}

// emptyLike returns an empty vector shaped like w, children included.
func emptyLike(w *Vector) *Vector {
	v := NewVec(w.typ)
	for _, c := range w.children {
		v.children = append(v.children, emptyLike(c))
	}
	return v
}

func (v *Vector) appendNull(mp *mpool.MPool) error {
	n := v.length
	switch {
	case v.typ.Oid == types.T_struct:
		for _, c := range v.children {
			if err := c.appendNull(mp); err != nil {
				return err
			}
		}
	case v.typ.IsVarlen():
		if err := v.appendOffset(0, mp); err != nil {
			return err
		}
	default:
		sz := types.TypeSize(v.typ.Oid)
		if err := v.growData((n+1)*sz, mp); err != nil {
			return err
		}
		clear(v.data[n*sz : (n+1)*sz])
	}
	v.length++
	v.SetNull(uint64(n))
	return nil
}

// appendOffset writes the end offset of row length, delta past the
// previous one. It does not bump length.
func (v *Vector) appendOffset(delta int, mp *mpool.MPool) error {
	n := v.length
	if err := v.growData((n+2)*4, mp); err != nil {
		return err
	}
	offs := unsafe.Slice((*int32)(unsafe.Pointer(&v.data[0])), n+2)
	end := int64(offs[n]) + int64(delta)
	if end > math.MaxInt32 {
		return moerr.NewCapacityOverflow(moerr.Context(), "%s vector offsets exceed int32", v.typ)
	}
	offs[n+1] = int32(end)
	return nil
}

func AppendFixed[T any](vec *Vector, val T, isNull bool, mp *mpool.MPool) error {
	if mp == nil {
		panic(moerr.NewInternalErrorNoCtx("vector append does not have a mpool"))
	}
	if isNull {
		return vec.appendNull(mp)
	}
	n := vec.length
	if err := vec.growData((n+1)*int(unsafe.Sizeof(val)), mp); err != nil {
		return err
	}
	vec.length++
	MustFixedCol[T](vec)[n] = val
	return nil
}

func AppendFixedList[T any](vec *Vector, vals []T, isNulls []bool, mp *mpool.MPool) error {
	for i, val := range vals {
		if err := AppendFixed(vec, val, len(isNulls) > 0 && isNulls[i], mp); err != nil {
			return err
		}
	}
	return nil
}

func AppendBytes(vec *Vector, val []byte, isNull bool, mp *mpool.MPool) error {
	if mp == nil {
		panic(moerr.NewInternalErrorNoCtx("vector append does not have a mpool"))
	}
	if isNull {
		return vec.appendNull(mp)
	}
	start := len(vec.area)
	if err := vec.appendOffset(len(val), mp); err != nil {
		return err
	}
	area, err := mp.Grow(vec.area, start+len(val))
	if err != nil {
		return err
	}
	vec.area = area
	copy(vec.area[start:], val)
	vec.length++
	return nil
}

func AppendStringList(vec *Vector, vals []string, isNulls []bool, mp *mpool.MPool) error {
	for i, val := range vals {
		if err := AppendBytes(vec, []byte(val), len(isNulls) > 0 && isNulls[i], mp); err != nil {
			return err
		}
	}
	return nil
}

// NewDictionaryVec builds a dictionary vector over dict, which it takes
// ownership of. A code must index dict unless its row is null.
func NewDictionaryVec(codes []int32, isNulls []bool, dict *Vector, mp *mpool.MPool) (*Vector, error) {
	v := NewVecWithChildren(types.T_dictionary32.ToType(), dict)
	for i, code := range codes {
		isNull := len(isNulls) > 0 && isNulls[i]
		if !isNull && (code < 0 || int(code) >= dict.Length()) {
			v.Free(mp)
			return nil, moerr.NewInvalidInputNoCtx("dictionary code %d out of range [0, %d)", code, dict.Length())
		}
		if err := AppendFixed(v, code, isNull, mp); err != nil {
			v.Free(mp)
			return nil, err
		}
	}
	v.dictSrc = dict
	return v, nil
}

// NewListVec builds a list vector whose row i spans child rows
// [offsets[i], offsets[i+1]). It takes ownership of child.
func NewListVec(offsets []int32, isNulls []bool, child *Vector, mp *mpool.MPool) (*Vector, error) {
	v := NewVecWithChildren(types.T_list.ToType(), child)
	if len(offsets) == 0 {
		return v, nil
	}
	if offsets[0] != 0 || int(offsets[len(offsets)-1]) != child.Length() {
		v.Free(mp)
		return nil, moerr.NewInvalidInputNoCtx("list offsets must span [0, %d)", child.Length())
	}
	for i := 1; i < len(offsets); i++ {
		delta := int(offsets[i] - offsets[i-1])
		if delta < 0 {
			v.Free(mp)
			return nil, moerr.NewInvalidInputNoCtx("list offsets must not decrease")
		}
		if err := v.appendOffset(delta, mp); err != nil {
			v.Free(mp)
			return nil, err
		}
		v.length++
		if len(isNulls) > 0 && isNulls[i-1] {
			v.SetNull(uint64(i - 1))
		}
	}
	return v, nil
}

// NewStructVec builds a struct vector over fields of equal length,
// taking ownership of them.
func NewStructVec(fields []*Vector, isNulls []bool) (*Vector, error) {
	v := NewVecWithChildren(types.T_struct.ToType(), fields...)
	for _, f := range fields {
		if f.Length() != fields[0].Length() {
			return nil, moerr.NewInvalidInputNoCtx("struct fields have %d and %d rows", fields[0].Length(), f.Length())
		}
	}
	if len(fields) > 0 {
		v.length = fields[0].Length()
	}
	for i, isNull := range isNulls {
		if isNull {
			v.SetNull(uint64(i))
		}
	}
	return v, nil
}

// UnionOne appends row sel of w to v; sel < 0 appends a null.
func (v *Vector) UnionOne(w View, sel int64, mp *mpool.MPool) error {
	if sel < 0 || w.IsNull(int(sel)) {
		return v.appendNull(mp)
	}
	i := w.offset + int(sel)
	switch oid := v.typ.Oid; {
	case oid == types.T_varchar:
		return AppendBytes(v, w.vec.GetBytesAt(i), false, mp)

	case oid == types.T_dictionary32:
		code := GetFixedAt[int32](w.vec, i)
		dict := w.vec.children[0]
		if len(v.children) == 0 || (v.dictSrc == nil && v.children[0].length == 0) {
			d, err := dict.Dup(mp)
			if err != nil {
				return err
			}
			if len(v.children) > 0 {
				v.children[0].Free(mp)
			}
			v.children = []*Vector{d}
			v.dictSrc = dict
		}
		if v.dictSrc != dict {
			if err := v.children[0].UnionOne(dict.View(), int64(code), mp); err != nil {
				return err
			}
			code = int32(v.children[0].length - 1)
		}
		return AppendFixed(v, code, false, mp)

	case oid == types.T_list:
		lo, hi := w.vec.ListRange(i)
		child := w.vec.children[0].View()
		for r := lo; r < hi; r++ {
			if err := v.children[0].UnionOne(child, int64(r), mp); err != nil {
				return err
			}
		}
		if err := v.appendOffset(hi-lo, mp); err != nil {
			return err
		}
		v.length++
		return nil

	case oid == types.T_struct:
		for j, c := range v.children {
			if err := c.UnionOne(w.Child(j), sel, mp); err != nil {
				return err
			}
		}
		v.length++
		return nil

	default:
		sz := int(v.typ.Size)
		n := v.length
		if err := v.growData((n+1)*sz, mp); err != nil {
			return err
		}
		copy(v.data[n*sz:(n+1)*sz], w.vec.data[i*sz:(i+1)*sz])
		v.length++
		return nil
	}
}

// String is meant for debugging and test failure messages.
func (v *Vector) String() string {
	return v.View().String()
}

func (w View) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i := 0; i < w.length; i++ {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(w.RowString(i))
	}
	sb.WriteByte(']')
	return sb.String()
}

// RowString renders row i.
func (w View) RowString(i int) string {
	if w.IsNull(i) {
		return "null"
	}
	r := w.offset + i
	switch w.vec.typ.Oid {
	case types.T_bool:
		return fmt.Sprint(GetFixedAt[bool](w.vec, r))
	case types.T_int8:
		return fmt.Sprint(GetFixedAt[int8](w.vec, r))
	case types.T_int16:
		return fmt.Sprint(GetFixedAt[int16](w.vec, r))
	case types.T_int32, types.T_date:
		return fmt.Sprint(GetFixedAt[int32](w.vec, r))
	case types.T_uint8:
		return fmt.Sprint(GetFixedAt[uint8](w.vec, r))
	case types.T_uint16:
		return fmt.Sprint(GetFixedAt[uint16](w.vec, r))
	case types.T_uint32:
		return fmt.Sprint(GetFixedAt[uint32](w.vec, r))
	case types.T_uint64:
		return fmt.Sprint(GetFixedAt[uint64](w.vec, r))
	case types.T_float32:
		return fmt.Sprint(GetFixedAt[float32](w.vec, r))
	case types.T_float64:
		return fmt.Sprint(GetFixedAt[float64](w.vec, r))
	case types.T_decimal64:
		return GetFixedAt[types.Decimal64](w.vec, r).Format(w.vec.typ.Scale)
	case types.T_decimal128:
		return GetFixedAt[types.Decimal128](w.vec, r).Format(w.vec.typ.Scale)
	case types.T_varchar:
		return w.vec.GetStringAt(r)
	case types.T_dictionary32:
		return w.vec.children[0].View().RowString(int(GetFixedAt[int32](w.vec, r)))
	case types.T_list:
		lo, hi := w.vec.ListRange(r)
		child, _ := w.vec.children[0].Slice(lo, hi-lo)
		return child.String()
	case types.T_struct:
		parts := make([]string, len(w.vec.children))
		for j := range parts {
			parts[j] = w.Child(j).RowString(i)
		}
		return "{" + strings.Join(parts, ",") + "}"
	default:
		// int64, timestamps and durations
		return fmt.Sprint(GetFixedAt[int64](w.vec, r))
	}
}
