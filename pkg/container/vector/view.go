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
	"github.com/matrixorigin/columnar/pkg/common/moerr"
	"github.com/matrixorigin/columnar/pkg/common/mpool"
	"github.com/matrixorigin/columnar/pkg/container/types"
)

// View is a non-owning, offset aware window over a Vector. It stays
// valid only while the Vector it refers to is alive and unchanged.
type View struct {
	vec    *Vector
	offset int
	length int
}

// Key identifies the rows a View refers to. Two views with equal keys
// read the same data.
type Key struct {
	vec    *Vector
	offset int
	length int
}

func (v *Vector) View() View {
	return View{vec: v, length: v.length}
}

// Slice returns the view of rows [offset, offset+length).
func (v *Vector) Slice(offset, length int) (View, error) {
	return v.View().Slice(offset, length)
}

func (w View) Slice(offset, length int) (View, error) {
	if offset < 0 || length < 0 || offset+length > w.length {
		return View{}, moerr.NewInvalidInputNoCtx("slice [%d, %d) of a view of %d rows", offset, offset+length, w.length)
	}
	return View{vec: w.vec, offset: w.offset + offset, length: length}, nil
}

func (w View) IsValid() bool {
	return w.vec != nil
}

func (w View) Key() Key {
	return Key{vec: w.vec, offset: w.offset, length: w.length}
}

// Vector returns the vector the view refers to.
func (w View) Vector() *Vector {
	return w.vec
}

func (w View) Type() types.Type {
	return w.vec.typ
}

func (w View) Length() int {
	return w.length
}

func (w View) Offset() int {
	return w.offset
}

func (w View) IsNull(i int) bool {
	return w.vec.nsp.Contains(uint64(w.offset + i))
}

func (w View) NullCount() int {
	if w.offset == 0 && w.length == w.vec.length {
		return w.vec.NullCount()
	}
	return w.vec.nsp.CountRange(uint64(w.offset), uint64(w.offset+w.length))
}

func (w View) HasNull() bool {
	return w.NullCount() > 0
}

// ViewFixedCol returns the fixed width values (or dictionary codes) of w.
func ViewFixedCol[T any](w View) []T {
	col := MustFixedCol[T](w.vec)
	if col == nil {
		return nil
	}
	return col[w.offset : w.offset+w.length]
}

func (w View) GetBytesAt(i int) []byte {
	return w.vec.GetBytesAt(w.offset + i)
}

// ListRange returns the rows [lo, hi) of Child(0) that list row i spans.
func (w View) ListRange(i int) (int, int) {
	return w.vec.ListRange(w.offset + i)
}

// Child returns the view of child j. Struct fields are sliced like w;
// list values and dictionaries are returned whole.
func (w View) Child(j int) View {
	c := w.vec.children[j]
	if w.vec.typ.Oid == types.T_struct {
		return View{vec: c, offset: w.offset, length: w.length}
	}
	return c.View()
}

// SameType reports whether a and b hold values of the same type,
// nested types included.
func SameType(a, b View) bool {
	return sameType(a.vec, b.vec)
}

func sameType(a, b *Vector) bool {
	if !a.typ.Eq(b.typ) || len(a.children) != len(b.children) {
		// a dictionary may still be waiting for its first value
		return a.typ.Eq(b.typ) && a.typ.Oid == types.T_dictionary32
	}
	for i := range a.children {
		if !sameType(a.children[i], b.children[i]) {
			return false
		}
	}
	return true
}

func checkSels(ctx string, n int, sels []int64) error {
	for _, sel := range sels {
		if sel >= int64(n) {
			return moerr.NewInvalidInputNoCtx("%s row %d out of range [0, %d)", ctx, sel, n)
		}
	}
	return nil
}

// Gather returns a new vector whose row k is row sels[k] of w. A
// negative index produces a null row.
func Gather(w View, sels []int64, mp *mpool.MPool) (*Vector, error) {
	if err := checkSels("gather", w.length, sels); err != nil {
		return nil, err
	}
	var out *Vector
	var err error
	switch oid := w.vec.typ.Oid; {
	case oid.FixedLength() > 0 || oid == types.T_dictionary32:
		out, err = gatherFixed(w, sels, mp)
	case oid == types.T_varchar:
		out, err = gatherVarchar(w, sels, mp)
	default:
		out = emptyLike(w.vec)
		for _, sel := range sels {
			if err = out.UnionOne(w, sel, mp); err != nil {
				break
			}
		}
	}
	if err != nil {
		if out != nil {
			out.Free(mp)
		}
		return nil, err
	}
	return out, nil
}

func gatherFixed(w View, sels []int64, mp *mpool.MPool) (*Vector, error) {
	out := NewVec(w.vec.typ)
	if len(sels) == 0 {
		if w.vec.typ.Oid == types.T_dictionary32 {
			out.children = []*Vector{emptyLike(w.vec.children[0])}
		}
		return out, nil
	}
	if err := out.PreExtend(len(sels), mp); err != nil {
		return nil, err
	}
	sz := int(w.vec.typ.Size)
	for k, sel := range sels {
		if sel < 0 || w.IsNull(int(sel)) {
			out.nsp.Set(uint64(k))
			continue
		}
		i := w.offset + int(sel)
		copy(out.data[k*sz:(k+1)*sz], w.vec.data[i*sz:(i+1)*sz])
	}
	out.SetLength(len(sels))
	if w.vec.typ.Oid == types.T_dictionary32 {
		dict, err := w.vec.children[0].Dup(mp)
		if err != nil {
			out.Free(mp)
			return nil, err
		}
		out.children = []*Vector{dict}
		out.dictSrc = w.vec.children[0]
	}
	return out, nil
}

func gatherVarchar(w View, sels []int64, mp *mpool.MPool) (*Vector, error) {
	out := NewVec(w.vec.typ)
	if len(sels) == 0 {
		return out, nil
	}
	total := 0
	for _, sel := range sels {
		if sel >= 0 && !w.IsNull(int(sel)) {
			total += len(w.GetBytesAt(int(sel)))
		}
	}
	if err := out.growData((len(sels)+1)*4, mp); err != nil {
		return nil, err
	}
	area, err := mp.Alloc(total)
	if err != nil {
		out.Free(mp)
		return nil, err
	}
	out.area = area
	out.length = len(sels)
	offs := out.offsets()
	pos := 0
	for k, sel := range sels {
		if sel < 0 || w.IsNull(int(sel)) {
			out.nsp.Set(uint64(k))
		} else {
			pos += copy(out.area[pos:], w.GetBytesAt(int(sel)))
		}
		offs[k+1] = int32(pos)
	}
	out.MarkNullCountUnknown()
	return out, nil
}

// GatherCoalesce returns a new vector whose row k is row ai[k] of a when
// ai[k] >= 0, else row bi[k] of b when bi[k] >= 0, else null.
func GatherCoalesce(a View, ai []int64, b View, bi []int64, mp *mpool.MPool) (*Vector, error) {
	if len(ai) != len(bi) {
		return nil, moerr.NewInvalidInputNoCtx("coalesce %d and %d indices", len(ai), len(bi))
	}
	if !SameType(a, b) {
		return nil, moerr.NewInvalidInputNoCtx("coalesce %s with %s", a.Type(), b.Type())
	}
	if err := checkSels("coalesce", a.length, ai); err != nil {
		return nil, err
	}
	if err := checkSels("coalesce", b.length, bi); err != nil {
		return nil, err
	}
	out := emptyLike(a.vec)
	for k := range ai {
		var err error
		if ai[k] >= 0 {
			err = out.UnionOne(a, ai[k], mp)
		} else {
			err = out.UnionOne(b, bi[k], mp)
		}
		if err != nil {
			out.Free(mp)
			return nil, err
		}
	}
	return out, nil
}
