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

package batch

import (
	"github.com/matrixorigin/columnar/pkg/common/moerr"
	"github.com/matrixorigin/columnar/pkg/common/mpool"
	"github.com/matrixorigin/columnar/pkg/container/vector"
)

// View is a table view: an ordered list of column views of equal length.
type View struct {
	cols []vector.View
	rows int
}

// NewView builds a table view. Every column must have the same length.
func NewView(cols ...vector.View) (View, error) {
	v := View{cols: cols}
	for i, col := range cols {
		if !col.IsValid() {
			return View{}, moerr.NewInvalidInputNoCtx("column %d of the table view is empty", i)
		}
		if col.Length() != cols[0].Length() {
			return View{}, moerr.NewInvalidInputNoCtx("column %d has %d rows, column 0 has %d", i, col.Length(), cols[0].Length())
		}
	}
	if len(cols) > 0 {
		v.rows = cols[0].Length()
	}
	return v, nil
}

func (v View) RowCount() int {
	return v.rows
}

func (v View) ColumnCount() int {
	return len(v.cols)
}

func (v View) Col(i int) vector.View {
	return v.cols[i]
}

func (v View) Cols() []vector.View {
	return v.cols
}

// Select returns the view of columns idx, in that order.
func (v View) Select(idx []int) (View, error) {
	cols := make([]vector.View, len(idx))
	for i, c := range idx {
		if c < 0 || c >= len(v.cols) {
			return View{}, moerr.NewInvalidInputNoCtx("column %d out of range [0, %d)", c, len(v.cols))
		}
		cols[i] = v.cols[c]
	}
	return View{cols: cols, rows: v.rows}, nil
}

// Slice returns rows [offset, offset+length) of every column.
func (v View) Slice(offset, length int) (View, error) {
	if offset < 0 || length < 0 || offset+length > v.rows {
		return View{}, moerr.NewInvalidInputNoCtx("slice [%d, %d) of a table of %d rows", offset, offset+length, v.rows)
	}
	cols := make([]vector.View, len(v.cols))
	for i, col := range v.cols {
		s, err := col.Slice(offset, length)
		if err != nil {
			return View{}, err
		}
		cols[i] = s
	}
	return View{cols: cols, rows: length}, nil
}

// HasNull reports whether any column holds a null.
func (v View) HasNull() bool {
	for _, col := range v.cols {
		if col.HasNull() {
			return true
		}
	}
	return false
}

// Gather materializes rows sels of every column; a negative index
// produces a null row.
func Gather(v View, sels []int64, mp *mpool.MPool) (*Batch, error) {
	bat := NewWithSize(len(v.cols))
	for i, col := range v.cols {
		vec, err := vector.Gather(col, sels, mp)
		if err != nil {
			bat.Clean(mp)
			return nil, err
		}
		bat.Vecs[i] = vec
	}
	bat.rowCount = len(sels)
	return bat, nil
}
