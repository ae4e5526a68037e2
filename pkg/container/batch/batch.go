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
	"bytes"
	"fmt"

	"github.com/matrixorigin/columnar/pkg/common/moerr"
	"github.com/matrixorigin/columnar/pkg/common/mpool"
	"github.com/matrixorigin/columnar/pkg/container/vector"
)

// Batch is a table: an ordered list of columns of equal row count.
// It owns its vectors.
type Batch struct {
	// Vecs col data
	Vecs []*vector.Vector

	rowCount int
}

func NewWithSize(n int) *Batch {
	return &Batch{
		Vecs: make([]*vector.Vector, n),
	}
}

// FromVectors builds a batch over vecs, which must have equal lengths.
func FromVectors(vecs ...*vector.Vector) (*Batch, error) {
	bat := NewWithSize(len(vecs))
	for i, vec := range vecs {
		if vec.Length() != vecs[0].Length() {
			return nil, moerr.NewInvalidInputNoCtx("column %d has %d rows, column 0 has %d", i, vec.Length(), vecs[0].Length())
		}
		bat.Vecs[i] = vec
	}
	if len(vecs) > 0 {
		bat.rowCount = vecs[0].Length()
	}
	return bat, nil
}

func (bat *Batch) RowCount() int {
	return bat.rowCount
}

func (bat *Batch) SetRowCount(rowCount int) {
	bat.rowCount = rowCount
}

// View returns the table view over every column of bat.
func (bat *Batch) View() View {
	cols := make([]vector.View, len(bat.Vecs))
	for i, vec := range bat.Vecs {
		cols[i] = vec.View()
	}
	return View{cols: cols, rows: bat.rowCount}
}

func (bat *Batch) Clean(m *mpool.MPool) {
	for _, vec := range bat.Vecs {
		if vec != nil {
			vec.Free(m)
		}
	}
	bat.Vecs = nil
	bat.rowCount = 0
}

func (bat *Batch) String() string {
	var buf bytes.Buffer

	for i, vec := range bat.Vecs {
		buf.WriteString(fmt.Sprintf("%d : %s\n", i, vec.String()))
	}
	return buf.String()
}

func (bat *Batch) IsEmpty() bool {
	return bat.rowCount == 0
}
