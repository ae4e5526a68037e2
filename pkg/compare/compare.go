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

// Package compare builds row comparators and row hashers over a set of
// columns. Values are compared through the type dispatcher; the null
// policies live here.
package compare

import (
	"github.com/matrixorigin/columnar/pkg/common/moerr"
	"github.com/matrixorigin/columnar/pkg/container/batch"
	"github.com/matrixorigin/columnar/pkg/container/hashtable"
	"github.com/matrixorigin/columnar/pkg/container/vector"
	"github.com/matrixorigin/columnar/pkg/dispatch"
)

type Order uint8

const (
	Ascending Order = iota
	Descending
)

func (o Order) String() string {
	if o == Descending {
		return "DESC"
	}
	return "ASC"
}

// NullOrder places nulls when ordering rows.
type NullOrder uint8

const (
	NullsSmallest NullOrder = iota
	NullsLargest
)

// NullEquality decides whether two null keys are equal. The zero value
// never matches a null, not even another null.
type NullEquality uint8

const (
	NullsUnequal NullEquality = iota
	NullsEqual
)

// Options of a RowComparator. Orders may be nil for all ascending.
type Options struct {
	Orders       []Order
	NullOrder    NullOrder
	NullEquality NullEquality
}

type column struct {
	a, b    vector.View
	cmp     dispatch.RowCompare
	desc    bool
	mayNull bool
}

// RowComparator compares row i of the left table with row j of the
// right table, column by column from the left.
type RowComparator struct {
	cols      []column
	nullOrder NullOrder
	nullEq    NullEquality
}

// New builds a comparator between a and b, which must have the same
// column count and column types. Pass the same view twice to compare rows
// of one table.
func New(a, b batch.View, opts Options) (*RowComparator, error) {
	if a.ColumnCount() != b.ColumnCount() {
		return nil, moerr.NewInvalidInputNoCtx("compare %d columns with %d columns", a.ColumnCount(), b.ColumnCount())
	}
	if opts.Orders != nil && len(opts.Orders) != a.ColumnCount() {
		return nil, moerr.NewInvalidInputNoCtx("%d orders for %d columns", len(opts.Orders), a.ColumnCount())
	}
	c := &RowComparator{
		cols:      make([]column, a.ColumnCount()),
		nullOrder: opts.NullOrder,
		nullEq:    opts.NullEquality,
	}
	for k := range c.cols {
		ca, cb := a.Col(k), b.Col(k)
		cmp, err := dispatch.Comparator(ca, cb)
		if err != nil {
			return nil, err
		}
		c.cols[k] = column{
			a:       ca,
			b:       cb,
			cmp:     cmp,
			desc:    opts.Orders != nil && opts.Orders[k] == Descending,
			mayNull: ca.HasNull() || cb.HasNull(),
		}
	}
	return c, nil
}

// Equal reports whether every column of the two rows is equal.
func (c *RowComparator) Equal(i, j int) bool {
	for k := range c.cols {
		col := &c.cols[k]
		if col.mayNull {
			an, bn := col.a.IsNull(i), col.b.IsNull(j)
			if an || bn {
				if an && bn && c.nullEq == NullsEqual {
					continue
				}
				return false
			}
		}
		if col.cmp(i, j) != 0 {
			return false
		}
	}
	return true
}

// Compare is the lexicographic three way comparison under the column
// orders. The first column that is not a tie decides. A null is the
// smallest or largest value of its column, so a descending column
// reverses the null placement too.
func (c *RowComparator) Compare(i, j int) int {
	for k := range c.cols {
		col := &c.cols[k]
		var r int
		if an, bn := col.mayNull && col.a.IsNull(i), col.mayNull && col.b.IsNull(j); an || bn {
			switch {
			case an && bn:
				continue
			case an == (c.nullOrder == NullsSmallest):
				r = -1
			default:
				r = 1
			}
		} else if r = col.cmp(i, j); r == 0 {
			continue
		}
		if col.desc {
			return -r
		}
		return r
	}
	return 0
}

// Less reports whether row i sorts before row j.
func (c *RowComparator) Less(i, j int) bool {
	return c.Compare(i, j) < 0
}

// RowHasher hashes the key of a row; rows that are Equal under
// NullsEqual hash equal.
type RowHasher struct {
	cols   []vector.View
	hashes []dispatch.RowHash
}

const nullHash = 0x2545f4914f6cdd1d

func NewRowHasher(v batch.View) (*RowHasher, error) {
	h := &RowHasher{
		cols:   v.Cols(),
		hashes: make([]dispatch.RowHash, v.ColumnCount()),
	}
	for k, col := range h.cols {
		fn, err := dispatch.Hasher(col)
		if err != nil {
			return nil, err
		}
		h.hashes[k] = fn
	}
	return h, nil
}

func (h *RowHasher) Hash(i int) uint64 {
	var seed uint64
	for k, col := range h.cols {
		v := uint64(nullHash)
		if !col.IsNull(i) {
			v = h.hashes[k](i)
		}
		seed = hashtable.Combine(seed, v)
	}
	return seed
}

// HasNull reports whether any key column of row i is null.
func (h *RowHasher) HasNull(i int) bool {
	for _, col := range h.cols {
		if col.IsNull(i) {
			return true
		}
	}
	return false
}
