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

// Package dispatch maps a runtime type tag to the instantiations of the
// generic kernels written for that element type. Every algorithm that
// needs to look at values goes through Lookup; a tag without a kernel
// fails with a not implemented error, never with a silent fallback.
package dispatch

import (
	"github.com/matrixorigin/columnar/pkg/common/moerr"
	"github.com/matrixorigin/columnar/pkg/container/types"
	"github.com/matrixorigin/columnar/pkg/container/vector"
)

// RowCompare compares row i of its left view with row j of its right
// view, ignoring nulls: <0, 0 or >0.
type RowCompare func(i, j int) int

// RowHash hashes the value of row i, ignoring nulls.
type RowHash func(i int) uint64

// NumKind is the accumulator domain of a numeric type.
type NumKind uint8

const (
	NotNumeric NumKind = iota
	Signed
	Unsigned
	Float
)

func (k NumKind) String() string {
	switch k {
	case Signed:
		return "signed"
	case Unsigned:
		return "unsigned"
	case Float:
		return "float"
	}
	return "not numeric"
}

// Ops is the operation table of one type.
type Ops struct {
	Oid types.T

	// Compare builds the comparator between two views of this type.
	Compare func(a, b vector.View) (RowCompare, error)
	// Hash builds the hasher of a view; equal values hash equal.
	Hash func(a vector.View) (RowHash, error)

	Kind NumKind
	// Int64At, Uint64At and Float64At read a view as the accumulator
	// domain. Only the accessors matching Kind are set, except that
	// Float64At is set for every numeric type.
	Int64At   func(w vector.View) func(i int) int64
	Uint64At  func(w vector.View) func(i int) uint64
	Float64At func(w vector.View) func(i int) float64
}

var registry = make(map[types.T]*Ops)

func register(ops *Ops) {
	if _, ok := registry[ops.Oid]; ok {
		panic(moerr.NewInternalErrorNoCtx("duplicate kernels for %s", ops.Oid))
	}
	registry[ops.Oid] = ops
}

// Lookup returns the operation table of oid.
func Lookup(oid types.T) (*Ops, error) {
	if ops, ok := registry[oid]; ok {
		return ops, nil
	}
	if !oid.IsKnown() {
		return nil, moerr.NewInvalidInputNoCtx("unknown type tag %d", oid)
	}
	return nil, moerr.NewNYINoCtx("comparison of %s", oid)
}

// Comparator returns the comparator of a against b. Both views must
// hold the same type.
func Comparator(a, b vector.View) (RowCompare, error) {
	if !vector.SameType(a, b) {
		return nil, moerr.NewInvalidInputNoCtx("compare %s with %s", a.Type(), b.Type())
	}
	ops, err := Lookup(a.Type().Oid)
	if err != nil {
		return nil, err
	}
	return ops.Compare(a, b)
}

// Hasher returns the hasher of a.
func Hasher(a vector.View) (RowHash, error) {
	ops, err := Lookup(a.Type().Oid)
	if err != nil {
		return nil, err
	}
	return ops.Hash(a)
}

// Numeric returns the operation table of a numeric type, or a not
// implemented error naming what for.
func Numeric(oid types.T, what string) (*Ops, error) {
	ops, err := Lookup(oid)
	if err != nil {
		return nil, moerr.NewNYINoCtx("%s of %s", what, oid)
	}
	if ops.Kind == NotNumeric {
		return nil, moerr.NewNYINoCtx("%s of %s", what, oid)
	}
	return ops, nil
}
