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

package moerr

import (
	"errors"

	"go.uber.org/multierr"
)

// Category is the failure class an error belongs to.
type Category int

const (
	CategoryNone Category = iota
	CategoryPrecondition
	CategoryCapacityOverflow
	CategoryDeviceFault
	CategoryNotImplemented
	CategoryInternal
)

func (c Category) String() string {
	switch c {
	case CategoryNone:
		return "none"
	case CategoryPrecondition:
		return "precondition violation"
	case CategoryCapacityOverflow:
		return "capacity overflow"
	case CategoryDeviceFault:
		return "device fault"
	case CategoryNotImplemented:
		return "not implemented"
	default:
		return "internal"
	}
}

// Classify returns the category of err. For a combined error the most
// severe member wins: device faults first, then everything else in order.
func Classify(err error) Category {
	if err == nil {
		return CategoryNone
	}
	errs := multierr.Errors(err)
	if len(errs) > 1 {
		best := CategoryNone
		for _, e := range errs {
			c := Classify(e)
			if c == CategoryDeviceFault {
				return c
			}
			if best == CategoryNone {
				best = c
			}
		}
		return best
	}
	var me *Error
	if !errors.As(err, &me) {
		return CategoryInternal
	}
	switch me.code {
	case ErrInvalidInput, ErrSizeNotMatch, ErrBadConfig:
		return CategoryPrecondition
	case ErrCapacityOverflow:
		return CategoryCapacityOverflow
	case ErrDeviceFault, ErrOOM:
		return CategoryDeviceFault
	case ErrNYI:
		return CategoryNotImplemented
	}
	if me.code < OkMax {
		return CategoryNone
	}
	return CategoryInternal
}

func IsDeviceFault(err error) bool {
	return Classify(err) == CategoryDeviceFault
}

func IsPrecondition(err error) bool {
	return Classify(err) == CategoryPrecondition
}
