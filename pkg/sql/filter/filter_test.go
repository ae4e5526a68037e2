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

package filter

import (
	"bytes"
	"testing"

	"github.com/matrixorigin/columnar/pkg/common/moerr"
	"github.com/matrixorigin/columnar/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func TestFilter(t *testing.T) {
	proc := testutil.NewProcessWithGrain(t, 3)
	mp := proc.Mp()
	input := testutil.NewBatch(t,
		testutil.NewInt64Vector(t, mp, []int64{1, 2, 1, 1, 0, 1, 1}, 4),
		testutil.NewStringVector(t, mp, []string{"a", "a", "b", "a", "a", "", "a"}, 5),
	).View()

	target := testutil.NewBatch(t,
		testutil.NewInt64Vector(t, mp, []int64{1}),
		testutil.NewStringVector(t, mp, []string{"a"}),
	).View()
	n, sels, err := Filter(proc, input, target)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, []int64{0, 3, 6}, sels)

	nullTarget := testutil.NewBatch(t,
		testutil.NewInt64Vector(t, mp, []int64{1}),
		testutil.NewStringVector(t, mp, []string{""}, 0),
	).View()
	n, sels, err = Filter(proc, input, nullTarget)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, []int64{5}, sels)

	var buf bytes.Buffer
	String(&buf, target)
	require.Equal(t, "filter: equal to (1, a)", buf.String())
}

func TestFilterBadTarget(t *testing.T) {
	proc := testutil.NewProcess(t)
	mp := proc.Mp()
	input := testutil.NewBatch(t, testutil.NewInt64Vector(t, mp, []int64{1, 2})).View()

	_, _, err := Filter(proc, input, input)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidInput))

	wrongType := testutil.NewBatch(t, testutil.NewInt32Vector(t, mp, []int32{1})).View()
	_, _, err = Filter(proc, input, wrongType)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidInput))
}

func TestDropNulls(t *testing.T) {
	proc := testutil.NewProcessWithGrain(t, 2)
	mp := proc.Mp()
	input := testutil.NewBatch(t,
		testutil.NewInt64Vector(t, mp, []int64{1, 2, 3, 4, 5}, 1),
		testutil.NewFloat64Vector(t, mp, []float64{1, 2, 3, 4, 5}, 3),
	).View()
	n, sels, err := DropNulls(proc, input)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, []int64{0, 2, 4}, sels)

	empty := testutil.NewBatch(t, testutil.NewInt64Vector(t, mp, nil)).View()
	n, sels, err = DropNulls(proc, empty)
	require.NoError(t, err)
	require.Zero(t, n)
	require.Empty(t, sels)
}
