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

package nulls

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNulls(t *testing.T) {
	var nsp Nulls
	require.False(t, nsp.Contains(3))
	require.Equal(t, 0, nsp.CountRange(0, 100))
	require.Equal(t, 0, Size(&nsp))

	nsp.Set(3)
	nsp.Set(70)
	require.True(t, nsp.Contains(70))
	require.False(t, nsp.Contains(4))
	require.Equal(t, 2, nsp.CountRange(0, 100))
	require.Equal(t, 1, nsp.CountRange(0, 64))
	require.Equal(t, 16, Size(&nsp))

	c := nsp.Clone()
	c.Set(4)
	require.False(t, nsp.Contains(4))
	require.Equal(t, 3, c.CountRange(0, 100))

	var nilNsp *Nulls
	require.Nil(t, nilNsp.Clone())
	require.False(t, nilNsp.Contains(0))
}

func TestTryExpand(t *testing.T) {
	var nsp Nulls
	TryExpand(&nsp, 10)
	require.NotNil(t, nsp.Np)
	require.Equal(t, 0, nsp.CountRange(0, 10))
	nsp.Set(9)
	TryExpand(&nsp, 200)
	require.True(t, nsp.Contains(9))
	nsp.Set(199)
	require.Equal(t, 2, nsp.CountRange(0, 200))
}
