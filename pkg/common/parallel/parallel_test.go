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

package parallel

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/lni/goutils/leaktest"
	"github.com/matrixorigin/columnar/pkg/common/moerr"
	"github.com/prashantv/gostub"
	"github.com/stretchr/testify/require"
)

func TestFor(t *testing.T) {
	defer leaktest.AfterTest(t)()
	stubs := gostub.Stub(&DefaultGrain, 10)
	defer stubs.Reset()

	p, err := NewPool(4, 0)
	require.NoError(t, err)
	require.Equal(t, 10, p.Grain())
	require.Equal(t, 11, p.Chunks(101))
	require.Equal(t, 0, p.Chunks(0))

	var sum atomic.Int64
	seen := make([]int32, 101)
	err = p.For(context.TODO(), 101, func(c, lo, hi int) error {
		if lo != c*10 {
			return moerr.NewInternalError(context.TODO(), "chunk %d starts at %d", c, lo)
		}
		for i := lo; i < hi; i++ {
			atomic.AddInt32(&seen[i], 1)
			sum.Add(int64(i))
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, int64(100*101/2), sum.Load())
	for i := range seen {
		require.Equal(t, int32(1), seen[i])
	}
	p.Release()
}

func TestForErrors(t *testing.T) {
	defer leaktest.AfterTest(t)()
	ctx := context.TODO()
	p, err := NewPool(2, 5)
	require.NoError(t, err)
	defer p.Release()

	err = p.For(ctx, 20, func(c, lo, hi int) error {
		switch c {
		case 1:
			return moerr.NewCapacityOverflow(ctx, "chunk %d", c)
		case 3:
			panic("out of bounds")
		}
		return nil
	})
	require.Error(t, err)
	require.True(t, moerr.IsDeviceFault(err))
	require.Contains(t, err.Error(), "capacity overflow")

	err = p.For(ctx, 3, func(c, lo, hi int) error {
		var s []int
		_ = s[hi]
		return nil
	})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrDeviceFault))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	require.Error(t, p.For(cancelled, 3, func(c, lo, hi int) error { return nil }))
}
