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

package process

import (
	"context"
	"testing"

	"github.com/lni/goutils/leaktest"
	"github.com/matrixorigin/columnar/pkg/common/moerr"
	"github.com/matrixorigin/columnar/pkg/common/mpool"
	"github.com/matrixorigin/columnar/pkg/config"
	"github.com/stretchr/testify/require"
)

func TestNewFromConfig(t *testing.T) {
	defer leaktest.AfterTest(t)()
	ctx := context.TODO()
	cfg := config.Default()
	cfg.Workers.Size = 3
	cfg.Workers.GrainRows = 7
	cfg.HashTable.JoinOccupancy = 25

	proc, err := NewFromConfig(ctx, cfg)
	require.NoError(t, err)
	require.Equal(t, mpool.Default(), proc.Mp())
	require.Equal(t, 25, proc.JoinOccupancy)
	require.Equal(t, 50, proc.GroupByOccupancy)
	require.Equal(t, 3, proc.Chunks(20))
	require.NotEmpty(t, proc.Id())

	n := 0
	require.NoError(t, proc.For(5, func(c, lo, hi int) error {
		n += hi - lo
		return nil
	}))
	require.Equal(t, 5, n)
	proc.Free()

	_, err = proc.Pool()
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidInput))

	cfg.Workers.Size = -1
	_, err = NewFromConfig(ctx, cfg)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadConfig))
}

func TestNew(t *testing.T) {
	proc := New(context.TODO(), nil, nil)
	require.NotNil(t, proc.Mp())
	require.Equal(t, 0, proc.Chunks(10))
	require.Error(t, proc.For(10, func(c, lo, hi int) error { return nil }))
	proc.Free()
}
