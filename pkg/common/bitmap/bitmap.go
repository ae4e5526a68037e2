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

// Package bitmap is a word-packed bitset: bit i lives in word i/64 at
// position i%64. It backs the per-row null masks of vectors.
package bitmap

import (
	"math/bits"
)

// Trailing bits of the last word beyond len are always zero.

const wordBits = 64

type Bitmap struct {
	len  int64
	data []uint64
}

// Words returns how many uint64 words are needed to hold n bits.
func Words(n int) int {
	return (n + wordBits - 1) / wordBits
}

func New(n int) *Bitmap {
	return &Bitmap{
		len:  int64(n),
		data: make([]uint64, Words(n)),
	}
}

func (n *Bitmap) Clone() *Bitmap {
	if n == nil {
		return nil
	}
	return &Bitmap{
		len:  n.len,
		data: append([]uint64(nil), n.data...),
	}
}

// Size return number of bytes in n.data
func (n *Bitmap) Size() int {
	return len(n.data) * 8
}

// We always assume that bitmap has been extended to at least row.
func (n *Bitmap) Add(row uint64) {
	n.data[row>>6] |= 1 << (row & 0x3F)
}

// Contains returns true if the row is contained in the Bitmap
func (n *Bitmap) Contains(row uint64) bool {
	if row >= uint64(n.len) {
		return false
	}
	return (n.data[row>>6] & (1 << (row & 0x3F))) != 0
}

func (n *Bitmap) TryExpandWithSize(size int) {
	if int(n.len) >= size {
		return
	}
	newCap := Words(size)
	n.len = int64(size)
	if newCap > cap(n.data) {
		data := make([]uint64, newCap)
		copy(data, n.data)
		n.data = data
		return
	}
	if len(n.data) < newCap {
		n.data = n.data[:newCap]
	}
}

// CountRange counts the set bits in [start, end).
func (n *Bitmap) CountRange(start, end uint64) int {
	if end > uint64(n.len) {
		end = uint64(n.len)
	}
	if start >= end {
		return 0
	}
	i, j := start>>6, (end-1)>>6
	head := ^uint64(0) << uint(start&0x3F)
	tail := ^uint64(0) >> (uint(-end) & 0x3F)
	if i == j {
		return bits.OnesCount64(n.data[i] & head & tail)
	}
	cnt := bits.OnesCount64(n.data[i] & head)
	for k := i + 1; k < j; k++ {
		cnt += bits.OnesCount64(n.data[k])
	}
	return cnt + bits.OnesCount64(n.data[j]&tail)
}
