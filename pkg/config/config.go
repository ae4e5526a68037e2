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

package config

import (
	"context"
	"runtime"

	"github.com/BurntSushi/toml"
	"github.com/matrixorigin/columnar/pkg/common/moerr"
	"github.com/matrixorigin/columnar/pkg/logutil"
)

const (
	defaultGrainRows = 8192
	// defaultOccupancy keeps hash tables at most half full.
	defaultOccupancy = 50
)

// Config is the root of the toml configuration file.
type Config struct {
	Log logutil.LogConfig `toml:"log"`

	MPool MPoolConfig `toml:"mpool"`

	Workers WorkersConfig `toml:"workers"`

	HashTable HashTableConfig `toml:"hashtable"`
}

type MPoolConfig struct {
	//maximum bytes held by the default pool. 0 means unlimited
	Capacity int64 `toml:"capacity"`
}

type WorkersConfig struct {
	//size of the worker pool. default: runtime.NumCPU()
	Size int `toml:"size"`

	//rows handed to a worker per task. default: 8192
	GrainRows int `toml:"grain-rows"`
}

type HashTableConfig struct {
	//target occupancy percent of group-by tables. default: 50
	GroupByOccupancy int `toml:"groupby-occupancy"`

	//target occupancy percent of join tables. default: 50
	JoinOccupancy int `toml:"join-occupancy"`
}

// Default returns a configuration with every field set to its default.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills the zero valued fields.
func (cfg *Config) SetDefaults() {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.MaxSize == 0 {
		cfg.Log.MaxSize = 512
	}
	if cfg.Workers.Size == 0 {
		cfg.Workers.Size = runtime.NumCPU()
	}
	if cfg.Workers.GrainRows == 0 {
		cfg.Workers.GrainRows = defaultGrainRows
	}
	if cfg.HashTable.GroupByOccupancy == 0 {
		cfg.HashTable.GroupByOccupancy = defaultOccupancy
	}
	if cfg.HashTable.JoinOccupancy == 0 {
		cfg.HashTable.JoinOccupancy = defaultOccupancy
	}
}

// Validate rejects values the engine cannot run with.
func (cfg *Config) Validate(ctx context.Context) error {
	if cfg.MPool.Capacity < 0 {
		return moerr.NewBadConfig(ctx, "mpool capacity %d is negative", cfg.MPool.Capacity)
	}
	if cfg.Workers.Size <= 0 {
		return moerr.NewBadConfig(ctx, "workers size %d must be positive", cfg.Workers.Size)
	}
	if cfg.Workers.GrainRows <= 0 {
		return moerr.NewBadConfig(ctx, "workers grain-rows %d must be positive", cfg.Workers.GrainRows)
	}
	if err := validOccupancy(ctx, "groupby-occupancy", cfg.HashTable.GroupByOccupancy); err != nil {
		return err
	}
	return validOccupancy(ctx, "join-occupancy", cfg.HashTable.JoinOccupancy)
}

func validOccupancy(ctx context.Context, name string, v int) error {
	if v <= 0 || v >= 100 {
		return moerr.NewBadConfig(ctx, "hashtable %s %d must be in (0, 100)", name, v)
	}
	return nil
}

// Load decodes the toml file at path, applies defaults and validates.
func Load(ctx context.Context, path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, moerr.NewBadConfig(ctx, "decode %s: %v", path, err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(ctx); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse is Load for an in-memory document.
func Parse(ctx context.Context, data string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.Decode(data, cfg); err != nil {
		return nil, moerr.NewBadConfig(ctx, "decode: %v", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(ctx); err != nil {
		return nil, err
	}
	return cfg, nil
}
