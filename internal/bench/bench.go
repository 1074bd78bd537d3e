// Package bench times the tree against random keys, phase by phase, and optionally against a Go
// map plus sorted slice baseline.
package bench

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aglyzov/go-part/internal/config"
	"github.com/aglyzov/go-part/part"
)

const alphaNumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Result is one timed phase.
type Result struct {
	Phase   string
	Ops     int
	Elapsed time.Duration
}

// KOps returns thousands of operations per second.
func (r Result) KOps() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Ops) / 1000 / r.Elapsed.Seconds()
}

// Stats describes the tree left after the timed phases.
type Stats struct {
	Keys          int
	NodeSize      int64
	MaxDepth      int
	AvgStride     float64
	CompactStride float64
	Checkpoint    int64
	Usage         part.Usage
}

type Report struct {
	Results []Result
	Stats   Stats
}

// KV is a generated key and its value.
type KV struct {
	Key []byte
	Val int
}

// GenerateKeys returns n random alphanumeric keys of size bytes; values are i/50.
func GenerateKeys(seed int64, n, size int) []KV {
	var (
		faker = gofakeit.New(seed)
		keys  = make([]KV, n)
	)
	for i := range keys {
		key := make([]byte, size)
		for j := range key {
			key[j] = alphaNumeric[faker.Number(0, len(alphaNumeric)-1)]
		}
		keys[i] = KV{key, i / 50}
	}
	return keys
}

// runner times phases and collects their results
type runner struct {
	ctx     context.Context
	logger  zerolog.Logger
	results []Result
}

func (r *runner) phase(name string, ops int, fn func() error) error {
	if err := r.ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	if err := fn(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	res := Result{Phase: name, Ops: ops, Elapsed: time.Since(start)}
	r.results = append(r.results, res)

	r.logger.Info().
		Str("phase", name).
		Int("ops", ops).
		Dur("elapsed", res.Elapsed).
		Float64("kops", res.KOps()).
		Msg("phase finished")
	return nil
}

// Run generates the keys described by cfg and runs every phase over them.
func Run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info().Int("keys", cfg.Keys).Int("key_size", cfg.KeySize).Int64("seed", cfg.Seed).Msg("generating keys")
	keys := GenerateKeys(cfg.Seed, cfg.Keys, cfg.KeySize)

	var (
		r  = &runner{ctx: ctx, logger: logger}
		tr = part.New[int](
			part.WithLogger(logger),
			part.WithMaxKeyLen(cfg.MaxKeyLen),
			part.WithNode16Kernel(cfg.Kernel()),
		)
	)
	defer tr.Destroy()

	if err := runTree(r, tr, keys); err != nil {
		return nil, err
	}
	if cfg.Readers > 0 {
		extra := GenerateKeys(cfg.Seed+1, max(len(keys)/10, 1), cfg.KeySize)
		if err := runReaders(r, tr, keys, extra, cfg.Readers); err != nil {
			return nil, err
		}
	}

	stats := Stats{
		Keys:      tr.Len(),
		NodeSize:  tr.NodeSize(),
		MaxDepth:  tr.MaxDepth(),
		AvgStride: tr.AvgStride(),
	}
	var compact *part.Tree[int]
	if err := r.phase("compact", tr.Len(), func() error {
		compact = tr.Compact()
		return nil
	}); err != nil {
		return nil, err
	}
	stats.CompactStride = compact.AvgStride()
	compact.Destroy()
	stats.Checkpoint = tr.Checkpoint()
	stats.Usage = tr.Usage()

	if cfg.Baseline {
		if err := runBaseline(r, keys); err != nil {
			return nil, err
		}
	}
	return &Report{Results: r.results, Stats: stats}, nil
}

func runTree(r *runner, tr *part.Tree[int], keys []KV) error {
	n := len(keys)

	if err := r.phase("insert", n, func() error {
		for _, e := range keys {
			tr.Insert(e.Key, e.Val)
		}
		return nil
	}); err != nil {
		return err
	}

	if err := r.phase("find", n, func() error {
		for _, e := range keys {
			if tr.Search(e.Key) == nil {
				return fmt.Errorf("key %q not found", e.Key)
			}
		}
		return nil
	}); err != nil {
		return err
	}

	if err := r.phase("lower_bound", n, func() error {
		for _, e := range keys {
			if !tr.LowerBound(e.Key).Valid() {
				return fmt.Errorf("no lower bound for %q", e.Key)
			}
		}
		return nil
	}); err != nil {
		return err
	}

	if err := r.phase("upper_bound", n, func() error {
		for _, e := range keys {
			tr.UpperBound(e.Key)
		}
		return nil
	}); err != nil {
		return err
	}

	sorted := sortedKeys(keys)

	if err := r.phase("scan", len(sorted), func() error {
		it := tr.First()
		for _, key := range sorted {
			if !it.Valid() || !bytes.Equal(it.Key(), key) {
				return fmt.Errorf("scan: got %q, want %q", it.Key(), key)
			}
			it.Next()
		}
		if it.Valid() {
			return fmt.Errorf("scan: extra key %q", it.Key())
		}
		return nil
	}); err != nil {
		return err
	}

	if err := r.phase("find (sorted)", len(sorted), func() error {
		for _, key := range sorted {
			if tr.Search(key) == nil {
				return fmt.Errorf("key %q not found", key)
			}
		}
		return nil
	}); err != nil {
		return err
	}

	return r.phase("snapshot+destroy", n, func() error {
		for range keys {
			tr.Snapshot().Destroy()
		}
		return nil
	})
}

// runReaders pins one snapshot per reader and checks every key from it while the writer
// inserts extra into tr.
func runReaders(r *runner, tr *part.Tree[int], keys, extra []KV, readers int) error {
	before := tr.Len()

	return r.phase("readers", readers*len(keys), func() error {
		g, ctx := errgroup.WithContext(r.ctx)

		for i := 0; i < readers; i++ {
			snap := tr.Snapshot()
			g.Go(func() error {
				defer snap.Destroy()

				for j, e := range keys {
					if j%1024 == 0 && ctx.Err() != nil {
						return ctx.Err()
					}
					if snap.Search(e.Key) == nil {
						return fmt.Errorf("reader: key %q not found", e.Key)
					}
				}
				if snap.Len() != before {
					return fmt.Errorf("reader: snapshot has %d keys, want %d", snap.Len(), before)
				}
				return nil
			})
		}

		for _, e := range extra {
			tr.Insert(e.Key, e.Val)
		}
		if err := g.Wait(); err != nil {
			return err
		}

		// every snapshot is gone, only the writer's nodes stay live
		if u, size := tr.Usage(), tr.NodeSize(); u.Bytes != size {
			return fmt.Errorf("%d live bytes after readers, tree holds %d", u.Bytes, size)
		}
		return nil
	})
}

func runBaseline(r *runner, keys []KV) error {
	var (
		n = len(keys)
		m = make(map[string]int, n)
	)

	if err := r.phase("map insert", n, func() error {
		for _, e := range keys {
			m[string(e.Key)] = e.Val
		}
		return nil
	}); err != nil {
		return err
	}

	if err := r.phase("map find", n, func() error {
		for _, e := range keys {
			if _, ok := m[string(e.Key)]; !ok {
				return fmt.Errorf("key %q not found", e.Key)
			}
		}
		return nil
	}); err != nil {
		return err
	}

	var sorted [][]byte
	if err := r.phase("slice sort", n, func() error {
		sorted = sortedKeys(keys)
		return nil
	}); err != nil {
		return err
	}

	if err := r.phase("slice lower_bound", n, func() error {
		for _, e := range keys {
			if i, _ := slices.BinarySearchFunc(sorted, e.Key, bytes.Compare); i == len(sorted) {
				return fmt.Errorf("no lower bound for %q", e.Key)
			}
		}
		return nil
	}); err != nil {
		return err
	}

	return r.phase("slice upper_bound", n, func() error {
		var past int
		for _, e := range keys {
			i, found := slices.BinarySearchFunc(sorted, e.Key, bytes.Compare)
			if found {
				i++
			}
			if i == len(sorted) {
				past++
			}
		}
		r.logger.Debug().Int("past_end", past).Msg("slice upper_bound")
		return nil
	})
}

// sortedKeys returns the distinct keys in ascending order
func sortedKeys(keys []KV) [][]byte {
	sorted := make([][]byte, len(keys))
	for i, e := range keys {
		sorted[i] = e.Key
	}
	slices.SortFunc(sorted, bytes.Compare)
	return slices.CompactFunc(sorted, bytes.Equal)
}
