package bench

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/aglyzov/go-part/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallConfig() *config.Config {
	cfg := config.Default()
	cfg.Keys = 2000
	cfg.KeySize = 12
	return cfg
}

func phases(rep *Report) []string {
	var names []string
	for _, res := range rep.Results {
		names = append(names, res.Phase)
	}
	return names
}

func TestGenerateKeys(t *testing.T) {
	t.Parallel()

	var (
		a = GenerateKeys(7, 100, 20)
		b = GenerateKeys(7, 100, 20)
	)
	require.Len(t, a, 100)
	assert.Equal(t, a, b)

	for i, e := range a {
		assert.Len(t, e.Key, 20)
		assert.Equal(t, i/50, e.Val)
		for _, c := range e.Key {
			assert.Contains(t, alphaNumeric, string(c))
		}
	}
	assert.NotEqual(t, a, GenerateKeys(8, 100, 20))
}

func TestRun(t *testing.T) {
	t.Parallel()

	var (
		buf bytes.Buffer
		cfg = smallConfig()
	)
	rep, err := Run(context.Background(), cfg, zerolog.New(&buf))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"insert", "find", "lower_bound", "upper_bound", "scan", "find (sorted)", "snapshot+destroy", "compact",
	}, phases(rep))
	for _, res := range rep.Results {
		assert.Greater(t, res.Ops, 0, res.Phase)
	}

	st := rep.Stats
	assert.Equal(t, cfg.Keys, st.Keys)
	assert.Greater(t, st.NodeSize, int64(0))
	assert.Equal(t, st.NodeSize, st.Checkpoint)
	assert.Equal(t, st.NodeSize, st.Usage.Bytes)
	assert.Greater(t, st.MaxDepth, 0)
	assert.LessOrEqual(t, st.CompactStride, st.AvgStride)

	assert.Contains(t, buf.String(), `"phase":"insert"`)
}

func TestRun_ReadersAndBaseline(t *testing.T) {
	t.Parallel()

	cfg := smallConfig()
	cfg.Readers = 3
	cfg.Baseline = true
	cfg.Node16 = "scalar"

	rep, err := Run(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)

	names := phases(rep)
	for _, name := range []string{"readers", "map insert", "map find", "slice sort", "slice lower_bound", "slice upper_bound"} {
		assert.Contains(t, names, name)
	}
	assert.Equal(t, cfg.Keys+cfg.Keys/10, rep.Stats.Keys)
}

func TestRun_Invalid(t *testing.T) {
	t.Parallel()

	cfg := smallConfig()
	cfg.Keys = 0

	_, err := Run(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestRun_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, smallConfig(), zerolog.Nop())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResult_KOps(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2.0, Result{Ops: 4000, Elapsed: 2 * time.Second}.KOps())
	assert.Equal(t, 0.0, Result{Ops: 10}.KOps())
}
