package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var (
		out  bytes.Buffer
		root = newRootCmd()
	)
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})

	err := root.Execute()
	return out.String(), err
}

func TestRunCmd(t *testing.T) {
	out, err := execute(t, "", "run", "--keys", "500", "--key-size", "10", "--readers", "2", "--baseline", "--log-level", "warn")
	require.NoError(t, err)

	for _, s := range []string{"insert", "lower_bound", "scan", "readers", "map find", "Kop/s", "keys: 550", "live nodes:"} {
		assert.Contains(t, out, s)
	}
}

func TestRunCmd_Invalid(t *testing.T) {
	_, err := execute(t, "", "run", "--keys", "0")
	assert.Error(t, err)

	_, err = execute(t, "", "run", "--node16", "avx")
	assert.Error(t, err)

	_, err = execute(t, "", "run", "--log-level", "loud", "--keys", "10")
	assert.Error(t, err)
}

func TestDumpCmd(t *testing.T) {
	out, err := execute(t, "", "dump", "a", "ab", "b")
	require.NoError(t, err)

	assert.Contains(t, out, "-- NODE4")
	assert.Contains(t, out, `[$] LEAF refs=1 key="a"`)
	assert.Contains(t, out, "keys=3 depth=2")

	out, err = execute(t, "x\nxy\nxyz\n", "dump")
	require.NoError(t, err)
	assert.Contains(t, out, `key="xyz"`)
	assert.Contains(t, out, "keys=3")
}

func TestShell(t *testing.T) {
	t.Parallel()

	var (
		out bytes.Buffer
		sh  = newShell(&out, zerolog.Nop())
	)
	defer sh.close()

	script := strings.Join([]string{
		`insert x 1`,
		`snap`,
		`insert y 2`,
		`get y`,
		`use 1`,
		`get y`,
		`get x`,
		`insert z 3`,
		`use 0`,
		`lb "a"`,
		`ub x`,
		`ub y`,
		`keys`,
		`check`,
		`drop 1`,
		`drop 1`,
		`insert "two words" 'quoted value'`,
		`get "two words"`,
		`bogus`,
		`get`,
		`quit`,
		`get x`,
	}, "\n")
	require.NoError(t, sh.run(strings.NewReader(script), false))

	assert.Equal(t, strings.Join([]string{
		`ok`,
		`snapshot 1`,
		`ok`,
		`"2"`,
		`using 1`,
		`not found`,
		`"1"`,
		`error: ` + errReadOnly.Error(),
		`using 0`,
		`"x" = "1"`,
		`"y" = "2"`,
		`end`,
		`"x" = "1"`,
		`"y" = "2"`,
		`ok`,
		`dropped 1, freed 0 bytes`,
		`error: no snapshot 1`,
		`ok`,
		`"quoted value"`,
		`error: unknown command "bogus", try help`,
		`error: get takes 1 argument(s)`,
		``,
	}, "\n"), out.String())

	assert.Equal(t, 3, sh.writer.Len())
	assert.Empty(t, sh.snaps)
}

func TestShell_KeyTooLong(t *testing.T) {
	t.Parallel()

	var (
		out bytes.Buffer
		sh  = newShell(&out, zerolog.Nop())
	)
	defer sh.close()

	err := sh.exec("insert " + strings.Repeat("k", 10001) + " v")
	assert.Error(t, err)
	assert.Equal(t, 0, sh.writer.Len())
}

func TestShellCmd_FileStdin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script")
	require.NoError(t, os.WriteFile(path, []byte("insert k v\nget k\nquit\n"), 0o600))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var (
		out  bytes.Buffer
		root = newRootCmd()
	)
	root.SetArgs([]string{"shell", "--log-level", "off"})
	root.SetIn(f)
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})

	require.NoError(t, root.Execute())
	assert.Equal(t, "ok\n\"v\"\n", out.String())
}
