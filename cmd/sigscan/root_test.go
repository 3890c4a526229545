package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/stephen-fox/inproc/pattern"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	stdout := bytes.NewBuffer(nil)
	stderr := bytes.NewBuffer(nil)

	cmd := newRootCmd()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(append([]string{"--pretty=false", "--log-level=error"}, args...))

	err := cmd.Execute()

	return stdout.String(), err
}

func TestRootCmd_Pattern(t *testing.T) {
	image := writeFile(t, "image.bin", []byte{0x00, 0x90, 0x90, 0xde, 0xad, 0x90, 0x11, 0xad})

	out, err := execute(t, "-p", "90 ?? AD", image)
	require.NoError(t, err)
	assert.Equal(t, image+": pattern 0x2\n", out)

	out, err = execute(t, "-p", "90 ?? AD", "--all", "--algorithm", "naive", image)
	require.NoError(t, err)
	assert.Equal(t, image+": pattern 0x2\n"+image+": pattern 0x5\n", out)
}

func TestRootCmd_NoMatch(t *testing.T) {
	image := writeFile(t, "image.bin", []byte{0x01, 0x02, 0x03})

	out, err := execute(t, "-p", "04 05", image)
	assert.Error(t, err)
	assert.Empty(t, out)
}

func TestRootCmd_EmptyFile(t *testing.T) {
	image := writeFile(t, "empty.bin", nil)

	_, err := execute(t, "-p", "04", image)
	assert.ErrorContains(t, err, "no match")
}

func TestRootCmd_SignatureFile(t *testing.T) {
	image := writeFile(t, "game.so", []byte{
		0xcc, 0xcc, 0x48, 0x8d, 0x05, 0x10, 0x20, 0x30, 0x40, 0x48, 0x89, 0x01,
	})

	sigs := writeFile(t, "sigs.yaml", []byte(`contexts:
  v1:
    - name: player_vtable
      pattern: "48 8D 05 ?? ?? ?? ?? 48 89 01"
      offset: 3
  v2:
    - name: player_vtable
      pattern: "4C 8D 05 ?? ?? ?? ?? 49 89 00"
      offset: 3
`))

	out, err := execute(t, "-f", sigs, "--context", "v1", image)
	require.NoError(t, err)
	assert.Equal(t, image+": player_vtable 0x5\n", out)

	_, err = execute(t, "-f", sigs, "--context", "v2", image)
	assert.Error(t, err)

	_, err = execute(t, "-f", sigs, image)
	assert.ErrorContains(t, err, "please specify one with --context")
}

func TestRootCmd_SignatureModule(t *testing.T) {
	dir := t.TempDir()

	game := filepath.Join(dir, "game.so")
	require.NoError(t, os.WriteFile(game, []byte{0x90, 0xc3, 0x90}, 0o600))

	engine := filepath.Join(dir, "engine.so")
	require.NoError(t, os.WriteFile(engine, []byte{0xc3, 0x90, 0x55}, 0o600))

	sigs := writeFile(t, "sigs.yaml", []byte(`contexts:
  v1:
    - name: game_ret
      pattern: "C3 90"
      module: game.so
    - name: engine_push
      pattern: "55"
      module: engine.so
`))

	out, err := execute(t, "-f", sigs, game, engine)
	require.NoError(t, err)
	assert.Equal(t, game+": game_ret 0x1\n"+engine+": engine_push 0x2\n", out)
}

func TestRootCmd_FlagValidation(t *testing.T) {
	image := writeFile(t, "image.bin", []byte{0x01})

	_, err := execute(t, image)
	assert.Error(t, err)

	_, err = execute(t, "-p", "01", "-f", "sigs.yaml", image)
	assert.Error(t, err)

	_, err = execute(t, "-p", "01")
	assert.Error(t, err)

	_, err = execute(t, "-p", "01", "--algorithm", "bogus", image)
	assert.ErrorContains(t, err, "unknown algorithm")

	_, err = execute(t, "-p", "zz", image)
	assert.ErrorIs(t, err, pattern.ErrInvalidPattern)
}

func TestParseAlgorithm(t *testing.T) {
	algorithm, err := parseAlgorithm("HORSPOOL")
	require.NoError(t, err)
	assert.Equal(t, pattern.Horspool, algorithm)

	algorithm, err = parseAlgorithm("naive")
	require.NoError(t, err)
	assert.Equal(t, pattern.Naive, algorithm)
}
