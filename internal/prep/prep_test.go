package prep

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MangalamGSinha/DockSuiteX/internal/engine"
)

func writeStubTool(t *testing.T, dir, name, script string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func writeInput(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("input\n"), 0o644))
	return path
}

// stubToolchain builds a toolchain where every stage writes the file named by
// its -o/-O argument.
func stubToolchain(t *testing.T) engine.Toolchain {
	t.Helper()
	dir := t.TempDir()
	writeOut := `
prev=""
out=""
for arg in "$@"; do
  case "$prev" in
    -o|-O) out="$arg";;
  esac
  prev="$arg"
done
[ -n "$out" ] && touch "$out"
exit 0
`
	return engine.Toolchain{
		Obabel:                writeStubTool(t, dir, "obabel", writeOut),
		MGLPython:             writeStubTool(t, dir, "pythonsh", writeOut),
		PrepareReceptorScript: "/opt/mgltools/prepare_receptor4.py",
		PrepareLigandScript:   "/opt/mgltools/prepare_ligand4.py",
	}
}

func TestReceptorPrepareFromPDB(t *testing.T) {
	tc := stubToolchain(t)
	p := NewReceptorPreparer(tc, DefaultReceptorOptions(), t.TempDir())

	input := writeInput(t, t.TempDir(), "protein.pdb")
	outDir := t.TempDir()

	out, err := p.Prepare(context.Background(), input, outDir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(outDir, "protein.pdbqt"), out)
	require.FileExists(t, out)
}

func TestReceptorPrepareConvertsNonPDB(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "obabel_called")
	tc := stubToolchain(t)
	tc.Obabel = writeStubTool(t, dir, "obabel", `
touch `+marker+`
prev=""
for arg in "$@"; do
  [ "$prev" = "-O" ] && touch "$arg"
  prev="$arg"
done
`)
	p := NewReceptorPreparer(tc, DefaultReceptorOptions(), t.TempDir())

	input := writeInput(t, t.TempDir(), "protein.cif")
	out, err := p.Prepare(context.Background(), input, t.TempDir())
	require.NoError(t, err)
	require.FileExists(t, out)
	require.FileExists(t, marker)
}

func TestReceptorPrepareUnsupportedFormat(t *testing.T) {
	p := NewReceptorPreparer(stubToolchain(t), DefaultReceptorOptions(), t.TempDir())

	input := writeInput(t, t.TempDir(), "protein.docx")
	_, err := p.Prepare(context.Background(), input, t.TempDir())
	var perr *Error
	require.ErrorAs(t, err, &perr)
	require.Contains(t, perr.Msg, "unsupported input format")
}

func TestReceptorPrepareToolFailure(t *testing.T) {
	tc := stubToolchain(t)
	tc.MGLPython = writeStubTool(t, t.TempDir(), "pythonsh", `
echo "sorry, no molecule here" >&2
exit 1
`)
	p := NewReceptorPreparer(tc, DefaultReceptorOptions(), t.TempDir())

	input := writeInput(t, t.TempDir(), "protein.pdb")
	_, err := p.Prepare(context.Background(), input, t.TempDir())
	var perr *Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, "receptor", perr.Stage)

	var engErr *engine.Error
	require.ErrorAs(t, err, &engErr)
	require.Contains(t, engErr.Msg, "no molecule here")
}

func TestLigandPrepare(t *testing.T) {
	tc := stubToolchain(t)
	p := NewLigandPreparer(tc, DefaultLigandOptions(), t.TempDir())

	input := writeInput(t, t.TempDir(), "aspirin.sdf")
	outDir := t.TempDir()

	out, err := p.Prepare(context.Background(), input, outDir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(outDir, "aspirin.pdbqt"), out)
	require.FileExists(t, out)
}

func TestLigandPrepareExplicitFile(t *testing.T) {
	tc := stubToolchain(t)
	p := NewLigandPreparer(tc, DefaultLigandOptions(), t.TempDir())

	input := writeInput(t, t.TempDir(), "aspirin.smi")
	target := filepath.Join(t.TempDir(), "lig.pdbqt")

	out, err := p.Prepare(context.Background(), input, target)
	require.NoError(t, err)
	require.Equal(t, target, out)
}

func TestLigandPrepareRejectsUnknownForcefield(t *testing.T) {
	opts := DefaultLigandOptions()
	opts.Minimize = "amber99"
	p := NewLigandPreparer(stubToolchain(t), opts, t.TempDir())

	input := writeInput(t, t.TempDir(), "aspirin.sdf")
	_, err := p.Prepare(context.Background(), input, t.TempDir())
	var perr *Error
	require.ErrorAs(t, err, &perr)
	require.Contains(t, perr.Msg, "unsupported forcefield")
}

func TestLigandPrepareObabelArgs(t *testing.T) {
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args")
	tc := stubToolchain(t)
	tc.Obabel = writeStubTool(t, dir, "obabel", `
echo "$@" > `+argsFile+`
prev=""
for arg in "$@"; do
  [ "$prev" = "-O" ] && touch "$arg"
  prev="$arg"
done
`)
	opts := DefaultLigandOptions()
	opts.Minimize = "mmff94"
	p := NewLigandPreparer(tc, opts, t.TempDir())

	input := writeInput(t, t.TempDir(), "aspirin.sdf")
	_, err := p.Prepare(context.Background(), input, t.TempDir())
	require.NoError(t, err)

	raw, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	args := string(raw)
	require.Contains(t, args, "-i sdf")
	require.Contains(t, args, "-o mol2")
	require.Contains(t, args, "--gen3d")
	require.Contains(t, args, "--delete HOH --delete [#8H2]")
	require.Contains(t, args, "--minimize --ff mmff94")
}

func TestPrepareRemovesWorkDirOnSuccess(t *testing.T) {
	tc := stubToolchain(t)
	tempRoot := t.TempDir()

	rp := NewReceptorPreparer(tc, DefaultReceptorOptions(), tempRoot)
	input := writeInput(t, t.TempDir(), "protein.cif")
	_, err := rp.Prepare(context.Background(), input, t.TempDir())
	require.NoError(t, err)

	lp := NewLigandPreparer(tc, DefaultLigandOptions(), tempRoot)
	input = writeInput(t, t.TempDir(), "aspirin.sdf")
	_, err = lp.Prepare(context.Background(), input, t.TempDir())
	require.NoError(t, err)

	entries, err := os.ReadDir(tempRoot)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestPrepareKeepsWorkDirOnFailure(t *testing.T) {
	tc := stubToolchain(t)
	tc.MGLPython = writeStubTool(t, t.TempDir(), "pythonsh", "exit 1\n")
	tempRoot := t.TempDir()

	p := NewReceptorPreparer(tc, DefaultReceptorOptions(), tempRoot)
	input := writeInput(t, t.TempDir(), "protein.pdb")
	_, err := p.Prepare(context.Background(), input, t.TempDir())
	require.Error(t, err)

	entries, err := os.ReadDir(tempRoot)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, strings.HasPrefix(entries[0].Name(), "protein_"))
}

func TestTempDirUniquePerCall(t *testing.T) {
	root := t.TempDir()
	a, err := tempDir(root, "/data/protein.pdb")
	require.NoError(t, err)
	b, err := tempDir(root, "/data/protein.pdb")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
	require.True(t, strings.HasPrefix(filepath.Base(a), "protein_"))
}
