package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MangalamGSinha/DockSuiteX/internal/model"
)

const vinaResultTable = `Performing docking (random seed: -111612571) ...
0%   10   20   30   40   50   60   70   80   90   100%
|----|----|----|----|----|----|----|----|----|----|
***************************************************

mode |   affinity | dist from best mode
     | (kcal/mol) | rmsd l.b.| rmsd u.b.
-----+------------+----------+----------
   1       -7.452          0          0
   2       -7.101      1.922      2.530
   3       -6.874      2.481      4.107
`

func TestParseVinaBestScore(t *testing.T) {
	score, ok := parseVinaBestScore(vinaResultTable)
	require.True(t, ok)
	require.InDelta(t, -7.452, score, 1e-9)

	_, ok = parseVinaBestScore("Reading input ... done.\n")
	require.False(t, ok)
}

func TestParsePoseBestScore(t *testing.T) {
	pose := filepath.Join(t.TempDir(), "output.pdbqt")
	content := "MODEL 1\nREMARK VINA RESULT:    -7.452      0.000      0.000\nATOM      1  C   LIG A   1       0.000   0.000   0.000  0.00  0.00     0.000 C \nENDMDL\n"
	require.NoError(t, os.WriteFile(pose, []byte(content), 0o644))

	score, ok := parsePoseBestScore(pose)
	require.True(t, ok)
	require.InDelta(t, -7.452, score, 1e-9)
}

// writeStubTool drops an executable shell script into dir and returns its
// path. The script stands in for a real docking binary in tests.
func writeStubTool(t *testing.T, dir, name, script string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func writeStubPDBQT(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	line := "ATOM      1  C   LIG A   1       0.000   0.000   0.000  0.00  0.00     0.000 C \n"
	require.NoError(t, os.WriteFile(path, []byte(line), 0o644))
	return path
}

func vinaDockInput(t *testing.T) DockInput {
	t.Helper()
	dir := t.TempDir()
	return DockInput{
		ReceptorPath: writeStubPDBQT(t, dir, "receptor.pdbqt"),
		LigandPath:   writeStubPDBQT(t, dir, "ligand.pdbqt"),
		Center:       model.Center{10.5, -3.1, 0},
		WorkDir:      t.TempDir(),
	}
}

func TestVinaDock(t *testing.T) {
	// The stub echoes a result table and writes the pose file named by --out.
	stub := writeStubTool(t, t.TempDir(), "vina", `
out=""
prev=""
for arg in "$@"; do
  if [ "$prev" = "--out" ]; then out="$arg"; fi
  prev="$arg"
done
printf 'REMARK stub run\n'
printf 'mode |   affinity | dist from best mode\n'
printf -- '-----+------------+----------+----------\n'
printf '   1       -7.452          0          0\n'
printf 'MODEL 1\nENDMDL\n' > "$out"
`)
	v, err := NewVina(Toolchain{Vina: stub}, DefaultVinaParams())
	require.NoError(t, err)

	in := vinaDockInput(t)
	out, err := v.Dock(context.Background(), in)
	require.NoError(t, err)
	require.InDelta(t, -7.452, out.BestScore, 1e-9)
	require.FileExists(t, out.PosePath)
	require.FileExists(t, out.LogPath)

	logContent, err := os.ReadFile(out.LogPath)
	require.NoError(t, err)
	require.Contains(t, string(logContent), "-7.452")
}

func TestVinaDockMissingPose(t *testing.T) {
	stub := writeStubTool(t, t.TempDir(), "vina", `printf 'no pose written\n'`)
	v, err := NewVina(Toolchain{Vina: stub}, DefaultVinaParams())
	require.NoError(t, err)

	_, err = v.Dock(context.Background(), vinaDockInput(t))
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	require.Equal(t, ErrKindOutputMissing, engErr.Kind)
}

func TestVinaDockNonZeroExit(t *testing.T) {
	stub := writeStubTool(t, t.TempDir(), "vina", `
echo "PDBQT parsing error: atom count mismatch" >&2
exit 1
`)
	v, err := NewVina(Toolchain{Vina: stub}, DefaultVinaParams())
	require.NoError(t, err)

	_, err = v.Dock(context.Background(), vinaDockInput(t))
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	require.Equal(t, ErrKindExit, engErr.Kind)
	require.Contains(t, engErr.Msg, "atom count mismatch")
}

func TestVinaDockTimeout(t *testing.T) {
	stub := writeStubTool(t, t.TempDir(), "vina", `sleep 5`)
	v, err := NewVina(Toolchain{Vina: stub}, DefaultVinaParams())
	require.NoError(t, err)

	in := vinaDockInput(t)
	in.Timeout = 100 * time.Millisecond
	_, err = v.Dock(context.Background(), in)
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	require.Equal(t, ErrKindTimeout, engErr.Kind)
}

func TestVinaDockMissingTool(t *testing.T) {
	v, err := NewVina(Toolchain{}, DefaultVinaParams())
	require.NoError(t, err)

	_, err = v.Dock(context.Background(), vinaDockInput(t))
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	require.Equal(t, ErrKindStart, engErr.Kind)
}

func TestVinaDockRejectsNonPDBQT(t *testing.T) {
	stub := writeStubTool(t, t.TempDir(), "vina", `exit 0`)
	v, err := NewVina(Toolchain{Vina: stub}, DefaultVinaParams())
	require.NoError(t, err)

	in := vinaDockInput(t)
	pdb := filepath.Join(t.TempDir(), "receptor.pdb")
	require.NoError(t, os.WriteFile(pdb, []byte("ATOM\n"), 0o644))
	in.ReceptorPath = pdb

	_, err = v.Dock(context.Background(), in)
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	require.Equal(t, ErrKindStart, engErr.Kind)
	require.Contains(t, engErr.Msg, ".pdbqt")
}
