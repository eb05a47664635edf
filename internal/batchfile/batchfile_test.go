package batchfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MangalamGSinha/DockSuiteX/internal/engine"
	"github.com/MangalamGSinha/DockSuiteX/internal/model"
)

func writeBatchFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "batch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x\n"), 0o644))
}

func TestLoadAndResolve(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "receptors", "1ubq.pdbqt"))
	touch(t, filepath.Join(dir, "ligands", "aspirin.sdf"))
	touch(t, filepath.Join(dir, "ligands", "caffeine.sdf"))
	touch(t, filepath.Join(dir, "ligands", "notes.txt"))

	path := writeBatchFile(t, dir, `
engine: vina
receptors:
  - receptors/1ubq.pdbqt
ligands:
  - ligands/
centers:
  - [10.5, -3.1, 0.0]
box_size: [22.5, 22.5, 22.5]
workers: 4
job_timeout: 30m
output: out
vina:
  exhaustiveness: 16
  num_modes: 9
  verbosity: 1
  cpu: 2
`)

	f, err := Load(path)
	require.NoError(t, err)

	r, err := f.Resolve(dir)
	require.NoError(t, err)
	require.Equal(t, engine.EngineVina, r.Engine)
	require.Equal(t, 4, r.Workers)
	require.Equal(t, 30*time.Minute, r.JobTimeout)
	require.Equal(t, filepath.Join(dir, "out"), r.Output)

	require.Len(t, r.Request.Receptors, 1)
	require.Equal(t, "1ubq", r.Request.Receptors[0].ID)
	require.True(t, r.Request.Receptors[0].Prepared())

	// Directory expansion keeps only supported structure files, sorted.
	require.Len(t, r.Request.Ligands, 2)
	require.Equal(t, "aspirin", r.Request.Ligands[0].ID)
	require.Equal(t, "caffeine", r.Request.Ligands[1].ID)
	require.False(t, r.Request.Ligands[0].Prepared())

	require.Equal(t, []model.Center{{10.5, -3.1, 0}}, r.Request.Centers)
	require.Equal(t, model.BoxSize{22.5, 22.5, 22.5}, r.Request.BoxSize)

	params, ok := r.Request.Params.(engine.VinaParams)
	require.True(t, ok)
	require.Equal(t, 16, params.Exhaustiveness)
}

func TestResolveDefaultsToVina(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "r.pdbqt"))
	touch(t, filepath.Join(dir, "l.pdbqt"))

	path := writeBatchFile(t, dir, `
receptors: [r.pdbqt]
ligands: [l.pdbqt]
centers:
  - [0, 0, 0]
`)
	f, err := Load(path)
	require.NoError(t, err)

	r, err := f.Resolve(dir)
	require.NoError(t, err)
	require.Equal(t, engine.EngineVina, r.Engine)
	require.Equal(t, filepath.Join(dir, "results"), r.Output)

	params, ok := r.Request.Params.(engine.VinaParams)
	require.True(t, ok)
	require.Equal(t, engine.DefaultVinaParams().Exhaustiveness, params.Exhaustiveness)
}

func TestResolveCentersByReceptor(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "recA.pdbqt"))
	touch(t, filepath.Join(dir, "recB.pdbqt"))
	touch(t, filepath.Join(dir, "lig.pdbqt"))

	path := writeBatchFile(t, dir, `
engine: autodock4
receptors: [recA.pdbqt, recB.pdbqt]
ligands: [lig.pdbqt]
centers_by_receptor:
  recA:
    - [1, 1, 1]
  recB:
    - [2, 2, 2]
    - [3, 3, 3]
`)
	f, err := Load(path)
	require.NoError(t, err)

	r, err := f.Resolve(dir)
	require.NoError(t, err)
	require.Equal(t, engine.EngineAD4, r.Engine)
	require.Len(t, r.Request.CentersByReceptor["recB"], 2)

	_, ok := r.Request.Params.(engine.AD4Params)
	require.True(t, ok)
}

func TestResolvePockets(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "r.pdbqt"))
	touch(t, filepath.Join(dir, "l.pdbqt"))

	path := writeBatchFile(t, dir, `
engine: vina
receptors:
  - r.pdbqt
ligands:
  - l.pdbqt
pockets:
  top: 3
  threads: 2
  timeout: 15m
`)

	f, err := Load(path)
	require.NoError(t, err)
	r, err := f.Resolve(dir)
	require.NoError(t, err)

	require.NotNil(t, r.Pockets)
	require.Equal(t, 3, r.Pockets.Top)
	require.Equal(t, 2, r.Pockets.Threads)
	require.Equal(t, 15*time.Minute, r.Pockets.Timeout)
	require.Empty(t, r.Request.Centers)
	require.Empty(t, r.Request.CentersByReceptor)
}

func TestResolvePocketsDefaultsTopToOne(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "r.pdbqt"))
	touch(t, filepath.Join(dir, "l.pdbqt"))

	f := &File{Receptors: []string{"r.pdbqt"}, Ligands: []string{"l.pdbqt"}, Pockets: &PocketSpec{}}
	r, err := f.Resolve(dir)
	require.NoError(t, err)
	require.Equal(t, 1, r.Pockets.Top)
}

func TestResolveErrors(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "r.pdbqt"))
	touch(t, filepath.Join(dir, "l.pdbqt"))

	t.Run("unknown engine", func(t *testing.T) {
		f := &File{Engine: "glide", Receptors: []string{"r.pdbqt"}, Ligands: []string{"l.pdbqt"}}
		_, err := f.Resolve(dir)
		require.ErrorContains(t, err, "unknown engine")
	})
	t.Run("missing file", func(t *testing.T) {
		f := &File{Receptors: []string{"ghost.pdbqt"}, Ligands: []string{"l.pdbqt"}}
		_, err := f.Resolve(dir)
		require.Error(t, err)
	})
	t.Run("bad timeout", func(t *testing.T) {
		f := &File{Receptors: []string{"r.pdbqt"}, Ligands: []string{"l.pdbqt"}, JobTimeout: "soon"}
		_, err := f.Resolve(dir)
		require.ErrorContains(t, err, "job_timeout")
	})
	t.Run("pockets with explicit centers", func(t *testing.T) {
		f := &File{
			Receptors: []string{"r.pdbqt"}, Ligands: []string{"l.pdbqt"},
			Centers: [][3]float64{{1, 2, 3}},
			Pockets: &PocketSpec{Top: 1},
		}
		_, err := f.Resolve(dir)
		require.ErrorContains(t, err, "mutually exclusive")
	})
	t.Run("negative pockets top", func(t *testing.T) {
		f := &File{
			Receptors: []string{"r.pdbqt"}, Ligands: []string{"l.pdbqt"},
			Pockets: &PocketSpec{Top: -1},
		}
		_, err := f.Resolve(dir)
		require.ErrorContains(t, err, "pockets.top")
	})
	t.Run("bad pockets timeout", func(t *testing.T) {
		f := &File{
			Receptors: []string{"r.pdbqt"}, Ligands: []string{"l.pdbqt"},
			Pockets: &PocketSpec{Timeout: "soon"},
		}
		_, err := f.Resolve(dir)
		require.ErrorContains(t, err, "pockets.timeout")
	})
	t.Run("empty dir", func(t *testing.T) {
		empty := filepath.Join(dir, "empty")
		require.NoError(t, os.MkdirAll(empty, 0o755))
		f := &File{Receptors: []string{"empty"}, Ligands: []string{"l.pdbqt"}}
		_, err := f.Resolve(dir)
		require.ErrorContains(t, err, "no supported structure files")
	})
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeBatchFile(t, t.TempDir(), "receptors: [unclosed\n")
	_, err := Load(path)
	require.Error(t, err)
}
