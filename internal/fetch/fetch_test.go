package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient()
	c.rcsbFormat = srv.URL + "/download/%s.pdb"
	c.pubchemFormat = srv.URL + "/compound/%s/sdf"
	return c
}

func TestPDB(t *testing.T) {
	var gotPath string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte("HEADER    UBIQUITIN\nATOM      1  N   MET A   1\nEND\n"))
	})

	dir := t.TempDir()
	path, err := c.PDB(context.Background(), "1ubq", dir)
	require.NoError(t, err)
	require.Equal(t, "/download/1UBQ.pdb", gotPath)
	require.Equal(t, filepath.Join(dir, "1UBQ.pdb"), path)

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(body), "UBIQUITIN")
}

func TestPDBInvalidID(t *testing.T) {
	c := NewClient()
	for _, id := range []string{"", "1UB", "12345", "1UB!"} {
		_, err := c.PDB(context.Background(), id, t.TempDir())
		require.Error(t, err, "id %q", id)
	}
}

func TestPDBNotFound(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	_, err := c.PDB(context.Background(), "9ZZZ", t.TempDir())
	require.ErrorContains(t, err, "status 404")
}

func TestSDF(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("2244\n  -OEChem-3D\n\nM  END\n$$$$\n"))
	})

	dir := t.TempDir()
	path, err := c.SDF(context.Background(), "2244", dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "2244.sdf"), path)
	require.FileExists(t, path)
}

func TestSDFInvalidCID(t *testing.T) {
	c := NewClient()
	for _, cid := range []string{"", "aspirin", "22a44"} {
		_, err := c.SDF(context.Background(), cid, t.TempDir())
		require.Error(t, err, "cid %q", cid)
	}
}

func TestSDFEmptyBody(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("  \n"))
	})
	_, err := c.SDF(context.Background(), "2244", t.TempDir())
	require.ErrorContains(t, err, "empty body")
}
