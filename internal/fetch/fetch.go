// Package fetch downloads structures from public databases: proteins from the
// RCSB Protein Data Bank, ligands from PubChem.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/MangalamGSinha/DockSuiteX/internal/runstore"
)

const (
	rcsbURLFormat    = "https://files.rcsb.org/download/%s.pdb"
	pubchemURLFormat = "https://pubchem.ncbi.nlm.nih.gov/rest/pug/compound/cid/%s/SDF?record_type=3d"

	defaultTimeout = 60 * time.Second
)

// Client downloads structure files. The zero value is not usable; use
// NewClient.
type Client struct {
	httpClient *http.Client

	// Base URLs are swappable for tests.
	rcsbFormat    string
	pubchemFormat string
}

func NewClient() *Client {
	return &Client{
		httpClient:    &http.Client{Timeout: defaultTimeout},
		rcsbFormat:    rcsbURLFormat,
		pubchemFormat: pubchemURLFormat,
	}
}

// PDB downloads one RCSB entry into saveDir as <ID>.pdb and returns the path.
// IDs are 4-character alphanumeric codes, matched case-insensitively.
func (c *Client) PDB(ctx context.Context, pdbID, saveDir string) (string, error) {
	id := strings.ToUpper(strings.TrimSpace(pdbID))
	if len(id) != 4 || !isAlnum(id) {
		return "", fmt.Errorf("invalid PDB ID %q: must be a 4-character alphanumeric code", pdbID)
	}
	url := fmt.Sprintf(c.rcsbFormat, id)
	path := filepath.Join(saveDir, id+".pdb")
	if err := c.download(ctx, url, path); err != nil {
		return "", fmt.Errorf("fetch PDB %s: %w", id, err)
	}
	return path, nil
}

// SDF downloads one PubChem 3D conformer into saveDir as <CID>.sdf and
// returns the path. CIDs are numeric.
func (c *Client) SDF(ctx context.Context, cid, saveDir string) (string, error) {
	id := strings.TrimSpace(cid)
	if id == "" || !isDigits(id) {
		return "", fmt.Errorf("invalid PubChem CID %q: must be numeric", cid)
	}
	url := fmt.Sprintf(c.pubchemFormat, id)
	path := filepath.Join(saveDir, id+".sdf")
	if err := c.download(ctx, url, path); err != nil {
		return "", fmt.Errorf("fetch SDF %s: %w", id, err)
	}
	return path, nil
}

func (c *Client) download(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response from %s: %w", url, err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return fmt.Errorf("%s returned an empty body", url)
	}

	if err := runstore.Mkdir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := runstore.WriteBytes(path, body); err != nil {
		return err
	}
	return nil
}

func isAlnum(s string) bool {
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
