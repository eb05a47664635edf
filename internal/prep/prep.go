// Package prep converts raw structure files into docking-ready PDBQT using
// Open Babel and the MGLTools AutoDockTools scripts.
package prep

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/MangalamGSinha/DockSuiteX/internal/model"
)

// Error is a preparation failure. Jobs that depend on the failed input are
// reported individually with this kind, never aborting the batch.
type Error struct {
	Stage string
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Kind() string { return model.ErrKindPreparation }

// tempDir creates a uniquely named working directory for one input under
// parent, keyed on the input's stem so leftovers are attributable.
func tempDir(parent, inputPath string) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	dir := filepath.Join(parent, fmt.Sprintf("%s_%s", stem, uuid.NewString()[:8]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &Error{Stage: "setup", Msg: "create temp dir", Err: err}
	}
	return dir, nil
}

// resolveOutput applies the save-to convention: a path without an extension is
// treated as a directory and receives "<input stem>.pdbqt".
func resolveOutput(saveTo, inputPath string) (string, error) {
	if filepath.Ext(saveTo) == "" {
		stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
		saveTo = filepath.Join(saveTo, stem+".pdbqt")
	}
	if err := os.MkdirAll(filepath.Dir(saveTo), 0o755); err != nil {
		return "", &Error{Stage: "setup", Msg: "create output dir", Err: err}
	}
	return saveTo, nil
}
