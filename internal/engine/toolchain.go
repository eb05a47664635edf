package engine

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Toolchain holds the locations of every external binary the toolkit shells
// out to. It is resolved once at startup and passed explicitly, so tests can
// point individual tools at stub executables.
type Toolchain struct {
	Vina     string `json:"vina"`
	AutoGrid string `json:"autogrid"`
	AutoDock string `json:"autodock"`
	Prank    string `json:"prank"`
	Obabel   string `json:"obabel"`
	// MGLTools ships its own python plus the AutoDockTools prepare scripts.
	MGLPython             string `json:"mgl_python"`
	PrepareReceptorScript string `json:"prepare_receptor_script"`
	PrepareLigandScript   string `json:"prepare_ligand_script"`
}

// Environment overrides for each tool location. PATH lookup applies when an
// override is unset.
const (
	EnvVina            = "DOCKSUITEX_VINA"
	EnvAutoGrid        = "DOCKSUITEX_AUTOGRID"
	EnvAutoDock        = "DOCKSUITEX_AUTODOCK"
	EnvPrank           = "DOCKSUITEX_PRANK"
	EnvObabel          = "DOCKSUITEX_OBABEL"
	EnvMGLPython       = "DOCKSUITEX_MGL_PYTHON"
	EnvPrepareReceptor = "DOCKSUITEX_PREPARE_RECEPTOR"
	EnvPrepareLigand   = "DOCKSUITEX_PREPARE_LIGAND"
)

// ResolveToolchain locates every tool it can. Missing tools resolve to an
// empty string; callers that need a specific tool get a start failure with
// the tool name when they try to use it, and doctor reports the gap up front.
func ResolveToolchain() Toolchain {
	return Toolchain{
		Vina:                  resolveTool(EnvVina, "vina"),
		AutoGrid:              resolveTool(EnvAutoGrid, "autogrid4"),
		AutoDock:              resolveTool(EnvAutoDock, "autodock4"),
		Prank:                 resolveTool(EnvPrank, "prank"),
		Obabel:                resolveTool(EnvObabel, "obabel"),
		MGLPython:             resolveTool(EnvMGLPython, "pythonsh"),
		PrepareReceptorScript: strings.TrimSpace(os.Getenv(EnvPrepareReceptor)),
		PrepareLigandScript:   strings.TrimSpace(os.Getenv(EnvPrepareLigand)),
	}
}

func resolveTool(envVar, binary string) string {
	if override := strings.TrimSpace(os.Getenv(envVar)); override != "" {
		return override
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return ""
	}
	return path
}

func (tc Toolchain) RequireTool(name, path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", &Error{
			Kind: ErrKindStart,
			Tool: name,
			Msg:  fmt.Sprintf("%s not found on PATH and no override set", name),
		}
	}
	return path, nil
}

// ToolStatus is one row of a doctor-style dependency report.
type ToolStatus struct {
	Name  string `json:"name"`
	Found bool   `json:"found"`
	Path  string `json:"path,omitempty"`
}

// Status reports which tools resolved, for preflight checks.
func (tc Toolchain) Status() []ToolStatus {
	rows := []struct {
		name string
		path string
	}{
		{"vina", tc.Vina},
		{"autogrid4", tc.AutoGrid},
		{"autodock4", tc.AutoDock},
		{"prank", tc.Prank},
		{"obabel", tc.Obabel},
		{"mgltools-python", tc.MGLPython},
	}
	out := make([]ToolStatus, 0, len(rows))
	for _, r := range rows {
		out = append(out, ToolStatus{
			Name:  r.name,
			Found: strings.TrimSpace(r.path) != "",
			Path:  r.path,
		})
	}
	return out
}
