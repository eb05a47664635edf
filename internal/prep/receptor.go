package prep

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MangalamGSinha/DockSuiteX/internal/engine"
)

var receptorInputFormats = map[string]bool{
	".pdb": true, ".mol2": true, ".sdf": true,
	".pdbqt": true, ".cif": true, ".ent": true, ".xyz": true,
}

// ReceptorOptions control the MGLTools prepare_receptor4.py invocation.
type ReceptorOptions struct {
	AddHydrogens bool `json:"add_hydrogens" yaml:"add_hydrogens"`
	RemoveWaters bool `json:"remove_waters" yaml:"remove_waters"`
	AddCharges   bool `json:"add_charges" yaml:"add_charges"`
	// PreserveChargeTypes keeps input charges for specific atom types, for
	// example metal ions the Gasteiger model gets wrong.
	PreserveChargeTypes []string      `json:"preserve_charge_types,omitempty" yaml:"preserve_charge_types,omitempty"`
	Timeout             time.Duration `json:"-" yaml:"-"`
}

func DefaultReceptorOptions() ReceptorOptions {
	return ReceptorOptions{
		AddHydrogens: true,
		RemoveWaters: true,
		AddCharges:   true,
	}
}

// ReceptorPreparer turns a raw protein structure into a receptor PDBQT:
// Open Babel conversion to PDB when the input is another format, then
// prepare_receptor4.py for protonation, charges, and PDBQT output.
type ReceptorPreparer struct {
	tc       engine.Toolchain
	opts     ReceptorOptions
	tempRoot string
}

func NewReceptorPreparer(tc engine.Toolchain, opts ReceptorOptions, tempRoot string) *ReceptorPreparer {
	return &ReceptorPreparer{tc: tc, opts: opts, tempRoot: tempRoot}
}

// Prepare writes the receptor PDBQT to saveTo (directory or file path per the
// save-to convention) and returns the final path.
func (p *ReceptorPreparer) Prepare(ctx context.Context, inputPath, saveTo string) (string, error) {
	ext := strings.ToLower(filepath.Ext(inputPath))
	if !receptorInputFormats[ext] {
		return "", &Error{Stage: "receptor", Msg: fmt.Sprintf("unsupported input format %q", ext)}
	}
	if _, err := os.Stat(inputPath); err != nil {
		return "", &Error{Stage: "receptor", Msg: "input file missing", Err: err}
	}

	workDir, err := tempDir(p.tempRoot, inputPath)
	if err != nil {
		return "", err
	}

	pdbPath := inputPath
	if ext != ".pdb" && ext != ".pdbqt" {
		obabel, terr := p.tc.RequireTool("obabel", p.tc.Obabel)
		if terr != nil {
			return "", &Error{Stage: "receptor", Msg: "format conversion unavailable", Err: terr}
		}
		stem := strings.TrimSuffix(filepath.Base(inputPath), ext)
		pdbPath = filepath.Join(workDir, stem+".pdb")
		args := []string{inputPath, "-O", pdbPath}
		if _, rerr := engine.RunTool(ctx, "obabel", obabel, args, workDir, p.opts.Timeout); rerr != nil {
			return "", &Error{Stage: "receptor", Msg: "open babel conversion failed", Err: rerr}
		}
		if _, serr := os.Stat(pdbPath); serr != nil {
			return "", &Error{Stage: "receptor", Msg: "converted PDB missing", Err: serr}
		}
	}

	out, err := resolveOutput(saveTo, inputPath)
	if err != nil {
		return "", err
	}

	python, terr := p.tc.RequireTool("mgltools-python", p.tc.MGLPython)
	if terr != nil {
		return "", &Error{Stage: "receptor", Msg: "mgltools unavailable", Err: terr}
	}
	if p.tc.PrepareReceptorScript == "" {
		return "", &Error{Stage: "receptor", Msg: "prepare_receptor4.py location not configured"}
	}

	uFlag := "nphs_lps"
	if p.opts.RemoveWaters {
		uFlag = "nphs_lps_waters"
	}
	args := []string{
		p.tc.PrepareReceptorScript,
		"-r", pdbPath,
		"-o", out,
		"-U", uFlag,
	}
	if p.opts.AddHydrogens {
		args = append(args, "-A", "hydrogens")
	}
	if !p.opts.AddCharges {
		args = append(args, "-C")
	} else {
		for _, at := range p.opts.PreserveChargeTypes {
			args = append(args, "-p", at)
		}
	}

	if _, rerr := engine.RunTool(ctx, "prepare_receptor4", python, args, workDir, p.opts.Timeout); rerr != nil {
		return "", &Error{Stage: "receptor", Msg: "pdbqt generation failed", Err: rerr}
	}
	if _, serr := os.Stat(out); serr != nil {
		return "", &Error{Stage: "receptor", Msg: "pdbqt missing after preparation", Err: serr}
	}
	_ = os.RemoveAll(workDir)
	return out, nil
}
