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

var ligandInputFormats = map[string]bool{
	"mol2": true, "sdf": true, "pdb": true, "mol": true, "smi": true,
}

var supportedForcefields = map[string]bool{
	"mmff94": true, "mmff94s": true, "uff": true, "gaff": true,
}

// LigandOptions control the Open Babel conversion and the MGLTools
// prepare_ligand4.py invocation.
type LigandOptions struct {
	// Minimize names a forcefield (mmff94, mmff94s, uff, gaff) for energy
	// minimization after 3D generation; empty skips minimization.
	Minimize            string        `json:"minimize,omitempty" yaml:"minimize,omitempty"`
	RemoveWaters        bool          `json:"remove_waters" yaml:"remove_waters"`
	AddHydrogens        bool          `json:"add_hydrogens" yaml:"add_hydrogens"`
	AddCharges          bool          `json:"add_charges" yaml:"add_charges"`
	PreserveChargeTypes []string      `json:"preserve_charge_types,omitempty" yaml:"preserve_charge_types,omitempty"`
	Timeout             time.Duration `json:"-" yaml:"-"`
}

func DefaultLigandOptions() LigandOptions {
	return LigandOptions{
		RemoveWaters: true,
		AddHydrogens: true,
		AddCharges:   true,
	}
}

func (o LigandOptions) validate() error {
	if o.Minimize != "" && !supportedForcefields[strings.ToLower(o.Minimize)] {
		return &Error{Stage: "ligand", Msg: fmt.Sprintf("unsupported forcefield %q", o.Minimize)}
	}
	return nil
}

// LigandPreparer turns a raw small-molecule file into a ligand PDBQT:
// Open Babel to MOL2 with 3D generation and optional minimization, then
// prepare_ligand4.py for torsions, charges, and PDBQT output.
type LigandPreparer struct {
	tc       engine.Toolchain
	opts     LigandOptions
	tempRoot string
}

func NewLigandPreparer(tc engine.Toolchain, opts LigandOptions, tempRoot string) *LigandPreparer {
	return &LigandPreparer{tc: tc, opts: opts, tempRoot: tempRoot}
}

// Prepare writes the ligand PDBQT to saveTo (directory or file path per the
// save-to convention) and returns the final path.
func (p *LigandPreparer) Prepare(ctx context.Context, inputPath, saveTo string) (string, error) {
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(inputPath), "."))
	if !ligandInputFormats[format] {
		return "", &Error{Stage: "ligand", Msg: fmt.Sprintf("unsupported input format %q", format)}
	}
	if _, err := os.Stat(inputPath); err != nil {
		return "", &Error{Stage: "ligand", Msg: "input file missing", Err: err}
	}
	if err := p.opts.validate(); err != nil {
		return "", err
	}

	workDir, err := tempDir(p.tempRoot, inputPath)
	if err != nil {
		return "", err
	}

	obabel, terr := p.tc.RequireTool("obabel", p.tc.Obabel)
	if terr != nil {
		return "", &Error{Stage: "ligand", Msg: "open babel unavailable", Err: terr}
	}

	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	mol2Path := filepath.Join(workDir, stem+".mol2")
	args := []string{
		"-i", format, inputPath,
		"-o", "mol2", "-O", mol2Path,
		"--gen3d",
	}
	if p.opts.RemoveWaters {
		// HOH covers PDB residues; the SMARTS pattern catches waters in every
		// other format.
		args = append(args, "--delete", "HOH", "--delete", "[#8H2]")
	}
	if p.opts.Minimize != "" {
		args = append(args, "--minimize", "--ff", strings.ToLower(p.opts.Minimize))
	}
	if _, rerr := engine.RunTool(ctx, "obabel", obabel, args, workDir, p.opts.Timeout); rerr != nil {
		return "", &Error{Stage: "ligand", Msg: "open babel conversion failed", Err: rerr}
	}
	if _, serr := os.Stat(mol2Path); serr != nil {
		return "", &Error{Stage: "ligand", Msg: "converted MOL2 missing", Err: serr}
	}

	out, err := resolveOutput(saveTo, inputPath)
	if err != nil {
		return "", err
	}

	python, terr := p.tc.RequireTool("mgltools-python", p.tc.MGLPython)
	if terr != nil {
		return "", &Error{Stage: "ligand", Msg: "mgltools unavailable", Err: terr}
	}
	if p.tc.PrepareLigandScript == "" {
		return "", &Error{Stage: "ligand", Msg: "prepare_ligand4.py location not configured"}
	}

	mglArgs := []string{
		p.tc.PrepareLigandScript,
		"-l", mol2Path,
		"-o", out,
		"-U", "nphs_lps",
	}
	if p.opts.AddHydrogens {
		mglArgs = append(mglArgs, "-A", "hydrogens")
	} else {
		mglArgs = append(mglArgs, "-A", "None")
	}
	if !p.opts.AddCharges {
		mglArgs = append(mglArgs, "-C")
	} else {
		for _, at := range p.opts.PreserveChargeTypes {
			mglArgs = append(mglArgs, "-p", at)
		}
	}

	// prepare_ligand4.py resolves relative paths against its cwd.
	if _, rerr := engine.RunTool(ctx, "prepare_ligand4", python, mglArgs, workDir, p.opts.Timeout); rerr != nil {
		return "", &Error{Stage: "ligand", Msg: "pdbqt generation failed", Err: rerr}
	}
	if _, serr := os.Stat(out); serr != nil {
		return "", &Error{Stage: "ligand", Msg: "pdbqt missing after preparation", Err: serr}
	}
	_ = os.RemoveAll(workDir)
	return out, nil
}
