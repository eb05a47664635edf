package engine

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/MangalamGSinha/DockSuiteX/internal/model"
)

// AutoDock4 wraps the two-stage autogrid4/autodock4 pipeline: grid map
// precomputation followed by a Lamarckian genetic algorithm search.
type AutoDock4 struct {
	tc     Toolchain
	params AD4Params
}

func NewAutoDock4(tc Toolchain, params AD4Params) (*AutoDock4, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &AutoDock4{tc: tc, params: params}, nil
}

func (a *AutoDock4) Name() string { return EngineAD4 }

// Dock runs autogrid4 then autodock4 with in.WorkDir as the process working
// directory, so all generated maps and logs land there. The best pose set is
// extracted from results.dlg into output.pdbqt.
func (a *AutoDock4) Dock(ctx context.Context, in DockInput) (DockOutput, error) {
	autogrid, err := a.tc.RequireTool("autogrid4", a.tc.AutoGrid)
	if err != nil {
		return DockOutput{}, err
	}
	autodock, err := a.tc.RequireTool("autodock4", a.tc.AutoDock)
	if err != nil {
		return DockOutput{}, err
	}
	if err := checkPDBQTInputs(in); err != nil {
		return DockOutput{}, err
	}

	receptorTypes, err := detectAtomTypes(in.ReceptorPath)
	if err != nil {
		return DockOutput{}, err
	}
	ligandTypes, err := detectAtomTypes(in.LigandPath)
	if err != nil {
		return DockOutput{}, err
	}

	size := in.BoxSize
	if size.IsZero() {
		size = model.BoxSize{20, 20, 20}
	}

	gpfPath := filepath.Join(in.WorkDir, "receptor.gpf")
	dpfPath := filepath.Join(in.WorkDir, "ligand.dpf")
	glgPath := filepath.Join(in.WorkDir, "receptor.glg")
	dlgPath := filepath.Join(in.WorkDir, "results.dlg")

	gpf := a.renderGPF(in, size, receptorTypes, ligandTypes)
	if err := os.WriteFile(gpfPath, []byte(gpf), 0o644); err != nil {
		return DockOutput{}, &Error{Kind: ErrKindStart, Tool: "autogrid4", Msg: "write grid parameter file", Err: err}
	}
	dpf := a.renderDPF(in, ligandTypes)
	if err := os.WriteFile(dpfPath, []byte(dpf), 0o644); err != nil {
		return DockOutput{}, &Error{Kind: ErrKindStart, Tool: "autodock4", Msg: "write docking parameter file", Err: err}
	}

	// autogrid4 and autodock4 resolve map files relative to the process cwd,
	// so both run rooted in the work dir with basename arguments.
	if _, err := RunTool(ctx, "autogrid4", autogrid,
		[]string{"-p", filepath.Base(gpfPath), "-l", filepath.Base(glgPath)},
		in.WorkDir, in.Timeout); err != nil {
		return DockOutput{}, err
	}
	fldPath := filepath.Join(in.WorkDir, "receptor.maps.fld")
	if _, err := os.Stat(fldPath); err != nil {
		return DockOutput{}, &Error{Kind: ErrKindOutputMissing, Tool: "autogrid4", Msg: "grid field file missing after run", Err: err}
	}

	if _, err := RunTool(ctx, "autodock4", autodock,
		[]string{"-p", filepath.Base(dpfPath), "-l", filepath.Base(dlgPath)},
		in.WorkDir, in.Timeout); err != nil {
		return DockOutput{}, err
	}
	if _, err := os.Stat(dlgPath); err != nil {
		return DockOutput{}, &Error{Kind: ErrKindOutputMissing, Tool: "autodock4", Msg: "docking log missing after run", Err: err}
	}

	posePath := filepath.Join(in.WorkDir, "output.pdbqt")
	score, err := extractDLG(dlgPath, posePath)
	if err != nil {
		return DockOutput{}, err
	}

	return DockOutput{BestScore: score, PosePath: posePath, LogPath: dlgPath}, nil
}

// detectAtomTypes reads the AutoDock atom type column (columns 78-79 of ATOM
// and HETATM records) and returns the sorted unique set.
func detectAtomTypes(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Kind: ErrKindStart, Tool: "autodock4", Msg: "read structure for atom typing", Err: err}
	}
	defer f.Close()

	seen := map[string]struct{}{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "ATOM") && !strings.HasPrefix(line, "HETATM") {
			continue
		}
		if len(line) < 78 {
			continue
		}
		t := strings.TrimSpace(line[77:min(79, len(line))])
		if t != "" {
			seen[t] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &Error{Kind: ErrKindStart, Tool: "autodock4", Msg: "read structure for atom typing", Err: err}
	}
	if len(seen) == 0 {
		return nil, &Error{Kind: ErrKindStart, Tool: "autodock4", Msg: fmt.Sprintf("no atom types found in %s", path)}
	}
	types := make([]string, 0, len(seen))
	for t := range seen {
		types = append(types, t)
	}
	sort.Strings(types)
	return types, nil
}

func (a *AutoDock4) renderGPF(in DockInput, size model.BoxSize, receptorTypes, ligandTypes []string) string {
	npts := func(s float64) int {
		n := int(s / a.params.Spacing)
		if n%2 != 0 {
			n++
		}
		return n
	}
	var b strings.Builder
	fmt.Fprintf(&b, "npts %d %d %d\n", npts(size[0]), npts(size[1]), npts(size[2]))
	b.WriteString("gridfld receptor.maps.fld\n")
	fmt.Fprintf(&b, "spacing %.3f\n", a.params.Spacing)
	fmt.Fprintf(&b, "receptor_types %s\n", strings.Join(receptorTypes, " "))
	fmt.Fprintf(&b, "ligand_types %s\n", strings.Join(ligandTypes, " "))
	fmt.Fprintf(&b, "receptor %s\n", filepath.Base(in.ReceptorPath))
	fmt.Fprintf(&b, "gridcenter %.3f %.3f %.3f\n", in.Center[0], in.Center[1], in.Center[2])
	fmt.Fprintf(&b, "smooth %.3f\n", a.params.Smooth)
	for _, t := range ligandTypes {
		fmt.Fprintf(&b, "map receptor.%s.map\n", t)
	}
	b.WriteString("elecmap receptor.e.map\n")
	b.WriteString("dsolvmap receptor.d.map\n")
	fmt.Fprintf(&b, "dielectric %.4f\n", a.params.Dielectric)
	return b.String()
}

func (a *AutoDock4) renderDPF(in DockInput, ligandTypes []string) string {
	var b strings.Builder
	b.WriteString("autodock_parameter_version 4.2\n")
	b.WriteString("outlev 1\n")
	b.WriteString("intelec\n")
	fmt.Fprintf(&b, "seed %s %s\n", a.params.Seed[0], a.params.Seed[1])
	fmt.Fprintf(&b, "ligand_types %s\n", strings.Join(ligandTypes, " "))
	b.WriteString("fld receptor.maps.fld\n")
	for _, t := range ligandTypes {
		fmt.Fprintf(&b, "map receptor.%s.map\n", t)
	}
	b.WriteString("elecmap receptor.e.map\n")
	b.WriteString("desolvmap receptor.d.map\n")
	fmt.Fprintf(&b, "move %s\n", filepath.Base(in.LigandPath))
	fmt.Fprintf(&b, "ga_pop_size %d\n", a.params.GAPopSize)
	fmt.Fprintf(&b, "ga_num_evals %d\n", a.params.GANumEvals)
	fmt.Fprintf(&b, "ga_num_generations %d\n", a.params.GANumGenerations)
	fmt.Fprintf(&b, "ga_elitism %d\n", a.params.GAElitism)
	fmt.Fprintf(&b, "ga_mutation_rate %.3f\n", a.params.GAMutationRate)
	fmt.Fprintf(&b, "ga_crossover_rate %.3f\n", a.params.GACrossoverRate)
	b.WriteString("set_ga\n")
	b.WriteString("sw_max_its 300\n")
	b.WriteString("sw_max_succ 4\n")
	b.WriteString("sw_max_fail 4\n")
	b.WriteString("sw_rho 1.0\n")
	b.WriteString("sw_lb_rho 0.01\n")
	b.WriteString("set_psw1\n")
	fmt.Fprintf(&b, "ga_run %d\n", a.params.GARuns)
	fmt.Fprintf(&b, "rmstol %.2f\n", a.params.RMSTol)
	b.WriteString("analysis\n")
	return b.String()
}

// extractDLG pulls the docked pose blocks out of an autodock4 .dlg log into a
// standalone PDBQT file and returns the lowest estimated binding energy.
func extractDLG(dlgPath, posePath string) (float64, error) {
	f, err := os.Open(dlgPath)
	if err != nil {
		return 0, &Error{Kind: ErrKindOutputMissing, Tool: "autodock4", Msg: "open docking log", Err: err}
	}
	defer f.Close()

	var poses strings.Builder
	best := 0.0
	found := false
	inModel := false

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		stripped, isDocked := strings.CutPrefix(line, "DOCKED: ")
		if !isDocked {
			stripped, isDocked = strings.CutPrefix(line, "DOCKED:")
		}
		if !isDocked {
			continue
		}
		if strings.HasPrefix(stripped, "MODEL") {
			inModel = true
		}
		if inModel {
			poses.WriteString(stripped)
			poses.WriteByte('\n')
			if idx := strings.Index(stripped, "Estimated Free Energy of Binding"); idx >= 0 {
				if v, ok := parseEnergy(stripped[idx:]); ok && (!found || v < best) {
					best = v
					found = true
				}
			}
		}
		if strings.HasPrefix(stripped, "ENDMDL") {
			inModel = false
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, &Error{Kind: ErrKindOutputMissing, Tool: "autodock4", Msg: "read docking log", Err: err}
	}
	if !found || poses.Len() == 0 {
		return 0, &Error{Kind: ErrKindOutputMissing, Tool: "autodock4", Msg: "no docked poses in log"}
	}
	if err := os.WriteFile(posePath, []byte(poses.String()), 0o644); err != nil {
		return 0, &Error{Kind: ErrKindOutputMissing, Tool: "autodock4", Msg: "write pose file", Err: err}
	}
	return best, nil
}

// parseEnergy parses the value out of a fragment like
// "Estimated Free Energy of Binding    =   -6.21 kcal/mol".
func parseEnergy(fragment string) (float64, bool) {
	_, after, ok := strings.Cut(fragment, "=")
	if !ok {
		return 0, false
	}
	fields := strings.Fields(after)
	if len(fields) == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
