package engine

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/MangalamGSinha/DockSuiteX/internal/model"
)

// DockInput is one fully staged docking invocation: prepared structures plus
// the search box, anchored in an exclusively owned working directory.
type DockInput struct {
	ReceptorPath string
	LigandPath   string
	Center       model.Center
	BoxSize      model.BoxSize
	WorkDir      string
	Timeout      time.Duration
}

// DockOutput is the parsed result of a successful run.
type DockOutput struct {
	BestScore float64
	PosePath  string
	LogPath   string
}

// Engine is a single-job docking wrapper. Implementations block until the
// external process finishes and return tagged *Error failures.
type Engine interface {
	Name() string
	Dock(ctx context.Context, in DockInput) (DockOutput, error)
}

// Vina wraps the AutoDock Vina gradient-based docking binary.
type Vina struct {
	tc     Toolchain
	params VinaParams
}

func NewVina(tc Toolchain, params VinaParams) (*Vina, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Vina{tc: tc, params: params}, nil
}

func (v *Vina) Name() string { return EngineVina }

// Dock runs Vina in in.WorkDir, writing output.pdbqt and log.txt there.
func (v *Vina) Dock(ctx context.Context, in DockInput) (DockOutput, error) {
	bin, err := v.tc.RequireTool("vina", v.tc.Vina)
	if err != nil {
		return DockOutput{}, err
	}
	if err := checkPDBQTInputs(in); err != nil {
		return DockOutput{}, err
	}

	size := in.BoxSize
	if size.IsZero() {
		size = model.BoxSize{20, 20, 20}
	}
	posePath := filepath.Join(in.WorkDir, "output.pdbqt")
	logPath := filepath.Join(in.WorkDir, "log.txt")

	args := []string{
		"--receptor", in.ReceptorPath,
		"--ligand", in.LigandPath,
		"--center_x", formatCoord(in.Center[0]),
		"--center_y", formatCoord(in.Center[1]),
		"--center_z", formatCoord(in.Center[2]),
		"--size_x", formatCoord(size[0]),
		"--size_y", formatCoord(size[1]),
		"--size_z", formatCoord(size[2]),
		"--out", posePath,
		"--exhaustiveness", strconv.Itoa(v.params.Exhaustiveness),
		"--num_modes", strconv.Itoa(v.params.NumModes),
		"--cpu", strconv.Itoa(v.params.CPU),
		"--verbosity", strconv.Itoa(v.params.Verbosity),
	}
	if v.params.Seed != nil {
		args = append(args, "--seed", strconv.Itoa(*v.params.Seed))
	}

	out, err := RunTool(ctx, "vina", bin, args, in.WorkDir, in.Timeout)
	if err != nil {
		return DockOutput{}, err
	}

	if err := os.WriteFile(logPath, []byte(out.Stdout), 0o644); err != nil {
		return DockOutput{}, &Error{Kind: ErrKindOutputMissing, Tool: "vina", Msg: "write log file", Err: err}
	}
	if _, err := os.Stat(posePath); err != nil {
		return DockOutput{}, &Error{Kind: ErrKindOutputMissing, Tool: "vina", Msg: "pose file missing after run", Err: err}
	}

	score, ok := parseVinaBestScore(out.Stdout)
	if !ok {
		score, ok = parsePoseBestScore(posePath)
	}
	if !ok {
		return DockOutput{}, &Error{Kind: ErrKindOutputMissing, Tool: "vina", Msg: "no binding affinity found in output"}
	}

	return DockOutput{BestScore: score, PosePath: posePath, LogPath: logPath}, nil
}

func checkPDBQTInputs(in DockInput) error {
	for _, f := range []struct {
		role string
		path string
	}{{"receptor", in.ReceptorPath}, {"ligand", in.LigandPath}} {
		if _, err := os.Stat(f.path); err != nil {
			return &Error{Kind: ErrKindStart, Tool: f.role, Msg: "input file missing", Err: err}
		}
		if strings.ToLower(filepath.Ext(f.path)) != ".pdbqt" {
			return &Error{Kind: ErrKindStart, Tool: f.role, Msg: fmt.Sprintf("%s must be a .pdbqt file", f.path)}
		}
	}
	return nil
}

// parseVinaBestScore extracts the mode-1 affinity from the result table Vina
// prints on stdout:
//
//	mode |   affinity | dist from best mode
//	     | (kcal/mol) | rmsd l.b.| rmsd u.b.
//	-----+------------+----------+----------
//	   1       -7.452          0          0
func parseVinaBestScore(stdout string) (float64, bool) {
	scanner := bufio.NewScanner(strings.NewReader(stdout))
	tableStarted := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "-----+") {
			tableStarted = true
			continue
		}
		if !tableStarted || line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != "1" {
			continue
		}
		score, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return 0, false
		}
		return score, true
	}
	return 0, false
}

// parsePoseBestScore falls back to the REMARK VINA RESULT line of the first
// model in the pose file.
func parsePoseBestScore(posePath string) (float64, bool) {
	f, err := os.Open(posePath)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "REMARK VINA RESULT:") {
			continue
		}
		fields := strings.Fields(strings.TrimPrefix(line, "REMARK VINA RESULT:"))
		if len(fields) == 0 {
			return 0, false
		}
		score, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return 0, false
		}
		return score, true
	}
	return 0, false
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
