// Package batch is the batch execution core: it expands receptor, ligand,
// and center combinations into independent docking jobs, runs them under a
// bounded worker pool with isolated scratch directories, and aggregates the
// outcomes keyed by combination identity.
package batch

import (
	"github.com/MangalamGSinha/DockSuiteX/internal/model"
)

// Request describes one batch. Centers and CentersByReceptor are mutually
// exclusive: a flat center list is cross-applied to every receptor, while
// per-receptor pairings (typically pocket predictions) apply only to the
// receptor they were predicted for.
type Request struct {
	Receptors []model.StructureRef
	Ligands   []model.StructureRef

	Centers           []model.Center
	CentersByReceptor map[string][]model.Center

	BoxSize model.BoxSize
	Params  model.EngineParams
}

// Expand produces one JobSpec per required combination, receptor-major.
// It fails with ConfigurationError on empty inputs, duplicate identities,
// pairings naming unknown receptors, or invalid engine parameters.
func Expand(req Request) ([]model.JobSpec, error) {
	if len(req.Receptors) == 0 {
		return nil, configErrorf("no receptors given")
	}
	if len(req.Ligands) == 0 {
		return nil, configErrorf("no ligands given")
	}
	if len(req.Centers) == 0 && len(req.CentersByReceptor) == 0 {
		return nil, configErrorf("no centers given")
	}
	if len(req.Centers) > 0 && len(req.CentersByReceptor) > 0 {
		return nil, configErrorf("centers given both as a flat list and as per-receptor pairings")
	}
	if req.Params == nil {
		return nil, configErrorf("no engine parameters given")
	}
	if err := req.Params.Validate(); err != nil {
		return nil, configErrorf("engine parameters: %v", err)
	}

	if err := checkIDs("receptor", req.Receptors); err != nil {
		return nil, err
	}
	if err := checkIDs("ligand", req.Ligands); err != nil {
		return nil, err
	}

	receptorIDs := make(map[string]bool, len(req.Receptors))
	for _, r := range req.Receptors {
		receptorIDs[r.ID] = true
	}
	for rid, centers := range req.CentersByReceptor {
		if !receptorIDs[rid] {
			return nil, configErrorf("center pairing names unknown receptor %q", rid)
		}
		if len(centers) == 0 {
			return nil, configErrorf("receptor %q paired with zero centers", rid)
		}
	}

	var specs []model.JobSpec
	seen := map[model.JobKey]bool{}
	for _, receptor := range req.Receptors {
		centers := req.Centers
		if len(req.CentersByReceptor) > 0 {
			centers = req.CentersByReceptor[receptor.ID]
			if len(centers) == 0 {
				return nil, configErrorf("receptor %q has no paired centers", receptor.ID)
			}
		}
		for _, ligand := range req.Ligands {
			for _, center := range centers {
				key := model.JobKey{
					ReceptorID: receptor.ID,
					LigandID:   ligand.ID,
					CenterID:   center.ID(),
				}
				if seen[key] {
					return nil, configErrorf("duplicate job identity %s", key)
				}
				seen[key] = true
				specs = append(specs, model.JobSpec{
					Key:      key,
					Receptor: receptor,
					Ligand:   ligand,
					Center:   center,
					BoxSize:  req.BoxSize,
					Params:   req.Params,
				})
			}
		}
	}
	return specs, nil
}

func checkIDs(role string, refs []model.StructureRef) error {
	seen := make(map[string]bool, len(refs))
	for _, r := range refs {
		if r.ID == "" {
			return configErrorf("%s with empty id (path %q)", role, r.Path)
		}
		if seen[r.ID] {
			return configErrorf("duplicate %s id %q", role, r.ID)
		}
		seen[r.ID] = true
	}
	return nil
}
