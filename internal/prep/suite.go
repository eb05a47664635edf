package prep

import "context"

// Suite bundles both preparers behind the batch core's preparation contract.
type Suite struct {
	Receptor *ReceptorPreparer
	Ligand   *LigandPreparer
}

func (s *Suite) PrepareReceptor(ctx context.Context, inputPath, saveTo string) (string, error) {
	return s.Receptor.Prepare(ctx, inputPath, saveTo)
}

func (s *Suite) PrepareLigand(ctx context.Context, inputPath, saveTo string) (string, error) {
	return s.Ligand.Prepare(ctx, inputPath, saveTo)
}
