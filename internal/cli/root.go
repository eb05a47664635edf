package cli

import "fmt"

func Run(args []string) error {
	if len(args) == 0 {
		printRootUsage()
		return nil
	}

	switch args[0] {
	case "fetch-pdb":
		return runFetchPDB(args[1:])
	case "fetch-sdf":
		return runFetchSDF(args[1:])
	case "prepare-receptor":
		return runPrepareReceptor(args[1:])
	case "prepare-ligand":
		return runPrepareLigand(args[1:])
	case "pockets":
		return runPockets(args[1:])
	case "dock":
		return runDock(args[1:])
	case "batch":
		return runBatch(args[1:])
	case "status":
		return runStatus(args[1:])
	case "monitor":
		return runMonitor(args[1:])
	case "init":
		return runInit(args[1:])
	case "doctor":
		return runDoctor(args[1:])
	case "settings":
		return runSettings(args[1:])
	case "help", "-h", "--help":
		printRootUsage()
		return nil
	default:
		printRootUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printRootUsage() {
	fmt.Println("docksuitex: molecular docking batch orchestrator")
	fmt.Println()
	fmt.Println("Quick Start:")
	fmt.Println("  docksuitex init")
	fmt.Println("  docksuitex fetch-pdb --id 1UBQ --out structures/")
	fmt.Println("  docksuitex prepare-receptor --in structures/1UBQ.pdb --out receptors/")
	fmt.Println("  docksuitex batch --file batch.yaml")
	fmt.Println("  docksuitex status --dir results/")
	fmt.Println()
	fmt.Println("Structure Commands:")
	fmt.Println("  fetch-pdb         download a protein from RCSB PDB")
	fmt.Println("  fetch-sdf         download a 3D ligand from PubChem")
	fmt.Println("  prepare-receptor  convert a protein to docking-ready PDBQT")
	fmt.Println("  prepare-ligand    convert a small molecule to docking-ready PDBQT")
	fmt.Println("  pockets           predict binding pockets with P2Rank")
	fmt.Println()
	fmt.Println("Docking Commands:")
	fmt.Println("  dock      run one receptor/ligand/center docking job")
	fmt.Println("  batch     expand and run a batch request file")
	fmt.Println("  status    summarize a batch result directory")
	fmt.Println("  monitor   live view of a running batch")
	fmt.Println()
	fmt.Println("Workspace Commands:")
	fmt.Println("  init      create workspace config + run environment checks")
	fmt.Println("  doctor    run tool and filesystem preflight checks")
	fmt.Println("  settings  show/update global defaults")
	fmt.Println()
	fmt.Println("Notes:")
	fmt.Println("  - Use --json on commands for machine-readable output")
	fmt.Println("  - Tool locations honor DOCKSUITEX_* environment overrides")
}
