package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/MangalamGSinha/DockSuiteX/internal/engine"
	"github.com/MangalamGSinha/DockSuiteX/internal/pocket"
)

func runPockets(args []string) error {
	fs := flag.NewFlagSet("pockets", flag.ContinueOnError)
	in := fs.String("in", "", "receptor structure (.pdb or .cif)")
	out := fs.String("out", "pockets", "P2Rank output directory")
	top := fs.Int("top", 0, "print only the N best-ranked pockets (0 = all)")
	threads := fs.Int("threads", 1, "P2Rank worker threads")
	timeout := fs.Duration("timeout", 0, "bound on the prediction run (0 = none)")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*in) == "" {
		return fmt.Errorf("--in is required")
	}

	finder := pocket.NewFinder(engine.ResolveToolchain(), *threads, *timeout)
	pockets, err := finder.Predict(context.Background(), *in, *out)
	if err != nil {
		return err
	}
	if *top > 0 && len(pockets) > *top {
		pockets = pockets[:*top]
	}
	if *jsonOut {
		return printJSON(map[string]any{
			"structure": *in,
			"pockets":   pockets,
		})
	}

	if len(pockets) == 0 {
		fmt.Println("no pockets predicted")
		return nil
	}
	fmt.Printf("%-5s %-14s %-8s %s\n", "rank", "name", "score", "center")
	for _, p := range pockets {
		fmt.Printf("%-5d %-14s %-8.2f %s\n", p.Rank, p.Name, p.Score, p.Center)
	}
	return nil
}
