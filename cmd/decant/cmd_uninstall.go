package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ochairo/decant/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/decant/internal/domain-orchestrators"
	"github.com/ochairo/decant/internal/external-adapters/logging"
	"github.com/ochairo/decant/internal/external-adapters/yaml"
)

func runUninstall(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("uninstall", flag.ExitOnError)
	var (
		productsDir = fs.String("products-dir", "products", "Path to product definitions directory")
		verbose     = fs.Bool("verbose", false, "Enable debug logging")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: decant uninstall <product> [options]

Remove an installed product. User data directories are reported and left in
place.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  decant uninstall app
`)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: product name is required\n\n")
		fs.Usage()
		os.Exit(1)
	}
	productName := fs.Arg(0)

	logger := logging.New(*verbose)
	repo := yaml.NewProductRepository(*productsDir)

	orch := orchestrators.NewInstallOrchestrator(orchestrators.InstallOrchestratorConfig{
		Products: repo,
		Locator:  locator(logger),
		Runner:   gateways.NewApplier(logger),
		Probe:    gateways.NewInstalledProbe(logger),
		Logger:   logger,
	})

	result, err := orch.Uninstall(ctx, productName)
	if err != nil {
		fatal(err)
	}

	switch result.Outcome {
	case orchestrators.OutcomeNothingToUninstall:
		fmt.Printf("%s is not installed\n", productName)
	case orchestrators.OutcomeUninstalled:
		fmt.Printf("Uninstalled %s\n", productName)
		for _, dir := range result.UserDataDirs {
			fmt.Printf("User data preserved: %s\n", dir)
		}
	}
}
