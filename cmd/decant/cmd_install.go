package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/ochairo/decant/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/decant/internal/domain-orchestrators"
	"github.com/ochairo/decant/internal/domain/entities"
	"github.com/ochairo/decant/internal/domain/interfaces"
	igw "github.com/ochairo/decant/internal/domain/interfaces/gateways"
	"github.com/ochairo/decant/internal/external-adapters/cosign"
	"github.com/ochairo/decant/internal/external-adapters/gpg"
	"github.com/ochairo/decant/internal/external-adapters/logging"
	"github.com/ochairo/decant/internal/external-adapters/minisign"
	"github.com/ochairo/decant/internal/external-adapters/yaml"
)

func runInstall(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("install", flag.ExitOnError)
	var (
		productsDir  = fs.String("products-dir", "products", "Path to product definitions directory")
		tag          = fs.String("tag", "", "Release tag to install (default: latest stable)")
		outputDir    = fs.String("output-dir", "", "Directory for downloads (default: system temp)")
		keepArtifact = fs.Bool("keep-artifact", false, "Keep the downloaded artifact after installing")
		force        = fs.Bool("force", false, "Reinstall even when the installed version is current")
		skipChecksum = fs.Bool("skip-checksum", false, "Bypass checksum verification")
		dryRun       = fs.Bool("dry-run", false, "Resolve and select only; no downloads, no changes")
		verbose      = fs.Bool("verbose", false, "Enable debug logging")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: decant install <product> [options]

Resolve the requested release, verify its integrity and install it.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  decant install app
  decant install app --tag v7.5.4
  decant install app --dry-run
  decant install app --force --keep-artifact --output-dir ./downloads
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

	// The product definition selects the index endpoint, token source and
	// signature mechanism, so it is loaded once here for wiring.
	product, err := repo.GetProduct(ctx, productName)
	if err != nil {
		fatal(err)
	}

	applier := gateways.NewApplier(logger)
	orch := orchestrators.NewInstallOrchestrator(orchestrators.InstallOrchestratorConfig{
		Products:  repo,
		Resolver:  gateways.NewHTTPReleaseGateway(product.Index.BaseURL, gateways.TokenFromEnv(product.Index.TokenEnv), logger),
		Fetcher:   gateways.NewDownloader(logger),
		Integrity: gateways.NewChecksumVerifier(logger),
		Signature: signatureVerifier(product),
		Applier:   applier,
		Locator:   locator(logger),
		Runner:    applier,
		Probe:     gateways.NewInstalledProbe(logger),
		Preflight: gateways.NewPreflight(logger),
		Logger:    logger,
	})

	result, err := orch.Install(ctx, productName, orchestrators.Options{
		Tag:          *tag,
		OutputDir:    *outputDir,
		KeepArtifact: *keepArtifact,
		Force:        *force,
		SkipChecksum: *skipChecksum,
		DryRun:       *dryRun,
	})
	if err != nil {
		fatal(err)
	}

	switch result.Outcome {
	case orchestrators.OutcomeAlreadyCurrent:
		fmt.Printf("%s %s is already installed\n", result.Product, result.InstalledVersion)
	case orchestrators.OutcomeDryRun:
		fmt.Printf("Would install %s %s (asset %s)\n", result.Product, result.Tag, result.AssetName)
	case orchestrators.OutcomeInstalled:
		fmt.Printf("Installed %s %s\n", result.Product, result.Tag)
		if result.ArtifactPath != "" {
			fmt.Printf("Artifact kept at %s\n", result.ArtifactPath)
		}
	}
}

// signatureVerifier picks the verification mechanism the product configures,
// or nil when signatures are not published.
func signatureVerifier(product *entities.Product) igw.SignatureVerifier {
	switch product.Signature.Method {
	case "gpg":
		return gpg.NewVerifier(product.Signature.KeyPath)
	case "minisign":
		return minisign.NewVerifier(product.Signature.KeyPath)
	case "cosign":
		return cosign.NewVerifier(product.Signature.KeyPath, "")
	default:
		return nil
	}
}

// locator picks the platform install-discovery mechanism.
func locator(logger interfaces.Logger) igw.UninstallLocator {
	if runtime.GOOS == "windows" {
		return gateways.NewRegistryLocator(logger)
	}
	return gateways.NewFilesystemLocator(logger)
}

// fatal prints a classified engine error with its remediation hint.
func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if hint := entities.HintOf(err); hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
	}
	os.Exit(1)
}
