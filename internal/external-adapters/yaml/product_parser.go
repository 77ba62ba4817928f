// Package yaml provides YAML-based product definition parsing and repository
// implementations.
package yaml

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ochairo/decant/internal/domain/entities"
)

// yamlProduct represents the raw YAML structure
type yamlProduct struct {
	Name         string                  `yaml:"name"`
	DisplayName  string                  `yaml:"display_name"`
	Index        yamlIndex               `yaml:"index"`
	Install      yamlInstall             `yaml:"install"`
	Platforms    map[string]yamlPlatform `yaml:"platforms"`
	Signature    yamlSignature           `yaml:"signature"`
	UserDataDirs []string                `yaml:"user_data_dirs"`
}

type yamlIndex struct {
	BaseURL  string `yaml:"base_url"`
	TokenEnv string `yaml:"token_env"`
}

type yamlInstall struct {
	Root           string   `yaml:"root"`
	LauncherPath   string   `yaml:"launcher_path"`
	BinaryName     string   `yaml:"binary_name"`
	VersionArgs    []string `yaml:"version_args"`
	VersionPattern string   `yaml:"version_pattern"`
}

type yamlPlatform struct {
	ArchToken string `yaml:"arch_token"`
	Suffix    string `yaml:"suffix"`
	Mechanism string `yaml:"mechanism"`
}

type yamlSignature struct {
	Method        string `yaml:"method"`
	KeyPath       string `yaml:"key_path"`
	SidecarSuffix string `yaml:"sidecar_suffix"`
}

// ProductParser parses YAML product definition files
type ProductParser struct{}

// NewProductParser creates a new YAML parser
func NewProductParser() *ProductParser {
	return &ProductParser{}
}

// ParseFile parses a YAML product definition file into a Product entity
func (p *ProductParser) ParseFile(filePath string) (*entities.Product, error) {
	//nolint:gosec // G304: filePath is a definition path from the repository
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	return p.Parse(data)
}

// Parse parses YAML bytes into a Product entity
func (p *ProductParser) Parse(data []byte) (*entities.Product, error) {
	var raw yamlProduct
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if raw.Name == "" {
		return nil, fmt.Errorf("product definition must have a name")
	}
	if raw.Index.BaseURL == "" {
		return nil, fmt.Errorf("product %s must declare an index base_url", raw.Name)
	}

	platforms := make(map[string]entities.PlatformTarget, len(raw.Platforms))
	for key, cfg := range raw.Platforms {
		mechanism, err := parseMechanism(cfg.Mechanism)
		if err != nil {
			return nil, fmt.Errorf("product %s platform %s: %w", raw.Name, key, err)
		}
		if cfg.Suffix == "" {
			return nil, fmt.Errorf("product %s platform %s must declare a suffix", raw.Name, key)
		}
		platforms[key] = entities.PlatformTarget{
			Platform:  entities.Platform{ArchToken: cfg.ArchToken, Suffix: cfg.Suffix},
			Mechanism: mechanism,
		}
	}

	displayName := raw.DisplayName
	if displayName == "" {
		displayName = raw.Name
	}

	return &entities.Product{
		Name:        raw.Name,
		DisplayName: displayName,
		Index: entities.IndexConfig{
			BaseURL:  raw.Index.BaseURL,
			TokenEnv: raw.Index.TokenEnv,
		},
		Install: entities.InstallConfig{
			Root:           raw.Install.Root,
			LauncherPath:   raw.Install.LauncherPath,
			BinaryName:     raw.Install.BinaryName,
			VersionArgs:    raw.Install.VersionArgs,
			VersionPattern: raw.Install.VersionPattern,
		},
		Platforms: platforms,
		Signature: entities.SignatureConfig{
			Method:        raw.Signature.Method,
			KeyPath:       raw.Signature.KeyPath,
			SidecarSuffix: raw.Signature.SidecarSuffix,
		},
		UserDataDirs: raw.UserDataDirs,
	}, nil
}

func parseMechanism(s string) (entities.Mechanism, error) {
	switch entities.Mechanism(s) {
	case entities.MechanismPkg, entities.MechanismArchive, entities.MechanismMsi:
		return entities.Mechanism(s), nil
	case "":
		return "", fmt.Errorf("mechanism is required")
	default:
		return "", fmt.Errorf("unknown mechanism %q", s)
	}
}
