package mcpserver

import (
	"encoding/json"

	"github.com/panbanda/testxml/pkg/config"
)

const (
	manifestSchema = "https://static.modelcontextprotocol.io/schemas/2025-10-17/server.schema.json"
	serverName     = "io.github.panbanda/testxml"
	imageName      = "ghcr.io/panbanda/testxml"
)

// Manifest is the registry entry (server.json) for the testxml server.
type Manifest struct {
	Schema      string      `json:"$schema"`
	Name        string      `json:"name"`
	Title       string      `json:"title,omitempty"`
	Description string      `json:"description"`
	Version     string      `json:"version"`
	Repository  *Repository `json:"repository,omitempty"`
	Packages    []Package   `json:"packages,omitempty"`
}

// Repository points at the server's source.
type Repository struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// Package is one way of installing and launching the server.
type Package struct {
	RegistryType         string     `json:"registryType"`
	Identifier           string     `json:"identifier"`
	PackageArguments     []Argument `json:"packageArguments,omitempty"`
	EnvironmentVariables []EnvVar   `json:"environmentVariables,omitempty"`
	Transport            Transport  `json:"transport"`
}

// Argument is a positional or named command-line argument.
type Argument struct {
	Type        string `json:"type"`
	Name        string `json:"name,omitempty"`
	Value       string `json:"value,omitempty"`
	Description string `json:"description,omitempty"`
	IsRequired  bool   `json:"isRequired,omitempty"`
	Format      string `json:"format,omitempty"`
}

// EnvVar is an environment variable the server reads.
type EnvVar struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsRequired  bool   `json:"isRequired,omitempty"`
	Format      string `json:"format,omitempty"`
}

// Transport names the protocol transport.
type Transport struct {
	Type string `json:"type"`
}

// NewManifest describes the server released as version. The container
// runs the mcp subcommand over stdio; the report configuration can be
// passed with --config or the config path environment variable.
func NewManifest(version string) *Manifest {
	if version == "" || version == "dev" {
		version = "0.0.0"
	}

	return &Manifest{
		Schema:      manifestSchema,
		Name:        serverName,
		Title:       "testxml",
		Description: "XML reports of Java test methods with assertion roulette and duplicated assert detection",
		Version:     version,
		Repository: &Repository{
			URL:    "https://github.com/panbanda/testxml",
			Source: "github",
		},
		Packages: []Package{{
			RegistryType: "oci",
			Identifier:   imageName + ":" + version,
			PackageArguments: []Argument{
				{Type: "positional", Value: "mcp"},
				{
					Type:        "named",
					Name:        "--config",
					Description: "Path to a testxml.toml, .yaml or .json file",
					Format:      "filepath",
				},
			},
			EnvironmentVariables: []EnvVar{{
				Name:        config.EnvConfigPath,
				Description: "Path to the configuration file, used when --config is not given",
				Format:      "filepath",
			}},
			Transport: Transport{Type: "stdio"},
		}},
	}
}

// GenerateManifest renders the manifest of version as indented JSON.
func GenerateManifest(version string) ([]byte, error) {
	return json.MarshalIndent(NewManifest(version), "", "  ")
}
