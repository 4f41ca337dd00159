// Package openapi embeds the OpenAPI document of the agents HTTP API.
//
// Paths are relative to the /api/v1 base path.
//
// Import Path: eagle-eye.io/fieldagent/internal/api/openapi
package openapi

import (
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// BasePath is the mount point of the documented paths.
const BasePath = "/api/v1"

//go:embed agents.yaml
var document []byte

// Document returns the raw YAML document.
func Document() []byte {
	return document
}

// Load parses and validates the embedded document.
func Load() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(document)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}
	return doc, nil
}
