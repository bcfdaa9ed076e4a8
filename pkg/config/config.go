// Package config loads compile profiles from the environment or from YAML
// profile files.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/svjif-labs/svjif/pkg/compiler"
)

// Profile is a named, reusable set of compile options.
type Profile struct {
	Name           string   `yaml:"name" json:"name"`
	Strict         bool     `yaml:"strict" json:"strict"`
	FailOnWarnings bool     `yaml:"fail_on_warnings" json:"fail_on_warnings"`
	Canonicalize   bool     `yaml:"canonicalize" json:"canonicalize"`
	Emit           []string `yaml:"emit" json:"emit"`
}

// Emission target names as they appear in profiles and SVJIF_EMIT.
const (
	EmitIRJSON     = "irJson"
	EmitTSTypes    = "tsTypes"
	EmitJSONSchema = "jsonSchema"
	EmitBinaryPack = "binaryPack"
)

// FromEnv builds a profile from SVJIF_* environment variables.
// SVJIF_EMIT is a comma-separated list of emission targets.
func FromEnv() *Profile {
	p := &Profile{Name: "env"}
	p.Strict = os.Getenv("SVJIF_STRICT") == "true"
	p.FailOnWarnings = os.Getenv("SVJIF_FAIL_ON_WARNINGS") == "true"
	p.Canonicalize = os.Getenv("SVJIF_CANONICALIZE") == "true"
	if raw := os.Getenv("SVJIF_EMIT"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				p.Emit = append(p.Emit, t)
			}
		}
	}
	return p
}

// LoadProfile reads a YAML profile file.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile %q: %w", path, err)
	}
	return &p, nil
}

// Options converts the profile into compiler options. Unknown emission
// targets are ignored here; the compiler rejects unsupported requests itself.
func (p *Profile) Options() compiler.Options {
	opts := compiler.Options{
		Strict:         p.Strict,
		FailOnWarnings: p.FailOnWarnings,
		Canonicalize:   p.Canonicalize,
	}
	for _, t := range p.Emit {
		switch t {
		case EmitIRJSON:
			opts.Emit.IRJSON = true
		case EmitTSTypes:
			opts.Emit.TSTypes = true
		case EmitJSONSchema:
			opts.Emit.JSONSchema = true
		case EmitBinaryPack:
			opts.Emit.BinaryPack = true
		}
	}
	return opts
}
