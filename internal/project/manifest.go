package project

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// ManifestFile is the optional project manifest in the project root.
const ManifestFile = "mkgo.yaml"

// Manifest is the on-disk form of mkgo.yaml.
//
//	default: closet_maker
//	compiler: clang
//	targets:
//	  - name: demo
//	    output: bin/demo
//	    sources: [demo.c]
//	    dep_flags: "-lm"
type Manifest struct {
	Default  string      `yaml:"default,omitempty"`
	Compiler string      `yaml:"compiler,omitempty"`
	Targets  []TargetDef `yaml:"targets,omitempty"`
}

// nameRegex restricts target names to characters that need no quoting on a
// command line and are safe as completion candidates.
var nameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// reservedNames are subcommands of mkgo; a target with one of these names
// could never be selected on the command line.
var reservedNames = map[string]bool{
	"completion": true,
	"help":       true,
	"settings":   true,
	"targets":    true,
}

// ParseManifest decodes a manifest. Unknown keys are rejected so that typos
// do not silently change a build.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	for i, def := range m.Targets {
		if !nameRegex.MatchString(def.Name) {
			return nil, fmt.Errorf("targets[%d]: invalid target name %q", i, def.Name)
		}
		if reservedNames[def.Name] {
			return nil, fmt.Errorf("targets[%d]: %q is a mkgo command and cannot be a target name", i, def.Name)
		}
		if def.Output == "" {
			return nil, fmt.Errorf("target %q: output must not be empty", def.Name)
		}
		if len(def.Sources) == 0 && def.Command == "" {
			return nil, fmt.Errorf("target %q: needs sources or a command", def.Name)
		}
	}
	return &m, nil
}

// Load builds the Project for dir from the builtin targets and, if present,
// dir/mkgo.yaml. Manifest targets are appended after the builtin ones and may
// not reuse their names.
func Load(dir string) (*Project, error) {
	p := &Project{
		Dir:     dir,
		Default: DefaultTarget,
		Targets: Builtin(),
	}

	path := filepath.Join(dir, ManifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for _, def := range m.Targets {
		if _, exists := p.Lookup(def.Name); exists {
			return nil, fmt.Errorf("%s: target %q is already defined", path, def.Name)
		}
		p.Targets = append(p.Targets, def)
	}
	if m.Default != "" {
		if _, ok := p.Lookup(m.Default); !ok {
			return nil, fmt.Errorf("%s: default target %q is not defined", path, m.Default)
		}
		p.Default = m.Default
	}
	p.Compiler = m.Compiler

	return p, nil
}

// Marshal encodes the project's targets in manifest form.
func (p *Project) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(Manifest{Default: p.Default, Compiler: p.Compiler, Targets: p.Targets}); err != nil {
		return nil, fmt.Errorf("failed to encode targets: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode targets: %w", err)
	}
	return buf.Bytes(), nil
}
