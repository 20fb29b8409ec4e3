// Package project declares the build targets of a project: the builtin
// closet_maker targets plus any targets listed in an optional mkgo.yaml
// manifest in the project root.
//
// A Project is pure data. Registry turns it into a target.Registry whose
// actions run the compiler through builder.Compile.
package project

import (
	"io"

	"github.com/shinji-kodama/mkgo/internal/builder"
	"github.com/shinji-kodama/mkgo/internal/target"
)

// DefaultTarget is built when nothing else was requested or remembered.
const DefaultTarget = "closet_maker"

// x11DepFlags are the libraries every closet_maker build links against.
const x11DepFlags = "-lGL " +
	"-lcairo " +
	"-lX11-xcb " +
	"-lX11 " +
	"-lxcb " +
	"-lxcb-sync " +
	"-lxcb-randr " +
	"-lm "

// pangoDepFlags add pangocairo text rendering on top of x11DepFlags.
const pangoDepFlags = "-I/usr/include/pango-1.0 " +
	"-I/usr/include/glib-2.0 " +
	"-I/usr/lib/x86_64-linux-gnu/glib-2.0/include " +
	"-I/usr/include/harfbuzz " +
	"-I/usr/include/cairo " +
	"-lpango-1.0 " +
	"-lpangocairo-1.0 " +
	"-lgobject-2.0 " +
	"-lglib-2.0 "

// TargetDef describes one build target.
type TargetDef struct {
	// Name is the unique target name used on the command line.
	Name string `yaml:"name"`

	// Output is the produced binary, relative to the project root.
	Output string `yaml:"output"`

	// Sources are the files handed to the compiler.
	Sources []string `yaml:"sources"`

	// DepFlags is the static library/include flag string.
	DepFlags string `yaml:"dep_flags,omitempty"`

	// Command overrides builder.DefaultTemplate.
	Command string `yaml:"command,omitempty"`

	// BuildPackages are the system packages needed to compile the target.
	BuildPackages []string `yaml:"build_packages,omitempty"`

	// RunPackages are the system packages needed to run the result.
	RunPackages []string `yaml:"run_packages,omitempty"`
}

// Project is the set of targets of one project directory.
type Project struct {
	// Dir is the project root; builds run there and settings live there.
	Dir string

	// Default is the fallback target name.
	Default string

	// Compiler overrides $CC for every target. Empty means $CC or gcc.
	Compiler string

	// Targets are all declared targets, builtin ones first.
	Targets []TargetDef
}

// Builtin returns the targets compiled into mkgo.
func Builtin() []TargetDef {
	return []TargetDef{
		{
			Name:     "closet_maker",
			Output:   "bin/closet_maker",
			Sources:  []string{"x11_platform.c"},
			DepFlags: x11DepFlags,
			BuildPackages: []string{
				"gcc",
				"libcairo2-dev",
				"libgl1-mesa-dev",
				"libx11-dev",
				"libx11-xcb-dev",
				"libxcb-randr0-dev",
				"libxcb-sync-dev",
				"libxcb1-dev",
			},
			RunPackages: []string{
				"libcairo2",
				"libgl1",
				"libx11-6",
				"libx11-xcb1",
				"libxcb-randr0",
				"libxcb-sync1",
				"libxcb1",
			},
		},
		{
			Name:     "closet_maker_pango",
			Output:   "bin/closet_maker",
			Sources:  []string{"x11_platform.c"},
			DepFlags: pangoDepFlags + x11DepFlags,
			BuildPackages: []string{
				"gcc",
				"libcairo2-dev",
				"libgl1-mesa-dev",
				"libpango1.0-dev",
				"libx11-dev",
				"libx11-xcb-dev",
				"libxcb-randr0-dev",
				"libxcb-sync-dev",
				"libxcb1-dev",
			},
			RunPackages: []string{
				"libcairo2",
				"libgl1",
				"libpango-1.0-0",
				"libpangocairo-1.0-0",
				"libx11-6",
				"libx11-xcb1",
				"libxcb-randr0",
				"libxcb-sync1",
				"libxcb1",
			},
		},
	}
}

// Lookup returns the definition of the named target.
func (p *Project) Lookup(name string) (TargetDef, bool) {
	for _, def := range p.Targets {
		if def.Name == name {
			return def, true
		}
	}
	return TargetDef{}, false
}

// Names returns the target names in declaration order.
func (p *Project) Names() []string {
	names := make([]string, 0, len(p.Targets))
	for _, def := range p.Targets {
		names = append(names, def.Name)
	}
	return names
}

// ActionConfig carries the per-run settings shared by every compile action.
type ActionConfig struct {
	DryRun bool
	Stdout io.Writer
	Stderr io.Writer
	Logf   func(format string, args ...any)
}

// Registry registers a compile action for every target.
func (p *Project) Registry(cfg ActionConfig) (*target.Registry, error) {
	reg := target.NewRegistry()
	for _, def := range p.Targets {
		action := &builder.Compile{
			Name:     def.Name,
			Output:   def.Output,
			Sources:  def.Sources,
			DepFlags: def.DepFlags,
			Compiler: p.Compiler,
			Template: def.Command,
			Dir:      p.Dir,
			DryRun:   cfg.DryRun,
			Stdout:   cfg.Stdout,
			Stderr:   cfg.Stderr,
			Logf:     cfg.Logf,
		}
		if err := reg.Register(def.Name, action); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
