// Package project loads the scratchc.toml manifest that lists the Scratch
// projects of a build and its defaults.
package project

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"scratchc/internal/diag"
)

// Manifest is a loaded scratchc.toml.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

type Config struct {
	Package PackageConfig `toml:"package"`
	Build   BuildConfig   `toml:"build"`
	Trace   TraceConfig   `toml:"trace"`
}

type PackageConfig struct {
	Name string `toml:"name"`
}

type BuildConfig struct {
	Inputs []string `toml:"inputs"`
	OutDir string   `toml:"out_dir"`
	// Jobs bounds parallel compilations; 0 means one per CPU.
	Jobs  int  `toml:"jobs"`
	Cache bool `toml:"cache"`
}

type TraceConfig struct {
	Level string `toml:"level"`
	Mode  string `toml:"mode,omitempty"`
	File  string `toml:"file,omitempty"`
}

// DefaultConfig is what `scratchc init` writes.
func DefaultConfig(name string) Config {
	return Config{
		Package: PackageConfig{Name: name},
		Build: BuildConfig{
			Inputs: []string{name + ".sb3"},
			OutDir: "build",
			Cache:  true,
		},
		Trace: TraceConfig{Level: "off"},
	}
}

// Load walks up from startDir and loads the first scratchc.toml found.
// ok is false when there is none.
func Load(startDir string) (*Manifest, bool, error) {
	manifestPath, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := LoadConfig(manifestPath)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
	}, true, nil
}

// LoadConfig parses and validates one manifest file.
func LoadConfig(path string) (Config, error) {
	where := diag.Location{File: path}
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, diag.Wrap(diag.ProjManifestInvalid, where, err, "failed to parse TOML")
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, diag.Errorf(diag.ProjManifestInvalid, where, "unknown keys: %s", strings.Join(keys, ", "))
	}
	if !meta.IsDefined("package") {
		return Config{}, diag.Errorf(diag.ProjManifestInvalid, where, "missing [package]")
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return Config{}, diag.Errorf(diag.ProjManifestInvalid, where, "missing [package].name")
	}
	if !meta.IsDefined("build", "inputs") || len(cfg.Build.Inputs) == 0 {
		return Config{}, diag.Errorf(diag.ProjManifestInvalid, where, "missing [build].inputs")
	}
	for i, in := range cfg.Build.Inputs {
		if strings.TrimSpace(in) == "" {
			return Config{}, diag.Errorf(diag.ProjManifestInvalid, where, "[build].inputs[%d] is empty", i)
		}
	}
	if cfg.Build.Jobs < 0 {
		return Config{}, diag.Errorf(diag.ProjManifestInvalid, where, "[build].jobs must not be negative")
	}
	if !meta.IsDefined("build", "cache") {
		cfg.Build.Cache = true
	}
	if strings.TrimSpace(cfg.Build.OutDir) == "" {
		cfg.Build.OutDir = "."
	}
	return cfg, nil
}

// Inputs returns the project paths of the manifest, resolved against its
// directory.
func (m *Manifest) Inputs() []string {
	out := make([]string, 0, len(m.Config.Build.Inputs))
	for _, in := range m.Config.Build.Inputs {
		out = append(out, m.resolve(in))
	}
	return out
}

// OutDir is the resolved output directory.
func (m *Manifest) OutDir() string {
	return m.resolve(m.Config.Build.OutDir)
}

func (m *Manifest) resolve(p string) string {
	p = filepath.FromSlash(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(m.Root, p)
}

// Write creates dir/scratchc.toml from cfg. An existing manifest is left
// untouched unless force is set.
func Write(dir string, cfg Config, force bool) (string, error) {
	path := filepath.Join(dir, ManifestName)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", diag.Errorf(diag.ProjWriteFailed, diag.Location{File: path}, "%s already exists", ManifestName)
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", diag.Wrap(diag.ProjWriteFailed, diag.Location{File: path}, err, "cannot stat manifest")
		}
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return "", diag.Wrap(diag.ProjWriteFailed, diag.Location{File: path}, err, "cannot encode manifest")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", diag.Wrap(diag.ProjWriteFailed, diag.Location{File: path}, err, "cannot create directory")
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", diag.Wrap(diag.ProjWriteFailed, diag.Location{File: path}, err, "cannot write manifest")
	}
	return path, nil
}
