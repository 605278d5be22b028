// Package config provides the configuration loader for importcache.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go.trai.ch/importcache/internal/core/domain"
	"go.trai.ch/importcache/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load finds importcache.yaml in cwd or its nearest ancestor and returns the
// resolved configuration. Without a file, the defaults rooted at cwd are used.
func (l *Loader) Load(cwd string) (*domain.Config, error) {
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve working directory"), "cwd", cwd)
	}

	configPath, ok := findConfiguration(abs)
	if !ok {
		return domain.DefaultConfig(abs), nil
	}
	return l.loadFile(configPath)
}

func findConfiguration(dir string) (string, bool) {
	for {
		candidate := filepath.Join(dir, domain.ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func (l *Loader) loadFile(configPath string) (*domain.Config, error) {
	data, err := os.ReadFile(configPath) //nolint:gosec // path is discovered from the working directory
	if err != nil {
		return nil, errors.Join(domain.ErrConfigReadFailed, zerr.With(zerr.Wrap(err, "read"), "path", configPath))
	}

	var file Configfile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Join(domain.ErrConfigParseFailed, zerr.With(zerr.Wrap(err, "decode"), "path", configPath))
	}

	return l.build(configPath, &file)
}

func (l *Loader) build(configPath string, file *Configfile) (*domain.Config, error) {
	baseDir := filepath.Dir(configPath)
	root := resolvePath(baseDir, file.Root)

	cfg := domain.DefaultConfig(root)
	cfg.Path = configPath
	cfg.Search.SearchPaths = l.searchPaths(root, file.SearchPaths)
	for name, value := range file.Variables {
		cfg.Search.Variables[name] = value
	}

	cfg.Worker.Command = slices.Clone(file.Worker.Command)
	if file.Worker.PoolSize != nil {
		if *file.Worker.PoolSize <= 0 {
			return nil, invalid(configPath, "worker.poolSize", fmt.Sprint(*file.Worker.PoolSize), "must be positive")
		}
		cfg.Worker.PoolSize = *file.Worker.PoolSize
	}

	durations := []struct {
		field string
		value string
		dest  *time.Duration
	}{
		{"timeouts.load", file.Timeouts.Load, &cfg.Timeouts.Load},
		{"timeouts.resolve", file.Timeouts.Resolve, &cfg.Timeouts.Resolve},
		{"timeouts.complete", file.Timeouts.Complete, &cfg.Timeouts.Complete},
		{"watch.debounce", file.Watch.Debounce, &cfg.Debounce},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return nil, invalid(configPath, d.field, d.value, "not a duration")
		}
		if parsed <= 0 {
			return nil, invalid(configPath, d.field, d.value, "must be positive")
		}
		*d.dest = parsed
	}

	return cfg, nil
}

// searchPaths makes every path absolute against root and drops duplicates.
// Missing directories are kept, since they may be created later.
func (l *Loader) searchPaths(root string, paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		abs := resolvePath(root, p)
		if slices.Contains(out, abs) {
			continue
		}
		if _, err := os.Stat(abs); err != nil && l.Logger != nil {
			l.Logger.Warn(fmt.Sprintf("search path %s does not exist", abs))
		}
		out = append(out, abs)
	}
	return out
}

// resolvePath returns p made absolute against baseDir. An empty p is baseDir.
func resolvePath(baseDir, p string) string {
	if p == "" {
		return baseDir
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(baseDir, p)
}

func invalid(configPath, field, value, reason string) error {
	err := zerr.With(zerr.Wrap(zerr.New(reason), field), "value", value)
	return errors.Join(domain.ErrInvalidConfig, zerr.With(err, "path", configPath))
}
