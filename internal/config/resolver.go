package config

import (
	"context"
	"path/filepath"
	"sync"
)

// resolverKey is the context key for Resolver
type resolverKey struct{}

// Resolver provides lazy per-directory config resolution with caching.
// It loads and merges the nearest .cfmt.toml/.cfmt.yaml with the global
// config on demand. Safe for concurrent use.
type Resolver struct {
	global *Config

	mu    sync.Mutex
	cache map[string]*Config // local config path -> merged config
}

// NewResolver creates a new Resolver backed by the given global config.
func NewResolver(global *Config) *Resolver {
	return &Resolver{
		global: global,
		cache:  make(map[string]*Config),
	}
}

// ForFile returns the effective config for the file at path.
func (r *Resolver) ForFile(path string) (*Config, error) {
	return r.ForDir(filepath.Dir(path))
}

// ForDir returns the effective config for files in dir.
// Results are cached per local config file.
func (r *Resolver) ForDir(dir string) (*Config, error) {
	localPath := FindLocal(dir)
	if localPath == "" {
		return r.global, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if cached, ok := r.cache[localPath]; ok {
		return cached, nil
	}

	local, err := LoadLocalFile(localPath)
	if err != nil {
		return nil, err
	}

	merged := MergeLocal(r.global, local)
	r.cache[localPath] = merged
	return merged, nil
}

// Invalidate drops cached results, e.g. after a local config changed.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.cache)
}

// Global returns the global config (without any local overrides).
func (r *Resolver) Global() *Config {
	return r.global
}

// WithResolver returns a new context with the Resolver stored in it.
func WithResolver(ctx context.Context, r *Resolver) context.Context {
	return context.WithValue(ctx, resolverKey{}, r)
}

// ResolverFromContext returns the Resolver from context.
// Falls back to a resolver over the context's config.
func ResolverFromContext(ctx context.Context) *Resolver {
	if r, ok := ctx.Value(resolverKey{}).(*Resolver); ok {
		return r
	}
	return NewResolver(FromContext(ctx))
}
