package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"
)

// referencePattern matches ${secret:name} references.
var referencePattern = regexp.MustCompile(`\$\{secret:([A-Za-z0-9_.-]+)\}`)

// Manager resolves secret references against an ordered list of providers.
// The first provider that has a value wins. Resolved values are cached for
// TTL; a zero TTL disables caching.
type Manager struct {
	providers []Provider
	ttl       time.Duration
	now       func() time.Time
	logger    *slog.Logger

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	value     string
	expiresAt time.Time
}

// NewManager creates a manager over providers, consulted in order.
func NewManager(ttl time.Duration, providers ...Provider) *Manager {
	return &Manager{
		providers: providers,
		ttl:       ttl,
		now:       time.Now,
		logger:    slog.Default().With("component", "secrets"),
		cache:     make(map[string]cacheEntry),
	}
}

// GetSecret returns the value of name from the cache or the first provider
// that has it.
func (m *Manager) GetSecret(ctx context.Context, name string) (string, error) {
	if value, ok := m.cached(name); ok {
		return value, nil
	}

	var errs []error
	for _, p := range m.providers {
		value, err := p.GetSecret(ctx, name)
		if err == nil {
			m.store(name, value)
			m.logger.Debug("secret resolved", "name", name, "provider", p.Name())
			return value, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", fmt.Errorf("provider %s: %w", p.Name(), err)
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return "", fmt.Errorf("%w: %s (no providers configured)", ErrNotFound, name)
	}
	return "", errors.Join(errs...)
}

// Resolve replaces every ${secret:name} reference in value. Values without
// references are returned unchanged.
func (m *Manager) Resolve(ctx context.Context, value string) (string, error) {
	if !HasReference(value) {
		return value, nil
	}

	var firstErr error
	out := referencePattern.ReplaceAllStringFunc(value, func(ref string) string {
		if firstErr != nil {
			return ref
		}
		name := referencePattern.FindStringSubmatch(ref)[1]
		secret, err := m.GetSecret(ctx, name)
		if err != nil {
			firstErr = err
			return ref
		}
		return secret
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// Invalidate drops every cached value.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[string]cacheEntry)
}

func (m *Manager) cached(name string) (string, bool) {
	if m.ttl <= 0 {
		return "", false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.cache[name]
	if !ok || m.now().After(entry.expiresAt) {
		return "", false
	}
	return entry.value, true
}

func (m *Manager) store(name, value string) {
	if m.ttl <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[name] = cacheEntry{value: value, expiresAt: m.now().Add(m.ttl)}
}

// HasReference reports whether value contains a ${secret:name} reference.
func HasReference(value string) bool {
	return referencePattern.MatchString(value)
}
