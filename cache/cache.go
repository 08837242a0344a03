// Package cache holds the company-rules snapshot. The rules come from a
// JSON file read once and served until explicitly invalidated; the cache is
// passed to the components that need it instead of living in package state.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"mailresolve/normalize"
)

// Rules is the snapshot of company handling rules. SpecialCaseCompanies
// lists the companies whose attachment matching tries person name before
// personnel id.
type Rules struct {
	SpecialCaseCompanies []string `json:"special_case_companies"`
}

// Cache lazily loads Rules from its path and serves lookups until
// invalidated.
type Cache struct {
	mu     sync.RWMutex
	path   string
	loaded bool
	rules  Rules
}

func New(path string) *Cache {
	return &Cache{path: path}
}

// Rules returns the current snapshot, loading it on first use. A missing
// file yields empty rules, not an error.
func (c *Cache) Rules() (Rules, error) {
	c.mu.RLock()
	if c.loaded {
		rules := c.rules
		c.mu.RUnlock()
		return rules, nil
	}
	c.mu.RUnlock()

	if err := c.Reload(); err != nil {
		return Rules{}, err
	}

	c.mu.RLock()
	rules := c.rules
	c.mu.RUnlock()
	return rules, nil
}

// Reload re-reads the snapshot from disk.
func (c *Cache) Reload() error {
	rules := Rules{}
	if c.path != "" {
		data, err := os.ReadFile(c.path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("read rules file: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(data, &rules); err != nil {
				return fmt.Errorf("parse rules file %s: %w", c.path, err)
			}
		}
	}

	c.mu.Lock()
	c.rules = rules
	c.loaded = true
	c.mu.Unlock()
	return nil
}

// Invalidate drops the snapshot; the next lookup reloads from disk.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.loaded = false
	c.rules = Rules{}
	c.mu.Unlock()
}

// IsSpecialCase reports whether the company gets name-before-id matching.
// Comparison is case-insensitive after token normalization.
func (c *Cache) IsSpecialCase(company string) (bool, error) {
	rules, err := c.Rules()
	if err != nil {
		return false, err
	}
	want := strings.ToUpper(normalize.Token(company))
	if want == "" {
		return false, nil
	}
	for _, name := range rules.SpecialCaseCompanies {
		if strings.ToUpper(normalize.Token(name)) == want {
			return true, nil
		}
	}
	return false, nil
}
