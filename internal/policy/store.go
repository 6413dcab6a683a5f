package policy

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/model"
)

var (
	ErrInvalidLimit       = fmt.Errorf("limit must be between %d and %d", model.MinLimit, model.MaxLimit)
	ErrInvalidMAC         = errors.New("invalid mac address")
	ErrEmptyName          = errors.New("name must not be empty")
	ErrAlreadyBlacklisted = errors.New("mac already blacklisted")
	ErrNotBlacklisted     = errors.New("mac not blacklisted")
)

// Store owns the durable policy. Readers get deep snapshots; every mutation is
// persisted before it becomes visible.
type Store struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	current model.Policy
}

// Load reads the policy file. Any failure falls back to the default policy.
func Load(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "policy")

	pol, err := readFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Info("policy file missing; using defaults", "path", path)
		pol = model.DefaultPolicy()
	case err != nil:
		logger.Warn("policy file unreadable; using defaults", "path", path, "err", err)
		pol = model.DefaultPolicy()
	}
	return &Store{path: path, logger: logger, current: pol}
}

// Current returns a snapshot that is safe to read without holding any lock.
func (s *Store) Current() model.Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Mutate applies fn to a copy of the policy, rewrites the file and then swaps
// the copy in. If fn or the write fails the in-memory policy is unchanged.
func (s *Store) Mutate(fn func(p *model.Policy) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	next = next.Normalize()
	if err := writeFile(s.path, next); err != nil {
		s.logger.Error("policy persist failed", "path", s.path, "err", err)
		return fmt.Errorf("persist policy: %w", err)
	}
	s.current = next
	return nil
}

func (s *Store) SetLimit(limit int) error {
	if limit < model.MinLimit || limit > model.MaxLimit {
		return ErrInvalidLimit
	}
	err := s.Mutate(func(p *model.Policy) error {
		p.Limit = limit
		return nil
	})
	if err == nil {
		s.logger.Info("client limit changed", "limit", limit)
	}
	return err
}

func (s *Store) AddToBlacklist(mac string) error {
	mac, err := validMAC(mac)
	if err != nil {
		return err
	}
	err = s.Mutate(func(p *model.Policy) error {
		if slices.Contains(p.Blacklist, mac) {
			return ErrAlreadyBlacklisted
		}
		p.Blacklist = append(p.Blacklist, mac)
		return nil
	})
	if err == nil {
		s.logger.Info("device blacklisted", "mac", mac)
	}
	return err
}

// RemoveFromBlacklist drops mac from the blacklist. When forgetName is set the
// custom alias for mac is removed in the same write.
func (s *Store) RemoveFromBlacklist(mac string, forgetName bool) error {
	mac, err := validMAC(mac)
	if err != nil {
		return err
	}
	err = s.Mutate(func(p *model.Policy) error {
		idx := slices.Index(p.Blacklist, mac)
		if idx < 0 {
			return ErrNotBlacklisted
		}
		p.Blacklist = slices.Delete(p.Blacklist, idx, idx+1)
		if forgetName {
			delete(p.CustomNames, mac)
		}
		return nil
	})
	if err == nil {
		s.logger.Info("device removed from blacklist", "mac", mac, "forget_name", forgetName)
	}
	return err
}

func (s *Store) Rename(mac, name string) error {
	mac, err := validMAC(mac)
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	return s.Mutate(func(p *model.Policy) error {
		p.CustomNames[mac] = name
		return nil
	})
}

func validMAC(mac string) (string, error) {
	mac = model.NormalizeMAC(mac)
	if _, err := net.ParseMAC(mac); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidMAC, mac)
	}
	return mac, nil
}
