// Package store persists characters as YAML files, one per character.
//
// Layout under the data directory:
//
//	<slug>.yaml                     current record
//	<slug>.yaml.lock                advisory lock held during writes
//	backups/<slug>.<stamp>.yaml     previous versions, newest maxBackups kept
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/crystaldolphin/tomekeeper/internal/character"
)

// ErrNotFound is returned when no file exists for a character name.
var ErrNotFound = errors.New("character not found")

const (
	lockTimeout  = 5 * time.Second
	lockRetry    = 50 * time.Millisecond
	stampLayout  = "20060102T150405.000000000"
	loadParallel = 4
)

// YAMLStore reads and writes character files under a directory.
type YAMLStore struct {
	dir        string
	maxBackups int
	logger     *zap.Logger
}

// NewYAMLStore creates the data directory if needed.
func NewYAMLStore(dir string, maxBackups int, logger *zap.Logger) (*YAMLStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &YAMLStore{dir: dir, maxBackups: maxBackups, logger: logger}, nil
}

// Dir returns the data directory.
func (s *YAMLStore) Dir() string { return s.dir }

// Load reads the character stored under name.
func (s *YAMLStore) Load(name string) (*character.Character, error) {
	return s.loadPath(s.path(name))
}

func (s *YAMLStore) loadPath(path string) (*character.Character, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, strings.TrimSuffix(filepath.Base(path), ".yaml"))
		}
		return nil, fmt.Errorf("read character %s: %w", path, err)
	}
	var c character.Character
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse character %s: %w", path, err)
	}
	if c.Spellcasting.Slots == nil {
		c.Spellcasting.Slots = map[int]*character.SpellSlot{}
	}
	return &c, nil
}

// Save writes c atomically. The previous file, if any, is kept as a backup.
func (s *YAMLStore) Save(c *character.Character) error {
	if c == nil || c.Name == "" {
		return errors.New("save: character has no name")
	}
	path := s.path(c.Name)

	fl := flock.New(path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()
	locked, err := fl.TryLockContext(ctx, lockRetry)
	if err != nil || !locked {
		return fmt.Errorf("lock %s: timed out", path)
	}
	defer fl.Unlock()

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal character: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := s.backup(c.Name, path); err != nil {
			s.logger.Warn("backup failed", zap.String("character", c.Name), zap.Error(err))
		}
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write character: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// Delete removes the character file. Backups are kept.
func (s *YAMLStore) Delete(name string) error {
	err := os.Remove(s.path(name))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return err
}

// List returns the slugs of every stored character, sorted.
func (s *YAMLStore) List() ([]string, error) {
	entries, err := filepath.Glob(filepath.Join(s.dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		base := filepath.Base(e)
		if strings.HasPrefix(base, ".tmp-") {
			continue
		}
		names = append(names, strings.TrimSuffix(base, ".yaml"))
	}
	sort.Strings(names)
	return names, nil
}

// Summary is a short listing entry.
type Summary struct {
	Slug     string
	Name     string
	Line     string
	Modified time.Time
}

// Summaries loads every character concurrently and returns one line each,
// in List order. Unreadable files fail the whole call.
func (s *YAMLStore) Summaries(ctx context.Context) ([]Summary, error) {
	slugs, err := s.List()
	if err != nil {
		return nil, err
	}
	out := make([]Summary, len(slugs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(loadParallel)
	for i, slug := range slugs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c, err := s.loadPath(filepath.Join(s.dir, slug+".yaml"))
			if err != nil {
				return err
			}
			out[i] = Summary{Slug: slug, Name: c.Name, Line: c.Summary(), Modified: c.Meta.Modified}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Backups returns backup file paths for name, newest first.
func (s *YAMLStore) Backups(name string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "backups", Slug(name)+".*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	return matches, nil
}

func (s *YAMLStore) backup(name, path string) error {
	if s.maxBackups <= 0 {
		return nil
	}
	dir := filepath.Join(s.dir, "backups")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dst := filepath.Join(dir, fmt.Sprintf("%s.%s.yaml", Slug(name), time.Now().UTC().Format(stampLayout)))
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return err
	}

	existing, err := s.Backups(name)
	if err != nil {
		return err
	}
	for _, old := range existing[min(len(existing), s.maxBackups):] {
		if err := os.Remove(old); err != nil {
			return err
		}
	}
	return nil
}

func (s *YAMLStore) path(name string) string {
	return filepath.Join(s.dir, Slug(name)+".yaml")
}

// Slug converts a character name to a filesystem-safe file stem.
func Slug(name string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash && b.Len() > 0:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
