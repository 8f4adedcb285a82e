// Package session archives conversation transcripts as JSONL files.
//
// File format:
//
//	Line 1:  {"_type":"metadata","key":"…","created_at":"…","updated_at":"…","metadata":{…}}
//	Line 2+: one JSON message object per line
//
// Pending confirmations are never archived; a restored transcript only
// carries what was said.
package session

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/crystaldolphin/tomekeeper/internal/schema"
)

// Manager loads and persists sessions as JSONL files.
type Manager struct {
	sessionsDir string
	logger      *zap.Logger
	cache       sync.Map // key → *Session
}

// Info is the listing view of one archived session.
type Info struct {
	Key       string
	CreatedAt time.Time
	UpdatedAt time.Time
	Path      string
}

type metadataLine struct {
	Type      string         `json:"_type"`
	Key       string         `json:"key"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewManager creates a Manager rooted at dir, creating it if necessary.
func NewManager(dir string, logger *zap.Logger) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sessions dir: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{sessionsDir: dir, logger: logger}, nil
}

// GetOrCreate returns the cached session for key, loading from disk if needed,
// or creating an empty new one.
func (m *Manager) GetOrCreate(key string) *Session {
	if v, ok := m.cache.Load(key); ok {
		return v.(*Session)
	}

	s := m.load(key)
	if s == nil {
		s = newSession(key)
	}

	actual, _ := m.cache.LoadOrStore(key, s)
	return actual.(*Session)
}

// Restore returns the archived transcript for key, if one exists on disk or
// in the cache.
func (m *Manager) Restore(key string) (schema.Messages, bool) {
	s := m.GetOrCreate(key)
	if s.Len() == 0 {
		return schema.Messages{}, false
	}
	return s.History(), true
}

// Record replaces the transcript stored under key and writes it out.
func (m *Manager) Record(key string, msgs schema.Messages) error {
	s := m.GetOrCreate(key)
	s.Replace(msgs)
	return m.Save(s)
}

// Save writes the session to disk and updates the cache.
func (m *Manager) Save(s *Session) error {
	path := m.sessionPath(s.Key)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	s.mu.Lock()
	msgs := s.Messages.Clone()
	meta := metadataLine{
		Type:      "metadata",
		Key:       s.Key,
		CreatedAt: s.CreatedAt.UTC(),
		UpdatedAt: time.Now().UTC(),
		Metadata:  s.Metadata,
	}
	s.mu.Unlock()

	if err := enc.Encode(meta); err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	for _, msg := range msgs.Messages {
		if err := enc.Encode(msg); err != nil {
			return fmt.Errorf("encode message: %w", err)
		}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write session %s: %w", path, err)
	}

	m.cache.Store(s.Key, s)
	return nil
}

// Invalidate removes a session from the in-memory cache.
func (m *Manager) Invalidate(key string) {
	m.cache.Delete(key)
}

// Delete removes the archived session for key. A missing file is not an error.
func (m *Manager) Delete(key string) error {
	m.cache.Delete(key)
	if err := os.Remove(m.sessionPath(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete session %s: %w", key, err)
	}
	return nil
}

// List returns all archived sessions, newest first.
func (m *Manager) List() []Info {
	entries, _ := filepath.Glob(filepath.Join(m.sessionsDir, "*.jsonl"))
	var out []Info

	for _, path := range entries {
		meta, err := readMetadata(path)
		if err != nil {
			m.logger.Warn("skipping unreadable session file", zap.String("path", path), zap.Error(err))
			continue
		}
		key := meta.Key
		if key == "" {
			key = strings.TrimSuffix(filepath.Base(path), ".jsonl")
		}
		out = append(out, Info{Key: key, CreatedAt: meta.CreatedAt, UpdatedAt: meta.UpdatedAt, Path: path})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out
}

func readMetadata(path string) (metadataLine, error) {
	var meta metadataLine
	f, err := os.Open(path)
	if err != nil {
		return meta, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1<<20), 1<<20)
	if !scanner.Scan() {
		return meta, errors.New("empty session file")
	}
	if err := json.Unmarshal(scanner.Bytes(), &meta); err != nil {
		return meta, err
	}
	if meta.Type != "metadata" {
		return meta, errors.New("missing metadata line")
	}
	return meta, nil
}

// ---------------------------------------------------------------------------
// Internal helpers

// sessionPath converts a session key to its JSONL file path.
func (m *Manager) sessionPath(key string) string {
	name := safeFilename(strings.ReplaceAll(key, ":", "_"))
	return filepath.Join(m.sessionsDir, name+".jsonl")
}

// safeFilename replaces filesystem-unsafe characters with underscores.
func safeFilename(name string) string {
	const unsafe = `<>:"/\|?*`
	var b strings.Builder
	for _, r := range name {
		if strings.ContainsRune(unsafe, r) {
			b.WriteByte('_')
		} else {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// load reads a session from disk. Malformed lines are skipped.
func (m *Manager) load(key string) *Session {
	path := m.sessionPath(key)

	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	s := newSession(key)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1<<20), 1<<20) // 1 MB per line
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var probe struct {
			Type string `json:"_type"`
		}
		if err := json.Unmarshal(line, &probe); err != nil {
			m.logger.Warn("skipping malformed session line", zap.String("key", key), zap.Error(err))
			continue
		}

		if probe.Type == "metadata" {
			var meta metadataLine
			if err := json.Unmarshal(line, &meta); err == nil {
				if !meta.CreatedAt.IsZero() {
					s.CreatedAt = meta.CreatedAt
				}
				if meta.Metadata != nil {
					s.Metadata = meta.Metadata
				}
			}
			continue
		}

		var msg schema.Message
		if err := json.Unmarshal(line, &msg); err != nil {
			m.logger.Warn("skipping malformed session line", zap.String("key", key), zap.Error(err))
			continue
		}
		s.Messages.Add(msg)
	}

	if err := scanner.Err(); err != nil {
		m.logger.Warn("error reading session file", zap.String("key", key), zap.Error(err))
		return nil
	}
	return s
}
