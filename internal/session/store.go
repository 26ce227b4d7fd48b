// Package session persists conversation sessions as JSON documents, one file
// per conversation.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/orchat/orchat/internal/schema"
)

// DefaultDir is the runs directory used when none is configured.
const DefaultDir = "./runs"

// Store reads and writes session documents under a base directory.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at the given directory. The directory is
// created lazily on first save.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = DefaultDir
	}
	return &Store{dir: dir}
}

// Dir returns the store's base directory.
func (s *Store) Dir() string { return s.dir }

// Save writes the session to a new timestamped file in the store directory
// and returns its path.
func (s *Store) Save(sess *schema.Session) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating sessions directory: %w", err)
	}
	name := fmt.Sprintf("%s-%s.json", slugify(sess.Model), sess.CreatedAt.Format("20060102-150405"))
	path := filepath.Join(s.dir, name)
	if err := Write(sess, path); err != nil {
		return "", err
	}
	return path, nil
}

// List returns the session files in the store directory, newest first.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	type fileInfo struct {
		path string
		mod  int64
	}
	var files []fileInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, fileInfo{
			path: filepath.Join(s.dir, entry.Name()),
			mod:  info.ModTime().UnixNano(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].mod > files[j].mod })

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths, nil
}

// Write serializes the session to the given path. The document round-trips
// losslessly: turn order, message order, absent optional fields, and
// timestamps all survive a Write/Load cycle.
func Write(sess *schema.Session, path string) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating session directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}

// Load reads and validates a session document. Documents written by a newer
// orchat are refused rather than silently misread.
func Load(path string) (*schema.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading session %s: %w", path, err)
	}

	var sess schema.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", path, err)
	}
	if sess.SchemaVersion > schema.SchemaVersion {
		return nil, fmt.Errorf("session %s uses schema version %d, this build supports up to %d; upgrade orchat", path, sess.SchemaVersion, schema.SchemaVersion)
	}
	if strings.TrimSpace(sess.Model) == "" {
		return nil, fmt.Errorf("session %s has no model", path)
	}
	if sess.Meta == nil {
		sess.Meta = map[string]any{}
	}
	return &sess, nil
}

// slugify turns a model id into a filesystem-safe filename fragment.
func slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '.' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
