package artifacts

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrNotFound reports a missing artifact.
var ErrNotFound = errors.New("artifact not found")

// Key addresses one artifact within the store.
type Key struct {
	Project string
	Stage   string
	Name    string
}

// String renders the key in project/stage/name form.
func (k Key) String() string {
	return k.Project + "/" + k.Stage + "/" + k.Name
}

func (k Key) validate() error {
	for _, part := range []string{k.Project, k.Stage, k.Name} {
		if strings.TrimSpace(part) == "" {
			return fmt.Errorf("artifact key %q: empty component", k.String())
		}
		if part != filepath.Base(part) || part == "." || part == ".." {
			return fmt.Errorf("artifact key %q: component %q must be a bare name", k.String(), part)
		}
	}
	return nil
}

// Store keeps artifacts under a root directory, one subtree per project.
type Store struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates the root directory if needed and returns a store.
func NewStore(root string) (*Store, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("artifact store: root directory required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("artifact store: create root: %w", err)
	}
	return &Store{root: root, locks: make(map[string]*sync.Mutex)}, nil
}

// Root returns the store's base directory.
func (s *Store) Root() string {
	return s.root
}

// Path returns the filesystem location an artifact key maps to.
func (s *Store) Path(key Key) (string, error) {
	if err := key.validate(); err != nil {
		return "", err
	}
	return filepath.Join(s.root, key.Project, key.Stage, key.Name), nil
}

// Put writes the artifact atomically, replacing any previous content.
func (s *Store) Put(key Key, data []byte) error {
	path, err := s.Path(key)
	if err != nil {
		return err
	}

	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("artifact store: create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+key.Name+".*")
	if err != nil {
		return fmt.Errorf("artifact store: temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("artifact store: write %s: %w", key.String(), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("artifact store: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("artifact store: publish %s: %w", key.String(), err)
	}
	return nil
}

// Get reads the artifact content. Missing artifacts return ErrNotFound.
func (s *Store) Get(key Key) ([]byte, error) {
	path, err := s.Path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key.String())
		}
		return nil, fmt.Errorf("artifact store: read %s: %w", key.String(), err)
	}
	return data, nil
}

// Exists reports whether the artifact has been written.
func (s *Store) Exists(key Key) (bool, error) {
	path, err := s.Path(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("artifact store: stat %s: %w", key.String(), err)
	}
	return true, nil
}

// CopyTo copies an artifact to an external destination path.
func (s *Store) CopyTo(key Key, destPath string) error {
	src, err := s.Path(key)
	if err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, key.String())
		}
		return fmt.Errorf("artifact store: open %s: %w", key.String(), err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("artifact store: create destination: %w", err)
	}
	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("artifact store: create %s: %w", destPath, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(destPath)
		return fmt.Errorf("artifact store: copy to %s: %w", destPath, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("artifact store: close %s: %w", destPath, err)
	}
	return nil
}

// Prune removes the oldest project directories, keeping at most keep of the
// most recently modified ones. It returns the removed project names.
func (s *Store) Prune(keep int) ([]string, error) {
	if keep < 0 {
		keep = 0
	}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("artifact store: list projects: %w", err)
	}

	type projectDir struct {
		name    string
		modTime int64
	}
	projects := make([]projectDir, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		projects = append(projects, projectDir{name: entry.Name(), modTime: info.ModTime().UnixNano()})
	}
	if len(projects) <= keep {
		return nil, nil
	}

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].modTime > projects[j].modTime
	})

	var removed []string
	for _, project := range projects[keep:] {
		if err := os.RemoveAll(filepath.Join(s.root, project.name)); err != nil {
			return removed, fmt.Errorf("artifact store: prune %s: %w", project.name, err)
		}
		removed = append(removed, project.name)
	}
	return removed, nil
}

func (s *Store) keyLock(key Key) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := key.String()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}
