package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileStore keeps each namespace in its own directory under a root.
type FileStore struct {
	dirs map[Namespace]string
}

// NewFileStore creates the namespace directories if they don't exist.
func NewFileStore(root, originalsDir, teasersDir string) (*FileStore, error) {
	s := &FileStore{dirs: map[Namespace]string{
		Originals: filepath.Join(root, originalsDir),
		Teasers:   filepath.Join(root, teasersDir),
	}}
	for _, dir := range s.dirs {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return nil, fmt.Errorf("failed to ensure asset dir %s: %w", dir, err)
		}
	}
	return s, nil
}

// path resolves ref inside the namespace dir and rejects anything that escapes it.
func (s *FileStore) path(ns Namespace, ref string) (string, error) {
	dir, ok := s.dirs[ns]
	if !ok {
		return "", fmt.Errorf("unknown namespace %q", ns)
	}
	if ref == "" {
		return "", fmt.Errorf("empty image ref")
	}
	path := filepath.Join(dir, filepath.FromSlash(ref))
	if !strings.HasPrefix(path, filepath.Clean(dir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("illegal image ref: %s", ref)
	}
	return path, nil
}

func (s *FileStore) Open(_ context.Context, ns Namespace, ref string) (io.ReadCloser, error) {
	path, err := s.path(ns, ref)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s/%s: %w", ns, ref, ErrAssetNotFound)
		}
		return nil, err
	}
	return f, nil
}

func (s *FileStore) Save(_ context.Context, ns Namespace, ref string, body io.Reader, _ string) error {
	path, err := s.path(ns, ref)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}

	// Write to a temp file first so readers never see a half-written image.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *FileStore) List(_ context.Context, ns Namespace) ([]string, error) {
	dir, ok := s.dirs[ns]
	if !ok {
		return nil, fmt.Errorf("unknown namespace %q", ns)
	}

	var refs []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		refs = append(refs, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(refs)
	return refs, nil
}
