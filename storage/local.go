package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Local is the local-filesystem driver.
type Local struct {
	root    string
	baseURL string
}

func NewLocal(root, baseURL string) *Local {
	if !filepath.IsAbs(root) {
		cwd, _ := os.Getwd()
		root = filepath.Join(cwd, root)
	}
	return &Local{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

func (d *Local) abs(key string) string {
	return filepath.Join(d.root, filepath.FromSlash(key))
}

func (d *Local) Put(_ context.Context, key string, r io.Reader, _ string) error {
	full := d.abs(key)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("storage/local: mkdir: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return fmt.Errorf("storage/local: create %s: %w", key, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("storage/local: write %s: %w", key, err)
	}
	return nil
}

func (d *Local) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(d.abs(key))
	if err != nil {
		return nil, fmt.Errorf("storage/local: open %s: %w", key, err)
	}
	return f, nil
}

func (d *Local) Delete(_ context.Context, key string) error {
	err := os.Remove(d.abs(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage/local: delete %s: %w", key, err)
	}
	return nil
}

func (d *Local) URL(key string) string {
	if d.baseURL == "" {
		return ""
	}
	return d.baseURL + "/" + strings.TrimLeft(key, "/")
}
