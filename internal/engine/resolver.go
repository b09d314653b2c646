package engine

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/j-emberton/HXforge/internal/hxerr"
)

// Resolver maps a fluid identity to its table resource.
type Resolver interface {
	Open(fluid string) (io.ReadCloser, error)
}

// Lister is implemented by resolvers that can enumerate their identities.
type Lister interface {
	List() ([]string, error)
}

const DefaultExt = ".txt"

// DirResolver reads "<Dir>/<fluid><Ext>".
type DirResolver struct {
	Dir string
	Ext string
}

func (d DirResolver) ext() string {
	if d.Ext == "" {
		return DefaultExt
	}
	return d.Ext
}

func (d DirResolver) Open(fluid string) (io.ReadCloser, error) {
	if !validIdentity(fluid) {
		return nil, hxerr.NotFound(fluid, errors.New("invalid identity"))
	}
	f, err := os.Open(filepath.Join(d.Dir, fluid+d.ext()))
	if err != nil {
		return nil, hxerr.NotFound(fluid, err)
	}
	return f, nil
}

func (d DirResolver) List() ([]string, error) {
	return listFS(os.DirFS(d.Dir), d.ext())
}

// FSResolver reads "<fluid><Ext>" from the root of an fs.FS.
type FSResolver struct {
	FS  fs.FS
	Ext string
}

func (r FSResolver) ext() string {
	if r.Ext == "" {
		return DefaultExt
	}
	return r.Ext
}

func (r FSResolver) Open(fluid string) (io.ReadCloser, error) {
	if !validIdentity(fluid) {
		return nil, hxerr.NotFound(fluid, errors.New("invalid identity"))
	}
	f, err := r.FS.Open(fluid + r.ext())
	if err != nil {
		return nil, hxerr.NotFound(fluid, err)
	}
	return f, nil
}

func (r FSResolver) List() ([]string, error) {
	return listFS(r.FS, r.ext())
}

func listFS(fsys fs.FS, ext string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ext) {
			continue
		}
		if id := strings.TrimSuffix(name, ext); validIdentity(id) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

// FluidFromPath returns the identity a path would resolve to under ext, if any.
func FluidFromPath(path, ext string) (string, bool) {
	if ext == "" {
		ext = DefaultExt
	}
	base := filepath.Base(path)
	if !strings.HasSuffix(base, ext) {
		return "", false
	}
	id := strings.TrimSuffix(base, ext)
	return id, validIdentity(id)
}

func validIdentity(fluid string) bool {
	if fluid == "" || fluid == "." || fluid == ".." {
		return false
	}
	return !strings.ContainsAny(fluid, `/\`) && !strings.Contains(fluid, "..")
}
