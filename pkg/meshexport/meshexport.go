// Package meshexport writes the mesh files referenced by robot description
// writers. Every link is tessellated in its own frame (see package
// tessellate) and written as STL or OBJ, with a bounded number of attempts
// per file.
package meshexport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cenkalti/backoff/v4"
	"github.com/chazu/linkage/pkg/diag"
	"github.com/chazu/linkage/pkg/kernel"
	"github.com/chazu/linkage/pkg/kinematic"
	"github.com/chazu/linkage/pkg/tessellate"
	"github.com/chazu/linkage/pkg/xform"
)

// DefaultAttempts is how many times a mesh file is tried before giving up.
const DefaultAttempts = 3

// ErrNestedAssembly marks export failures of links whose occurrence is
// itself an assembly.
var ErrNestedAssembly = errors.New("meshexport: link occurrence is a nested assembly")

// ExportError describes a mesh file that could not be written.
type ExportError struct {
	Link     string
	File     string
	Attempts int
	Nested   bool
	Err      error
}

func (e *ExportError) Error() string {
	msg := fmt.Sprintf("meshexport: link %s: writing %s failed after %d attempt(s): %v", e.Link, e.File, e.Attempts, e.Err)
	if e.Nested {
		msg += "; the link's occurrence contains other components or joints, so it is a nested assembly. " +
			"Split it into separate parts or mark its joints so each part becomes a link"
	}
	return msg
}

func (e *ExportError) Unwrap() []error {
	if e.Nested {
		return []error{e.Err, ErrNestedAssembly}
	}
	return []error{e.Err}
}

// Exporter writes link meshes into one directory.
type Exporter struct {
	kernel   kernel.Kernel
	conv     xform.Convention
	dir      string
	attempts int
}

// New returns an exporter writing into dir with DefaultAttempts tries per
// file.
func New(k kernel.Kernel, conv xform.Convention, dir string) *Exporter {
	return &Exporter{kernel: k, conv: conv, dir: dir, attempts: DefaultAttempts}
}

// WithAttempts sets the number of tries per file. Values below 1 restore the
// default.
func (x *Exporter) WithAttempts(n int) *Exporter {
	if n < 1 {
		n = DefaultAttempts
	}
	x.attempts = n
	return x
}

// Result is the outcome of exporting a tree.
type Result struct {
	Files  []string
	Report diag.Report
}

// Export writes the meshes of every link in tree. A failed link is recorded
// in the report and the remaining links are still written, unless failFast
// is set, in which case the first failure is returned. Cancellation of ctx
// always stops the export.
func (x *Exporter) Export(ctx context.Context, tree *kinematic.Tree, failFast bool) (*Result, error) {
	if err := os.MkdirAll(x.dir, 0o755); err != nil {
		return nil, fmt.Errorf("meshexport: %w", err)
	}
	res := &Result{}
	for _, l := range tree.Links {
		files, err := x.ExportLink(ctx, l)
		res.Files = append(res.Files, files...)
		if err == nil {
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		res.Report.Addf("meshexport", l.Name, diag.ExportFailed, diag.SeverityError, "%v", err)
		if failFast {
			return res, err
		}
	}
	return res, nil
}

// ExportLink writes the mesh files of l and returns their paths. A link
// without bodies writes nothing.
func (x *Exporter) ExportLink(ctx context.Context, l *kinematic.Link) ([]string, error) {
	var files []string
	for _, p := range tessellate.Pieces(l, x.conv) {
		path, err := x.writePiece(ctx, l, p)
		if err != nil {
			return files, err
		}
		files = append(files, path)
	}
	return files, nil
}

func (x *Exporter) writePiece(ctx context.Context, l *kinematic.Link, p tessellate.Piece) (string, error) {
	path := filepath.Join(x.dir, p.FileName())

	tries := 0
	op := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		tries++
		return x.write(p, path)
	}
	b := backoff.WithContext(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, uint64(x.attempts-1)), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return "", &ExportError{
			Link:     l.Name,
			File:     p.FileName(),
			Attempts: tries,
			Nested:   nested(l),
			Err:      err,
		}
	}
	return path, nil
}

func (x *Exporter) write(p tessellate.Piece, path string) error {
	switch p.Format {
	case kinematic.MeshSTL:
		if w, ok := x.kernel.(kernel.STLWriter); ok {
			s, err := p.Solid(x.kernel)
			if err != nil {
				return err
			}
			return w.WriteSTL(s, path)
		}
		return x.writeMesh(p, path, SaveSTL)
	case kinematic.MeshOBJ:
		return x.writeMesh(p, path, SaveOBJ)
	}
	return backoff.Permanent(fmt.Errorf("unknown mesh format %q", p.Format))
}

func (x *Exporter) writeMesh(p tessellate.Piece, path string, save func(string, *kernel.Mesh) error) error {
	m, err := p.Mesh(x.kernel)
	if err != nil {
		return err
	}
	if m.IsEmpty() {
		return fmt.Errorf("%s: tessellation produced no triangles", p.FileName())
	}
	return save(path, m)
}

// nested reports whether the occurrence behind l looks like a
// sub-assembly rather than a single part. kinematic.Build never makes such
// links, so this only fires for trees assembled by hand and handed to
// Export or ExportLink.
func nested(l *kinematic.Link) bool {
	o := l.Occurrence
	return o != nil && (o.HasChildren() || o.ComponentJoints > 0)
}
