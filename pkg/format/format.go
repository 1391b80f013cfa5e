// Package format writes kinematic trees as robot description files: URDF,
// SDFormat (with its model.config) and MJCF.
//
// Writers assume the meshes produced by package meshexport: one file per
// link, already in the link frame and in target units, so every mesh is
// referenced with an identity pose and unit scale.
package format

import (
	"fmt"
	"math"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chazu/linkage/pkg/diag"
	"github.com/chazu/linkage/pkg/kinematic"
	"github.com/chazu/linkage/pkg/tessellate"
	"github.com/go-gl/mathgl/mgl64"
)

// Format is a robot description format.
type Format string

const (
	URDF Format = "urdf"
	SDF  Format = "sdf"
	MJCF Format = "mjcf"
)

// Formats lists every supported format.
var Formats = []Format{URDF, SDF, MJCF}

// ParseFormat parses a case-insensitive format name. "sdformat" is
// accepted for SDF.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "urdf":
		return URDF, nil
	case "sdf", "sdformat":
		return SDF, nil
	case "mjcf", "mujoco":
		return MJCF, nil
	}
	return "", fmt.Errorf("format: unknown format %q", s)
}

// FileName returns the description file name for a robot.
func (f Format) FileName(robot string) string {
	if f == MJCF {
		return robot + ".xml"
	}
	return robot + "." + string(f)
}

// Simulator is a target simulation environment.
type Simulator string

const (
	SimNone     Simulator = ""
	SimGazebo   Simulator = "gazebo"
	SimPyBullet Simulator = "pybullet"
	SimMuJoCo   Simulator = "mujoco"
)

// CheckSimulator reports whether sim can load f. An empty simulator
// accepts every format.
func CheckSimulator(f Format, sim Simulator) error {
	switch {
	case sim == SimNone:
		return nil
	case f == SDF && sim == SimMuJoCo:
		return fmt.Errorf("format: MuJoCo does not load SDFormat; use urdf or mjcf")
	case f == MJCF && sim != SimMuJoCo:
		return fmt.Errorf("format: %s does not load MJCF; use urdf or sdf", sim)
	}
	return nil
}

// Meta carries the model-level text of a description.
type Meta struct {
	Name        string
	Author      string
	Description string
	// MeshDir is the mesh directory relative to the description file.
	MeshDir string
}

// Document is what every writer consumes.
type Document struct {
	Tree *kinematic.Tree
	Meta Meta
}

func (d Document) meshPath(file string) string {
	if d.Meta.MeshDir == "" {
		return file
	}
	return path.Join(filepath.ToSlash(d.Meta.MeshDir), file)
}

// WriteFiles writes the description of d in format f into dir and returns
// the written paths.
func WriteFiles(dir string, f Format, d Document) ([]string, error) {
	if d.Tree == nil {
		return nil, fmt.Errorf("format: no tree")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("format: %w", err)
	}
	descPath := filepath.Join(dir, f.FileName(d.Meta.Name))
	var write func(*os.File) error
	switch f {
	case URDF:
		write = func(w *os.File) error { return WriteURDF(w, d) }
	case SDF:
		write = func(w *os.File) error { return WriteSDF(w, d) }
	case MJCF:
		write = func(w *os.File) error { return WriteMJCF(w, d) }
	default:
		return nil, fmt.Errorf("format: unknown format %q", f)
	}
	if err := create(descPath, write); err != nil {
		return nil, err
	}
	files := []string{descPath}

	if f == SDF {
		cfg := filepath.Join(dir, ModelConfigFile)
		err := create(cfg, func(w *os.File) error {
			return WriteModelConfig(w, d.Meta, filepath.Base(descPath))
		})
		if err != nil {
			return files, err
		}
		files = append(files, cfg)
	}
	return files, nil
}

func create(p string, write func(*os.File) error) error {
	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("format: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("format: write %s: %w", p, err)
	}
	return f.Close()
}

// Downgrades lists the joints f cannot express and how they are written
// instead.
func Downgrades(f Format, t *kinematic.Tree) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, j := range t.Joints {
		if got, ok := jointType(f, j.Kind); !ok {
			out = append(out, diag.Diagnostic{
				Component: "format",
				Subject:   j.Name,
				Condition: diag.Incomplete,
				Severity:  diag.SeverityWarning,
				Message:   fmt.Sprintf("%s has no %s joint; written as %s", strings.ToUpper(string(f)), j.Kind, got),
			})
		}
	}
	return out
}

// jointType maps a joint kind to the format's joint type name. ok is false
// when the kind had to be approximated.
func jointType(f Format, k kinematic.JointKind) (name string, ok bool) {
	switch f {
	case URDF:
		if k == kinematic.JointBall {
			return "fixed", false
		}
		return k.String(), true
	case SDF:
		switch k {
		case kinematic.JointContinuous:
			// SDFormat revolute joints are unlimited without a limit element.
			return "revolute", true
		case kinematic.JointPlanar:
			return "fixed", false
		}
		return k.String(), true
	case MJCF:
		switch k {
		case kinematic.JointRevolute, kinematic.JointContinuous:
			return "hinge", true
		case kinematic.JointPrismatic:
			return "slide", true
		case kinematic.JointBall:
			return "ball", true
		case kinematic.JointPlanar:
			return "slide", true
		}
		return "", true
	}
	return k.String(), true
}

// num formats a float rounded to nanometer/nanoradian precision.
func num(v float64) string {
	v = math.Round(v*1e9) / 1e9
	if v == 0 {
		v = 0 // drops negative zero
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func triple(v [3]float64) string {
	return num(v[0]) + " " + num(v[1]) + " " + num(v[2])
}

func vec(v mgl64.Vec3) string {
	return triple([3]float64(v))
}

// linkFiles returns the mesh references of l, relative to the description.
func (d Document) linkFiles(l *kinematic.Link) (visual, collision string) {
	v, c := tessellate.Files(l)
	if v == "" {
		return "", ""
	}
	return d.meshPath(v), d.meshPath(c)
}
