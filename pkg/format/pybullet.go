package format

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/template"
)

// PyBulletScript is the file name of the generated launcher script.
const PyBulletScript = "hello_pybullet.py"

var pybulletTmpl = template.Must(template.New("pybullet").Parse(`import time

import pybullet as p
import pybullet_data

physics_client = p.connect(p.GUI)
p.setAdditionalSearchPath(pybullet_data.getDataPath())
p.setGravity(0, 0, -9.81)
plane_id = p.loadURDF("plane.urdf")

{{if .SDF -}}
robot_ids = p.loadSDF("{{.File}}")
{{- else -}}
robot_id = p.loadURDF("{{.File}}", useFixedBase=True)
{{- end}}

for _ in range(10000):
    p.stepSimulation()
    time.sleep(1.0 / 240.0)

p.disconnect()
`))

// WritePyBullet writes a script that loads the description file into
// PyBullet. Only URDF and SDF are loadable.
func WritePyBullet(w io.Writer, f Format, file string) error {
	if f != URDF && f != SDF {
		return fmt.Errorf("format: PyBullet cannot load %s", f)
	}
	return pybulletTmpl.Execute(w, struct {
		SDF  bool
		File string
	}{SDF: f == SDF, File: file})
}

// WritePyBulletFile writes the PyBullet script into dir and returns its path.
func WritePyBulletFile(dir string, f Format, file string) (string, error) {
	p := filepath.Join(dir, PyBulletScript)
	if err := create(p, func(w *os.File) error { return WritePyBullet(w, f, file) }); err != nil {
		return "", err
	}
	return p, nil
}
