// Package engine evaluates assembly descriptions written in a small Lisp
// and produces a scene.Assembly. It stands in for a CAD host: parts,
// sub-assemblies, bodies and joints are declared in source instead of read
// from a live document.
//
// A program looks like:
//
//	(assembly "Rover Mk2" :author "chazu")
//	(def base (part "base:1" (box 40 4 40) :grounded true))
//	(def arm (part "arm:1" (box 4 20 4) :at (vec3 0 12 0)))
//	(revolute "shoulder" :parent base :child arm
//	          :origin (vec3 0 2 0) :axis (vec3 0 1 0) :limits (list -90 90))
//
// Lengths are centimeters, angles degrees.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/linkage/pkg/kernel"
	"github.com/chazu/linkage/pkg/scene"
	zygo "github.com/glycerine/zygomys/zygo"
)

// DefaultAssemblyName is used when a program never calls (assembly ...).
const DefaultAssemblyName = "assembly"

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Engine wraps the zygomys interpreter. It is safe for concurrent use; each
// call to Evaluate creates a fresh sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64

	kernel  kernel.Kernel
	timeout time.Duration
}

// NewEngine creates an engine that builds body solids with k.
func NewEngine(k kernel.Kernel) *Engine {
	return &Engine{kernel: k, timeout: EvalTimeout}
}

// WithTimeout sets the evaluation time limit. A non-positive d restores
// EvalTimeout.
func (e *Engine) WithTimeout(d time.Duration) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	if d <= 0 {
		d = EvalTimeout
	}
	e.timeout = d
	return e
}

// Evaluate runs source and returns the assembly it describes.
//
// Return semantics:
//   - On success: returns assembly + nil errors + nil error
//   - On parse/eval failure: returns nil assembly + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*scene.Assembly, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	timeout := e.timeout
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		a, evalErrs, err := e.evaluate(source)
		ch <- evalResult{assembly: a, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, timeout, &e.mu, &e.generation)
}

func (e *Engine) evaluate(source string) (*scene.Assembly, []EvalError, error) {
	b := &builder{asm: scene.NewAssembly(DefaultAssemblyName), k: e.kernel}

	// Empty source is a valid program that produces an empty assembly.
	if strings.TrimSpace(source) == "" {
		return b.asm, nil, nil
	}
	if e.kernel == nil {
		return nil, nil, fmt.Errorf("engine: no geometry kernel")
	}

	// Sandbox mode keeps user code away from the filesystem and syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, b)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}
	return b.asm, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into EvalError values,
// extracting a line number when the message carries one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
