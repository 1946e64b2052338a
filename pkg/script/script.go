// Package script provides a Lisp console for the raycast engine. It
// wraps zygomys in a sandboxed environment; scripts build a scene from
// shape builtins and interrogate it with query builtins.
package script

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/resin/pkg/raycast"
)

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

// Result bundles the output of one script run: the scene the script
// built, ready for further host-side queries, and the printed form of
// the final expression.
type Result struct {
	Scene *raycast.Scene
	Value string
}

// Interp runs scripts against the raycast engine. It is safe for
// concurrent use; each call to Run creates a fresh sandboxed
// environment and a fresh scene for determinism.
type Interp struct {
	mu         sync.Mutex
	generation uint64
}

// NewInterp creates a new Interp instance.
func NewInterp() *Interp {
	return &Interp{}
}

// Run evaluates source and returns the scene it built.
//
// Return semantics:
//   - On success: returns result + nil errors + nil error
//   - On parse/eval failure: returns nil result + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (in *Interp) Run(source string) (*Result, []EvalError, error) {
	in.mu.Lock()
	in.generation++
	gen := in.generation
	in.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		res, evalErrs, err := in.run(source)
		ch <- evalResult{res: res, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &in.mu, &in.generation)
}

// run performs the actual zygomys evaluation in a fresh sandbox.
func (in *Interp) run(source string) (*Result, []EvalError, error) {
	sess := &session{scene: raycast.NewScene()}

	// Empty source is a valid program that produces an empty scene.
	if strings.TrimSpace(source) == "" {
		return &Result{Scene: sess.scene}, nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or
	// syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	registerBuiltins(env, sess)

	err := env.LoadString(preprocessSource(source))
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	expr, err := env.Run()
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	value := ""
	if expr != nil && expr != zygo.SexpNull {
		value = expr.SexpString(nil)
	}
	return &Result{Scene: sess.scene, Value: value}, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError
// values. It attempts to extract line number information from the error
// message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	if m := linePattern.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{
			Line:    line,
			Message: strings.TrimSpace(m[2]),
		}}
	}

	if m := linePatternShort.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{
			Line:    line,
			Message: strings.TrimSpace(m[2]),
		}}
	}

	return []EvalError{{
		Message: strings.TrimSpace(msg),
	}}
}
