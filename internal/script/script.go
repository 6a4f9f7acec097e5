// Package script evaluates operator-supplied expressions used for attribute
// value transforms and sync filter predicates.
//
// Expressions are compiled with expr-lang/expr, which is sandboxed by
// construction: no I/O, no imports, only the bindings passed per call.
// Compiled programs are cached by body; bindings never outlive one call, so
// no state is shared across evaluations.
package script

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Evaluator compiles and runs expressions with a per-body program cache.
type Evaluator struct {
	mu       sync.RWMutex
	programs map[string]*vm.Program
}

// NewEvaluator creates an Evaluator with an empty program cache.
func NewEvaluator() *Evaluator {
	return &Evaluator{programs: make(map[string]*vm.Program)}
}

// Evaluate compiles body (or reuses a cached program) and runs it with the
// given bindings. The result is whatever the expression returns.
func (e *Evaluator) Evaluate(body string, bindings map[string]any) (any, error) {
	program, err := e.compile(body)
	if err != nil {
		return nil, err
	}

	out, err := expr.Run(program, bindings)
	if err != nil {
		return nil, fmt.Errorf("script: run: %w", err)
	}

	return out, nil
}

// EvaluateBool runs body and coerces the result to a boolean predicate.
// A nil result is false; any non-bool result is an error.
func (e *Evaluator) EvaluateBool(body string, bindings map[string]any) (bool, error) {
	out, err := e.Evaluate(body, bindings)
	if err != nil {
		return false, err
	}

	if out == nil {
		return false, nil
	}

	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("script: expected boolean result, got %T", out)
	}

	return b, nil
}

func (e *Evaluator) compile(body string) (*vm.Program, error) {
	e.mu.RLock()
	program, ok := e.programs[body]
	e.mu.RUnlock()

	if ok {
		return program, nil
	}

	program, err := expr.Compile(body, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("script: compile: %w", err)
	}

	e.mu.Lock()
	e.programs[body] = program
	e.mu.Unlock()

	return program, nil
}
