package retry

import (
	"errors"
	"fmt"

	"github.com/chriserin/retrygen/internal/codedom"
	"github.com/chriserin/retrygen/internal/policy"
)

const (
	DefaultErrorType   = "Exception"
	DefaultInnerSuffix = "Internal"

	lastErrorVar = "lastException"
	caughtVar    = "exc"
	attemptVar   = "i"

	scenarioEndHook = "OnScenarioEnd"
)

// ErrNotRetryable is returned when Wrap is given a policy without attempts.
var ErrNotRetryable = errors.New("retry policy has no attempts")

// Synthesizer turns a test method into an attempt loop around an inner method.
type Synthesizer struct {
	Runner      codedom.Expr // harness handle notified when an attempt ends
	ErrorType   string       // catch-all exception type
	InnerSuffix string
}

// New returns a Synthesizer notifying the harness held in runnerField.
func New(runnerField string) *Synthesizer {
	return &Synthesizer{
		Runner:      codedom.Var(runnerField),
		ErrorType:   DefaultErrorType,
		InnerSuffix: DefaultInnerSuffix,
	}
}

// Wrap rewrites m into an outer wrapper that calls a new inner method up to
// p.Attempts+1 times, and returns the inner method. The inner method starts
// empty: the caller appends the scenario body to it instead of to m.
//
// An exception of p.ExemptType escapes on the first occurrence. Any other
// exception is stored and the loop moves on; the last one stored is
// rethrown once every attempt has failed.
func (s *Synthesizer) Wrap(t *codedom.Type, m *codedom.Method, p policy.RetryPolicy) (*codedom.Method, error) {
	if !p.Enabled() {
		return nil, fmt.Errorf("wrapping %s: %w", m.Name, ErrNotRetryable)
	}

	inner := t.AddMethod(m.Name + s.InnerSuffix)
	inner.Params = append([]codedom.Param(nil), m.Params...)

	lastErr := codedom.Var(lastErrorVar)
	i := codedom.Var(attemptVar)
	attempts := codedom.Int(p.Attempts)

	var catches []codedom.Catch
	if p.ExemptType != "" {
		catches = append(catches, codedom.Catch{
			Type: p.ExemptType,
			Var:  caughtVar,
			Body: []codedom.Stmt{&codedom.Throw{}},
		})
	}
	catches = append(catches, codedom.Catch{
		Type: s.ErrorType,
		Var:  caughtVar,
		Body: []codedom.Stmt{&codedom.Assign{Target: lastErr, Value: codedom.Var(caughtVar)}},
	})

	m.Append(
		&codedom.VarDecl{Name: lastErrorVar, Type: s.ErrorType, Init: &codedom.Null{}},
		&codedom.For{
			Init: &codedom.VarDecl{Name: attemptVar, Type: "int", Init: codedom.Int(0)},
			Cond: &codedom.Binary{Left: i, Op: codedom.OpLessEqual, Right: attempts},
			Post: &codedom.Assign{
				Target: i,
				Value:  &codedom.Binary{Left: i, Op: codedom.OpAdd, Right: codedom.Int(1)},
			},
			Body: []codedom.Stmt{
				&codedom.Try{
					Body: []codedom.Stmt{
						codedom.Invoke(&codedom.This{}, inner.Name, m.ParamRefs()...),
						&codedom.Return{},
					},
					Catches: catches,
				},
				&codedom.If{
					Cond: &codedom.Binary{
						Left:  &codedom.Binary{Left: i, Op: codedom.OpAdd, Right: codedom.Int(1)},
						Op:    codedom.OpGreaterEqual,
						Right: attempts,
					},
					Then: []codedom.Stmt{codedom.Invoke(s.Runner, scenarioEndHook)},
				},
			},
		},
		&codedom.If{
			Cond: &codedom.Binary{Left: lastErr, Op: codedom.OpNotEqual, Right: &codedom.Null{}},
			Then: []codedom.Stmt{&codedom.Throw{X: lastErr}},
		},
	)

	return inner, nil
}
