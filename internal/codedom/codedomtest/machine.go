// Package codedomtest interprets codedom methods so tests can check the
// runtime behaviour of generated control flow without emitting source.
package codedomtest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/chriserin/retrygen/internal/codedom"
)

// Exception is a value thrown by interpreted code.
type Exception struct {
	Type    string
	Message string
}

func (e *Exception) Error() string {
	if e.Message == "" {
		return e.Type
	}
	return e.Type + ": " + e.Message
}

// Throw returns an exception of the given type, for use in handlers.
func Throw(typ, msg string) error {
	return &Exception{Type: typ, Message: msg}
}

// Handler stands in for a method body or an external call.
type Handler func(args []any) error

// Object is the value of a New expression.
type Object struct {
	Type string
	Args []any
}

// Machine runs the methods of one codedom.Type.
type Machine struct {
	Type *codedom.Type

	// Methods overrides this.<name>(...) calls.
	Methods map[string]Handler
	// Externals handles calls on fields and static types, keyed "target.Method".
	Externals map[string]Handler

	// Calls records every call in order, as "this.Name" or "target.Method".
	Calls []string

	fields map[string]any
}

// New returns a Machine for t.
func New(t *codedom.Type) *Machine {
	return &Machine{
		Type:      t,
		Methods:   map[string]Handler{},
		Externals: map[string]Handler{},
		fields:    map[string]any{},
	}
}

// Count returns how many times call was recorded.
func (m *Machine) Count(call string) int {
	n := 0
	for _, c := range m.Calls {
		if c == call {
			n++
		}
	}
	return n
}

// Invoke runs the named method. A thrown exception escapes as *Exception.
func (m *Machine) Invoke(name string, args ...any) error {
	return m.call(name, args)
}

var errReturn = errors.New("return")

type frame struct {
	vars     map[string]any
	handling []*Exception
}

func (m *Machine) call(name string, args []any) error {
	m.Calls = append(m.Calls, "this."+name)
	if h, ok := m.Methods[name]; ok {
		return h(args)
	}
	method := m.Type.Method(name)
	if method == nil {
		return fmt.Errorf("no method %s on %s", name, m.Type.Name)
	}
	if len(args) != len(method.Params) {
		return fmt.Errorf("%s takes %d arguments, got %d", name, len(method.Params), len(args))
	}
	f := &frame{vars: map[string]any{}}
	for i, p := range method.Params {
		f.vars[p.Name] = args[i]
	}
	err := m.block(f, method.Body)
	if errors.Is(err, errReturn) {
		return nil
	}
	return err
}

func (m *Machine) block(f *frame, stmts []codedom.Stmt) error {
	for _, s := range stmts {
		if err := m.stmt(f, s); err != nil {
			return err
		}
	}
	return nil
}

func (m *Machine) stmt(f *frame, s codedom.Stmt) error {
	switch s := s.(type) {
	case *codedom.ExprStmt:
		_, err := m.expr(f, s.X)
		return err
	case *codedom.VarDecl:
		var v any
		if s.Init != nil {
			var err error
			if v, err = m.expr(f, s.Init); err != nil {
				return err
			}
		}
		f.vars[s.Name] = v
		return nil
	case *codedom.Assign:
		v, err := m.expr(f, s.Value)
		if err != nil {
			return err
		}
		return m.assign(f, s.Target, v)
	case *codedom.For:
		return m.loop(f, s)
	case *codedom.If:
		ok, err := m.cond(f, s.Cond)
		if err != nil || !ok {
			return err
		}
		return m.block(f, s.Then)
	case *codedom.Try:
		return m.try(f, s)
	case *codedom.Return:
		return errReturn
	case *codedom.Throw:
		if s.X == nil {
			if len(f.handling) == 0 {
				return errors.New("rethrow outside of catch")
			}
			return f.handling[len(f.handling)-1]
		}
		v, err := m.expr(f, s.X)
		if err != nil {
			return err
		}
		exc, ok := v.(*Exception)
		if !ok {
			return fmt.Errorf("throw of non-exception %v", v)
		}
		return exc
	}
	return fmt.Errorf("unsupported statement %T", s)
}

func (m *Machine) loop(f *frame, s *codedom.For) error {
	if s.Init != nil {
		if err := m.stmt(f, s.Init); err != nil {
			return err
		}
	}
	for {
		ok, err := m.cond(f, s.Cond)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := m.block(f, s.Body); err != nil {
			return err
		}
		if s.Post != nil {
			if err := m.stmt(f, s.Post); err != nil {
				return err
			}
		}
	}
}

func (m *Machine) try(f *frame, s *codedom.Try) error {
	err := m.block(f, s.Body)
	var exc *Exception
	if !errors.As(err, &exc) {
		return err
	}
	for _, c := range s.Catches {
		if c.Type != "Exception" && c.Type != exc.Type {
			continue
		}
		f.vars[c.Var] = exc
		f.handling = append(f.handling, exc)
		err := m.block(f, c.Body)
		f.handling = f.handling[:len(f.handling)-1]
		return err
	}
	return exc
}

func (m *Machine) cond(f *frame, e codedom.Expr) (bool, error) {
	v, err := m.expr(f, e)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("condition is %T, not bool", v)
	}
	return b, nil
}

func (m *Machine) assign(f *frame, target codedom.Expr, v any) error {
	id, ok := target.(*codedom.Ident)
	if !ok {
		return fmt.Errorf("cannot assign to %T", target)
	}
	if _, local := f.vars[id.Name]; local {
		f.vars[id.Name] = v
		return nil
	}
	m.fields[id.Name] = v
	return nil
}

func (m *Machine) expr(f *frame, e codedom.Expr) (any, error) {
	switch e := e.(type) {
	case *codedom.Ident:
		if v, ok := f.vars[e.Name]; ok {
			return v, nil
		}
		return m.fields[e.Name], nil
	case *codedom.Literal:
		return e.Value, nil
	case *codedom.Null:
		return nil, nil
	case *codedom.This:
		return m, nil
	case *codedom.Binary:
		return m.binary(f, e)
	case *codedom.Call:
		args, err := m.exprs(f, e.Args)
		if err != nil {
			return nil, err
		}
		return nil, m.dispatch(e, args)
	case *codedom.New:
		args, err := m.exprs(f, e.Args)
		if err != nil {
			return nil, err
		}
		return &Object{Type: e.Type, Args: args}, nil
	case *codedom.Array:
		return m.exprs(f, e.Elems)
	case *codedom.Format:
		args, err := m.exprs(f, e.Args)
		if err != nil {
			return nil, err
		}
		return format(e.Format, args), nil
	}
	return nil, fmt.Errorf("unsupported expression %T", e)
}

func (m *Machine) exprs(f *frame, es []codedom.Expr) ([]any, error) {
	out := make([]any, len(es))
	for i, e := range es {
		v, err := m.expr(f, e)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *Machine) dispatch(c *codedom.Call, args []any) error {
	var key string
	switch t := c.Target.(type) {
	case *codedom.This:
		return m.call(c.Method, args)
	case *codedom.Ident:
		key = t.Name + "." + c.Method
	case *codedom.TypeRef:
		key = t.Name + "." + c.Method
	default:
		return fmt.Errorf("unsupported call target %T", c.Target)
	}
	m.Calls = append(m.Calls, key)
	if h, ok := m.Externals[key]; ok {
		return h(args)
	}
	return nil
}

func (m *Machine) binary(f *frame, e *codedom.Binary) (any, error) {
	l, err := m.expr(f, e.Left)
	if err != nil {
		return nil, err
	}
	r, err := m.expr(f, e.Right)
	if err != nil {
		return nil, err
	}
	if e.Op == codedom.OpNotEqual {
		return l != r, nil
	}
	li, lok := l.(int)
	ri, rok := r.(int)
	if !lok || !rok {
		return nil, fmt.Errorf("operator %s needs ints, got %T and %T", e.Op, l, r)
	}
	switch e.Op {
	case codedom.OpAdd:
		return li + ri, nil
	case codedom.OpLessEqual:
		return li <= ri, nil
	case codedom.OpGreaterEqual:
		return li >= ri, nil
	}
	return nil, fmt.Errorf("unsupported operator %s", e.Op)
}

func format(f string, args []any) string {
	var b strings.Builder
	for i := 0; i < len(f); i++ {
		c := f[i]
		if (c == '{' || c == '}') && i+1 < len(f) && f[i+1] == c {
			b.WriteByte(c)
			i++
			continue
		}
		if c == '{' {
			end := strings.IndexByte(f[i:], '}')
			if end > 0 {
				if n, err := strconv.Atoi(f[i+1 : i+end]); err == nil && n < len(args) {
					fmt.Fprint(&b, args[n])
					i += end
					continue
				}
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}
