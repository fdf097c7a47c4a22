package codedom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestMarshal_NodeKinds(t *testing.T) {
	typ := NewType("LoginFeature")
	runner := typ.AddField("testRunner", "ITestRunner")
	m := typ.AddMethod("UserLogsIn")
	m.Role = RoleTest
	m.Append(
		&VarDecl{Name: "i", Type: "int", Init: Int(0)},
		Invoke(runner, "Given", Str("a user"), &Null{Type: "string"}),
		&Return{},
	)

	data, err := Marshal(typ)
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "name: LoginFeature")
	assert.Contains(t, out, "role: test")
	assert.Contains(t, out, "ident: testRunner")
	assert.Contains(t, out, "literal: a user")
	assert.Contains(t, out, "- return")
	assert.Contains(t, out, "var:")
}

func TestMarshal_SingleKeyNodes(t *testing.T) {
	stmt := Invoke(&This{}, "ScenarioSetup", Var("scenarioInfo"))

	data, err := yaml.Marshal([]Stmt{stmt})
	require.NoError(t, err)

	var decoded []map[string]map[string]any
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)

	call, ok := decoded[0]["expr"]["x"].(map[string]any)["call"].(map[string]any)
	require.True(t, ok, "expected a call node in %s", data)
	assert.Equal(t, "this", call["target"])
	assert.Equal(t, "ScenarioSetup", call["method"])
}

func TestMarshalMethods(t *testing.T) {
	typ := NewType("F")
	typ.AddMethod("A")
	b := typ.AddMethod("B")
	b.AddParam("x", "string")

	data, err := MarshalMethods(b)
	require.NoError(t, err)
	assert.Contains(t, string(data), "- name: B\n")
	assert.NotContains(t, string(data), "name: A")
}

func TestType_Method(t *testing.T) {
	typ := NewType("F")
	m := typ.AddMethod("A")
	assert.Same(t, m, typ.Method("A"))
	assert.Nil(t, typ.Method("Missing"))
	assert.Equal(t, RoleHelper, m.Role)
}

func TestMethod_ParamRefs(t *testing.T) {
	m := &Method{Name: "M"}
	m.AddParam("a", "string")
	m.AddParam("b", "string[]")

	assert.Equal(t, []Expr{Var("a"), Var("b")}, m.ParamRefs())
}
