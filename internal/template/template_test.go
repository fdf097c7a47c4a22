package template

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lower(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func ptr(s string) *string { return &s }

func TestCompile_NilTextIsAbsent(t *testing.T) {
	tmpl := Compile(nil, NewMapping([]string{"a"}, lower))
	assert.True(t, tmpl.Absent)
	assert.True(t, tmpl.IsLiteral())
}

func TestCompile_EmptyTextIsNotAbsent(t *testing.T) {
	tmpl := Compile(ptr(""), nil)
	assert.False(t, tmpl.Absent)
	assert.Equal(t, "", tmpl.Format)
}

func TestCompile_NilMappingEscapesBraces(t *testing.T) {
	tmpl := CompileString("json {\"a\": <a>}", nil)
	assert.Equal(t, "json {{\"a\": <a>}}", tmpl.Format)
	assert.Empty(t, tmpl.Args)
	assert.Equal(t, "json {\"a\": <a>}", tmpl.Text())
}

func TestCompile_SinglePlaceholder(t *testing.T) {
	m := &Mapping{}
	m.Add("Name", "x")

	tmpl := CompileString("<Name>", m)
	assert.Equal(t, "{0}", tmpl.Format)
	assert.Equal(t, []string{"x"}, tmpl.Args)
}

func TestCompile_RepeatedPlaceholderCollapses(t *testing.T) {
	m := &Mapping{}
	m.Add("Name", "x")

	tmpl := CompileString("<Name> and <Name>", m)
	assert.Equal(t, "{0} and {0}", tmpl.Format)
	assert.Equal(t, []string{"x"}, tmpl.Args)
}

func TestCompile_FirstUseOrdering(t *testing.T) {
	m := NewMapping([]string{"first", "second", "third"}, lower)

	tmpl := CompileString("I have <third> then <first> then <third> and <second>", m)
	assert.Equal(t, "I have {0} then {1} then {0} and {2}", tmpl.Format)
	assert.Equal(t, []string{"third", "first", "second"}, tmpl.Args)
}

func TestCompile_PlaceholdersSharingIdentifier(t *testing.T) {
	m := &Mapping{}
	m.Add("count", "n")
	m.Add("amount", "n")

	tmpl := CompileString("<count> <amount>", m)
	assert.Equal(t, "{0} {0}", tmpl.Format)
	assert.Equal(t, []string{"n"}, tmpl.Args)
}

func TestCompile_TrimsPlaceholderName(t *testing.T) {
	m := NewMapping([]string{" user "}, lower)

	tmpl := CompileString("hello < user >", m)
	assert.Equal(t, "hello {0}", tmpl.Format)
	assert.Equal(t, []string{"user"}, tmpl.Args)
}

func TestCompile_CaseSensitiveNames(t *testing.T) {
	m := NewMapping([]string{"user"}, lower)

	tmpl := CompileString("hello <User>", m)
	assert.True(t, tmpl.IsLiteral())
	assert.Equal(t, "hello <User>", tmpl.Text())
}

func TestCompile_UnknownPlaceholderLeftVerbatim(t *testing.T) {
	m := NewMapping([]string{"user"}, lower)

	tmpl := CompileString("<b>bold</b> for <user>", m)
	assert.Equal(t, "<b>bold</b> for {0}", tmpl.Format)
	assert.Equal(t, []string{"user"}, tmpl.Args)
}

func TestCompile_BracesEscapedBeforeSubstitution(t *testing.T) {
	m := NewMapping([]string{"key"}, lower)

	tmpl := CompileString("{ \"<key>\": 1 }", m)
	assert.Equal(t, "{{ \"{0}\": 1 }}", tmpl.Format)
	assert.Equal(t, []string{"key"}, tmpl.Args)
}

func TestCompile_NoMatchDegradesToLiteral(t *testing.T) {
	m := NewMapping([]string{"user"}, lower)

	tmpl := CompileString("plain {text}", m)
	assert.True(t, tmpl.IsLiteral())
	assert.Nil(t, tmpl.Args)
	assert.Equal(t, "plain {text}", tmpl.Text())
}

func TestCompile_Idempotent(t *testing.T) {
	m := NewMapping([]string{"a", "b", "c"}, lower)
	text := "<c> <a> {x} <b> <a> <zzz>"

	first := CompileString(text, m)
	second := CompileString(text, m)
	assert.Equal(t, first, second)
}

func TestMapping_FirstBindingWins(t *testing.T) {
	m := NewMapping([]string{"user", "user", "role"}, func(s string) string { return "p_" + s })
	m.Add("role", "ignored")

	require.Equal(t, 2, m.Len())
	assert.Equal(t, []string{"user", "role"}, m.Names())
	assert.Equal(t, []string{"p_user", "p_role"}, m.Identifiers())

	id, ok := m.Lookup("role")
	require.True(t, ok)
	assert.Equal(t, "p_role", id)
}
