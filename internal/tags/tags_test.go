package tags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_NameOnly(t *testing.T) {
	tag := Parse("@smoke")
	assert.Equal(t, "smoke", tag.Name)
	assert.False(t, tag.HasValue)
	assert.Equal(t, "smoke", tag.String())
}

func TestParse_WithValue(t *testing.T) {
	tag := Parse("@retry:3")
	assert.Equal(t, "retry", tag.Name)
	assert.Equal(t, "3", tag.Value)
	assert.True(t, tag.HasValue)
	assert.Equal(t, "retry:3", tag.String())
}

func TestParse_SplitsOnFirstColon(t *testing.T) {
	tag := Parse("@retryExcept:System.IO:Error")
	assert.Equal(t, "retryExcept", tag.Name)
	assert.Equal(t, "System.IO:Error", tag.Value)
}

func TestParse_EmptyValue(t *testing.T) {
	tag := Parse("retry:")
	assert.True(t, tag.HasValue)
	assert.Equal(t, "", tag.Value)
}

func TestTag_IsIgnoresCase(t *testing.T) {
	tag := Parse("@RETRY:2")
	assert.True(t, tag.Is("retry"))
	assert.True(t, tag.Is("@Retry"))
	assert.False(t, tag.Is("retryExcept"))
}

func TestSet_ValueFirstMatchWithValue(t *testing.T) {
	s := ParseAll([]string{"@retry", "@smoke", "@Retry:4", "@retry:9"})

	v, ok := s.Value("retry")
	require.True(t, ok)
	assert.Equal(t, "4", v)
}

func TestSet_ValueMissing(t *testing.T) {
	s := ParseAll([]string{"@retry", "@smoke"})

	_, ok := s.Value("retry")
	assert.False(t, ok)
	assert.True(t, s.Has("retry"))
}

func TestSet_Without(t *testing.T) {
	s := ParseAll([]string{"@smoke", "@retry:2", "@Ignore", "@retryExcept:Fatal"})

	got := s.Without("retry", "retryExcept", "ignore")
	assert.Equal(t, []string{"smoke"}, got.Strings())
}

func TestParseAll_Empty(t *testing.T) {
	assert.Nil(t, ParseAll(nil))
	assert.Nil(t, Set(nil).Strings())
}
