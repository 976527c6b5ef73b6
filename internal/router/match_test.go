package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"":             "/",
		"#":            "/",
		"#/topics/7":   "/topics/7",
		"courses":      "/courses",
		"/courses/":    "/courses",
		"  /about  ":   "/about",
		"/search/a b/": "/search/a b",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "Normalize(%q)", in)
	}
}

func TestPatternMatchesWholePath(t *testing.T) {
	m := Pattern("/courses/{id}")

	params, ok := m.Match("/courses/9")
	assert.True(t, ok)
	assert.Equal(t, Params{"9"}, params)

	_, ok = m.Match("/courses")
	assert.False(t, ok)
	_, ok = m.Match("/courses/9/modules")
	assert.False(t, ok)
	_, ok = m.Match("/modules/9")
	assert.False(t, ok)
}

func TestPatternCapturesInOrder(t *testing.T) {
	params, ok := Pattern("/courses/{course}/modules/{module}").Match("/courses/1/modules/3")
	assert.True(t, ok)
	assert.Equal(t, Params{"1", "3"}, params)
}

func TestExactAndRootPattern(t *testing.T) {
	_, ok := Exact("/").Match("/")
	assert.True(t, ok)
	_, ok = Pattern("/").Match("/")
	assert.True(t, ok)
	_, ok = Exact("/courses").Match("/courses/1")
	assert.False(t, ok)
}

func TestRegexpIsAnchored(t *testing.T) {
	m := Regexp(`/topics/(\d+)`)

	params, ok := m.Match("/topics/42")
	assert.True(t, ok)
	assert.Equal(t, Params{"42"}, params)

	_, ok = m.Match("/topics/42/extra")
	assert.False(t, ok)
	_, ok = m.Match("/x/topics/42")
	assert.False(t, ok)
}

func TestParamsInt64(t *testing.T) {
	p := Params{"42", "abc", "-1"}

	n, ok := p.Int64(0)
	assert.True(t, ok)
	assert.Equal(t, int64(42), n)

	_, ok = p.Int64(1)
	assert.False(t, ok)
	_, ok = p.Int64(2)
	assert.False(t, ok)
	_, ok = p.Int64(3)
	assert.False(t, ok)
	assert.Equal(t, "", p.At(5))
}
