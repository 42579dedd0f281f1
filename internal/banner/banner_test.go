package banner

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderStandard(t *testing.T) {
	lines, err := Render("HI", "standard")
	require.NoError(t, err)
	require.Greater(t, len(lines), 2)
	assert.Greater(t, Width(lines), 2)
	assert.NotEmpty(t, strings.TrimSpace(lines[0]))
	assert.NotEmpty(t, strings.TrimSpace(lines[len(lines)-1]))
}

func TestRenderStacksLines(t *testing.T) {
	one, err := Render("A", "standard")
	require.NoError(t, err)
	two, err := Render("A\nA", "standard")
	require.NoError(t, err)
	assert.Equal(t, 2*len(one), len(two))
}

func TestRenderUnknownFontFallsBack(t *testing.T) {
	lines, err := Render("SYSTEM\nONLINE", "no-such-font")
	require.Error(t, err)

	var failure *DecodeFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, "no-such-font", failure.Font)
	assert.Equal(t, []string{"SYSTEM ONLINE"}, lines)
}

func TestRenderEmpty(t *testing.T) {
	lines, err := Render("", "standard")
	assert.NoError(t, err)
	assert.Empty(t, lines)
}

func TestRendererCaches(t *testing.T) {
	r := NewRenderer(1)
	first, err := r.Render("GO", "standard")
	require.NoError(t, err)
	second, err := r.Render("GO", "standard")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = r.Render("NO", "standard")
	require.NoError(t, err)
	assert.Len(t, r.cache, 1)
}

func TestRendererDoesNotCacheFailures(t *testing.T) {
	r := NewRenderer(4)
	_, err := r.Render("x", "no-such-font")
	require.Error(t, err)
	assert.Empty(t, r.cache)
}

func TestFlattenAndWidth(t *testing.T) {
	assert.Equal(t, "a b c", Flatten("a\n b  \nc"))
	assert.Equal(t, 4, Width([]string{"ab", "abcd", "→→"}))
}
