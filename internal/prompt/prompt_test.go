package prompt

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		def   bool
		want  bool
	}{
		{"y\n", false, true},
		{"YES\n", false, true},
		{"n\n", true, false},
		{"\n", true, true},
		{"\n", false, false},
		{"maybe\nno\n", true, false},
		{"y", false, true}, // no trailing newline
	}
	for _, tt := range tests {
		var out bytes.Buffer
		p := New(strings.NewReader(tt.input), &out, true)
		got, err := p.Confirm("Continue?", tt.def)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
		assert.Contains(t, out.String(), "Continue?")
	}
}

func TestConfirmEOF(t *testing.T) {
	p := New(strings.NewReader(""), &bytes.Buffer{}, true)
	_, err := p.Confirm("Continue?", true)
	assert.Error(t, err)
}

func TestConfirmNonInteractive(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("n\n"), &out, false)
	got, err := p.Confirm("Continue?", true)
	require.NoError(t, err)
	assert.True(t, got)
	assert.Empty(t, out.String())
}

func TestSelect(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("7\nabc\n2\n"), &out, true)
	i, err := p.Select("Which?", []string{"a", "b", "c"}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, i)
	assert.Contains(t, out.String(), "  2) b")
	assert.Contains(t, out.String(), "between 1 and 3")

	p = New(strings.NewReader("\n"), &out, true)
	i, err = p.Select("Which?", []string{"a", "b"}, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, i)
}

func TestSelectNonInteractive(t *testing.T) {
	p := New(strings.NewReader(""), &bytes.Buffer{}, false)

	i, err := p.Select("Which?", []string{"only"}, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, i)

	_, err = p.Select("Which?", []string{"a", "b"}, 0)
	assert.ErrorIs(t, err, ErrNotInteractive)

	_, err = p.Select("Which?", nil, 0)
	assert.ErrorIs(t, err, ErrNoOptions)
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(strings.NewReader("y\n")))

	f, err := os.CreateTemp(t.TempDir(), "input")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, IsTerminal(f))
}
