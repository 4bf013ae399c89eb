// internal/query/parser_test.go
package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Structure(t *testing.T) {
	n, err := Parse("df['Age'].mean() > 30")
	require.NoError(t, err)

	cmp, ok := n.(*Binary)
	require.True(t, ok)
	assert.Equal(t, ">", cmp.Op)

	call, ok := cmp.X.(*Call)
	require.True(t, ok)
	attr, ok := call.Fn.(*Attr)
	require.True(t, ok)
	assert.Equal(t, "mean", attr.Name)

	sub, ok := attr.X.(*Subscript)
	require.True(t, ok)
	assert.Equal(t, "Age", sub.Index.(*StringLit).Value)
}

func TestParse_Precedence(t *testing.T) {
	n, err := Parse("-2 ** 2")
	require.NoError(t, err)
	u, ok := n.(*Unary)
	require.True(t, ok)
	assert.Equal(t, "-", u.Op)
	assert.IsType(t, &Binary{}, u.X)

	n, err = Parse("2 ** 3 ** 2")
	require.NoError(t, err)
	b := n.(*Binary)
	assert.IsType(t, &NumberLit{}, b.X)
	assert.IsType(t, &Binary{}, b.Y)

	n, err = Parse("a & b == c")
	require.NoError(t, err)
	assert.Equal(t, "==", n.(*Binary).Op)

	n, err = Parse("x not in [1, 2]")
	require.NoError(t, err)
	assert.Equal(t, "not in", n.(*Binary).Op)
}

func TestParse_CallArguments(t *testing.T) {
	n, err := Parse("s.value_counts(normalize=True, dropna=False)")
	require.NoError(t, err)
	call := n.(*Call)
	assert.Empty(t, call.Args)
	require.Len(t, call.Kwargs, 2)
	assert.Equal(t, "normalize", call.Kwargs[0].Name)
	assert.Equal(t, "dropna", call.Kwargs[1].Name)
}

func TestParse_Literals(t *testing.T) {
	n, err := Parse("'ab' \"cd\"")
	require.NoError(t, err)
	assert.Equal(t, "abcd", n.(*StringLit).Value)

	n, err = Parse("(1,)")
	require.NoError(t, err)
	assert.Len(t, n.(*TupleLit).Elems, 1)

	n, err = Parse("1_000")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), n.(*NumberLit).Int)

	n, err = Parse("1e3")
	require.NoError(t, err)
	assert.False(t, n.(*NumberLit).IsInt)
	assert.Equal(t, 1000.0, n.(*NumberLit).Float)

	n, err = Parse("s[1:]")
	require.NoError(t, err)
	sl := n.(*Subscript).Index.(*Slice)
	assert.NotNil(t, sl.Lo)
	assert.Nil(t, sl.Hi)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		message string
	}{
		{name: "empty", src: "   ", message: "empty expression"},
		{name: "unclosed bracket", src: "df['Age'", message: "unexpected end of input"},
		{name: "trailing tokens", src: "1 2", message: "unexpected '2'"},
		{name: "statement keyword", src: "import os", message: "unexpected 'import'"},
		{name: "assignment", src: "x = 1", message: "unexpected '='"},
		{name: "unterminated string", src: "'abc", message: "SyntaxError"},
		{name: "repeated keyword", src: "f(a=1, a=2)", message: "keyword argument repeated"},
		{name: "positional after keyword", src: "f(a=1, 2)", message: "positional argument follows keyword argument"},
		{name: "too deep", src: strings.Repeat("(", MaxDepth+1) + "1" + strings.Repeat(")", MaxDepth+1), message: "nested too deeply"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}
