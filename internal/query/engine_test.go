// internal/query/engine_test.go
package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"titanic-agent/internal/dataset"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	table, err := dataset.Load("testdata/titanic_sample.csv")
	require.NoError(t, err)
	return NewEngine(table)
}

func TestEngine_Scalars(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name     string
		expr     string
		expected string
	}{
		{name: "addition", expr: "1+1", expected: "2"},
		{name: "true division", expr: "10 / 4", expected: "2.5"},
		{name: "float repr", expr: "0.1 + 0.2", expected: "0.30000000000000004"},
		{name: "floor division", expr: "-7 // 2", expected: "-4"},
		{name: "modulo follows divisor", expr: "-7 % 3", expected: "2"},
		{name: "power binds tighter than minus", expr: "-2 ** 2", expected: "-4"},
		{name: "power", expr: "2 ** 10", expected: "1024"},
		{name: "power of one with huge exponent", expr: "1 ** 10000000000000", expected: "1"},
		{name: "power of zero with huge exponent", expr: "0 ** 10000000000000", expected: "0"},
		{name: "power of minus one odd", expr: "(-1) ** 10000000000001", expected: "-1"},
		{name: "power of minus one even", expr: "(-1) ** 10000000000000", expected: "1"},
		{name: "largest int power", expr: "2 ** 62", expected: "4611686018427387904"},
		{name: "negative base int power", expr: "(-3) ** 5", expected: "-243"},
		{name: "int overflow falls back to float", expr: "2 ** 64", expected: "1.8446744073709552e+19"},
		{name: "huge exponent overflows to inf", expr: "2 ** 10000000000000", expected: "inf"},
		{name: "row count", expr: "len(df)", expected: "20"},
		{name: "shape", expr: "df.shape", expected: "(20, 12)"},
		{name: "shape element", expr: "df.shape[0]", expected: "20"},
		{name: "survivors", expr: "df['Survived'].sum()", expected: "10"},
		{name: "attribute access", expr: "df.Survived.sum()", expected: "10"},
		{name: "mean after imputation", expr: "df['Age'].mean()", expected: "27.85"},
		{name: "no missing ages", expr: "df['Age'].isnull().sum()", expected: "0"},
		{name: "max fare", expr: "df['Fare'].max()", expected: "71.2833"},
		{name: "rounded percentage", expr: "round(df['Survived'].mean() * 100, 1)", expected: "50.0"},
		{name: "percentage male", expr: "round(df['Sex'].value_counts(normalize=True)['male'] * 100, 2)", expected: "45.0"},
		{name: "filtered count", expr: "len(df[df['Sex'] == 'female'])", expected: "11"},
		{name: "combined mask", expr: "df[(df['Sex'] == 'female') & (df['Survived'] == 1)].shape[0]", expected: "9"},
		{name: "inverted mask", expr: "len(df[~(df['Sex'] == 'female')])", expected: "9"},
		{name: "mode", expr: "df['Embarked'].mode()[0]", expected: "S"},
		{name: "get with default", expr: "df['Sex'].value_counts().get('male', 0)", expected: "9"},
		{name: "get missing key", expr: "df['Sex'].value_counts().get('other', 0)", expected: "0"},
		{name: "unique ints", expr: "df['Pclass'].unique()", expected: "[3 1 2]"},
		{name: "unique strings", expr: "df['Sex'].unique()", expected: "['male' 'female']"},
		{name: "nunique", expr: "df['Embarked'].nunique()", expected: "3"},
		{name: "membership", expr: "'Age' in df.columns", expected: "True"},
		{name: "scalar logic", expr: "df.Age.mean() > 20 and df.Fare.mean() > 10", expected: "True"},
		{name: "idxmax label", expr: "df['Fare'].idxmax()", expected: "1"},
		{name: "sorted position", expr: "df.sort_values('Fare', ascending=False)['PassengerId'].iloc[0]", expected: "2"},
		{name: "str accessor", expr: "df['Name'].str.contains('Master').sum()", expected: "2"},
		{name: "isin", expr: "df['Embarked'].isin(['C', 'Q']).sum()", expected: "5"},
		{name: "between", expr: "df['Age'].between(20, 30).sum()", expected: "7"},
		{name: "groupby max", expr: "df.groupby('Pclass')['Survived'].mean().idxmax()", expected: "2"},
		{name: "builtin int", expr: "int(df['Fare'].mean())", expected: "22"},
		{name: "builtin str", expr: "str(3) + 'rd'", expected: "3rd"},
		{name: "column list", expr: "df[['Sex', 'Age']].columns.tolist()", expected: "['Sex', 'Age']"},
		{name: "pd namespace", expr: "pd.isna(df['Cabin']).sum()", expected: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := e.Evaluate(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestEngine_SeriesPrinting(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name     string
		expr     string
		expected string
	}{
		{
			name:     "value counts",
			expr:     "df['Sex'].value_counts()",
			expected: "Sex\nfemale    11\nmale       9\nName: count, dtype: int64",
		},
		{
			name:     "embarkation counts",
			expr:     "df['Embarked'].value_counts()",
			expected: "Embarked\nS    15\nC     3\nQ     2\nName: count, dtype: int64",
		},
		{
			name:     "survival rate by class",
			expr:     "df.groupby('Pclass')['Survived'].mean()",
			expected: "Pclass\n1    0.750000\n2    1.000000\n3    0.307692\nName: Survived, dtype: float64",
		},
		{
			name:     "normalized counts",
			expr:     "df['Survived'].value_counts(normalize=True)",
			expected: "Survived\n0    0.5\n1    0.5\nName: proportion, dtype: float64",
		},
		{
			name:     "group sizes",
			expr:     "df.groupby('Sex').size()",
			expected: "Sex\nfemale    11\nmale       9\ndtype: int64",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := e.Evaluate(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestEngine_FramePrinting(t *testing.T) {
	e := newTestEngine(t)

	out, err := e.Evaluate("df[['PassengerId', 'Sex']].head(3)")
	require.NoError(t, err)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "   PassengerId     Sex", lines[0])
	assert.Equal(t, "0            1    male", lines[1])
	assert.Equal(t, "1            2  female", lines[2])

	out, err = e.Evaluate("df.isnull().sum()")
	require.NoError(t, err)
	assert.Contains(t, out, "PassengerId    0")
	assert.True(t, strings.HasSuffix(out, "dtype: int64"))

	out, err = e.Evaluate("df.groupby(['Pclass', 'Sex'])['Survived'].sum()")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Pclass Sex"))
	assert.Contains(t, out, "female")
}

func TestEngine_Errors(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name    string
		expr    string
		message string
	}{
		{name: "unknown attribute", expr: "df.nonexistent_column", message: "'DataFrame' object has no attribute 'nonexistent_column'"},
		{name: "unknown column", expr: "df['Nope']", message: "KeyError: 'Nope'"},
		{name: "forbidden module", expr: "os.listdir('.')", message: "name 'os' is not defined"},
		{name: "forbidden builtin", expr: "__import__('os')", message: "name '__import__' is not defined"},
		{name: "open is not reachable", expr: "open('/etc/passwd')", message: "name 'open' is not defined"},
		{name: "division by zero", expr: "1 / 0", message: "ZeroDivisionError: division by zero"},
		{name: "type mismatch", expr: "'a' + 1", message: "unsupported operand type(s) for +: 'str' and 'int'"},
		{name: "ambiguous truth", expr: "df['Age'] > 3 and df['Age'] < 10", message: "truth value of a Series is ambiguous"},
		{name: "bad method argument", expr: "df.head(n='x')", message: "must be an integer"},
		{name: "not callable", expr: "df.shape()", message: "'tuple' object is not callable"},
		{name: "mean of text", expr: "df['Sex'].mean()", message: "could not convert"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Evaluate(tt.expr)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestEngine_DoesNotMutateFrame(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Evaluate("df.sort_values('Age').head(2)")
	require.NoError(t, err)
	_, err = e.Evaluate("df['Age'].fillna(0)")
	require.NoError(t, err)

	out, err := e.Evaluate("df['PassengerId'].iloc[0]")
	require.NoError(t, err)
	assert.Equal(t, "1", out)
}

func TestEngine_Mask(t *testing.T) {
	e := newTestEngine(t)

	mask, err := e.Mask("df['Sex'] == 'male'")
	require.NoError(t, err)
	require.Len(t, mask, 20)
	count := 0
	for _, m := range mask {
		if m {
			count++
		}
	}
	assert.Equal(t, 9, count)
	assert.True(t, mask[0])
	assert.False(t, mask[1])

	_, err = e.Mask("df['Age']")
	assert.Error(t, err)

	_, err = e.Mask("df[")
	assert.Error(t, err)
}
