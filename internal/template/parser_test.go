package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_TextOnly(t *testing.T) {
	tpl, err := Parse("select 1 as id", "model.sql")
	require.NoError(t, err, "unexpected error")

	require.Len(t, tpl.Nodes, 1, "expected a single text node")
	text, ok := tpl.Nodes[0].(*TextNode)
	require.True(t, ok, "expected *TextNode, got %T", tpl.Nodes[0])
	assert.Equal(t, "select 1 as id", text.Text)
	assert.Nil(t, tpl.FindCalls(), "text-only template has no calls")
}

func TestParse_SimpleCall(t *testing.T) {
	tpl, err := Parse("select {{ my_macro() }}", "")
	require.NoError(t, err, "unexpected error")

	calls := tpl.FindCalls()
	require.Len(t, calls, 1, "expected one call")

	name, ok := calls[0].Func.(*NameExpr)
	require.True(t, ok, "expected *NameExpr callee, got %T", calls[0].Func)
	assert.Equal(t, "my_macro", name.Name)
	assert.Empty(t, calls[0].Args)
	assert.Empty(t, calls[0].Kwargs)
}

func TestParse_CallArguments(t *testing.T) {
	tpl, err := Parse(`{{ dateadd('day', 7, due_date) }}`, "")
	require.NoError(t, err, "unexpected error")

	calls := tpl.FindCalls()
	require.Len(t, calls, 1, "expected one call")
	require.Len(t, calls[0].Args, 3, "expected three positional arguments")

	first, ok := calls[0].Args[0].(*ConstExpr)
	require.True(t, ok, "expected *ConstExpr, got %T", calls[0].Args[0])
	assert.Equal(t, "day", first.Value)

	second, ok := calls[0].Args[1].(*ConstExpr)
	require.True(t, ok, "expected *ConstExpr, got %T", calls[0].Args[1])
	assert.Equal(t, int64(7), second.Value)

	third, ok := calls[0].Args[2].(*NameExpr)
	require.True(t, ok, "expected *NameExpr, got %T", calls[0].Args[2])
	assert.Equal(t, "due_date", third.Name)
}

func TestParse_KeywordArguments(t *testing.T) {
	tpl, err := Parse(`{{ config(materialized='table', enabled=True) }}`, "")
	require.NoError(t, err, "unexpected error")

	calls := tpl.FindCalls()
	require.Len(t, calls, 1, "expected one call")
	require.Len(t, calls[0].Kwargs, 2, "expected two keyword arguments")

	assert.Equal(t, "materialized", calls[0].Kwargs[0].Name)
	mat, ok := calls[0].Kwargs[0].Value.(*ConstExpr)
	require.True(t, ok, "expected *ConstExpr, got %T", calls[0].Kwargs[0].Value)
	assert.Equal(t, "table", mat.Value)

	assert.Equal(t, "enabled", calls[0].Kwargs[1].Name)
	enabled, ok := calls[0].Kwargs[1].Value.(*ConstExpr)
	require.True(t, ok, "expected *ConstExpr, got %T", calls[0].Kwargs[1].Value)
	assert.Equal(t, true, enabled.Value)
}

func TestParse_KeywordLiterals(t *testing.T) {
	tests := []struct {
		src  string
		want any
	}{
		{"{{ f(True) }}", true},
		{"{{ f(true) }}", true},
		{"{{ f(False) }}", false},
		{"{{ f(false) }}", false},
		{"{{ f(None) }}", nil},
		{"{{ f(none) }}", nil},
	}

	for _, tt := range tests {
		tpl, err := Parse(tt.src, "")
		require.NoError(t, err, "unexpected error for %q", tt.src)

		calls := tpl.FindCalls()
		require.Len(t, calls, 1)
		require.Len(t, calls[0].Args, 1)

		c, ok := calls[0].Args[0].(*ConstExpr)
		require.True(t, ok, "expected *ConstExpr for %q, got %T", tt.src, calls[0].Args[0])
		assert.Equal(t, tt.want, c.Value, "wrong value for %q", tt.src)
	}
}

func TestParse_DottedCall(t *testing.T) {
	tpl, err := Parse(`{{ utils.hash('email') }}`, "")
	require.NoError(t, err, "unexpected error")

	calls := tpl.FindCalls()
	require.Len(t, calls, 1, "expected one call")

	attr, ok := calls[0].Func.(*GetattrExpr)
	require.True(t, ok, "expected *GetattrExpr callee, got %T", calls[0].Func)
	assert.Equal(t, "hash", attr.Attr)

	target, ok := attr.Target.(*NameExpr)
	require.True(t, ok, "expected *NameExpr target, got %T", attr.Target)
	assert.Equal(t, "utils", target.Name)
}

func TestParse_NestedCallsPreOrder(t *testing.T) {
	tpl, err := Parse(`{{ outer(inner(), other(1)) }}`, "")
	require.NoError(t, err, "unexpected error")

	calls := tpl.FindCalls()
	require.Len(t, calls, 3, "expected outer plus both nested calls")

	names := make([]string, 0, len(calls))
	for _, call := range calls {
		name, ok := call.Func.(*NameExpr)
		require.True(t, ok, "expected *NameExpr callee")
		names = append(names, name.Name)
	}
	assert.Equal(t, []string{"outer", "inner", "other"}, names, "expected pre-order traversal")
}

func TestParse_CallInsideUnsupportedShape(t *testing.T) {
	// Conditional expressions are not modeled, but calls nested inside
	// them must still be discoverable.
	tpl, err := Parse(`{{ a if flag else fallback(1) }}`, "")
	require.NoError(t, err, "unexpected error")

	calls := tpl.FindCalls()
	require.Len(t, calls, 1, "expected the nested call to be found")
	name := calls[0].Func.(*NameExpr)
	assert.Equal(t, "fallback", name.Name)
}

func TestParse_Statements(t *testing.T) {
	src := `{% if is_incremental() %}where id > 1{% endif %}`
	tpl, err := Parse(src, "")
	require.NoError(t, err, "unexpected error")

	stmt, ok := tpl.Nodes[0].(*StmtNode)
	require.True(t, ok, "expected *StmtNode, got %T", tpl.Nodes[0])
	assert.Equal(t, "if", stmt.Keyword)
	require.Len(t, stmt.Exprs, 1, "if head embeds one expression")

	calls := tpl.FindCalls()
	require.Len(t, calls, 1, "call inside statement head must be found")
}

func TestParse_ForStatement(t *testing.T) {
	tpl, err := Parse(`{% for col in get_columns('tbl') %}{{ col }}{% endfor %}`, "")
	require.NoError(t, err, "unexpected error")

	calls := tpl.FindCalls()
	require.Len(t, calls, 1, "expected the iterable's call")
	name := calls[0].Func.(*NameExpr)
	assert.Equal(t, "get_columns", name.Name)
}

func TestParse_SetStatement(t *testing.T) {
	tpl, err := Parse(`{% set cols = star(from_table) %}`, "")
	require.NoError(t, err, "unexpected error")

	calls := tpl.FindCalls()
	require.Len(t, calls, 1, "expected the assigned call")
	name := calls[0].Func.(*NameExpr)
	assert.Equal(t, "star", name.Name)
}

func TestParse_MacroDefinitionIsNotACall(t *testing.T) {
	src := `{% macro dateadd(part, n) %}select 1{% endmacro %}{{ dateadd('day', 1) }}`
	tpl, err := Parse(src, "")
	require.NoError(t, err, "unexpected error")

	calls := tpl.FindCalls()
	require.Len(t, calls, 1, "macro signature must not count as a call")
	name := calls[0].Func.(*NameExpr)
	assert.Equal(t, "dateadd", name.Name)
}

func TestParse_CommentsDropped(t *testing.T) {
	tpl, err := Parse(`select 1 {# {{ not_a_call() }} #} from t`, "")
	require.NoError(t, err, "unexpected error")
	assert.Nil(t, tpl.FindCalls(), "calls inside comments must be ignored")
}

func TestParse_TrimMarkers(t *testing.T) {
	tpl, err := Parse(`{{- my_macro() -}}`, "")
	require.NoError(t, err, "unexpected error")

	calls := tpl.FindCalls()
	require.Len(t, calls, 1, "trim markers must not affect parsing")
}

func TestParse_DelimiterInsideStringLiteral(t *testing.T) {
	tpl, err := Parse(`{{ config(alias='a}}b') }}`, "")
	require.NoError(t, err, "unexpected error")

	calls := tpl.FindCalls()
	require.Len(t, calls, 1, "expected one call")
	require.Len(t, calls[0].Kwargs, 1)

	val, ok := calls[0].Kwargs[0].Value.(*ConstExpr)
	require.True(t, ok, "expected *ConstExpr, got %T", calls[0].Kwargs[0].Value)
	assert.Equal(t, "a}}b", val.Value, "a quoted closing delimiter stays inside the literal")

	tpl, err = Parse(`{% set marker = "%}" %}`, "")
	require.NoError(t, err, "unexpected error")
	require.Len(t, tpl.Nodes, 1)

	_, err = Parse(`{{ f('unterminated) }}`, "")
	require.Error(t, err, "an unclosed string literal leaves the segment unclosed")
	_, ok = err.(*LexError)
	assert.True(t, ok, "expected *LexError, got %T", err)
}

func TestParse_ConcatChain(t *testing.T) {
	tpl, err := Parse(`{{ f('a' + sep + 'b') }}`, "")
	require.NoError(t, err, "unexpected error")

	calls := tpl.FindCalls()
	require.Len(t, calls, 1)
	require.Len(t, calls[0].Args, 1)

	concat, ok := calls[0].Args[0].(*ConcatExpr)
	require.True(t, ok, "expected *ConcatExpr, got %T", calls[0].Args[0])
	assert.Len(t, concat.Parts, 3, "chain must be flattened")
}

func TestParse_InvalidExpression(t *testing.T) {
	_, err := Parse(`{{ ) }}`, "model.sql")
	require.Error(t, err, "expected parse error")

	perr, ok := err.(*ParseError)
	require.True(t, ok, "expected *ParseError, got %T", err)
	assert.Equal(t, "model.sql", perr.Position().File)
}

func TestParse_UnclosedExpression(t *testing.T) {
	_, err := Parse(`select {{ x`, "")
	require.Error(t, err, "expected lex error")

	_, ok := err.(*LexError)
	assert.True(t, ok, "expected *LexError, got %T", err)
}

func TestRepr_Stability(t *testing.T) {
	tpl, err := Parse(`{{ config(materialized='table', tags=['a', 'b']) }}`, "")
	require.NoError(t, err, "unexpected error")

	calls := tpl.FindCalls()
	require.Len(t, calls, 1)
	require.Len(t, calls[0].Kwargs, 2)

	assert.Equal(t,
		"Keyword(key='materialized', value=Const(value='table'))",
		ReprKeyword(calls[0].Kwargs[0]))
	assert.Equal(t,
		"Keyword(key='tags', value=List(items=[Const(value='a'), Const(value='b')]))",
		ReprKeyword(calls[0].Kwargs[1]))
}

func TestRepr_CallShape(t *testing.T) {
	tpl, err := Parse(`{{ f(g(), key=ns.attr) }}`, "")
	require.NoError(t, err, "unexpected error")

	calls := tpl.FindCalls()
	require.NotEmpty(t, calls)

	assert.Equal(t,
		"Call(func=Name(name='f'), args=[Call(func=Name(name='g'), args=[], kwargs=[])], kwargs=[Keyword(key='key', value=Getattr(target=Name(name='ns'), attr='attr'))])",
		Repr(calls[0]))
}
