package resolver

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLookup records dispatch requests and returns a fixed resolution.
type fakeLookup struct {
	gotName      string
	gotNamespace string
	result       *ResolvedMacro
	err          error
	calls        int
}

func (f *fakeLookup) Dispatch(macroName, macroNamespace string) (*ResolvedMacro, error) {
	f.calls++
	f.gotName = macroName
	f.gotNamespace = macroNamespace
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func callNames(calls []*MacroCall) []string {
	names := make([]string, 0, len(calls))
	for _, c := range calls {
		names = append(names, c.Name)
	}
	return names
}

func TestDispatch_PositionalName(t *testing.T) {
	r := New()

	calls, err := r.ResolveCalls(`{{ adapter.dispatch('dateadd')() }}`, nil)
	require.NoError(t, err, "unexpected error")
	assert.Equal(t, []string{"dateadd"}, callNames(calls))
}

func TestDispatch_WithLookup(t *testing.T) {
	lookup := &fakeLookup{result: &ResolvedMacro{Package: "sql_toolkit", Name: "default__dateadd"}}
	r := New(WithLookup(lookup))

	calls, err := r.ResolveCalls(`{{ adapter.dispatch('dateadd', 'sql_toolkit')() }}`, nil)
	require.NoError(t, err, "unexpected error")

	assert.Equal(t, 1, lookup.calls, "exactly one lookup per dispatch call")
	assert.Equal(t, "dateadd", lookup.gotName)
	assert.Equal(t, "sql_toolkit", lookup.gotNamespace)
	assert.Equal(t, []string{"dateadd", "sql_toolkit.default__dateadd"}, callNames(calls))
}

func TestDispatch_KeywordName(t *testing.T) {
	r := New()

	calls, err := r.ResolveCalls(`{{ adapter.dispatch(macro_name='hash') }}`, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"hash"}, callNames(calls))
}

func TestDispatch_KeywordNamespace(t *testing.T) {
	r := New()

	calls, err := r.ResolveCalls(
		`{{ adapter.dispatch('hash', macro_namespace='sql_toolkit') }}`, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"hash", "sql_toolkit.hash"}, callNames(calls))
}

func TestDispatch_PositionalNamespaceWins(t *testing.T) {
	r := New()

	// A literal second positional argument overrides the keyword
	// namespace: positionals are evaluated after keywords here.
	calls, err := r.ResolveCalls(
		`{{ adapter.dispatch('hash', 'pkg_a', macro_namespace='pkg_b') }}`, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"hash", "pkg_a.hash"}, callNames(calls))
}

func TestDispatch_PackageList(t *testing.T) {
	r := New()

	calls, err := r.ResolveCalls(
		`{{ adapter.dispatch('dateadd', ['sql_toolkit', 'my_project']) }}`, nil)
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"dateadd", "sql_toolkit.dateadd", "my_project.dateadd"},
		callNames(calls))
}

func TestDispatch_DynamicName(t *testing.T) {
	r := New()

	// A non-literal macro name yields no candidates but is not an error.
	calls, err := r.ResolveCalls(`{{ adapter.dispatch(some_var) }}`, nil)
	require.NoError(t, err)
	assert.Empty(t, calls)
}

func TestDispatch_MacroNameNotString(t *testing.T) {
	r := New()

	_, err := r.ResolveCalls(`{{ adapter.dispatch(macro_name=some_var) }}`, nil)
	require.Error(t, err, "expected error for non-literal macro_name")

	nameErr, ok := err.(*MacroNameNotStringError)
	require.True(t, ok, "expected *MacroNameNotStringError, got %T", err)
	assert.Contains(t, nameErr.Value, "Name(name='some_var')")
}

func TestDispatch_MacroNameConstNotString(t *testing.T) {
	r := New()

	// A literal, but not a string literal: still rejected.
	_, err := r.ResolveCalls(`{{ adapter.dispatch(macro_name=5) }}`, nil)
	require.Error(t, err, "expected error for non-string macro_name literal")

	_, ok := err.(*MacroNameNotStringError)
	assert.True(t, ok, "expected *MacroNameNotStringError, got %T", err)
}

func TestDispatch_MacroNamespaceNotString(t *testing.T) {
	r := New()

	_, err := r.ResolveCalls(
		`{{ adapter.dispatch('hash', macro_namespace=ns_var) }}`, nil)
	require.Error(t, err, "expected error for non-literal macro_namespace")

	nsErr, ok := err.(*MacroNamespaceNotStringError)
	require.True(t, ok, "expected *MacroNamespaceNotStringError, got %T", err)
	assert.Equal(t, "Name", nsErr.Kind)
}

func TestDispatch_LookupError(t *testing.T) {
	lookup := &fakeLookup{err: fmt.Errorf("macro not found")}
	r := New(WithLookup(lookup))

	_, err := r.ResolveCalls(`{{ adapter.dispatch('missing') }}`, nil)
	require.Error(t, err, "lookup failures propagate")
	assert.Contains(t, err.Error(), "macro not found")
}
