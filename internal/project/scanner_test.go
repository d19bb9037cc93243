package project

import (
	"context"
	"fmt"
	"testing"

	"github.com/leapstack-labs/macroscope/internal/extract"
	"github.com/leapstack-labs/macroscope/internal/loader"
	"github.com/leapstack-labs/macroscope/internal/resolver"
	"github.com/leapstack-labs/macroscope/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProject(models map[string]string) *loader.Project {
	proj := &loader.Project{Name: "test_project"}
	for path, sql := range models {
		proj.Models = append(proj.Models, &loader.ModelFile{
			Name: path,
			Path: path,
			SQL:  sql,
		})
	}
	return proj
}

func newTestScanner(t *testing.T) *Scanner {
	return &Scanner{
		Resolver: resolver.New(resolver.WithCache(resolver.NewParseCache())),
		Logger:   testutil.NewTestLogger(t),
	}
}

func TestScanner_Scan(t *testing.T) {
	proj := testProject(map[string]string{
		"orders": `{{ config(materialized='table') }}
select {{ money(amount) }} from {{ ref('stg_orders') }}`,
	})

	result, err := newTestScanner(t).Scan(context.Background(), proj)
	require.NoError(t, err, "unexpected error")
	require.Len(t, result.Models, 1)

	m := result.Models[0]
	require.Len(t, m.MacroCalls, 1)
	assert.Equal(t, "money", m.MacroCalls[0].Name)
	require.Len(t, m.Refs, 1)
	assert.Equal(t, "stg_orders", m.Refs[0].Name)
	require.Len(t, m.Config, 1)
	assert.Contains(t, m.Config["materialized"], "table")
}

func TestScanner_ScanFallbackExtraction(t *testing.T) {
	// A statement block defeats the restricted extractor; the scanner
	// must fall back to the full AST and still find literal refs.
	proj := testProject(map[string]string{
		"incremental_orders": `select * from {{ ref('stg_orders') }}
{% if is_incremental() %}where id > (select max(id) from t){% endif %}`,
	})

	result, err := newTestScanner(t).Scan(context.Background(), proj)
	require.NoError(t, err, "unexpected error")

	m := result.Models[0]
	require.Len(t, m.Refs, 1)
	assert.Equal(t, "stg_orders", m.Refs[0].Name)
	assert.Empty(t, m.Sources)
}

func TestScanner_FallbackSkipsNonLiteralRefs(t *testing.T) {
	proj := testProject(map[string]string{
		"dynamic": `{% set tbl = 'stg_orders' %}
select * from {{ ref(tbl) }} join {{ ref('static_model') }} using (id)`,
	})

	result, err := newTestScanner(t).Scan(context.Background(), proj)
	require.NoError(t, err, "non-literal refs lose precision, not the parse")

	m := result.Models[0]
	require.Len(t, m.Refs, 1)
	assert.Equal(t, "static_model", m.Refs[0].Name)
}

func TestScanner_FallbackVersionKwarg(t *testing.T) {
	proj := testProject(map[string]string{
		"versioned": `{% if true %}{% endif %}select * from {{ ref('users', version=3) }}`,
	})

	result, err := newTestScanner(t).Scan(context.Background(), proj)
	require.NoError(t, err)

	m := result.Models[0]
	require.Len(t, m.Refs, 1)
	assert.Equal(t, extract.RefArgs{Name: "users", Version: int64(3)}, m.Refs[0])
}

func TestScanner_ContextSuppressesCalls(t *testing.T) {
	proj := testProject(map[string]string{
		"m": `{{ bound_helper() }} {{ unbound_helper() }}`,
	})

	s := newTestScanner(t)
	s.Context = resolver.Context{"bound_helper": true}

	result, err := s.Scan(context.Background(), proj)
	require.NoError(t, err)

	m := result.Models[0]
	require.Len(t, m.MacroCalls, 1)
	assert.Equal(t, "unbound_helper", m.MacroCalls[0].Name)
}

func TestScanner_FailureIsAtomic(t *testing.T) {
	proj := testProject(map[string]string{
		"good": `select 1`,
		"bad":  `{{ ) }}`,
	})

	result, err := newTestScanner(t).Scan(context.Background(), proj)
	require.Error(t, err, "one bad model fails the scan")
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "bad", "the failing model is named")
}

func TestScanner_ConcurrentMatchesSerial(t *testing.T) {
	models := make(map[string]string)
	for i := 0; i < 40; i++ {
		models[fmt.Sprintf("model_%02d", i)] = fmt.Sprintf(
			`{{ config(alias='m%d') }} select {{ helper_%d(1) }} from {{ ref('base_%d') }}`,
			i, i, i)
	}

	serial := &Scanner{Resolver: resolver.New(), Workers: 1}
	concurrent := &Scanner{Resolver: resolver.New(), Workers: 8}

	proj := testProject(models)
	got1, err := serial.Scan(context.Background(), proj)
	require.NoError(t, err)
	got2, err := concurrent.Scan(context.Background(), proj)
	require.NoError(t, err)

	require.Equal(t, len(got1.Models), len(got2.Models))
	for i := range got1.Models {
		assert.Equal(t, got1.Models[i].Path, got2.Models[i].Path, "order is deterministic")
		assert.Equal(t, got1.Models[i].Config, got2.Models[i].Config)
		require.Equal(t, len(got1.Models[i].MacroCalls), len(got2.Models[i].MacroCalls))
		for j := range got1.Models[i].MacroCalls {
			assert.Equal(t, got1.Models[i].MacroCalls[j].Name, got2.Models[i].MacroCalls[j].Name)
		}
	}
}

func TestScanner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	proj := testProject(map[string]string{"m": "select 1"})
	_, err := newTestScanner(t).Scan(ctx, proj)
	require.Error(t, err, "a cancelled context fails the scan")
}
