package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSource_RefsAndSources(t *testing.T) {
	text := `select *
from {{ ref('stg_orders') }} o
join {{ ref('shared', 'dim_dates') }} d on o.date_id = d.id
join {{ source('raw', 'customers') }} c on o.customer_id = c.id`

	out, err := FromSource(text)
	require.NoError(t, err, "unexpected error")

	require.Len(t, out.Refs, 2)
	assert.Equal(t, RefArgs{Name: "stg_orders"}, out.Refs[0])
	assert.Equal(t, RefArgs{Package: "shared", Name: "dim_dates"}, out.Refs[1])

	require.Len(t, out.Sources, 1)
	assert.Equal(t, [2]string{"raw", "customers"}, out.Sources[0])
}

func TestFromSource_Versions(t *testing.T) {
	out, err := FromSource(`{{ ref('orders', version=2) }} {{ ref('users', v='aug') }}`)
	require.NoError(t, err, "unexpected error")

	require.Len(t, out.Refs, 2)
	assert.Equal(t, int64(2), out.Refs[0].Version)
	assert.Equal(t, "aug", out.Refs[1].Version)
}

func TestFromSource_ConfigRecognized(t *testing.T) {
	out, err := FromSource(`{{ config(materialized='view', enabled=1) }} select 1`)
	require.NoError(t, err, "config with literal arguments passes extraction")
	assert.Empty(t, out.Refs)
	assert.Empty(t, out.Sources)
}

func TestFromSource_BareExpressionsTolerated(t *testing.T) {
	out, err := FromSource(`select '{{ this }}' as target, {{ this.schema }} as sch`)
	require.NoError(t, err, "bare identifier chains are ignored, not errors")
	assert.Empty(t, out.Refs)
	assert.Empty(t, out.Sources)
}

func TestFromSource_CommentsSkipped(t *testing.T) {
	out, err := FromSource(`{# {{ ref('ignored') }} #} select * from {{ ref('kept') }}`)
	require.NoError(t, err, "unexpected error")

	require.Len(t, out.Refs, 1)
	assert.Equal(t, "kept", out.Refs[0].Name)
}

func TestFromSource_TrimMarkers(t *testing.T) {
	out, err := FromSource(`{{- ref('padded') -}}`)
	require.NoError(t, err, "unexpected error")

	require.Len(t, out.Refs, 1)
	assert.Equal(t, "padded", out.Refs[0].Name)
}

func TestFromSource_NoTemplating(t *testing.T) {
	out, err := FromSource(`select 1 as id from plain_table`)
	require.NoError(t, err, "unexpected error")
	assert.Empty(t, out.Refs)
	assert.Empty(t, out.Sources)
}

func TestFromSource_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"statement block", `{% if x %}select 1{% endif %}`},
		{"unknown call", `{{ my_macro('x') }}`},
		{"non-literal ref", `{{ ref(model_name) }}`},
		{"nested call argument", `{{ ref(var('name')) }}`},
		{"unclosed expression", `{{ ref('x')`},
		{"source kwargs", `{{ source('raw', table='t') }}`},
		{"source arity", `{{ source('raw') }}`},
		{"ref arity", `{{ ref('a', 'b', 'c') }}`},
		{"bad version", `{{ ref('a', version=[1]) }}`},
		{"unexpected kwarg", `{{ ref('a', alias='b') }}`},
		{"trailing input", `{{ ref('a') and ref('b') }}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromSource(tt.text)
			require.Error(t, err, "expected extraction error")

			_, ok := err.(*ExtractionError)
			assert.True(t, ok, "expected *ExtractionError, got %T", err)
		})
	}
}
