package plancmd

import (
	"bytes"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/broady/stepgen/ir"
	"github.com/broady/stepgen/plan"
)

func plans() []*plan.File {
	return []*plan.File{{
		Package:  ir.PackageInfo{Path: "example.com/point", Name: "point"},
		Target:   "NewPoint",
		Builder:  "PointBuilder",
		Version:  plan.Version2,
		Strategy: ir.StrategyLattice,
		Result:   "Point",
		Receiver: "b",
		Problems: "problems",
		States:   4,
		Fields:   []ir.Field{{Name: "x", Type: ir.Primitive("int"), Required: true}},
	}}
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, write(&buf, "json", plans()))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	require.Equal(t, "PointBuilder", got[0]["builder"])
	require.EqualValues(t, 4, got[0]["states"])
	require.Equal(t, []any{map[string]any{
		"name":     "x",
		"type":     map[string]any{"kind": "primitive", "name": "int"},
		"required": true,
	}}, got[0]["fields"])
}

func TestWrite_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, write(&buf, "yaml", plans()))

	var got []plan.File
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	require.Equal(t, "NewPoint", got[0].Target)
	require.Equal(t, ir.StrategyLattice, got[0].Strategy)
	require.Empty(t, got[0].Fields, "descriptors are JSON only")
}

func TestWrite_UnknownFormat(t *testing.T) {
	require.Error(t, write(&bytes.Buffer{}, "toml", plans()))
}
