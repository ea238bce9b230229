package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func square(minX, minY, maxX, maxY float64) string {
	b, _ := json.Marshal(map[string]any{
		"type": "Polygon",
		"coordinates": [][][]float64{{
			{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY},
		}},
	})
	return string(b)
}

func writeFolder(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	cmd := NewRootCmd("test")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCheckAndReport(t *testing.T) {
	dir := writeFolder(t, map[string]string{
		"a.geojson": square(0, 0, 2, 2),
		"b.geojson": square(1, 1, 3, 3),
		"c.geojson": square(2.5, 0, 4, 2.5),
		"d.geojson": square(10, 10, 11, 11),
	})

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "check text",
			args: []string{"check", dir},
			want: []string{
				"Partial overlap between: a.geojson ⟷ b.geojson",
				"Partial overlap between: b.geojson ⟷ c.geojson",
			},
		},
		{
			name: "report text",
			args: []string{"report", dir},
			want: []string{"a.geojson: b.geojson", "b.geojson: c.geojson"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
			assert.NotContains(t, out, "d.geojson")
		})
	}
}

func TestCheckJSON(t *testing.T) {
	dir := writeFolder(t, map[string]string{
		"a.geojson": square(0, 0, 2, 2),
		"b.geojson": square(1, 1, 3, 3),
	})
	out, err := execute(t, "check", "--format", "json", dir)
	require.NoError(t, err)
	var lines []string
	require.NoError(t, json.Unmarshal([]byte(out), &lines))
	assert.Equal(t, []string{"Partial overlap between: a.geojson ⟷ b.geojson"}, lines)
}

func TestReportYAML(t *testing.T) {
	dir := writeFolder(t, map[string]string{
		"a.geojson": square(0, 0, 2, 2),
		"b.geojson": square(1, 1, 3, 3),
	})
	out, err := execute(t, "report", "-f", "yaml", dir)
	require.NoError(t, err)
	var got map[string]map[string]string
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, map[string]string{"a.geojson": "b.geojson"}, got["overlap"])
}

func TestReportInsufficient(t *testing.T) {
	dir := writeFolder(t, map[string]string{
		"a.geojson":  square(0, 0, 2, 2),
		"notes.json": `{"type":"Point","coordinates":[1,2]}`,
	})

	out, err := execute(t, "report", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Need at least two geometry files")
	assert.Contains(t, out, "skipped notes.json (unsupported)")

	out, err = execute(t, "report", "--format", "json", dir)
	require.NoError(t, err)
	assert.JSONEq(t, `{"overlap":{"error":"Need at least two geometry files"}}`, out)
}

func TestNoOverlap(t *testing.T) {
	dir := writeFolder(t, map[string]string{
		"a.geojson": square(0, 0, 1, 1),
		"b.geojson": square(1, 0, 2, 1),
	})
	out, err := execute(t, "check", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No partial overlaps found")

	out, err = execute(t, "check", "-f", "json", dir)
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(out))
}

func TestErrors(t *testing.T) {
	dir := writeFolder(t, map[string]string{"a.geojson": square(0, 0, 1, 1)})

	tests := []struct {
		name string
		args []string
	}{
		{"missing folder arg", []string{"check"}},
		{"folder does not exist", []string{"check", filepath.Join(dir, "nope")}},
		{"unknown format", []string{"check", "--format", "xml", dir}},
		{"unknown coordinate system", []string{"report", "--coord-sys", "EPSG:3857", dir}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, "test\n", out)
}
