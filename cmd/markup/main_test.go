package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vine-io/markup/activity"
	"github.com/vine-io/markup/api"
	"github.com/vine-io/markup/schema"
)

const goodDoc = `<Workflow xmlns="http://vine.io/markup/2023/workflow" xmlns:x="http://vine.io/markup/2023/definitions"
    x:Name="w" ID="7f0c3d2e-1b6a-4d55-9a2f-3c1e5b7d9a01">
  <Delay x:Name="d">5s</Delay>
</Workflow>`

const badDoc = `<Workflow xmlns="http://vine.io/markup/2023/workflow">
  <Nope/>
</Workflow>`

func writeFile(t *testing.T, dir, name, text string) string {
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(text), 0o644))
	return p
}

func run(args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := loadConfig(writeFile(t, dir, "ok.yaml", `
indent: 4
workers: 2
shared_cache: false
xmlns:
  - xmlns: urn:vine:flow
    namespace: github.com/vine-io/markup/activity
    assembly: vine.markup.activity
    prefix: flow
`))
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Indent)
	assert.Equal(t, 2, cfg.Workers)
	assert.False(t, cfg.SharedCache)
	require.Len(t, cfg.Xmlns, 1)
	assert.Equal(t, "flow", cfg.Xmlns[0].Prefix)

	_, err = loadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, err = loadConfig(writeFile(t, dir, "workers.yaml", "workers: 0\n"))
	assert.Error(t, err)

	_, err = loadConfig(writeFile(t, dir, "prefix.yaml", "xmlns:\n  - xmlns: urn:a\n    namespace: a\n    prefix: '1a'\n"))
	assert.Error(t, err)
}

func TestConfigAlias(t *testing.T) {
	cfg := NewConfig()
	cfg.Xmlns = append(cfg.Xmlns, schema.TypeMapping{
		XMLNamespace: "urn:vine:flow",
		Namespace:    "github.com/vine-io/markup/activity",
		Assembly:     activity.AssemblyName,
		Prefix:       "flow",
	})
	s, err := cfg.serializer()
	require.NoError(t, err)

	v, err := s.DeserializeString(`<Workflow xmlns="urn:vine:flow" xmlns:x="http://vine.io/markup/2023/definitions"
    x:Name="w" ID="7f0c3d2e-1b6a-4d55-9a2f-3c1e5b7d9a01"/>`)
	require.NoError(t, err)
	assert.IsType(t, &activity.Workflow{}, v)
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "markup.yaml", "workers: 2\n")
	good := writeFile(t, dir, "good.xml", goodDoc)
	bad := writeFile(t, dir, "bad.xml", badDoc)

	out, err := run("--config", cfgPath, "check", good)
	require.NoError(t, err)
	assert.Contains(t, out, good+": ok")

	out, err = run("--config", cfgPath, "check", "--json", good, bad)
	require.Error(t, err)

	var results []*fileResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.Equal(t, good, results[0].File)
	assert.Empty(t, results[0].Errors)
	assert.Equal(t, bad, results[1].File)
	require.NotEmpty(t, results[1].Errors)
	assert.Equal(t, api.KindResolution, results[1].Errors[0].Kind)
	assert.Equal(t, 2, results[1].Errors[0].Line)
}

func TestFmt(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "markup.yaml", "indent: 2\n")
	good := writeFile(t, dir, "good.xml", goodDoc)

	out, err := run("--config", cfgPath, "fmt", good)
	require.NoError(t, err)
	assert.Contains(t, out, `<Delay x:Name="d">5s</Delay>`)
	assert.Contains(t, out, `ID="7f0c3d2e-1b6a-4d55-9a2f-3c1e5b7d9a01"`)
}

func TestExt(t *testing.T) {
	out, err := run("ext", "{wf:Rule approved, Negate=true}")
	require.NoError(t, err)
	assert.Contains(t, out, `"prefix": "wf"`)
	assert.Contains(t, out, `"name": "Negate"`)

	_, err = run("ext", "{wf:Rule approved")
	assert.Error(t, err)
}
