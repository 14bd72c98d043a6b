package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/roundtable/core"
)

func TestLoad(t *testing.T) {
	cfg, err := Load("testdata/bugtriage.yaml")
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)

	require.Contains(t, cfg.Models, "flash")
	flash := cfg.Models["flash"]
	assert.Equal(t, "openai", flash.Provider)
	assert.Equal(t, "gemini-2.0-flash", flash.Name)
	assert.Equal(t, "GEMINI_API_KEY", flash.APIKeyEnv)
	require.NotNil(t, flash.Temperature)
	assert.Equal(t, 0.2, *flash.Temperature)

	require.Contains(t, cfg.Workbenches, "jira")
	jira := cfg.Workbenches["jira"]
	assert.Equal(t, "docker", jira.Command)
	assert.Equal(t, "https://example.atlassian.net", jira.Env["JIRA_URL"])
	assert.Equal(t, 2*time.Minute, jira.Timeout())
	require.Len(t, jira.Tools, 2)
	assert.Equal(t, "jira_search", jira.Tools[0].Name)
	assert.Contains(t, jira.Tools[0].Parameters, "properties")

	require.Len(t, cfg.Participants, 2)
	assert.Equal(t, "triager", cfg.Participants[0].Name)
	assert.Equal(t, []string{"playwright", "jira"}, cfg.Participants[1].Workbenches)
	assert.Equal(t, 8, cfg.Participants[1].MaxToolRounds)

	assert.Equal(t, "TESTING COMPLETE", cfg.Termination.TextMention)
	assert.Equal(t, 20, cfg.Termination.MaxMessages)
	assert.True(t, cfg.Sinks.Console)
	assert.Equal(t, ":8089", cfg.Sinks.WebSocket)

	assert.Equal(t, "redis", cfg.Store.Type)
	assert.Equal(t, 2, cfg.Store.Redis.DB)
	assert.Equal(t, "roundtable:transcript:", cfg.Store.Redis.KeyPrefix)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("testdata/nope.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read")
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(`
models:
  m:
    provider: mock
participants:
  - name: solo
    model: m
`))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "memory", cfg.Store.Type)
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "no participants",
			yaml: `
models:
  m: {provider: mock}
`,
			want: "at least one participant",
		},
		{
			name: "unknown model",
			yaml: `
models:
  m: {provider: mock}
participants:
  - {name: a, model: missing}
`,
			want: `participants[0]: unknown model "missing"`,
		},
		{
			name: "unknown workbench",
			yaml: `
models:
  m: {provider: mock}
participants:
  - {name: a, model: m, workbenches: [ghost]}
`,
			want: `unknown workbench "ghost"`,
		},
		{
			name: "duplicate participant",
			yaml: `
models:
  m: {provider: mock}
participants:
  - {name: a, model: m}
  - {name: a, model: m}
`,
			want: `participants[1]: duplicate name "a"`,
		},
		{
			name: "bad provider",
			yaml: `
models:
  m: {provider: cohere, name: x}
participants:
  - {name: a, model: m}
`,
			want: "models[m]: provider must be",
		},
		{
			name: "model name required",
			yaml: `
models:
  m: {provider: openai}
participants:
  - {name: a, model: m}
`,
			want: "models[m]: name is required",
		},
		{
			name: "workbench without command",
			yaml: `
models:
  m: {provider: mock}
workbenches:
  w:
    tools: [{name: t}]
participants:
  - {name: a, model: m}
`,
			want: "workbenches[w]: command is required",
		},
		{
			name: "workbench without tools",
			yaml: `
models:
  m: {provider: mock}
workbenches:
  w:
    command: ls
participants:
  - {name: a, model: m}
`,
			want: "workbenches[w]: at least one tool",
		},
		{
			name: "workbench tool without name",
			yaml: `
models:
  m: {provider: mock}
workbenches:
  w:
    command: ls
    tools: [{description: unnamed}]
participants:
  - {name: a, model: m}
`,
			want: "tools[0]: name is required",
		},
		{
			name: "bad log level",
			yaml: `
logging: {level: loud}
models:
  m: {provider: mock}
participants:
  - {name: a, model: m}
`,
			want: "logging.level",
		},
		{
			name: "bad store type",
			yaml: `
models:
  m: {provider: mock}
participants:
  - {name: a, model: m}
store: {type: postgres}
`,
			want: "store.type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBuild(t *testing.T) {
	cfg, err := Parse([]byte(`
models:
  m: {provider: mock}
workbenches:
  w:
    command: /bin/cat
    tools: [{name: echo_tool}]
participants:
  - name: a
    instructions: Say hi.
    model: m
    workbenches: [w]
termination:
  text_mention: DONE
  max_messages: 10
`))
	require.NoError(t, err)

	rt, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	defer rt.Close()

	require.NotNil(t, rt.Logger)
	require.NotNil(t, rt.Store)
	require.NotNil(t, rt.Termination)
	assert.Nil(t, rt.WebSocket)
	assert.Empty(t, rt.Sinks)

	spec, err := rt.Spec("triage the backlog")
	require.NoError(t, err)
	assert.Equal(t, "triage the backlog", spec.Task)
	require.Len(t, spec.Participants, 1)

	ps := spec.Participants[0]
	assert.Equal(t, "a", ps.Name)
	assert.Same(t, rt.models["m"], ps.Model)
	require.Len(t, ps.Workbenches, 1)

	defs := ps.Workbenches[0].Tools()
	require.Len(t, defs, 1)
	assert.Equal(t, "echo_tool", defs[0].Function.Name)

	// Every spec owns fresh subprocess handles.
	again, err := rt.Spec("second run")
	require.NoError(t, err)
	assert.NotSame(t, ps.Workbenches[0], again.Participants[0].Workbenches[0])
}

func TestBuild_MissingAPIKeyEnv(t *testing.T) {
	cfg, err := Parse([]byte(`
models:
  m: {provider: openai, name: gpt-4o, api_key_env: ROUNDTABLE_TEST_NO_SUCH_KEY}
participants:
  - {name: a, model: m}
`))
	require.NoError(t, err)

	_, err = Build(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ROUNDTABLE_TEST_NO_SUCH_KEY")
}

func TestBuildTermination(t *testing.T) {
	assert.Nil(t, buildTermination(TerminationConfig{}))

	pred := buildTermination(TerminationConfig{TextMention: "DONE", MaxMessages: 3})
	require.NotNil(t, pred)

	msg := core.NewAssistantMessage("a", "all DONE here")
	assert.True(t, pred(msg))

	msg = core.NewAssistantMessage("a", "keep going")
	msg.Seq = 3
	assert.True(t, pred(msg))

	msg.Seq = 1
	assert.False(t, pred(msg))
}
