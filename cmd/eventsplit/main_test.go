package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const streamBatch = `{"Records":[
  {"eventName":"INSERT","dynamodb":{"NewImage":{
    "id":{"S":"o1"},
    "userId":{"S":"u1"},
    "tickets":{"L":[{"M":{"seat":{"S":"A1"},"price":{"N":"10"}}},{"M":{"seat":{"S":"A2"},"price":{"N":"12.5"}}}]}
  }}},
  {"eventName":"INSERT","dynamodb":{"NewImage":{"id":{"S":"o2"},"userId":{"S":"u2"}}}}
]}`

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SPLIT_PATH", "PROPAGATE", "PREFIX",
		"EVENTSPLIT_IMAGE", "EVENTSPLIT_EVENT_NAMES",
		"EVENTSPLIT_LOG_LEVEL", "EVENTSPLIT_LOG_FORMAT",
		"EVENTSPLIT_OTEL_ENDPOINT", "EVENTSPLIT_OTEL_ENABLED",
	} {
		t.Setenv(key, "")
	}
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(append([]string{"eventsplit"}, args...), strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunSplitsStreamBatchFromStdin(t *testing.T) {
	clearEnv(t)

	code, stdout, stderr := runCLI(t, streamBatch,
		"--split", "$.tickets",
		"--propagate", "$.id;$.userId",
		"--prefix", "common_",
		"--format", "ndjson",
		"--log-level", "error",
	)
	require.Equal(t, 0, code, stderr)

	assert.Equal(t,
		`{"seat":"A1","price":10,"common_id":"o1","common_userId":"u1"}`+"\n"+
			`{"seat":"A2","price":12.5,"common_id":"o1","common_userId":"u1"}`+"\n",
		stdout)
}

func TestRunReadsFileWithEnvConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv("SPLIT_PATH", "$.items")
	t.Setenv("PROPAGATE", "$.id")
	t.Setenv("EVENTSPLIT_LOG_LEVEL", "error")

	input := filepath.Join(t.TempDir(), "records.ndjson")
	require.NoError(t, os.WriteFile(input, []byte("{\"id\":1,\"items\":[{\"a\":1}]}\n{\"id\":2,\"items\":[]}\n"), 0o644))

	code, stdout, stderr := runCLI(t, "", "--source", "json", input)
	require.Equal(t, 0, code, stderr)
	assert.JSONEq(t, `[{"a":1,"id":1}]`, stdout)
}

func TestRunWithConfigFile(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "eventsplit.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`split_path: $.tickets
propagate:
  - $.id
prefix: order_
log:
  level: error
`), 0o644))

	code, stdout, stderr := runCLI(t, streamBatch, "--config", cfgFile, "--format", "yaml")
	require.Equal(t, 0, code, stderr)

	assert.Contains(t, stdout, "seat: A1")
	assert.Contains(t, stdout, "order_id: o1")
	assert.Less(t, strings.Index(stdout, "seat: A1"), strings.Index(stdout, "seat: A2"))
}

func TestRunExitCodes(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		stdin      string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{
			name:       "help",
			args:       []string{"--help"},
			wantCode:   0,
			wantStdout: "Usage: eventsplit",
		},
		{
			name:       "missing_split_path",
			args:       nil,
			wantCode:   1,
			wantStderr: "SPLIT_PATH is required",
		},
		{
			name:       "invalid_split_path",
			args:       []string{"--split", "$.tickets["},
			wantCode:   1,
			wantStderr: "invalid path expression",
		},
		{
			name:       "unsupported_filter",
			args:       []string{"--split", "$.tickets", "--propagate", "$[?(@.x)]"},
			wantCode:   1,
			wantStderr: "PROPAGATE entry 1",
		},
		{
			name:       "invalid_payload",
			args:       []string{"--split", "$.tickets", "--log-level", "error"},
			stdin:      `42`,
			wantCode:   1,
			wantStderr: "invalid batch payload",
		},
		{
			name:       "missing_input_file",
			args:       []string{"--split", "$.tickets", "/nonexistent/batch.json"},
			wantCode:   1,
			wantStderr: "failed to read input file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)

			code, stdout, stderr := runCLI(t, tt.stdin, tt.args...)
			assert.Equal(t, tt.wantCode, code)
			if tt.wantStdout != "" {
				assert.Contains(t, stdout, tt.wantStdout)
			}
			if tt.wantStderr != "" {
				assert.Contains(t, stderr, tt.wantStderr)
			}
		})
	}
}

func TestRunEmptyInput(t *testing.T) {
	clearEnv(t)

	code, stdout, stderr := runCLI(t, "", "--split", "$.tickets", "--log-level", "error")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "[]\n", stdout)
}
