package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-agent/internal/shared/telemetry"
)

const okCompletion = `{"choices":[{"message":{"role":"assistant","content":"{\"processing_summary\":\"sum\",\"research_document\":\"doc\"}"}}]}`

func setupEnv(t *testing.T, status int, body string) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	chdir(t, t.TempDir())
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_BASE_URL", server.URL)
	t.Setenv("LOG_LEVEL", "error")
	t.Cleanup(func() { telemetry.SetLogger(nil) })
}

func TestRunPrintsOutputState(t *testing.T) {
	setupEnv(t, http.StatusOK, okCompletion)

	var stdout bytes.Buffer
	err := run([]string{"-query", "climate change", "-show-messages"}, strings.NewReader(""), &stdout)
	require.NoError(t, err)

	var got struct {
		ResearchSummary   string `json:"research_summary"`
		ResearchDocuments string `json:"research_documents"`
		Messages          []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
	assert.Equal(t, "sum", got.ResearchSummary)
	assert.Equal(t, "doc", got.ResearchDocuments)
	require.NotEmpty(t, got.Messages)
	last := got.Messages[len(got.Messages)-1]
	assert.Equal(t, "user", last.Role)
	assert.Contains(t, last.Content, "climate change")
}

func TestRunReadsQueryFromStdinAndWritesFile(t *testing.T) {
	setupEnv(t, http.StatusOK, okCompletion)
	outPath := filepath.Join(t.TempDir(), "out.json")

	var stdout bytes.Buffer
	err := run([]string{"-out", outPath}, strings.NewReader("  ocean currents \n"), &stdout)
	require.NoError(t, err)

	written, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, stdout.String(), string(written))
	assert.NotContains(t, stdout.String(), "messages")
}

func TestRunReturnsProviderFailure(t *testing.T) {
	setupEnv(t, http.StatusInternalServerError, `{"error":{"message":"upstream down","type":"server_error"}}`)

	var stdout bytes.Buffer
	err := run([]string{"-query", "q"}, strings.NewReader(""), &stdout)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "llm_invocation_error: "), err.Error())
	assert.Empty(t, stdout.String())
}

func TestRunReturnsConfigErrors(t *testing.T) {
	setupEnv(t, http.StatusOK, okCompletion)
	t.Setenv("OPENAI_API_KEY", "")

	err := run([]string{"-query", "q"}, strings.NewReader(""), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai_api_key")
}

func TestRunRejectsUnknownFlag(t *testing.T) {
	err := run([]string{"-nope"}, strings.NewReader(""), &bytes.Buffer{})
	require.Error(t, err)
}

func TestRunMissingPromptsFile(t *testing.T) {
	setupEnv(t, http.StatusOK, okCompletion)

	err := run([]string{"-query", "q", "-prompts", "missing.yaml"}, strings.NewReader(""), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prompts_file")
}
