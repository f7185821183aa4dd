package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeStructured(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		summary string
		doc     string
		wantErr bool
	}{
		{name: "both fields", raw: `{"processing_summary":"s","research_document":"d"}`, summary: "s", doc: "d"},
		{name: "null summary", raw: `{"processing_summary":null,"research_document":"doc text"}`, summary: "", doc: "doc text"},
		{name: "missing fields", raw: `{}`, summary: "", doc: ""},
		{name: "wrong type", raw: `{"processing_summary":42,"research_document":"d"}`, wantErr: true},
		{name: "extra field ignored", raw: `{"processing_summary":"s","research_document":"d","sources":["a"]}`, summary: "s", doc: "d"},
		{name: "extra field with missing", raw: `{"research_document":"d","notes":"n"}`, summary: "", doc: "d"},
		{name: "extra field does not hide type error", raw: `{"processing_summary":["s"],"other":1}`, wantErr: true},
		{name: "not json", raw: `summary: s`, wantErr: true},
		{name: "array", raw: `[]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeStructured([]byte(tt.raw))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrSchemaMismatch))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.summary, got.Summary())
			assert.Equal(t, tt.doc, got.Document())
		})
	}
}

func TestInvocationErrorUnwraps(t *testing.T) {
	err := &InvocationError{Provider: "openai", Model: "gpt-4o-mini", StatusCode: 401, Err: ErrEmptyResponse}
	assert.ErrorIs(t, err, ErrEmptyResponse)
	assert.Contains(t, err.Error(), "http status 401")
}
