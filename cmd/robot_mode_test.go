package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tayloree/confere/internal/model"
)

func TestShouldAutoJSON(t *testing.T) {
	assert.True(t, shouldAutoJSON([]string{"history", "--store", "kero"}, false))
	assert.False(t, shouldAutoJSON([]string{"history", "--store", "kero", "--json"}, false))
	assert.False(t, shouldAutoJSON([]string{"completion", "zsh"}, false))
	assert.False(t, shouldAutoJSON([]string{"--help"}, false))
	assert.False(t, shouldAutoJSON([]string{"serve"}, false))
	assert.False(t, shouldAutoJSON([]string{"history"}, true))
}

func TestFirstCommand_SkipsFlagValues(t *testing.T) {
	assert.Equal(t, "history", firstCommand([]string{"--store", "kero", "history"}))
	assert.Equal(t, "budget", firstCommand([]string{"-c", "confere.yaml", "budget", "show"}))
	assert.Equal(t, "", firstCommand([]string{"--json"}))
}

func TestPrintQuickStart_JSON(t *testing.T) {
	var buf bytes.Buffer
	err := printQuickStart(&buf, true)
	require.NoError(t, err)

	var payload quickStartJSON
	err = json.Unmarshal(buf.Bytes(), &payload)
	require.NoError(t, err)

	assert.Equal(t, "confere", payload.Name)
	assert.NotEmpty(t, payload.Usage)
	assert.Len(t, payload.Examples, 3)
}

func TestPrintCLIErrorJSON(t *testing.T) {
	var buf bytes.Buffer
	err := printCLIErrorJSON(&buf, classifyCLIError(invalidArgsError("bad amount", "confere compare CART_ID 3250")))
	require.NoError(t, err)

	var payload map[string]any
	err = json.Unmarshal(buf.Bytes(), &payload)
	require.NoError(t, err)

	errorObject, ok := payload["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "INVALID_ARGS", errorObject["code"])
	assert.Equal(t, "bad amount", errorObject["message"])
}

func TestClassifyCLIError_DomainErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
		exit int
	}{
		{"validation", model.Invalid("price", "must be greater than 0"), "INVALID_ARGS", ExitInvalidArgs},
		{"not found", model.NotFound("cart", "1"), "NOT_FOUND", ExitNotFound},
		{"no budget", model.ErrNoBudget, "NOT_FOUND", ExitNotFound},
		{"backup version", fmt.Errorf("%w: %q", model.ErrUnsupportedBackup, "2.0.0"), "INVALID_ARGS", ExitInvalidArgs},
		{"storage", fmt.Errorf("%w: listing carts: disk I/O error", model.ErrStorage), "UPSTREAM_ERROR", ExitUpstream},
		{"premium", premiumError("export"), "PREMIUM_REQUIRED", ExitInvalidArgs},
		{"missing arg", errors.New("accepts 2 arg(s), received 1"), "INVALID_ARGS", ExitInvalidArgs},
		{"unexpected", errors.New("boom"), "INTERNAL_ERROR", ExitInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyCLIError(tt.err)
			assert.Equal(t, tt.code, got.Code)
			assert.Equal(t, tt.exit, got.ExitCode)
		})
	}
}
