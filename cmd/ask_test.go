package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Malumbo21/askdb/internal/database"
	"github.com/Malumbo21/askdb/internal/executor"
)

func approvalRequest() executor.ApprovalRequest {
	return executor.ApprovalRequest{
		Database:  "main",
		SQL:       "DROP TABLE orders",
		Operation: "DROP",
		Tables:    []string{"orders"},
		HighRisk:  true,
		DryRun:    &database.DryRunResult{Valid: true, EstimatedRows: 0},
	}
}

func TestPromptApproval_Yes(t *testing.T) {
	var out bytes.Buffer

	approved, err := promptApproval(strings.NewReader("yes\n"), &out, approvalRequest())

	require.NoError(t, err)
	assert.True(t, approved)
	assert.Contains(t, out.String(), "DROP TABLE orders")
	assert.Contains(t, out.String(), "WARNING")
	assert.Contains(t, out.String(), "orders")
}

func TestPromptApproval_AnythingElseRejects(t *testing.T) {
	for _, answer := range []string{"no\n", "y\n", "\n", "YES please\n"} {
		var out bytes.Buffer

		approved, err := promptApproval(strings.NewReader(answer), &out, approvalRequest())

		require.NoError(t, err)
		assert.False(t, approved, "answer %q", answer)
	}
}

func TestPromptApproval_CaseInsensitiveYes(t *testing.T) {
	var out bytes.Buffer

	approved, err := promptApproval(strings.NewReader("  YES  \n"), &out, approvalRequest())

	require.NoError(t, err)
	assert.True(t, approved)
}

func TestPromptApproval_NoWarningForPlainWrite(t *testing.T) {
	var out bytes.Buffer

	req := approvalRequest()
	req.SQL = "UPDATE orders SET total = 0 WHERE id = 1"
	req.Operation = "UPDATE"
	req.HighRisk = false

	_, err := promptApproval(strings.NewReader("no\n"), &out, req)

	require.NoError(t, err)
	assert.NotContains(t, out.String(), "WARNING")
}
