package functional_test

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

// toolSession wraps an MCP client session for tool-level tests.
type toolSession struct {
	session *sdkmcp.ClientSession
}

func newStdioSession(t *testing.T) *toolSession {
	t.Helper()

	binaryPath := "./bin/grantflow"
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		binaryPath = "../../bin/grantflow"
		if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
			t.Skip("Server binary not found. Build it with 'go build -o bin/grantflow ./cmd/server'.")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	cmd := exec.CommandContext(ctx, binaryPath, "serve")
	cmd.Env = append(os.Environ(),
		"GRANTFLOW_TRANSPORT_MODE=stdio",
		"GRANTFLOW_DB_PATH=:memory:",
	)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, &sdkmcp.CommandTransport{Command: cmd}, nil)
	if err != nil {
		cancel()
		t.Fatalf("Failed to connect: %v", err)
	}

	t.Cleanup(func() {
		session.Close()
		cancel()
	})

	return &toolSession{session: session}
}

func (s *toolSession) call(t *testing.T, name string, args map[string]any) (*sdkmcp.CallToolResult, json.RawMessage) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := s.session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err, "CallTool %s failed", name)
	require.NotEmpty(t, result.Content, "Tool %s returned no content", name)

	for _, content := range result.Content {
		if textContent, ok := content.(*sdkmcp.TextContent); ok {
			return result, json.RawMessage(textContent.Text)
		}
	}
	t.Fatalf("Tool %s returned no text content", name)
	return nil, nil
}

func (s *toolSession) callTool(t *testing.T, name string, args map[string]any) json.RawMessage {
	t.Helper()
	result, text := s.call(t, name, args)
	require.False(t, result.IsError, "Tool %s returned error: %s", name, text)
	return text
}

func TestStdioFunctional_ProgramsAndGrants(t *testing.T) {
	s := newStdioSession(t)

	programResp := s.callTool(t, "program_create", map[string]any{
		"name":        "Clean Water",
		"kpi_targets": []map[string]any{{"key": "wells_built", "target": 10}},
	})
	var prog struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(programResp, &prog))
	require.NotEmpty(t, prog.ID)

	grantResp := s.callTool(t, "grant_create", map[string]any{
		"entity_id":        "family-foundation",
		"program_id":       prog.ID,
		"grantee_name":     "Water Works",
		"requested_amount": 5000,
		"currency":         "usd",
	})
	var g struct {
		ID       string `json:"id"`
		ClientID string `json:"client_id"`
		Currency string `json:"currency"`
	}
	require.NoError(t, json.Unmarshal(grantResp, &g))
	require.Equal(t, "default", g.ClientID)
	require.Equal(t, "USD", g.Currency)

	searchResp := s.callTool(t, "grant_search", map[string]any{"query": "Water"})
	require.Contains(t, string(searchResp), g.ID)

	listResp := s.callTool(t, "grant_list", map[string]any{"stages": []string{"draft"}})
	require.Contains(t, string(listResp), g.ID)
}

func TestStdioFunctional_BlockedTransitionIsToolError(t *testing.T) {
	s := newStdioSession(t)

	grantResp := s.callTool(t, "grant_create", map[string]any{
		"entity_id":        "family-foundation",
		"grantee_name":     "River Trust",
		"requested_amount": "1000",
		"currency":         "USD",
	})
	var g struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(grantResp, &g))

	result, text := s.call(t, "grant_transition", map[string]any{"id": g.ID, "to_stage": "paid"})
	require.True(t, result.IsError)

	var apiErr struct {
		Code    string   `json:"code"`
		Details []string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(text, &apiErr))
	require.Equal(t, "TRANSITION_BLOCKED", apiErr.Code)
	require.Equal(t, []string{"transition from draft to paid is not allowed"}, apiErr.Details)
}
