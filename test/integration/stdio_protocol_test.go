package integration_test

import (
	"context"
	"io"
	"os"
	"os/exec"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

func serverBinary(t *testing.T) string {
	t.Helper()
	for _, path := range []string{"./bin/grantflow", "../../bin/grantflow"} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	t.Skip("Server binary not found. Build it with 'go build -o bin/grantflow ./cmd/server'.")
	return ""
}

func stdioCommand(ctx context.Context, binaryPath string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, binaryPath, "serve")
	cmd.Env = append(os.Environ(),
		"GRANTFLOW_TRANSPORT_MODE=stdio",
		"GRANTFLOW_DB_PATH=:memory:",
	)
	return cmd
}

// TestStdioProtocolCompliance drives the server binary over stdio with the SDK client.
func TestStdioProtocolCompliance(t *testing.T) {
	binaryPath := serverBinary(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, &sdkmcp.CommandTransport{Command: stdioCommand(ctx, binaryPath)}, nil)
	require.NoError(t, err, "Failed to connect to server")
	defer session.Close()

	t.Run("ServerInfo", func(t *testing.T) {
		initResult := session.InitializeResult()
		require.NotNil(t, initResult)
		require.NotNil(t, initResult.ServerInfo)
		require.Equal(t, "grantflow", initResult.ServerInfo.Name)
		require.NotEmpty(t, initResult.Instructions)
	})

	t.Run("ListTools", func(t *testing.T) {
		tools, err := session.ListTools(ctx, nil)
		require.NoError(t, err, "tools/list failed")

		toolNames := make(map[string]bool)
		for _, tool := range tools.Tools {
			toolNames[tool.Name] = true
		}
		for _, name := range []string{
			"grant_create",
			"grant_transition",
			"grant_blockers",
			"compliance_review",
			"approval_decide",
			"budget_summary",
			"payout_create",
			"impact_publish",
		} {
			require.True(t, toolNames[name], "Missing expected tool: %s", name)
		}
	})

	t.Run("ListResources", func(t *testing.T) {
		resources, err := session.ListResources(ctx, nil)
		require.NoError(t, err)
		require.NotEmpty(t, resources.Resources)
	})

	t.Run("CallGrantCreate", func(t *testing.T) {
		result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
			Name: "grant_create",
			Arguments: map[string]any{
				"entity_id":        "family-foundation",
				"grantee_name":     "River Trust",
				"requested_amount": "1000",
				"currency":         "USD",
			},
		})
		require.NoError(t, err, "tools/call grant_create failed")
		require.False(t, result.IsError, "grant_create returned error: %v", result)
		require.NotEmpty(t, result.Content)
	})

	t.Run("ToolErrorIsResult", func(t *testing.T) {
		result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
			Name:      "grant_get",
			Arguments: map[string]any{"id": "missing"},
		})
		require.NoError(t, err)
		require.True(t, result.IsError)
	})
}

// TestStdioProtocol_StdoutHygiene verifies that the server writes nothing to stdout except
// JSON-RPC messages.
func TestStdioProtocol_StdoutHygiene(t *testing.T) {
	binaryPath := serverBinary(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := stdioCommand(ctx, binaryPath)
	stdin, err := cmd.StdinPipe()
	require.NoError(t, err)
	stdout, err := cmd.StdoutPipe()
	require.NoError(t, err)
	stderr, err := cmd.StderrPipe()
	require.NoError(t, err)
	require.NoError(t, cmd.Start())

	initReq := `{"jsonrpc":"2.0","method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"1.0"}},"id":1}`
	_, err = stdin.Write([]byte(initReq + "\n"))
	require.NoError(t, err)

	done := make(chan struct{})
	var stdoutBytes, stderrBytes []byte
	go func() {
		stdoutBytes = readWithTimeout(stdout, 2*time.Second)
		stderrBytes = readWithTimeout(stderr, 2*time.Second)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		_ = cmd.Process.Kill()
		t.Fatal("Timeout waiting for server response")
	}

	_ = stdin.Close()
	_ = cmd.Process.Kill()
	_ = cmd.Wait()

	require.NotEmpty(t, stdoutBytes, "Server produced no stdout output")
	require.Equal(t, byte('{'), stdoutBytes[0], "stdout should start with JSON, got: %q", string(stdoutBytes[:min(50, len(stdoutBytes))]))
	t.Logf("Stderr output (logs): %s", string(stderrBytes))
}

func readWithTimeout(r io.Reader, timeout time.Duration) []byte {
	result := make([]byte, 0, 4096)
	chunks := make(chan []byte, 64)
	go func() {
		defer close(chunks)
		buf := make([]byte, 1024)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				chunks <- append([]byte(nil), buf[:n]...)
			}
			if err != nil {
				return
			}
		}
	}()

	deadline := time.After(timeout)
	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				return result
			}
			result = append(result, chunk...)
		case <-time.After(100 * time.Millisecond):
			if len(result) > 0 {
				return result
			}
		case <-deadline:
			return result
		}
	}
}
