package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/ganot/grantflow/internal/config"
	"github.com/ganot/grantflow/internal/domain/grant"
	"github.com/ganot/grantflow/internal/domain/payout"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T, svc Services) *sdkmcp.ClientSession {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	server := NewServer(Config{Services: svc, TransportMode: config.TransportStdio})
	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func textOf(t *testing.T, result *sdkmcp.CallToolResult) string {
	t.Helper()
	for _, content := range result.Content {
		if text, ok := content.(*sdkmcp.TextContent); ok {
			return text.Text
		}
	}
	t.Fatal("no text content")
	return ""
}

func TestServer_ListsCatalogAndDocs(t *testing.T) {
	session := connect(t, stubServices())
	ctx := context.Background()

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	require.Len(t, tools.Tools, len(buildToolCatalog()))

	names := make(map[string]bool, len(tools.Tools))
	for _, tool := range tools.Tools {
		names[tool.Name] = true
		assert.NotEmpty(t, tool.Description, tool.Name)
	}
	for _, want := range []string{"grant_transition", "grant_blockers", "payout_create", "budget_summary", "impact_publish"} {
		assert.True(t, names[want], "missing tool %s", want)
	}

	resources, err := session.ListResources(ctx, nil)
	require.NoError(t, err)
	require.Len(t, resources.Resources, len(docResources))

	read, err := session.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "grantflow://docs/index"})
	require.NoError(t, err)
	require.NotEmpty(t, read.Contents)
	assert.Equal(t, "text/markdown", read.Contents[0].MIMEType)
	assert.Contains(t, read.Contents[0].Text, "Agent Docs Index")
}

func TestServer_CallToolReturnsJSON(t *testing.T) {
	svc := stubServices()
	svc.Grants = grantStub{
		getFn: func(_ context.Context, clientID, id string) (*grant.Grant, error) {
			return &grant.Grant{ID: id, ClientID: clientID, Stage: grant.StageInReview}, nil
		},
	}
	session := connect(t, svc)

	result, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{
		Name:      "grant_get",
		Arguments: map[string]any{"id": "g-1"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var got grant.Grant
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &got))
	assert.Equal(t, "g-1", got.ID)
	assert.Equal(t, "default", got.ClientID, "stdio runs as the default client")
	assert.Equal(t, grant.StageInReview, got.Stage)
}

func TestServer_ToolErrorsCarryCodes(t *testing.T) {
	svc := stubServices()
	svc.Grants = grantStub{
		transitionFn: func(_ context.Context, _ string, req grant.TransitionRequest) (*grant.Grant, grant.TransitionResult, error) {
			blockers := []string{"documents are not complete (status pending)"}
			return nil, grant.TransitionResult{Blockers: blockers}, &grant.BlockedError{From: grant.StageInReview, To: req.ToStage, Blockers: blockers}
		},
	}
	session := connect(t, svc)

	result, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{
		Name:      "grant_transition",
		Arguments: map[string]any{"id": "g-1", "to_stage": "approved"},
	})
	require.NoError(t, err)
	require.True(t, result.IsError)

	var apiErr APIError
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &apiErr))
	assert.Equal(t, "TRANSITION_BLOCKED", apiErr.Code)
	assert.Equal(t, []any{"documents are not complete (status pending)"}, apiErr.Details)
	assert.NotEmpty(t, apiErr.RecoveryHint)
}

func TestServer_IdempotencyKeyFromMeta(t *testing.T) {
	svc := stubServices()
	var requestID string
	svc.Payouts = payoutStub{
		createFn: func(_ context.Context, _ string, req payout.CreateRequest) (*payout.Payout, payout.ValidationResult, error) {
			requestID = req.RequestID
			return &payout.Payout{ID: "p-1"}, payout.ValidationResult{Valid: true, Errors: []string{}}, nil
		},
	}
	session := connect(t, svc)

	result, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{
		Meta: sdkmcp.Meta{"idempotency_key": "retry-7"},
		Name: "payout_create",
		Arguments: map[string]any{
			"grant_id":    "g-1",
			"amount":      "1200.00",
			"method":      "ach",
			"payout_date": "2026-11-02",
		},
	})
	require.NoError(t, err)
	require.False(t, result.IsError, textOf(t, result))
	assert.Equal(t, "retry-7", requestID)
}

type resolverFunc func(ctx context.Context, token string) (string, error)

func (f resolverFunc) ResolveClient(ctx context.Context, token string) (string, error) {
	return f(ctx, token)
}

func TestAuthMiddleware(t *testing.T) {
	resolver := resolverFunc(func(_ context.Context, token string) (string, error) {
		if token == "gf_valid" {
			return "client-42", nil
		}
		return "", errors.New("unknown key")
	})

	var seen string
	next := func(ctx context.Context, _ string, _ sdkmcp.Request) (sdkmcp.Result, error) {
		seen = getClientID(ctx)
		return nil, nil
	}
	handler := authMiddleware(resolver)(next)

	request := func(header http.Header) *sdkmcp.CallToolRequest {
		return &sdkmcp.CallToolRequest{
			Params: &sdkmcp.CallToolParamsRaw{Name: "grant_get"},
			Extra:  &sdkmcp.RequestExtra{Header: header},
		}
	}
	ctx := context.Background()

	_, err := handler(ctx, "tools/call", request(http.Header{"Authorization": {"Bearer gf_valid"}}))
	require.NoError(t, err)
	assert.Equal(t, "client-42", seen)

	_, err = handler(ctx, "tools/call", request(http.Header{"Authorization": {"Bearer nope"}}))
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = handler(ctx, "tools/call", request(http.Header{}))
	require.ErrorIs(t, err, ErrUnauthorized)

	seen = ""
	_, err = handler(ctx, "initialize", request(http.Header{}))
	require.NoError(t, err)
	assert.Empty(t, seen)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("bearer  abc "))
	assert.Empty(t, bearerToken("Basic abc"))
	assert.Empty(t, bearerToken(""))
}

func TestTrafficLogging_Helpers(t *testing.T) {
	call := &sdkmcp.CallToolRequest{Params: &sdkmcp.CallToolParamsRaw{Name: "payout_create"}}
	assert.Equal(t, "payout_create", toolNameOf(call))
	assert.Empty(t, toolNameOf(nil))

	assert.Equal(t, "<nil>", truncatePayload(nil))
	assert.Equal(t, `{"id":"g-1"}`, truncatePayload(map[string]string{"id": "g-1"}))

	long := truncatePayload(strings.Repeat("x", maxLoggedPayload*2))
	assert.True(t, strings.HasSuffix(long, fmt.Sprintf("...(%d bytes)", maxLoggedPayload*2+2)))
}
