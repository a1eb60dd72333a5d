package api

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/solatis/rulekeeper/internal/conflict"
)

func dialService(t *testing.T, svc *Service) *Client {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	RegisterRuleKeeperServer(server, svc)
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewClient(conn)
}

func TestGRPC_TransformRoundTrip(t *testing.T) {
	client := dialService(t, newTestService(t))
	ctx := context.Background()

	resp, err := client.Transform(ctx, TransformRequest{
		RuleSource: RuleSource{Rules: jsonRules("hello", "hi", "o", "0")},
		Text:       "hello foo",
		Mode:       "hybrid",
	})
	require.NoError(t, err)
	assert.Equal(t, "hi f00", resp.Result)
}

func TestGRPC_TrackedRoundTrip(t *testing.T) {
	client := dialService(t, newTestService(t))
	ctx := context.Background()

	enc, err := client.EncodeTracked(ctx, EncodeTrackedRequest{
		RuleSource: RuleSource{Rules: jsonRules("secret", "<0>")},
		Text:       "my secret plan",
		Persist:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, "my <0> plan", enc.Result)

	dec, err := client.DecodeTracked(ctx, DecodeTrackedRequest{Text: enc.Result, LedgerID: string(enc.LedgerID)})
	require.NoError(t, err)
	assert.Equal(t, "my secret plan", dec.Result)
}

func TestGRPC_AnalyzeReport(t *testing.T) {
	client := dialService(t, newTestService(t))

	resp, err := client.Analyze(context.Background(), AnalyzeRequest{
		RuleSource: RuleSource{Rules: jsonRules("ab", "x", "a", "y")},
	})
	require.NoError(t, err)
	require.Len(t, resp.Report.Conflicts, 1)

	c := resp.Report.Conflicts[0]
	assert.Equal(t, conflict.KindOverlap, c.Kind)
	assert.Equal(t, []int{0, 1}, c.RuleIndices)
	require.NotNil(t, c.Fix)
	assert.Equal(t, conflict.FixReorder, c.Fix.Action)
	assert.Equal(t, 1, resp.Report.CountsByKind[conflict.KindOverlap])
}

func TestGRPC_ErrorCodes(t *testing.T) {
	client := dialService(t, newTestService(t))
	ctx := context.Background()

	_, err := client.Transform(ctx, TransformRequest{Text: "x", Mode: "regex"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	err = client.Call(ctx, "GetRuleSet", RuleSetRequest{Name: "missing"}, &RuleSetResponse{})
	assert.Equal(t, codes.NotFound, status.Code(err))

	err = client.Call(ctx, "Nope", struct{}{}, nil)
	assert.Equal(t, codes.Unimplemented, status.Code(err))
}

func TestGRPC_RuleSetMethods(t *testing.T) {
	client := dialService(t, newTestService(t))
	ctx := context.Background()

	var saved RuleSetResponse
	require.NoError(t, client.Call(ctx, "SaveRuleSet", SaveRuleSetRequest{Name: "r", Rules: jsonRules("a", "b")}, &saved))
	assert.Equal(t, "r", saved.RuleSet.Name)

	var list ListRuleSetsResponse
	require.NoError(t, client.Call(ctx, "ListRuleSets", struct{}{}, &list))
	require.Len(t, list.RuleSets, 1)

	require.NoError(t, client.Call(ctx, "DeleteRuleSet", RuleSetRequest{Name: "r"}, nil))
	require.NoError(t, client.Call(ctx, "ListRuleSets", struct{}{}, &list))
	assert.Empty(t, list.RuleSets)
}
