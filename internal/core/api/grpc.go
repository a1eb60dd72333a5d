package api

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "rulekeeper.v1.RuleKeeper"

// RuleKeeperServer is the server API for the RuleKeeper gRPC service.
//
// Messages travel as google.protobuf.Struct carrying the same JSON objects
// the HTTP API uses, so no protoc/codegen step is needed. *Service
// implements it.
type RuleKeeperServer interface {
	Transform(context.Context, TransformRequest) (TransformResponse, error)
	EncodeTracked(context.Context, EncodeTrackedRequest) (EncodeTrackedResponse, error)
	DecodeTracked(context.Context, DecodeTrackedRequest) (DecodeTrackedResponse, error)
	Analyze(context.Context, AnalyzeRequest) (AnalyzeResponse, error)
	ApplyFix(context.Context, ApplyFixRequest) (FixResponse, error)
	ApplyFixAll(context.Context, ApplyFixAllRequest) (FixResponse, error)
	SaveRuleSet(context.Context, SaveRuleSetRequest) (RuleSetResponse, error)
	GetRuleSet(context.Context, RuleSetRequest) (RuleSetResponse, error)
	ListRuleSets(context.Context) (ListRuleSetsResponse, error)
	DeleteRuleSet(context.Context, RuleSetRequest) error
}

var _ RuleKeeperServer = (*Service)(nil)

// RegisterRuleKeeperServer registers the service on a gRPC server.
func RegisterRuleKeeperServer(s grpc.ServiceRegistrar, srv RuleKeeperServer) {
	s.RegisterService(&RuleKeeper_ServiceDesc, srv)
}

// structCall is one method bridged to Struct messages.
type structCall func(RuleKeeperServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// bridge adapts a typed method to Struct in and out. Decode failures and
// service errors become gRPC status errors.
func bridge[Req, Resp any](fn func(RuleKeeperServer, context.Context, Req) (Resp, error)) structCall {
	return func(srv RuleKeeperServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
		var req Req
		if err := fromStruct(in, &req); err != nil {
			return nil, GRPCError(err)
		}
		resp, err := fn(srv, ctx, req)
		if err != nil {
			return nil, GRPCError(err)
		}
		out, err := toStruct(resp)
		if err != nil {
			return nil, GRPCError(err)
		}
		return out, nil
	}
}

func methodDesc(name string, call structCall) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(RuleKeeperServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(RuleKeeperServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// RuleKeeper_ServiceDesc is the grpc.ServiceDesc for RuleKeeper service.
var RuleKeeper_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RuleKeeperServer)(nil),
	Methods: []grpc.MethodDesc{
		methodDesc("Transform", bridge(RuleKeeperServer.Transform)),
		methodDesc("EncodeTracked", bridge(RuleKeeperServer.EncodeTracked)),
		methodDesc("DecodeTracked", bridge(RuleKeeperServer.DecodeTracked)),
		methodDesc("Analyze", bridge(RuleKeeperServer.Analyze)),
		methodDesc("ApplyFix", bridge(RuleKeeperServer.ApplyFix)),
		methodDesc("ApplyFixAll", bridge(RuleKeeperServer.ApplyFixAll)),
		methodDesc("SaveRuleSet", bridge(RuleKeeperServer.SaveRuleSet)),
		methodDesc("GetRuleSet", bridge(RuleKeeperServer.GetRuleSet)),
		methodDesc("ListRuleSets", bridge(func(srv RuleKeeperServer, ctx context.Context, _ struct{}) (ListRuleSetsResponse, error) {
			return srv.ListRuleSets(ctx)
		})),
		methodDesc("DeleteRuleSet", bridge(func(srv RuleKeeperServer, ctx context.Context, req RuleSetRequest) (struct{}, error) {
			return struct{}{}, srv.DeleteRuleSet(ctx, req)
		})),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rulekeeper.proto",
}

func fromStruct(in *structpb.Struct, dest any) error {
	data, err := protojson.Marshal(in)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return out, nil
}

// Client is a thin RuleKeeper gRPC client over Struct messages.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a client on an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes method with req and decodes the reply into resp.
func (c *Client) Call(ctx context.Context, method string, req, resp any, opts ...grpc.CallOption) error {
	in, err := toStruct(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return err
	}
	if resp == nil {
		return nil
	}
	return fromStruct(out, resp)
}

// Transform calls the Transform method.
func (c *Client) Transform(ctx context.Context, req TransformRequest, opts ...grpc.CallOption) (TransformResponse, error) {
	var resp TransformResponse
	err := c.Call(ctx, "Transform", req, &resp, opts...)
	return resp, err
}

// EncodeTracked calls the EncodeTracked method.
func (c *Client) EncodeTracked(ctx context.Context, req EncodeTrackedRequest, opts ...grpc.CallOption) (EncodeTrackedResponse, error) {
	var resp EncodeTrackedResponse
	err := c.Call(ctx, "EncodeTracked", req, &resp, opts...)
	return resp, err
}

// DecodeTracked calls the DecodeTracked method.
func (c *Client) DecodeTracked(ctx context.Context, req DecodeTrackedRequest, opts ...grpc.CallOption) (DecodeTrackedResponse, error) {
	var resp DecodeTrackedResponse
	err := c.Call(ctx, "DecodeTracked", req, &resp, opts...)
	return resp, err
}

// Analyze calls the Analyze method.
func (c *Client) Analyze(ctx context.Context, req AnalyzeRequest, opts ...grpc.CallOption) (AnalyzeResponse, error) {
	var resp AnalyzeResponse
	err := c.Call(ctx, "Analyze", req, &resp, opts...)
	return resp, err
}
