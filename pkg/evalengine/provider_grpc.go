package evalengine

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// judgeMethod is the fully-qualified gRPC method the judge service
// exposes. Request/response are plain structpb.Struct messages rather
// than a hand-generated .proto stub — Scouter's LLM-judge contract is a
// single prompt-in/score-out call, so a generic structured message avoids
// carrying a protoc-generated package for one RPC, while still exercising
// the real grpc/protobuf wire stack.
const judgeMethod = "/scouter.evalengine.v1.Judge/Evaluate"

// GRPCProvider calls an LLM judge service over gRPC: a plain
// grpc.ClientConn wrapped with a narrow, typed call surface.
type GRPCProvider struct {
	conn  *grpc.ClientConn
	model string
}

// NewGRPCProvider dials addr and returns a Provider backed by it.
func NewGRPCProvider(addr, model string, opts ...grpc.DialOption) (*GRPCProvider, error) {
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to LLM judge service: %w", err)
	}
	return &GRPCProvider{conn: conn, model: model}, nil
}

// Close releases the underlying gRPC connection.
func (p *GRPCProvider) Close() error { return p.conn.Close() }

// Judge sends prompt to the judge service and parses its Score response.
func (p *GRPCProvider) Judge(ctx context.Context, prompt string) (JudgeResponse, error) {
	req, err := structpb.NewStruct(map[string]any{
		"model":  p.model,
		"prompt": prompt,
	})
	if err != nil {
		return JudgeResponse{}, fmt.Errorf("building judge request: %w", err)
	}

	resp := &structpb.Struct{}
	if err := p.conn.Invoke(ctx, judgeMethod, req, resp); err != nil {
		return JudgeResponse{}, fmt.Errorf("judge RPC failed: %w", err)
	}

	fields := resp.GetFields()
	scoreVal, ok := fields["score"]
	if !ok {
		return JudgeResponse{}, fmt.Errorf("judge response missing required field %q", "score")
	}

	return JudgeResponse{
		Score:        scoreVal.GetNumberValue(),
		ResponseType: ResponseTypeScore,
		Raw:          resp.String(),
	}, nil
}
