package aws

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	jsoniter "github.com/json-iterator/go"

	"github.com/bjaus/invoke"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Handler returns a Lambda handler running svc through p. The Lambda
// runtime context, when present, is attached to the envelope.
func Handler(p *invoke.Provider, svc *invoke.Service) func(ctx context.Context, event json.RawMessage) (any, error) {
	return func(ctx context.Context, event json.RawMessage) (any, error) {
		return p.Handle(ctx, svc, invoke.NewEnvelope(event, runtimeContext(ctx)))
	}
}

// Start hands svc to the Lambda runtime. It does not return.
func Start(p *invoke.Provider, svc *invoke.Service) {
	lambda.Start(Handler(p, svc))
}

func runtimeContext(ctx context.Context) json.RawMessage {
	lc, ok := lambdacontext.FromContext(ctx)
	if !ok {
		return nil
	}
	b, err := codec.Marshal(lc)
	if err != nil {
		return nil
	}
	return b
}
