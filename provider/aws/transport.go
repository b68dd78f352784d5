package aws

import (
	"context"
	"errors"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	lambdasvc "github.com/aws/aws-sdk-go-v2/service/lambda"

	"github.com/bjaus/invoke"
)

// LambdaAPI is the subset of the Lambda client used for invokes.
type LambdaAPI interface {
	Invoke(ctx context.Context, params *lambdasvc.InvokeInput, optFns ...func(*lambdasvc.Options)) (*lambdasvc.InvokeOutput, error)
}

// FunctionError reports an invoke whose function returned an error.
type FunctionError struct {
	Function string
	Kind     string
	Payload  string
}

func (e *FunctionError) Error() string {
	return fmt.Sprintf("function %s failed (%s): %s", e.Function, e.Kind, e.Payload)
}

// LambdaTransport invokes functions synchronously through the Lambda API.
type LambdaTransport struct {
	client LambdaAPI
}

var _ invoke.Transport = (*LambdaTransport)(nil)

// NewLambdaTransport wraps client.
func NewLambdaTransport(client LambdaAPI) *LambdaTransport {
	return &LambdaTransport{client: client}
}

// NewDefaultTransport builds a transport from the default AWS credential
// chain and region.
func NewDefaultTransport(ctx context.Context) (*LambdaTransport, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewLambdaTransport(lambdasvc.NewFromConfig(cfg)), nil
}

// WithLambda sets a Lambda client as the provider transport.
func WithLambda(client LambdaAPI) invoke.Option {
	return invoke.WithTransport(NewLambdaTransport(client))
}

// Call implements invoke.Transport. Target is the function name or ARN.
func (t *LambdaTransport) Call(ctx context.Context, req invoke.RemoteRequest) ([]byte, error) {
	if t == nil || t.client == nil {
		return nil, errors.New("lambda client is not configured")
	}
	out, err := t.client.Invoke(ctx, &lambdasvc.InvokeInput{
		FunctionName: awssdk.String(req.Target),
		Payload:      req.Payload,
	})
	if err != nil {
		return nil, err
	}
	if out.FunctionError != nil {
		return nil, &FunctionError{
			Function: req.Target,
			Kind:     awssdk.ToString(out.FunctionError),
			Payload:  string(out.Payload),
		}
	}
	return out.Payload, nil
}
