// Package aws is the AWS provider family: Lambda triggers from API Gateway,
// S3, SNS, DynamoDB streams, EventBridge and direct invocation, delivered
// through the Lambda runtime, with outbound invokes over the Lambda API.
//
//	cfg, _ := config.Load()
//	p := aws.New(cfg)
//	aws.Start(p, svc)
package aws

import (
	"github.com/bjaus/invoke"
	"github.com/bjaus/invoke/config"
)

// Name is the provider name.
const Name = "aws"

// NewRegistry returns the AWS registry below parent. It resolves param,
// request and event parameters through the selected adapter.
func NewRegistry(parent *invoke.Registry) *invoke.Registry {
	reg := invoke.NewRegistry(Name, parent)
	reg.Register(invoke.KindParam, invoke.FromAdapter)
	reg.Register(invoke.KindRequest, invoke.FromAdapter)
	reg.Register(invoke.KindEvent, invoke.FromAdapter)
	return reg
}

// New creates an AWS provider. Responses are delivered through the envelope
// callback and returned to the runtime. Outbound invokes need a transport,
// see WithLambda.
func New(cfg *config.Config, opts ...invoke.Option) *invoke.Provider {
	defaults := []invoke.Option{
		invoke.WithDelivery(invoke.DeliverCallback),
		invoke.WithTarget(Target(cfg)),
	}
	return invoke.NewProvider(Name, NewRegistry(invoke.NewBaseRegistry()), Adapters(), append(defaults, opts...)...)
}

// Target resolves the Lambda function for a service. A
// FUNCTIONAL_SERVICE_<NAME> override wins over the declared functionName
// metadata; a service with neither cannot be invoked.
func Target(cfg *config.Config) invoke.TargetFunc {
	return func(svc *invoke.Service, md *invoke.Metadata) (invoke.RemoteRequest, error) {
		if name, ok := cfg.ServiceOverride(svc.Name); ok {
			return invoke.RemoteRequest{Target: name}, nil
		}
		if name, ok := md.String(invoke.AttrFunctionName, svc.Name); ok {
			return invoke.RemoteRequest{Target: name}, nil
		}
		return invoke.RemoteRequest{}, &invoke.ConfigurationError{
			Key: string(invoke.AttrFunctionName),
			Msg: "no function name declared for service " + svc.Name + " and " + config.ServiceKey(svc.Name) + " is unset",
		}
	}
}
