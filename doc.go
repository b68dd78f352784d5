// Package invoke normalizes how business-logic handlers are invoked across
// heterogeneous trigger sources (HTTP gateways, object-storage events,
// pub/sub notifications, change streams, direct calls) and how their results
// are shaped back into each source's expected response.
//
// # Quick Start
//
// Declare a service with its parameters:
//
//	svc := invoke.NewService("greet",
//	    invoke.Bind2(func(ctx context.Context, name string, g *Greeter) (string, error) {
//	        return g.Greet(name), nil
//	    }),
//	    invoke.Param("name"),
//	    invoke.Inject("greeter"),
//	)
//
// Pick a provider family and handle envelopes:
//
//	p := aws.New(cfg)
//	p.Container().Declare("greeter", ioc.Singleton, newGreeter)
//
//	resp, err := p.Handle(ctx, svc, invoke.NewEnvelope(rawEvent, nil))
//
// # Design
//
// The package separates concerns into four layers:
//
//   - Adapters: recognize one envelope shape, extract values, shape results
//   - Registry: maps parameter kinds to resolution strategies per provider
//   - Provider: runs the invocation lifecycle and delivers the response
//   - Container (package ioc): builds injected services by scope
//
// # Adapter Selection
//
// Adapters are registered on a provider in priority order. Each exposes a
// Discriminator, a cheap structural predicate evaluated against a View of
// the envelope:
//
//	func (gatewayAdapter) Discriminator() invoke.Discriminator {
//	    return invoke.HasFields("requestContext.apiId")
//	}
//
// The first adapter whose discriminator matches handles the envelope. The
// order is a contract: an envelope carrying both a gateway routing identifier
// and a Records array is handled by whichever adapter comes first. When no
// adapter matches, Handle fails with a SelectionError before any parameter is
// resolved.
//
// Hosts that know where an envelope came from set Envelope.Trigger. Selection
// then skips adapters of any other trigger, so an in-process parameter bag
// that happens to carry a method field is never taken for an HTTP request.
//
// Composable discriminators are provided:
//   - HasFields: Check for field presence
//   - FieldEquals: Check field value
//   - RecordSource: Check the origin tag of the first record
//   - IsObject: Match any JSON object
//   - And, Or, Not: Combine discriminators
//
// # Parameter Resolution
//
// Each handler parameter is described by a Parameter whose Kind selects a
// resolution strategy in the provider's Registry:
//
//   - param: a dotted path read through the adapter's holder chain
//   - inject: a service built or reused by the container
//   - request: the whole HTTP request holder
//   - event: the envelope decoded into the adapter's typed event
//   - serviceParams: the *Invocation itself
//
// Registries form a parent chain. A family registry that does not register a
// kind falls back to its ancestors, and registering a kind overrides it for
// that registry only:
//
//	base := invoke.NewBaseRegistry()          // inject, serviceParams
//	family := invoke.NewRegistry("aws", base) // param, event
//	family.Register(invoke.KindParam, invoke.FromAdapter)
//
// Kinds that are registered nowhere resolve to Undefined.
//
// For param, adapters probe holders in a fixed order (for an HTTP gateway:
// body, query string, path parameters, headers) and use the first defined
// value. Setting Source bypasses the chain:
//
//	invoke.Param("authorization").In("headers")
//
// # Property Lookup
//
// Value is the result of every lookup. It distinguishes absent from present
// values without panicking on missing or mistyped data:
//
//	v := env.EventValue().Get("Records.0.s3.object.key")
//	if v.Defined() {
//	    key := v.String()
//	}
//
// # Result Transformation
//
// After the handler runs, the selected adapter shapes the outcome. HTTP-style
// adapters wrap results in a 200 response, turn errors into a 500 response
// carrying SerializeError output, and pass through results that are already
// response shaped. Other adapters return the result and report handler
// errors to the runtime.
//
// # Hooks
//
// Hooks provide observability without coupling to specific logging or
// metrics systems:
//
//	p := aws.New(cfg,
//	    invoke.WithOnSuccess(func(ctx context.Context, service, adapter string, d time.Duration) {
//	        metrics.Timing("invoke.success", d, "adapter:"+adapter)
//	    }),
//	)
//
// Package observe provides ready-made zap and Prometheus hooks.
//
// # Error Handling
//
// Only handler errors are recoverable into a normal response. SelectionError,
// ResolutionError and TransformError propagate to the provider's delivery
// mechanism, which turns them into a distress response where the runtime
// supports one. Outbound Invoke reports ConfigurationError before any
// network call and InvokeTransportError for transport failures.
//
// # Thread Safety
//
// Provider is safe for concurrent use after configuration is complete. Do not
// register adapters or implementations after calling Handle.
package invoke
