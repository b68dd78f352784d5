package aws

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/bjaus/invoke"
)

// Adapters returns the AWS adapters in selection order. API Gateway comes
// first so proxy requests that also carry a Records field are handled as
// HTTP requests; the direct-call adapter claims any remaining object.
func Adapters() []invoke.Adapter {
	return []invoke.Adapter{
		APIGateway{},
		S3(),
		SNS(),
		DynamoDB(),
		EventBridge{},
		LambdaCall{},
	}
}

// APIGateway handles API Gateway proxy requests.
type APIGateway struct{}

var _ invoke.Adapter = APIGateway{}

func (APIGateway) Name() string            { return "apiGateway" }
func (APIGateway) Trigger() invoke.Trigger { return invoke.TriggerHTTPGateway }

func (APIGateway) Discriminator() invoke.Discriminator {
	return invoke.HasFields("requestContext.apiId")
}

// ResolveParameter reads params through the body, query string, path
// parameters and headers, in that order.
func (APIGateway) ResolveParameter(_ context.Context, p invoke.Parameter, inv *invoke.Invocation) (invoke.Value, error) {
	root := inv.Envelope.EventValue()
	switch p.Kind {
	case invoke.KindParam:
		return invoke.LookupChain(root, p, "body", "queryStringParameters", "pathParameters", "headers"), nil
	case invoke.KindRequest:
		return root, nil
	case invoke.KindEvent:
		return decode[events.APIGatewayProxyRequest](root)
	}
	return invoke.Undefined(), nil
}

// TransformResult produces an APIGatewayProxyResponse. Results that already
// carry a numeric statusCode and string body pass through unchanged.
func (APIGateway) TransformResult(_ context.Context, err error, result any, _ *invoke.Envelope) (any, error) {
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       invoke.SerializeError(err),
		}, nil
	}
	switch result.(type) {
	case events.APIGatewayProxyResponse, *events.APIGatewayProxyResponse:
		return result, nil
	}
	if invoke.IsResponseShaped(result, "statusCode") {
		return result, nil
	}
	body, merr := invoke.Marshal(result)
	if merr != nil {
		return nil, merr
	}
	return events.APIGatewayProxyResponse{StatusCode: http.StatusOK, Body: body}, nil
}

// records handles the Records-array notifications. They differ only in the
// source tag, the holders probed for params and the typed event.
type records struct {
	invoke.BaseAdapter

	name    string
	trigger invoke.Trigger
	source  string
	holders []string
	event   func(invoke.Value) (invoke.Value, error)
}

func (r records) Name() string            { return r.name }
func (r records) Trigger() invoke.Trigger { return r.trigger }

func (r records) Discriminator() invoke.Discriminator {
	return invoke.RecordSource(r.source)
}

// ResolveParameter reads params from the first record.
func (r records) ResolveParameter(_ context.Context, p invoke.Parameter, inv *invoke.Invocation) (invoke.Value, error) {
	root := inv.Envelope.EventValue()
	switch p.Kind {
	case invoke.KindParam:
		return invoke.LookupChain(root, p, r.holders...), nil
	case invoke.KindEvent:
		return r.event(root)
	}
	return invoke.Undefined(), nil
}

// S3 handles object storage notifications. Params resolve against the s3
// entity (bucket, object) and then the record.
func S3() invoke.Adapter {
	return records{
		name:    "s3",
		trigger: invoke.TriggerObjectStorage,
		source:  "aws:s3",
		holders: []string{"Records.0.s3", "Records.0"},
		event:   decode[events.S3Event],
	}
}

// SNS handles pub/sub notifications. A JSON message is expanded so params
// can address its fields; message attributes come next.
func SNS() invoke.Adapter {
	return records{
		name:    "sns",
		trigger: invoke.TriggerPubSub,
		source:  "aws:sns",
		holders: []string{"Records.0.Sns.Message", "Records.0.Sns.MessageAttributes", "Records.0.Sns"},
		event:   decode[events.SNSEvent],
	}
}

// DynamoDB handles change stream records. Params read the new image, then
// the keys, then the stream record itself. Image values keep their
// attribute-value encoding, e.g. {"S": "abc"}.
func DynamoDB() invoke.Adapter {
	return records{
		name:    "dynamoDB",
		trigger: invoke.TriggerChangeStream,
		source:  "aws:dynamodb",
		holders: []string{"Records.0.dynamodb.NewImage", "Records.0.dynamodb.Keys", "Records.0.dynamodb", "Records.0"},
		event:   decode[events.DynamoDBEvent],
	}
}

// EventBridge handles event bus deliveries.
type EventBridge struct {
	invoke.BaseAdapter
}

func (EventBridge) Name() string            { return "eventBridge" }
func (EventBridge) Trigger() invoke.Trigger { return invoke.TriggerEventBus }

func (EventBridge) Discriminator() invoke.Discriminator {
	return invoke.HasFields("detail-type", "source", "detail")
}

// ResolveParameter reads params from detail, then the envelope.
func (EventBridge) ResolveParameter(_ context.Context, p invoke.Parameter, inv *invoke.Invocation) (invoke.Value, error) {
	root := inv.Envelope.EventValue()
	switch p.Kind {
	case invoke.KindParam:
		return invoke.LookupChain(root, p, "detail", ""), nil
	case invoke.KindEvent:
		return decode[events.CloudWatchEvent](root)
	}
	return invoke.Undefined(), nil
}

// LambdaCall handles direct invocations where the payload is the parameter
// bag itself.
type LambdaCall struct {
	invoke.BaseAdapter
}

func (LambdaCall) Name() string            { return "lambdaCall" }
func (LambdaCall) Trigger() invoke.Trigger { return invoke.TriggerDirectCall }

func (LambdaCall) Discriminator() invoke.Discriminator {
	return invoke.IsObject()
}

func (LambdaCall) ResolveParameter(_ context.Context, p invoke.Parameter, inv *invoke.Invocation) (invoke.Value, error) {
	root := inv.Envelope.EventValue()
	switch p.Kind {
	case invoke.KindParam:
		return invoke.LookupChain(root, p, ""), nil
	case invoke.KindEvent:
		return root, nil
	}
	return invoke.Undefined(), nil
}

func decode[T any](v invoke.Value) (invoke.Value, error) {
	var ev T
	if err := v.Decode(&ev); err != nil {
		return invoke.Undefined(), err
	}
	return invoke.Of(ev), nil
}
