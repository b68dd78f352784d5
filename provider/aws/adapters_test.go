package aws

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"

	"github.com/bjaus/invoke"
)

const (
	gatewayEvent = `{
		"resource": "/users/{id}",
		"path": "/users/7",
		"httpMethod": "POST",
		"headers": {"authorization": "Bearer t", "id": "from-headers"},
		"queryStringParameters": {"id": "from-query", "verbose": "true"},
		"pathParameters": {"id": "7"},
		"requestContext": {"apiId": "abc123", "stage": "dev"},
		"body": "{\"id\": \"from-body\", \"name\": \"ada\"}"
	}`

	s3Event = `{"Records": [{
		"eventSource": "aws:s3",
		"eventName": "ObjectCreated:Put",
		"awsRegion": "us-east-1",
		"s3": {"bucket": {"name": "photos"}, "object": {"key": "cat.jpg", "size": 1024}}
	}]}`

	snsEvent = `{"Records": [{
		"EventSource": "aws:sns",
		"Sns": {
			"MessageId": "m-1",
			"TopicArn": "arn:aws:sns:us-east-1:123:orders",
			"Message": "{\"orderId\": \"o-9\"}",
			"MessageAttributes": {"priority": {"Type": "String", "Value": "high"}}
		}
	}]}`

	dynamoEvent = `{"Records": [{
		"eventSource": "aws:dynamodb",
		"eventName": "MODIFY",
		"dynamodb": {
			"Keys": {"pk": {"S": "user#1"}},
			"NewImage": {"pk": {"S": "user#1"}, "email": {"S": "ada@example.com"}},
			"StreamViewType": "NEW_AND_OLD_IMAGES"
		}
	}]}`

	eventBridgeEvent = `{
		"version": "0",
		"id": "e-1",
		"detail-type": "UserSignedUp",
		"source": "app.users",
		"account": "123",
		"region": "us-east-1",
		"detail": {"userId": "u-1"}
	}`
)

func newProvider(opts ...invoke.Option) *invoke.Provider {
	return New(nil, opts...)
}

func echo(_ context.Context, args invoke.Args) (any, error) {
	return args.At(0).Interface(), nil
}

func TestAdapters_Selection(t *testing.T) {
	p := newProvider()

	tests := map[string]struct {
		raw  string
		want string
	}{
		"api gateway":  {gatewayEvent, "apiGateway"},
		"s3":           {s3Event, "s3"},
		"sns":          {snsEvent, "sns"},
		"dynamodb":     {dynamoEvent, "dynamoDB"},
		"eventbridge":  {eventBridgeEvent, "eventBridge"},
		"direct call":  {`{"name": "ada"}`, "lambdaCall"},
		"empty object": {`{}`, "lambdaCall"},
		"gateway with records": {
			`{"requestContext": {"apiId": "x"}, "Records": [{"eventSource": "aws:s3"}]}`,
			"apiGateway",
		},
		"unknown record source": {`{"Records": [{"eventSource": "aws:kinesis"}]}`, "lambdaCall"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			a, err := p.Select(invoke.NewEnvelope([]byte(tt.raw), nil))
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.Name())
		})
	}

	t.Run("non-object payload", func(t *testing.T) {
		_, err := p.Select(invoke.NewEnvelope([]byte(`"just a string"`), nil))
		assert.ErrorIs(t, err, invoke.ErrNoAdapter)
	})
}

type APIGatewaySuite struct {
	suite.Suite
	p *invoke.Provider
}

func TestAPIGatewaySuite(t *testing.T) {
	suite.Run(t, new(APIGatewaySuite))
}

func (s *APIGatewaySuite) SetupTest() {
	s.p = newProvider()
}

func (s *APIGatewaySuite) handle(svc *invoke.Service) events.APIGatewayProxyResponse {
	out, err := s.p.Handle(context.Background(), svc, invoke.NewEnvelope([]byte(gatewayEvent), nil))
	s.Require().NoError(err)
	resp, ok := out.(events.APIGatewayProxyResponse)
	s.Require().True(ok, "got %T", out)
	return resp
}

func (s *APIGatewaySuite) TestBodyWinsOverQuery() {
	resp := s.handle(invoke.NewService("id", echo, invoke.Param("id")))
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("from-body", resp.Body)
}

func (s *APIGatewaySuite) TestFallsThroughHolders() {
	resp := s.handle(invoke.NewService("verbose", echo, invoke.Param("verbose")))
	s.Equal("true", resp.Body)

	resp = s.handle(invoke.NewService("auth", echo, invoke.Param("authorization")))
	s.Equal("Bearer t", resp.Body)
}

func (s *APIGatewaySuite) TestExplicitSourceBypassesChain() {
	resp := s.handle(invoke.NewService("id", echo, invoke.Param("id").In("headers")))
	s.Equal("from-headers", resp.Body)

	resp = s.handle(invoke.NewService("id", echo, invoke.Param("id").In("pathParameters")))
	s.Equal("7", resp.Body)

	resp = s.handle(invoke.NewService("stage", echo, invoke.Param("requestContext.stage").In("")))
	s.Equal("dev", resp.Body)
}

func (s *APIGatewaySuite) TestResponseShapedPassesThrough() {
	shaped := map[string]any{"statusCode": 201, "body": "ok"}
	svc := invoke.NewService("created", func(context.Context, invoke.Args) (any, error) {
		return shaped, nil
	})

	out, err := s.p.Handle(context.Background(), svc, invoke.NewEnvelope([]byte(gatewayEvent), nil))
	s.Require().NoError(err)
	s.Equal(shaped, out)
}

func (s *APIGatewaySuite) TestTypedResponsePassesThrough() {
	want := events.APIGatewayProxyResponse{StatusCode: http.StatusAccepted, Body: "queued"}
	svc := invoke.NewService("accepted", func(context.Context, invoke.Args) (any, error) {
		return want, nil
	})
	s.Equal(want, s.handle(svc))
}

func (s *APIGatewaySuite) TestResultWrappedIn200() {
	svc := invoke.NewService("value", func(context.Context, invoke.Args) (any, error) {
		return map[string]any{"value": 42}, nil
	})
	resp := s.handle(svc)

	s.Equal(http.StatusOK, resp.StatusCode)
	s.JSONEq(`{"value":42}`, resp.Body)
}

func (s *APIGatewaySuite) TestHandlerErrorBecomes500() {
	svc := invoke.NewService("boom", func(context.Context, invoke.Args) (any, error) {
		return nil, errors.New("boom")
	})
	resp := s.handle(svc)

	s.Equal(http.StatusInternalServerError, resp.StatusCode)
	s.True(gjson.Valid(resp.Body))
	s.Equal("boom", gjson.Get(resp.Body, "errorMessage").String())
	s.Equal("*errors.errorString", gjson.Get(resp.Body, "errorType").String())
}

func (s *APIGatewaySuite) TestHandlerPanicBecomes500() {
	svc := invoke.NewService("panics", func(context.Context, invoke.Args) (any, error) {
		panic("kaboom")
	})
	resp := s.handle(svc)

	s.Equal(http.StatusInternalServerError, resp.StatusCode)
	s.Contains(gjson.Get(resp.Body, "errorMessage").String(), "kaboom")
}

func (s *APIGatewaySuite) TestEventKind() {
	var got events.APIGatewayProxyRequest
	svc := invoke.NewService("event", invoke.Bind1(func(_ context.Context, req events.APIGatewayProxyRequest) (string, error) {
		got = req
		return req.HTTPMethod, nil
	}), invoke.Event())

	resp := s.handle(svc)

	s.Equal("POST", resp.Body)
	s.Equal("abc123", got.RequestContext.APIID)
	s.Equal("7", got.PathParameters["id"])
}

func TestRecordAdapters_Params(t *testing.T) {
	p := newProvider()

	tests := map[string]struct {
		raw   string
		param invoke.Parameter
		want  string
	}{
		"s3 object key":           {s3Event, invoke.Param("object.key"), "cat.jpg"},
		"s3 bucket":               {s3Event, invoke.Param("bucket.name"), "photos"},
		"s3 record field":         {s3Event, invoke.Param("awsRegion"), "us-east-1"},
		"sns expanded message":    {snsEvent, invoke.Param("orderId"), "o-9"},
		"sns attribute":           {snsEvent, invoke.Param("priority.Value"), "high"},
		"sns envelope field":      {snsEvent, invoke.Param("TopicArn"), "arn:aws:sns:us-east-1:123:orders"},
		"dynamodb new image":      {dynamoEvent, invoke.Param("email.S"), "ada@example.com"},
		"dynamodb stream field":   {dynamoEvent, invoke.Param("StreamViewType"), "NEW_AND_OLD_IMAGES"},
		"dynamodb record field":   {dynamoEvent, invoke.Param("eventName"), "MODIFY"},
		"dynamodb explicit keys":  {dynamoEvent, invoke.Param("pk.S").In("Records.0.dynamodb.Keys"), "user#1"},
		"eventbridge detail":      {eventBridgeEvent, invoke.Param("userId"), "u-1"},
		"eventbridge envelope":    {eventBridgeEvent, invoke.Param("detail-type"), "UserSignedUp"},
		"direct call":             {`{"user": {"name": "ada"}}`, invoke.Param("user.name"), "ada"},
		"direct call array index": {`{"items": ["a", "b"]}`, invoke.Param("items.1"), "b"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			out, err := p.Handle(context.Background(), invoke.NewService("echo", echo, tt.param), invoke.NewEnvelope([]byte(tt.raw), nil))
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestRecordAdapters_EventKind(t *testing.T) {
	p := newProvider()
	capture := func(dst *any) *invoke.Service {
		return invoke.NewService("event", func(_ context.Context, args invoke.Args) (any, error) {
			*dst = args.At(0).Interface()
			return nil, nil
		}, invoke.Event())
	}

	t.Run("s3", func(t *testing.T) {
		var got any
		_, err := p.Handle(context.Background(), capture(&got), invoke.NewEnvelope([]byte(s3Event), nil))
		require.NoError(t, err)

		ev, ok := got.(events.S3Event)
		require.True(t, ok)
		require.Len(t, ev.Records, 1)
		assert.Equal(t, "cat.jpg", ev.Records[0].S3.Object.Key)
	})

	t.Run("sns", func(t *testing.T) {
		var got any
		_, err := p.Handle(context.Background(), capture(&got), invoke.NewEnvelope([]byte(snsEvent), nil))
		require.NoError(t, err)

		ev, ok := got.(events.SNSEvent)
		require.True(t, ok)
		assert.Equal(t, "m-1", ev.Records[0].SNS.MessageID)
	})

	t.Run("dynamodb", func(t *testing.T) {
		var got any
		_, err := p.Handle(context.Background(), capture(&got), invoke.NewEnvelope([]byte(dynamoEvent), nil))
		require.NoError(t, err)

		ev, ok := got.(events.DynamoDBEvent)
		require.True(t, ok)
		assert.Equal(t, "ada@example.com", ev.Records[0].Change.NewImage["email"].String())
	})

	t.Run("eventbridge", func(t *testing.T) {
		var got any
		_, err := p.Handle(context.Background(), capture(&got), invoke.NewEnvelope([]byte(eventBridgeEvent), nil))
		require.NoError(t, err)

		ev, ok := got.(events.CloudWatchEvent)
		require.True(t, ok)
		assert.Equal(t, "UserSignedUp", ev.DetailType)
		assert.JSONEq(t, `{"userId": "u-1"}`, string(ev.Detail))
	})
}

func TestRecordAdapters_HandlerErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	svc := invoke.NewService("boom", func(context.Context, invoke.Args) (any, error) { return nil, boom })

	_, err := newProvider().Handle(context.Background(), svc, invoke.NewEnvelope([]byte(s3Event), nil))

	var herr *invoke.HandlerError
	require.ErrorAs(t, err, &herr)
	assert.ErrorIs(t, err, boom)
}

func TestRecordAdapters_ResultPassesThrough(t *testing.T) {
	svc := invoke.NewService("result", func(context.Context, invoke.Args) (any, error) {
		return map[string]int{"processed": 1}, nil
	})

	out, err := newProvider().Handle(context.Background(), svc, invoke.NewEnvelope([]byte(snsEvent), nil))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"processed": 1}, out)
}
