package invoke

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type contextKey string

// adapterWithHooks implements the optional adapter hook interfaces.
type adapterWithHooks struct {
	testAdapter

	onSelectCalled  bool
	onSuccessCalled bool
	onFailureCalled bool
}

func (a *adapterWithHooks) OnSelect(ctx context.Context, service string) context.Context {
	a.onSelectCalled = true
	return context.WithValue(ctx, contextKey("adapter-hook"), service)
}

func (a *adapterWithHooks) OnSuccess(ctx context.Context, service string, d time.Duration) {
	a.onSuccessCalled = true
}

func (a *adapterWithHooks) OnFailure(ctx context.Context, service string, err error, d time.Duration) {
	a.onFailureCalled = true
}

var (
	_ Adapter       = (*adapterWithHooks)(nil)
	_ OnSelectHook  = (*adapterWithHooks)(nil)
	_ OnSuccessHook = (*adapterWithHooks)(nil)
	_ OnFailureHook = (*adapterWithHooks)(nil)
)

type HooksSuite struct {
	suite.Suite
	adapter *adapterWithHooks
	order   []string
}

func TestHooksSuite(t *testing.T) {
	suite.Run(t, new(HooksSuite))
}

func (s *HooksSuite) SetupTest() {
	s.adapter = &adapterWithHooks{testAdapter: testAdapter{name: "hooked", disc: IsObject()}}
	s.order = nil
}

func (s *HooksSuite) provider(opts ...Option) *Provider {
	return NewProvider("test", testRegistry(), []Adapter{s.adapter}, opts...)
}

func (s *HooksSuite) TestOnSelectCalledBeforeAdapterHook() {
	p := s.provider(WithOnSelect(func(ctx context.Context, service, adapter string) context.Context {
		s.order = append(s.order, "global:"+service+":"+adapter)
		return ctx
	}))

	_, err := p.Handle(context.Background(), NewService("svc", echo), env(`{}`))

	s.Require().NoError(err)
	s.Assert().True(s.adapter.onSelectCalled)
	s.Assert().Equal([]string{"global:svc:hooked"}, s.order)
}

func (s *HooksSuite) TestSelectContextReachesHandler() {
	var handlerCtx context.Context
	p := s.provider(WithOnSelect(func(ctx context.Context, _, _ string) context.Context {
		return context.WithValue(ctx, contextKey("global-hook"), "set")
	}))
	svc := NewService("svc", func(ctx context.Context, _ Args) (any, error) {
		handlerCtx = ctx
		return nil, nil
	})

	_, err := p.Handle(context.Background(), svc, env(`{}`))

	s.Require().NoError(err)
	s.Assert().Equal("set", handlerCtx.Value(contextKey("global-hook")))
	s.Assert().Equal("svc", handlerCtx.Value(contextKey("adapter-hook")))
}

func (s *HooksSuite) TestDispatchAndSuccess() {
	p := s.provider(
		WithOnDispatch(func(context.Context, string, string) {
			s.order = append(s.order, "dispatch")
		}),
		WithOnSuccess(func(context.Context, string, string, time.Duration) {
			s.order = append(s.order, "success")
		}),
		WithOnFailure(func(context.Context, string, string, error, time.Duration) {
			s.order = append(s.order, "failure")
		}),
	)

	_, err := p.Handle(context.Background(), NewService("svc", echo), env(`{}`))

	s.Require().NoError(err)
	s.Assert().Equal([]string{"dispatch", "success"}, s.order)
	s.Assert().True(s.adapter.onSuccessCalled)
	s.Assert().False(s.adapter.onFailureCalled)
}

func (s *HooksSuite) TestFailureHooksSeeHandlerError() {
	boom := errors.New("boom")
	var got error
	p := s.provider(WithOnFailure(func(_ context.Context, _, _ string, err error, _ time.Duration) {
		got = err
	}))
	svc := NewService("svc", func(context.Context, Args) (any, error) { return nil, boom })

	_, err := p.Handle(context.Background(), svc, env(`{}`))

	s.Assert().ErrorIs(err, boom)
	s.Assert().Same(boom, got)
	s.Assert().True(s.adapter.onFailureCalled)
}

func (s *HooksSuite) TestOnNoAdapterDoesNotSwallowError() {
	var raw []byte
	p := s.provider(WithOnNoAdapter(func(_ context.Context, _ string, r []byte) {
		raw = r
	}))

	_, err := p.Handle(context.Background(), NewService("svc", echo), env(`[]`))

	s.Assert().ErrorIs(err, ErrNoAdapter)
	s.Assert().Equal("[]", string(raw))
	s.Assert().False(s.adapter.onSelectCalled)
}

func (s *HooksSuite) TestOnResolveError() {
	var got error
	s.adapter.resolve = func(context.Context, Parameter, *Invocation) (Value, error) {
		return Undefined(), errors.New("unresolvable")
	}
	p := s.provider(
		WithOnResolveError(func(_ context.Context, _, _ string, err error) { got = err }),
		WithOnDispatch(func(context.Context, string, string) { s.order = append(s.order, "dispatch") }),
	)

	_, err := p.Handle(context.Background(), NewService("svc", echo, Param("x")), env(`{}`))

	s.Assert().Error(err)
	var rerr *ResolutionError
	s.Assert().ErrorAs(got, &rerr)
	s.Assert().Empty(s.order, "handler is not dispatched")
}

func (s *HooksSuite) TestOnTransformError() {
	var got error
	s.adapter.transform = func(context.Context, error, any, *Envelope) (any, error) {
		return nil, errors.New("cannot shape")
	}
	p := s.provider(WithOnTransformError(func(_ context.Context, _, _ string, err error) { got = err }))

	_, err := p.Handle(context.Background(), NewService("svc", echo), env(`{}`))

	s.Assert().Error(err)
	s.Assert().EqualError(got, "cannot shape")
}

func (s *HooksSuite) TestMultipleHooksCalledInOrder() {
	p := s.provider(
		WithOnSuccess(func(context.Context, string, string, time.Duration) { s.order = append(s.order, "first") }),
		WithOnSuccess(func(context.Context, string, string, time.Duration) { s.order = append(s.order, "second") }),
	)

	_, err := p.Handle(context.Background(), NewService("svc", echo), env(`{}`))

	s.Require().NoError(err)
	s.Assert().Equal([]string{"first", "second"}, s.order)
}
