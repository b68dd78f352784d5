package azure

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"

	"github.com/bjaus/invoke"
	"github.com/bjaus/invoke/config"
	"github.com/bjaus/invoke/provider/web"
)

func load(t *testing.T, values map[string]string) *config.Config {
	t.Helper()
	cfg, err := config.Load(config.WithValues(values))
	require.NoError(t, err)
	return cfg
}

type TargetSuite struct {
	suite.Suite
	md  *invoke.Metadata
	svc *invoke.Service
}

func TestTargetSuite(t *testing.T) {
	suite.Run(t, new(TargetSuite))
}

func (s *TargetSuite) SetupTest() {
	s.md = invoke.NewMetadata()
	s.svc = invoke.NewService("user-profile", nil)
}

func (s *TargetSuite) cfg(values map[string]string) *config.Config {
	return load(s.T(), values)
}

func (s *TargetSuite) TestRouteDefaultsToServiceName() {
	cfg := s.cfg(map[string]string{config.KeyBaseURL: "https://fn.example.com/", config.KeyAccessKey: "k"})

	req, err := Target(cfg)(s.svc, s.md)

	s.Require().NoError(err)
	s.Equal("https://fn.example.com/api/user-profile", req.Target)
	s.Equal(http.MethodPost, req.Method)
	s.Equal("k", req.Header[KeyHeader])
}

func (s *TargetSuite) TestDeclaredRouteAndMethod() {
	cfg := s.cfg(map[string]string{config.KeyBaseURL: "https://fn.example.com", config.KeyAccessKey: "k"})
	s.md.Set(invoke.AttrRoute, s.svc.Name, "profiles")
	s.md.Set(invoke.AttrMethod, s.svc.Name, "put")

	req, err := Target(cfg)(s.svc, s.md)

	s.Require().NoError(err)
	s.Equal("https://fn.example.com/api/profiles", req.Target)
	s.Equal(http.MethodPut, req.Method)
}

func (s *TargetSuite) TestOverrideReplacesRoute() {
	cfg := s.cfg(map[string]string{
		config.KeyBaseURL:                 "https://fn.example.com",
		config.KeyAccessKey:               "k",
		"FUNCTIONAL_SERVICE_USER_PROFILE": "profiles-v2",
	})
	s.md.Set(invoke.AttrRoute, s.svc.Name, "profiles")

	req, err := Target(cfg)(s.svc, s.md)

	s.Require().NoError(err)
	s.Equal("https://fn.example.com/api/profiles-v2", req.Target)
}

func (s *TargetSuite) TestMissingAccessKey() {
	cfg := s.cfg(map[string]string{config.KeyBaseURL: "https://fn.example.com", config.KeyAccessKey: ""})

	for _, level := range []string{"", AuthFunction, AuthAdmin} {
		if level != "" {
			s.md.Set(invoke.AttrAuthLevel, s.svc.Name, level)
		}
		_, err := Target(cfg)(s.svc, s.md)

		var cfgErr *invoke.ConfigurationError
		s.Require().ErrorAs(err, &cfgErr, level)
		s.Equal(config.KeyAccessKey, cfgErr.Key)
	}
}

func (s *TargetSuite) TestAnonymousNeedsNoKey() {
	cfg := s.cfg(map[string]string{config.KeyBaseURL: "https://fn.example.com", config.KeyAccessKey: ""})
	s.md.Set(invoke.AttrAuthLevel, s.svc.Name, "Anonymous")

	req, err := Target(cfg)(s.svc, s.md)

	s.Require().NoError(err)
	s.Empty(req.Header)
}

func (s *TargetSuite) TestMissingBaseURL() {
	_, err := Target(s.cfg(nil))(s.svc, s.md)

	var cfgErr *invoke.ConfigurationError
	s.Require().ErrorAs(err, &cfgErr)
	s.Equal(config.KeyBaseURL, cfgErr.Key)
}

func (s *TargetSuite) TestPreflight() {
	cfg := s.cfg(map[string]string{config.KeyBaseURL: "https://fn.example.com", config.KeyAccessKey: ""})
	open := invoke.NewService("open", nil)
	s.md.Set(invoke.AttrAuthLevel, open.Name, AuthAnonymous)

	s.NoError(Preflight(cfg, s.md, open))

	var cfgErr *invoke.ConfigurationError
	s.ErrorAs(Preflight(cfg, s.md, open, s.svc), &cfgErr)
}

func TestInvoke(t *testing.T) {
	var gotKey, gotPath string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get(KeyHeader)
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"greeting": "hello ada"}`))
	}))
	defer srv.Close()

	cfg := load(t, map[string]string{config.KeyBaseURL: srv.URL, config.KeyAccessKey: "secret"})
	p := New(cfg)
	svc := invoke.NewService("greet", nil)

	got, err := p.Invoke(context.Background(), svc, map[string]string{"name": "ada"})
	require.NoError(t, err)

	assert.Equal(t, "hello ada", got.Get("greeting").String())
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "/api/greet", gotPath)
	assert.JSONEq(t, `{"name": "ada"}`, string(gotBody))
}

func TestRouter(t *testing.T) {
	p := New(load(t, nil))

	greet := invoke.NewService("greet",
		invoke.Bind1(func(_ context.Context, name string) (string, error) {
			return "hello " + name, nil
		}),
		invoke.Param("name"),
	)
	fail := invoke.NewService("fail", func(context.Context, invoke.Args) (any, error) {
		return nil, errors.New("boom")
	})
	created := invoke.NewService("created", func(context.Context, invoke.Args) (any, error) {
		return web.Response{Status: http.StatusCreated, Body: `{"id": 1}`}, nil
	})
	h := Router(p, greet, fail, created)

	t.Run("result is wrapped in 200", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/greet", strings.NewReader(`{"name": "ada"}`)))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "hello ada", rec.Body.String())
	})

	t.Run("handler error becomes 500", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/fail", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "boom", gjson.Get(rec.Body.String(), "errorMessage").String())
	})

	t.Run("shaped response passes through", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/created", nil))

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.JSONEq(t, `{"id": 1}`, rec.Body.String())
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	})

	t.Run("unknown route", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestListenAddress(t *testing.T) {
	assert.Equal(t, ":3000", ListenAddress(load(t, nil)))
	assert.Equal(t, ":7071", ListenAddress(load(t, map[string]string{"FUNCTIONS_CUSTOMHANDLER_PORT": "7071"})))
	assert.Equal(t, ":8080", ListenAddress(nil))
}
