package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/invoke"
)

func TestRoute(t *testing.T) {
	md := invoke.NewMetadata()
	svc := invoke.NewService("users", nil)

	assert.Equal(t, "users", Route(md, svc))

	md.Set(invoke.AttrRoute, "users", "/users/{id}/")
	assert.Equal(t, "users/{id}", Route(md, svc))
}

func TestMount(t *testing.T) {
	p := newProvider(invoke.WithDelivery(invoke.DeliverReply))

	user := invoke.NewService("user", echo, invoke.Param("id"))
	ping := invoke.NewService("ping", func(context.Context, invoke.Args) (any, error) {
		return "pong", nil
	})
	p.Metadata().Set(invoke.AttrRoute, user.Name, "users/{id}")
	p.Metadata().Set(invoke.AttrMethod, user.Name, "get")

	r := chi.NewRouter()
	Mount(r, p, "/api/", []*invoke.Service{user, ping})

	t.Run("route params become the params holder", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/42", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "42", rec.Body.String())
	})

	t.Run("declared method is enforced", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/users/42", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("route defaults to service name", func(t *testing.T) {
		for _, method := range []string{http.MethodGet, http.MethodPost} {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(method, "/api/ping", nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "pong", rec.Body.String())
		}
	})
}

func TestURLParams_WithoutRouter(t *testing.T) {
	assert.Nil(t, URLParams(httptest.NewRequest(http.MethodGet, "/", nil)))
}
