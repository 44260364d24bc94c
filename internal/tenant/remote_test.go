package tenant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"portal_gateway/internal/apiclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func merchantServer(t *testing.T, sites map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != SiteConfigPath {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		domain := r.URL.Query().Get("domain")
		if domain == "explode.io" {
			json.NewEncoder(w).Encode(map[string]any{"code": 5001, "message": "internal error"})
			return
		}
		tpl, ok := sites[domain]
		if !ok {
			json.NewEncoder(w).Encode(map[string]any{"code": 3001, "message": "merchant not found"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"code": 200, "message": "ok", "data": map[string]string{"template": tpl}})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRemoteResolver(t *testing.T) {
	srv := merchantServer(t, map[string]string{"marerex.com": "enterprise", "blank.io": ""})
	r := NewRemoteResolver(apiclient.New(apiclient.Options{BaseURL: srv.URL}))

	got, err := r.ResolveTemplateForHost(context.Background(), "MAREREX.com:443")
	require.NoError(t, err)
	assert.Equal(t, "enterprise", got)

	_, err = r.ResolveTemplateForHost(context.Background(), "unknown.org")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.ResolveTemplateForHost(context.Background(), "blank.io")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.ResolveTemplateForHost(context.Background(), "explode.io")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestRemoteResolver_EndpointMissing(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	r := NewRemoteResolver(apiclient.New(apiclient.Options{BaseURL: srv.URL}))
	_, err := r.ResolveTemplateForHost(context.Background(), "marerex.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
