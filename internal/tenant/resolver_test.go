package tenant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeHost(t *testing.T) {
	tests := map[string]string{
		"marerex.com":       "marerex.com",
		"Marerex.COM":       "marerex.com",
		"marerex.com:8443":  "marerex.com",
		"marerex.com.":      "marerex.com",
		" shop.example.io ": "shop.example.io",
		"[::1]:3000":        "::1",
		"":                  "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeHost(in), in)
	}
}

func TestCandidates(t *testing.T) {
	assert.Nil(t, Candidates(""))
	assert.Equal(t, []string{"marerex.com"}, Candidates("marerex.com"))
	assert.Equal(t,
		[]string{"a.b.example.com", "*.b.example.com", "*.example.com"},
		Candidates("a.b.example.com"),
	)
	assert.Equal(t,
		[]string{"shop.example.co.uk", "*.example.co.uk"},
		Candidates("shop.example.co.uk"),
	)
	assert.Equal(t, []string{"localhost"}, Candidates("localhost"))
}

func TestStaticResolver(t *testing.T) {
	r := NewStaticResolver(map[string]string{
		"marerex.com":        "enterprise",
		"junyos.com":         "default",
		"*.corp.example.com": "enterprise",
		"*.example.com":      "default",
		"VIP.Example.com":    "enterprise",
	})

	tests := []struct {
		host    string
		want    string
		wantErr error
	}{
		{"marerex.com", "enterprise", nil},
		{"marerex.com:3000", "enterprise", nil},
		{"junyos.com", "default", nil},
		{"a.corp.example.com", "enterprise", nil},
		{"shop.example.com", "default", nil},
		{"vip.example.com", "enterprise", nil},
		{"example.com", "", ErrNotFound},
		{"unknown.org", "", ErrNotFound},
		{"", "", ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			got, err := r.ResolveTemplateForHost(context.Background(), tt.host)
			assert.Equal(t, tt.want, got)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestChain(t *testing.T) {
	boom := errors.New("backend down")
	miss := ResolverFunc(func(context.Context, string) (string, error) { return "", ErrNotFound })
	fail := ResolverFunc(func(context.Context, string) (string, error) { return "", boom })
	hit := ResolverFunc(func(context.Context, string) (string, error) { return "enterprise", nil })

	t.Run("first hit wins", func(t *testing.T) {
		got, err := Chain{miss, hit, fail}.ResolveTemplateForHost(context.Background(), "x.com")
		assert.NoError(t, err)
		assert.Equal(t, "enterprise", got)
	})

	t.Run("error does not stop the walk", func(t *testing.T) {
		got, err := Chain{fail, hit}.ResolveTemplateForHost(context.Background(), "x.com")
		assert.NoError(t, err)
		assert.Equal(t, "enterprise", got)
	})

	t.Run("error surfaces when nothing resolves", func(t *testing.T) {
		_, err := Chain{fail, miss}.ResolveTemplateForHost(context.Background(), "x.com")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("all misses", func(t *testing.T) {
		_, err := Chain{miss, miss}.ResolveTemplateForHost(context.Background(), "x.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty chain", func(t *testing.T) {
		_, err := Chain{}.ResolveTemplateForHost(context.Background(), "x.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
