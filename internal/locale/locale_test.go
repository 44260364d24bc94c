package locale

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNegotiator(t *testing.T, detection bool) *PathNegotiator {
	t.Helper()
	n, err := NewPathNegotiator(Options{
		Locales:   []string{"en", "zh"},
		Default:   "en",
		Detection: detection,
		Cookie:    "NEXT_LOCALE",
	})
	require.NoError(t, err)
	return n
}

func TestNewPathNegotiator_Invalid(t *testing.T) {
	_, err := NewPathNegotiator(Options{})
	assert.Error(t, err)

	_, err = NewPathNegotiator(Options{Locales: []string{"en", "zh"}, Default: "fr"})
	assert.Error(t, err)

	_, err = NewPathNegotiator(Options{Locales: []string{"en", "not a locale!"}, Default: "en"})
	assert.Error(t, err)
}

func TestSplit(t *testing.T) {
	n := newNegotiator(t, false)

	tests := []struct {
		path      string
		loc       string
		rest      string
		matched   bool
		canonical bool
	}{
		{"/", "en", "/", false, true},
		{"", "en", "/", false, true},
		{"/list", "en", "/list", false, true},
		{"/zh", "zh", "/", true, true},
		{"/zh/", "zh", "/", true, true},
		{"/zh/list/1", "zh", "/list/1", true, true},
		{"/ZH/list", "zh", "/list", true, false},
		{"/en/order", "en", "/order", true, true},
		{"/english", "en", "/english", false, true},
		{"/zhx/list", "en", "/zhx/list", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			loc, rest, matched, canonical := n.Split(tt.path)
			assert.Equal(t, tt.loc, loc)
			assert.Equal(t, tt.rest, rest)
			assert.Equal(t, tt.matched, matched)
			assert.Equal(t, tt.canonical, canonical)
		})
	}
}

func TestNegotiate(t *testing.T) {
	n := newNegotiator(t, false)

	tests := []struct {
		name     string
		target   string
		locale   string
		stripped string
		prefixed bool
		redirect string
	}{
		{"unprefixed root", "/", "en", "/", false, ""},
		{"unprefixed page", "/profile", "en", "/profile", false, ""},
		{"non-default prefix", "/zh/profile", "zh", "/profile", true, ""},
		{"default prefix is stripped", "/en/profile?tab=2", "en", "/profile", true, "/profile?tab=2"},
		{"bare default prefix", "/en", "en", "/", true, "/"},
		{"case is normalised", "/ZH/profile", "zh", "/profile", true, "/zh/profile"},
		{"case normalised at root", "/Zh", "zh", "/", true, "/zh"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			res := n.Negotiate(req)
			assert.Equal(t, tt.locale, res.Locale)
			assert.Equal(t, tt.stripped, res.Stripped)
			assert.Equal(t, tt.prefixed, res.Prefixed)
			assert.Equal(t, tt.redirect, res.Redirect)
		})
	}
}

func TestNegotiate_DetectionDisabledIgnoresBrowser(t *testing.T) {
	n := newNegotiator(t, false)

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9")
	req.AddCookie(&http.Cookie{Name: "NEXT_LOCALE", Value: "zh"})

	res := n.Negotiate(req)
	assert.Equal(t, "en", res.Locale)
	assert.Empty(t, res.Redirect)
}

func TestNegotiate_Detection(t *testing.T) {
	n := newNegotiator(t, true)

	t.Run("accept-language", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/profile?x=1", nil)
		req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
		res := n.Negotiate(req)
		assert.Equal(t, "zh", res.Locale)
		assert.Equal(t, "/zh/profile?x=1", res.Redirect)
	})

	t.Run("cookie wins over header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Language", "zh-CN")
		req.AddCookie(&http.Cookie{Name: "NEXT_LOCALE", Value: "en"})
		res := n.Negotiate(req)
		assert.Equal(t, "en", res.Locale)
		assert.Empty(t, res.Redirect)
	})

	t.Run("unsupported language falls back", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Language", "fr-FR")
		res := n.Negotiate(req)
		assert.Equal(t, "en", res.Locale)
		assert.Empty(t, res.Redirect)
	})

	t.Run("prefixed path is never detected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/zh/list", nil)
		req.Header.Set("Accept-Language", "en-US")
		res := n.Negotiate(req)
		assert.Equal(t, "zh", res.Locale)
		assert.Empty(t, res.Redirect)
	})
}

func TestNegotiate_Cookie(t *testing.T) {
	n := newNegotiator(t, true)

	req := httptest.NewRequest(http.MethodGet, "/zh/list", nil)
	res := n.Negotiate(req)
	require.Len(t, res.Cookies, 1)
	assert.Equal(t, "NEXT_LOCALE", res.Cookies[0].Name)
	assert.Equal(t, "zh", res.Cookies[0].Value)
	assert.Equal(t, "/", res.Cookies[0].Path)

	req = httptest.NewRequest(http.MethodGet, "/zh/list", nil)
	req.AddCookie(&http.Cookie{Name: "NEXT_LOCALE", Value: "zh"})
	res = n.Negotiate(req)
	assert.Empty(t, res.Cookies, "unchanged preference should not be rewritten")
}

func TestNegotiate_NoCookieWithoutDetection(t *testing.T) {
	n := newNegotiator(t, false)

	for _, target := range []string{"/", "/zh/list", "/en/list"} {
		res := n.Negotiate(httptest.NewRequest(http.MethodGet, target, nil))
		assert.Empty(t, res.Cookies, target)
	}
}

func TestLocalize(t *testing.T) {
	n := newNegotiator(t, false)

	assert.Equal(t, "/login", n.Localize("en", "/login"))
	assert.Equal(t, "/zh/login", n.Localize("zh", "/login"))
	assert.Equal(t, "/zh", n.Localize("zh", "/"))
}
