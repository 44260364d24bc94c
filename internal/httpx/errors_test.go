package httpx

import (
	"errors"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without internal err",
			err:  NewAppError(http.StatusBadRequest, CodeParamMissing, "param missing", nil),
			want: "code=2001, message=param missing",
		},
		{
			name: "error with internal err",
			err:  NewAppError(http.StatusBadGateway, CodeUpstreamError, "upstream unavailable", errors.New("dial tcp: connection refused")),
			want: "code=5003, message=upstream unavailable, err=dial tcp: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("context deadline exceeded")
	err := ErrUpstreamTimeout("", cause)
	if !errors.Is(err, cause) {
		t.Error("Expected errors.Is to reach the internal error")
	}
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantStatus int
		wantCode   int
		wantMsg    string
	}{
		{"unauthorized", ErrUnauthorized(""), http.StatusUnauthorized, CodeUnauthorized, "unauthorized"},
		{"invalid token", ErrInvalidToken(""), http.StatusUnauthorized, CodeInvalidToken, "invalid token"},
		{"param missing custom", ErrParamMissing("field 'token' is required"), http.StatusBadRequest, CodeParamMissing, "field 'token' is required"},
		{"param invalid", ErrParamInvalid(""), http.StatusBadRequest, CodeParamInvalid, "parameter format error"},
		{"not found", ErrNotFound(""), http.StatusNotFound, CodeNotFound, "resource not found"},
		{"internal", ErrInternalError("", nil), http.StatusInternalServerError, CodeInternalError, "internal error"},
		{"upstream", ErrUpstream("", nil), http.StatusBadGateway, CodeUpstreamError, "upstream unavailable"},
		{"upstream timeout", ErrUpstreamTimeout("", nil), http.StatusGatewayTimeout, CodeUpstreamTimeout, "upstream timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.HTTPStatus != tt.wantStatus {
				t.Errorf("Expected HTTP status %d, got %d", tt.wantStatus, tt.err.HTTPStatus)
			}
			if tt.err.Code != tt.wantCode {
				t.Errorf("Expected code %d, got %d", tt.wantCode, tt.err.Code)
			}
			if tt.err.Message != tt.wantMsg {
				t.Errorf("Expected message %q, got %q", tt.wantMsg, tt.err.Message)
			}
		})
	}
}

func TestErrorCodes(t *testing.T) {
	tests := []struct {
		name string
		code int
		min  int
		max  int
	}{
		{"CodeSuccess", CodeSuccess, 0, 0},
		{"CodeUnauthorized", CodeUnauthorized, 1000, 1099},
		{"CodeInvalidToken", CodeInvalidToken, 1000, 1099},
		{"CodeParamMissing", CodeParamMissing, 2000, 2099},
		{"CodeParamInvalid", CodeParamInvalid, 2000, 2099},
		{"CodeNotFound", CodeNotFound, 3000, 3999},
		{"CodeInternalError", CodeInternalError, 5000, 5999},
		{"CodeUpstreamError", CodeUpstreamError, 5000, 5999},
		{"CodeUpstreamTimeout", CodeUpstreamTimeout, 5000, 5999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.code < tt.min || tt.code > tt.max {
				t.Errorf("%s = %d, expected to be in range [%d, %d]", tt.name, tt.code, tt.min, tt.max)
			}
		})
	}
}
