package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/BerylCAtieno/profilegen/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, req models.GenerationRequest) ([]models.ProfileSuggestion, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ProfileSuggestion), args.Error(1)
}

func newTestRouter(gen Generator) *gin.Engine {
	return NewRouter(NewProfileHandler(gen), RouterConfig{MetricsEnabled: true})
}

func doRequest(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func assertCORS(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, corsAllowHeaders, rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestGenerateProfiles_Success(t *testing.T) {
	gen := new(MockGenerator)
	want := []models.ProfileSuggestion{
		{Username: "brew_master", Bio: "Coffee first", ImageURL: "data:image/png;base64,AAAA"},
		{Username: "latte_lab", Bio: "Foam artist", ImageURL: "https://api.dicebear.com/7.x/avataaars/svg?seed=latte_lab", Placeholder: true},
	}
	gen.On("Generate", mock.Anything, models.GenerationRequest{
		Keyword: "coffee", ShortNames: true, Count: 100, ImageStyle: models.StyleModern, ColorPalette: models.PaletteCool,
	}).Return(want, nil)

	rec := doRequest(newTestRouter(gen), http.MethodPost, "/generate-profile",
		`{"keyword":"  coffee ","shortNames":true,"count":200,"imageStyle":"modern","colorPalette":"cool"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assertCORS(t, rec)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
	assert.JSONEq(t, `{"suggestions":[
		{"username":"brew_master","bio":"Coffee first","imageUrl":"data:image/png;base64,AAAA"},
		{"username":"latte_lab","bio":"Foam artist","imageUrl":"https://api.dicebear.com/7.x/avataaars/svg?seed=latte_lab"}
	]}`, rec.Body.String())
	gen.AssertExpectations(t)
}

func TestGenerateProfiles_DefaultCount(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(r models.GenerationRequest) bool {
		return r.Count == models.DefaultCount && r.Keyword == "coffee"
	})).Return([]models.ProfileSuggestion(nil), nil)

	rec := doRequest(newTestRouter(gen), http.MethodPost, "/generate-profile", `{"keyword":"coffee"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"suggestions":[]}`, rec.Body.String())
}

func TestGenerateProfiles_CountIsClamped(t *testing.T) {
	tests := map[string]struct {
		count string
		want  int
	}{
		"null":             {count: `null`, want: models.DefaultCount},
		"exponent":         {count: `1e3`, want: models.MaxCount},
		"beyond int range": {count: `99999999999999999999`, want: models.MaxCount},
		"whole float":      {count: `4.0`, want: 4},
		"fraction":         {count: `12.7`, want: 12},
		"negative":         {count: `-5`, want: models.MinCount},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			gen := new(MockGenerator)
			gen.On("Generate", mock.Anything, mock.MatchedBy(func(r models.GenerationRequest) bool {
				return r.Count == tt.want
			})).Return([]models.ProfileSuggestion{}, nil)

			rec := doRequest(newTestRouter(gen), http.MethodPost, "/generate-profile",
				`{"keyword":"coffee","count":`+tt.count+`}`)

			assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			gen.AssertExpectations(t)
		})
	}
}

func TestGenerateProfiles_InvalidInput(t *testing.T) {
	tests := map[string]struct {
		body    string
		wantMsg string
	}{
		"empty body":         {body: ``, wantMsg: "JSON object"},
		"not json":           {body: `keyword=coffee`, wantMsg: "JSON object"},
		"missing keyword":    {body: `{"count":5}`, wantMsg: "keyword"},
		"blank keyword":      {body: `{"keyword":"   "}`, wantMsg: "keyword"},
		"count not a number": {body: `{"keyword":"coffee","count":"many"}`, wantMsg: "count"},
		"count as string":    {body: `{"keyword":"coffee","count":"5"}`, wantMsg: "count"},
		"count as bool":      {body: `{"keyword":"coffee","count":true}`, wantMsg: "count"},
		"unknown style":      {body: `{"keyword":"coffee","imageStyle":"baroque"}`, wantMsg: "imageStyle"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			gen := new(MockGenerator)
			rec := doRequest(newTestRouter(gen), http.MethodPost, "/generate-profile", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assertCORS(t, rec)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Contains(t, resp.Error, tt.wantMsg)
			gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
		})
	}
}

func TestGenerateProfiles_ProviderErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
		wantRef    bool
	}{
		{name: "rate limited", err: fmt.Errorf("%w: gateway status 429", models.ErrRateLimited), wantStatus: http.StatusTooManyRequests, wantMsg: msgRateLimited},
		{name: "quota", err: fmt.Errorf("%w: gateway status 402", models.ErrQuotaExceeded), wantStatus: http.StatusPaymentRequired, wantMsg: msgQuotaExceeded},
		{name: "malformed", err: fmt.Errorf("%w: no tool call found in response", models.ErrMalformedResponse), wantStatus: http.StatusInternalServerError, wantMsg: msgInternal, wantRef: true},
		{name: "timeout", err: fmt.Errorf("%w: context deadline exceeded", models.ErrTimedOut), wantStatus: http.StatusInternalServerError, wantMsg: msgTimedOut, wantRef: true},
		{name: "unknown", err: errors.New("gateway status 503: secret upstream detail"), wantStatus: http.StatusInternalServerError, wantMsg: msgInternal, wantRef: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := new(MockGenerator)
			gen.On("Generate", mock.Anything, mock.Anything).Return(nil, tt.err)

			rec := doRequest(newTestRouter(gen), http.MethodPost, "/generate-profile", `{"keyword":"coffee"}`)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assertCORS(t, rec)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantMsg, resp.Error)
			if tt.wantRef {
				assert.True(t, strings.HasPrefix(resp.Details, "reference: "))
			} else {
				assert.Empty(t, resp.Details)
			}
			assert.NotContains(t, rec.Body.String(), "secret upstream detail")
			assert.NotContains(t, rec.Body.String(), "goroutine")
		})
	}
}

type panicGenerator struct{}

func (panicGenerator) Generate(context.Context, models.GenerationRequest) ([]models.ProfileSuggestion, error) {
	panic("nil map write in generator")
}

func TestGenerateProfiles_PanicIsContained(t *testing.T) {
	rec := doRequest(newTestRouter(panicGenerator{}), http.MethodPost, "/generate-profile", `{"keyword":"coffee"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "nil map write")

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, msgInternal, resp.Error)
	assert.True(t, strings.HasPrefix(resp.Details, "reference: "))
}

func TestPreflight(t *testing.T) {
	rec := doRequest(newTestRouter(new(MockGenerator)), http.MethodOptions, "/generate-profile", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assertCORS(t, rec)
}

func TestHealthAndMetrics(t *testing.T) {
	router := newTestRouter(new(MockGenerator))

	rec := doRequest(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assertCORS(t, rec)

	rec = doRequest(router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "profilegen_http_requests_total")
}

func TestRequestIDIsPropagated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	newTestRouter(new(MockGenerator)).ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.ErrInvalidInput, http.StatusBadRequest},
		{fmt.Errorf("wrap: %w", models.ErrRateLimited), http.StatusTooManyRequests},
		{models.ErrQuotaExceeded, http.StatusPaymentRequired},
		{models.ErrMalformedResponse, http.StatusInternalServerError},
		{models.ErrTimedOut, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorStatus(tt.err), "ErrorStatus(%v)", tt.err)
	}
}
