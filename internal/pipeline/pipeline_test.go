package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/BerylCAtieno/profilegen/internal/avatar"
	"github.com/BerylCAtieno/profilegen/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockText struct {
	mock.Mock
}

func (m *MockText) GenerateProfiles(ctx context.Context, req models.TextRequest) ([]models.ProfileCandidate, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ProfileCandidate), args.Error(1)
}

type MockImages struct {
	mock.Mock
}

func (m *MockImages) GenerateAvatar(ctx context.Context, req models.ImageRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// funcImages lets a test decide the outcome per username.
type funcImages struct {
	mu    sync.Mutex
	calls []string
	fn    func(ctx context.Context, req models.ImageRequest) (string, error)
}

func (f *funcImages) GenerateAvatar(ctx context.Context, req models.ImageRequest) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req.Username)
	f.mu.Unlock()
	return f.fn(ctx, req)
}

func candidates(n int) []models.ProfileCandidate {
	out := make([]models.ProfileCandidate, n)
	for i := range out {
		out[i] = models.ProfileCandidate{Username: fmt.Sprintf("user_%d", i), Bio: fmt.Sprintf("bio %d", i)}
	}
	return out
}

func request(t *testing.T, count int) models.GenerationRequest {
	t.Helper()
	req, err := models.NewGenerationRequest("coffee", false, &count, "vibrant", "warm")
	require.NoError(t, err)
	return req
}

func TestGenerate_AllImagesSucceed(t *testing.T) {
	text := new(MockText)
	images := new(MockImages)
	req := request(t, 3)

	text.On("GenerateProfiles", mock.Anything, models.TextRequest{Keyword: "coffee", Count: 3}).Return(candidates(3), nil)
	for i := 0; i < 3; i++ {
		username := fmt.Sprintf("user_%d", i)
		images.On("GenerateAvatar", mock.Anything, models.ImageRequest{
			Keyword: "coffee", Username: username, Style: models.StyleVibrant, Palette: models.PaletteWarm,
		}).Return("data:image/png;base64,"+username, nil).Once()
	}

	got, err := New(text, images, Options{}).Generate(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, s := range got {
		assert.Equal(t, fmt.Sprintf("user_%d", i), s.Username)
		assert.Equal(t, fmt.Sprintf("bio %d", i), s.Bio)
		assert.Equal(t, "data:image/png;base64,"+s.Username, s.ImageURL)
		assert.False(t, s.Placeholder)
	}
	text.AssertExpectations(t)
	images.AssertExpectations(t)
}

func TestGenerate_AllImagesFail(t *testing.T) {
	text := new(MockText)
	text.On("GenerateProfiles", mock.Anything, mock.Anything).Return(candidates(5), nil)

	images := &funcImages{fn: func(context.Context, models.ImageRequest) (string, error) {
		return "", errors.New("gateway status 500: boom")
	}}

	got, err := New(text, images, Options{}).Generate(context.Background(), request(t, 5))
	require.NoError(t, err)
	require.Len(t, got, 5)
	for i, s := range got {
		assert.Equal(t, fmt.Sprintf("user_%d", i), s.Username)
		assert.Equal(t, avatar.URL(s.Username), s.ImageURL)
		assert.True(t, s.Placeholder)
	}
	assert.Len(t, images.calls, 5)
}

func TestGenerate_MixedImageFailures(t *testing.T) {
	text := new(MockText)
	text.On("GenerateProfiles", mock.Anything, mock.Anything).Return(candidates(4), nil)

	images := &funcImages{fn: func(_ context.Context, req models.ImageRequest) (string, error) {
		switch req.Username {
		case "user_1":
			return "", models.ErrNoImage
		case "user_2":
			return "   ", nil
		case "user_3":
			panic("provider bug")
		}
		return "https://img.example/" + req.Username, nil
	}}

	got, err := New(text, images, Options{}).Generate(context.Background(), request(t, 4))
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, "https://img.example/user_0", got[0].ImageURL)
	for _, s := range got[1:] {
		assert.Equal(t, avatar.URL(s.Username), s.ImageURL)
	}
}

func TestGenerate_ImageTimeoutUsesPlaceholder(t *testing.T) {
	text := new(MockText)
	text.On("GenerateProfiles", mock.Anything, mock.Anything).Return(candidates(3), nil)

	images := &funcImages{fn: func(ctx context.Context, _ models.ImageRequest) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}

	got, err := New(text, images, Options{ImageTimeout: 10 * time.Millisecond}).Generate(context.Background(), request(t, 3))
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, s := range got {
		assert.Equal(t, avatar.URL(s.Username), s.ImageURL)
	}
}

func TestGenerate_StageAFailuresSkipImages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "rate limited", err: fmt.Errorf("%w: gateway status 429", models.ErrRateLimited), want: models.ErrRateLimited},
		{name: "quota exceeded", err: fmt.Errorf("%w: gateway status 402", models.ErrQuotaExceeded), want: models.ErrQuotaExceeded},
		{name: "malformed", err: fmt.Errorf("%w: missing suggestions array", models.ErrMalformedResponse), want: models.ErrMalformedResponse},
		{name: "deadline", err: fmt.Errorf("gateway request failed: %w", context.DeadlineExceeded), want: models.ErrTimedOut},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := new(MockText)
			images := new(MockImages)
			text.On("GenerateProfiles", mock.Anything, mock.Anything).Return(nil, tt.err)

			got, err := New(text, images, Options{}).Generate(context.Background(), request(t, 3))
			assert.Nil(t, got)
			assert.ErrorIs(t, err, tt.want)
			images.AssertNotCalled(t, "GenerateAvatar", mock.Anything, mock.Anything)
		})
	}
}

func TestGenerate_TextTimeout(t *testing.T) {
	text := new(MockText)
	text.On("GenerateProfiles", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.DeadlineExceeded)
	images := new(MockImages)

	_, err := New(text, images, Options{TextTimeout: 10 * time.Millisecond}).Generate(context.Background(), request(t, 3))
	assert.ErrorIs(t, err, models.ErrTimedOut)
	images.AssertNotCalled(t, "GenerateAvatar", mock.Anything, mock.Anything)
}

func TestGenerate_FewerAndMoreCandidates(t *testing.T) {
	images := &funcImages{fn: func(_ context.Context, req models.ImageRequest) (string, error) {
		return "https://img.example/" + req.Username, nil
	}}

	fewer := new(MockText)
	fewer.On("GenerateProfiles", mock.Anything, mock.Anything).Return(candidates(2), nil)
	got, err := New(fewer, images, Options{}).Generate(context.Background(), request(t, 5))
	require.NoError(t, err)
	assert.Len(t, got, 2)

	more := new(MockText)
	more.On("GenerateProfiles", mock.Anything, mock.Anything).Return(candidates(7), nil)
	got, err = New(more, images, Options{}).Generate(context.Background(), request(t, 3))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "user_2", got[2].Username)
}

func TestGenerate_ParallelPreservesOrder(t *testing.T) {
	text := new(MockText)
	text.On("GenerateProfiles", mock.Anything, mock.Anything).Return(candidates(20), nil)

	images := &funcImages{fn: func(_ context.Context, req models.ImageRequest) (string, error) {
		var i int
		_, _ = fmt.Sscanf(req.Username, "user_%d", &i)
		// Later candidates finish first.
		time.Sleep(time.Duration(20-i) * time.Millisecond)
		if i%3 == 0 {
			return "", errors.New("boom")
		}
		return "https://img.example/" + req.Username, nil
	}}

	got, err := New(text, images, Options{ImageConcurrency: 6}).Generate(context.Background(), request(t, 20))
	require.NoError(t, err)
	require.Len(t, got, 20)
	for i, s := range got {
		assert.Equal(t, fmt.Sprintf("user_%d", i), s.Username)
		if i%3 == 0 {
			assert.Equal(t, avatar.URL(s.Username), s.ImageURL)
		} else {
			assert.Equal(t, "https://img.example/"+s.Username, s.ImageURL)
		}
	}
	assert.Len(t, images.calls, 20)
}

func TestGenerate_SequentialCallsInOrder(t *testing.T) {
	text := new(MockText)
	text.On("GenerateProfiles", mock.Anything, mock.Anything).Return(candidates(5), nil)
	images := &funcImages{fn: func(context.Context, models.ImageRequest) (string, error) { return "x", nil }}

	_, err := New(text, images, Options{}).Generate(context.Background(), request(t, 5))
	require.NoError(t, err)
	assert.Equal(t, []string{"user_0", "user_1", "user_2", "user_3", "user_4"}, images.calls)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", outcome(nil))
	assert.Equal(t, "rate_limited", outcome(models.ErrRateLimited))
	assert.Equal(t, "quota_exceeded", outcome(models.ErrQuotaExceeded))
	assert.Equal(t, "malformed", outcome(models.ErrMalformedResponse))
	assert.Equal(t, "no_image", outcome(models.ErrNoImage))
	assert.Equal(t, "timeout", outcome(fmt.Errorf("wrapped: %w", context.DeadlineExceeded)))
	assert.Equal(t, "error", outcome(errors.New("boom")))
}
