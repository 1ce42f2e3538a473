// Package pipeline turns a keyword into profile suggestions: one text
// generation call for username/bio candidates, then one image generation
// call per candidate with a placeholder avatar on any failure.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/BerylCAtieno/profilegen/internal/avatar"
	"github.com/BerylCAtieno/profilegen/internal/models"
	"github.com/BerylCAtieno/profilegen/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultTextTimeout  = 60 * time.Second
	DefaultImageTimeout = 60 * time.Second
)

type TextGenerator interface {
	GenerateProfiles(ctx context.Context, req models.TextRequest) ([]models.ProfileCandidate, error)
}

type ImageGenerator interface {
	GenerateAvatar(ctx context.Context, req models.ImageRequest) (string, error)
}

type Options struct {
	TextTimeout  time.Duration
	ImageTimeout time.Duration
	// ImageConcurrency bounds parallel image calls; 1 keeps them sequential.
	ImageConcurrency int
}

type Generator struct {
	text   TextGenerator
	images ImageGenerator
	opts   Options
}

func New(text TextGenerator, images ImageGenerator, opts Options) *Generator {
	if opts.TextTimeout <= 0 {
		opts.TextTimeout = DefaultTextTimeout
	}
	if opts.ImageTimeout <= 0 {
		opts.ImageTimeout = DefaultImageTimeout
	}
	if opts.ImageConcurrency < 1 {
		opts.ImageConcurrency = 1
	}
	return &Generator{text: text, images: images, opts: opts}
}

var tracer = otel.Tracer("github.com/BerylCAtieno/profilegen/internal/pipeline")

// Generate runs both stages. Text generation errors abort the request;
// image generation errors never do, so on success len(result) equals the
// number of candidates and result[i] belongs to candidate i.
func (g *Generator) Generate(ctx context.Context, req models.GenerationRequest) ([]models.ProfileSuggestion, error) {
	ctx, span := tracer.Start(ctx, "pipeline.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("keyword", req.Keyword),
		attribute.Int("count", req.Count),
	)

	log := observability.GetLogger(ctx)
	log.Info("generating profiles",
		zap.String("keyword", req.Keyword),
		zap.Int("count", req.Count),
		zap.Bool("short_names", req.ShortNames),
	)

	candidates, err := g.generateCandidates(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "text generation failed")
		return nil, err
	}

	suggestions := g.attachAvatars(ctx, req, candidates)

	placeholders := 0
	for _, s := range suggestions {
		if s.Placeholder {
			placeholders++
		}
	}
	span.SetAttributes(attribute.Int("suggestions", len(suggestions)), attribute.Int("placeholders", placeholders))
	log.Info("generated profiles",
		zap.Int("suggestions", len(suggestions)),
		zap.Int("placeholders", placeholders),
	)

	return suggestions, nil
}

func (g *Generator) generateCandidates(ctx context.Context, req models.GenerationRequest) ([]models.ProfileCandidate, error) {
	ctx, span := tracer.Start(ctx, "pipeline.stage_a")
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, g.opts.TextTimeout)
	defer cancel()

	candidates, err := g.text.GenerateProfiles(callCtx, req.TextRequest())
	if err != nil {
		if isTimeout(err) && !errors.Is(err, models.ErrTimedOut) {
			err = fmt.Errorf("%w: %w", models.ErrTimedOut, err)
		}
		observability.ProviderCallsTotal.WithLabelValues("text", outcome(err)).Inc()
		observability.GetLogger(ctx).Error("text generation failed", zap.Error(err))
		span.RecordError(err)
		return nil, err
	}
	observability.ProviderCallsTotal.WithLabelValues("text", "ok").Inc()

	if len(candidates) > req.Count {
		candidates = candidates[:req.Count]
	}
	return candidates, nil
}

func (g *Generator) attachAvatars(ctx context.Context, req models.GenerationRequest, candidates []models.ProfileCandidate) []models.ProfileSuggestion {
	out := make([]models.ProfileSuggestion, len(candidates))

	if g.opts.ImageConcurrency == 1 {
		for i, c := range candidates {
			out[i] = g.suggestionFor(ctx, req, c)
		}
		return out
	}

	// Workers write only their own index and never return an error, so one
	// failed image cannot cancel its siblings.
	var eg errgroup.Group
	eg.SetLimit(g.opts.ImageConcurrency)
	for i, c := range candidates {
		eg.Go(func() error {
			out[i] = g.suggestionFor(ctx, req, c)
			return nil
		})
	}
	_ = eg.Wait()
	return out
}

func (g *Generator) suggestionFor(ctx context.Context, req models.GenerationRequest, c models.ProfileCandidate) models.ProfileSuggestion {
	ctx, span := tracer.Start(ctx, "pipeline.avatar")
	defer span.End()

	s := models.ProfileSuggestion{Username: c.Username, Bio: c.Bio}

	url, err := g.requestAvatar(ctx, req.ImageRequest(c.Username))
	if err == nil && strings.TrimSpace(url) == "" {
		err = models.ErrNoImage
	}
	if err != nil {
		reason := outcome(err)
		observability.ProviderCallsTotal.WithLabelValues("image", reason).Inc()
		observability.AvatarFallbacksTotal.WithLabelValues(reason).Inc()
		observability.GetLogger(ctx).Warn("image generation failed, using placeholder",
			zap.String("username", c.Username),
			zap.String("reason", reason),
			zap.Error(err),
		)
		span.SetAttributes(attribute.Bool("placeholder", true))

		s.ImageURL = avatar.URL(c.Username)
		s.Placeholder = true
		return s
	}

	observability.ProviderCallsTotal.WithLabelValues("image", "ok").Inc()
	s.ImageURL = url
	return s
}

func (g *Generator) requestAvatar(ctx context.Context, req models.ImageRequest) (url string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("image provider panic: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, g.opts.ImageTimeout)
	defer cancel()

	return g.images.GenerateAvatar(ctx, req)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// outcome is the metrics label for a provider error.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, models.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, models.ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, models.ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, models.ErrNoImage):
		return "no_image"
	case errors.Is(err, models.ErrTimedOut), isTimeout(err):
		return "timeout"
	default:
		return "error"
	}
}
