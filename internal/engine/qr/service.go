package qr

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"qrforge/internal/engine/render"
	"qrforge/internal/pkg/cache"
	"qrforge/internal/pkg/metrics"
)

// ImageSink is the durable store for rendered image bytes; Put returns a
// stable reference URL.
type ImageSink interface {
	Put(id, format string, data []byte) (string, error)
}

type ServiceOptions struct {
	ShortDomain string
	TimeBudget  time.Duration
}

// Service orchestrates a single generation: encode (or mint a short code and
// encode its URL), estimate capacity metadata, render, optionally embed a
// logo, store the bytes and persist the record.
type Service struct {
	repo       *Repository
	allocator  *Allocator
	renderer   *render.Renderer
	compositor *render.Compositor
	store      ImageSink
	cache      cache.ByteCache
	opts       ServiceOptions
	log        zerolog.Logger
}

func NewService(
	repo *Repository,
	renderer *render.Renderer,
	compositor *render.Compositor,
	store ImageSink,
	byteCache cache.ByteCache,
	opts ServiceOptions,
	log zerolog.Logger,
) *Service {
	if opts.ShortDomain == "" {
		opts.ShortDomain = "qrf.ge"
	}
	if opts.TimeBudget <= 0 {
		opts.TimeBudget = 500 * time.Millisecond
	}
	return &Service{
		repo:       repo,
		allocator:  NewAllocator(repo),
		renderer:   renderer,
		compositor: compositor,
		store:      store,
		cache:      byteCache,
		opts:       opts,
		log:        log,
	}
}

func (s *Service) Generate(ctx context.Context, req *Request, actorID string) (*GenerationResult, error) {
	start := time.Now()
	mode := req.Mode
	if mode == "" {
		mode = ModeStatic
	}

	result, err := s.generate(ctx, req, mode, actorID)
	elapsed := time.Since(start)
	metrics.GenerationSeconds.Observe(elapsed.Seconds())

	if err != nil {
		metrics.GenerationsTotal.WithLabelValues(string(mode), "failure").Inc()
		return nil, err
	}
	metrics.GenerationsTotal.WithLabelValues(string(mode), "success").Inc()

	// Budget overruns are a warning, never an error.
	if elapsed > s.opts.TimeBudget {
		s.log.Warn().
			Dur("elapsed", elapsed).
			Dur("budget", s.opts.TimeBudget).
			Str("id", result.ID).
			Msg("generation exceeded time budget")
	}
	return result, nil
}

func (s *Service) generate(ctx context.Context, req *Request, mode Mode, actorID string) (*GenerationResult, error) {
	if !ValidType(req.Type) {
		return nil, fmt.Errorf("%w: unknown qr type %q", ErrInvalidFormat, req.Type)
	}
	if mode != ModeStatic && mode != ModeDynamic {
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidFormat, mode)
	}

	style, err := normalizeStyle(req.Style)
	if err != nil {
		return nil, err
	}

	// Encoding also validates the typed data, so dynamic requests fail on
	// bad payloads before a short code is burned.
	encoded, err := Encode(req.Type, req.Data)
	if err != nil {
		return nil, err
	}

	content := encoded.Content
	var shortCode, shortURL string
	if mode == ModeDynamic {
		shortCode, err = s.allocator.Generate(ctx)
		if err != nil {
			return nil, err
		}
		shortURL = "https://" + s.opts.ShortDomain + "/" + shortCode
		content = shortURL
	}

	version := EstimateVersion(len(content), style.ErrorCorrection)
	modules := Modules(version)

	img, err := s.renderer.Render(content, render.Options{
		Size:       style.Size,
		Level:      string(style.ErrorCorrection),
		Format:     style.Format,
		Foreground: style.Foreground,
		Background: style.Background,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	if style.Logo != nil && style.Format == "png" && s.compositor != nil {
		img = s.compositor.Embed(ctx, img, render.LogoSpec{
			URL:            style.Logo.URL,
			MaxSizePercent: style.Logo.MaxSizePercent,
			Position:       string(style.Logo.Position),
		})
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	ref, err := s.store.Put(id, style.Format, img)
	if err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}
	if s.cache != nil {
		s.cache.Put(ctx, id+"."+style.Format, img)
	}

	payloadJSON, err := json.Marshal(req.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	now := time.Now()
	record := &Record{
		ID:        id,
		ShortCode: shortCode,
		Type:      string(req.Type),
		Mode:      string(mode),
		Payload:   string(payloadJSON),
		Format:    style.Format,
		Size:      style.Size,
		Version:   version,
		Modules:   modules,
		ByteSize:  len(img),
		ImageRef:  ref,
		Label:     req.Label,
		CreatedBy: actorID,
		CreatedAt: now.Unix(),
	}
	if err := s.repo.Create(record); err != nil {
		return nil, fmt.Errorf("persist record: %w", err)
	}

	return &GenerationResult{
		ID:        id,
		ImageRef:  ref,
		ShortURL:  shortURL,
		Version:   version,
		Modules:   modules,
		ByteSize:  len(img),
		CreatedAt: now.Unix(),
	}, nil
}

func (s *Service) GetRecord(id string) (*Record, error) {
	return s.repo.GetByID(id)
}

func (s *Service) ListRecords(limit, offset int) ([]*Record, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(limit, offset)
}

func normalizeStyle(style StyleOptions) (StyleOptions, error) {
	if style.Size == 0 {
		style.Size = 512
	}

	switch style.ErrorCorrection {
	case "":
		style.ErrorCorrection = ECCMedium
	case ECCLow, ECCMedium, ECCQuartile, ECCHigh:
	default:
		return style, fmt.Errorf("%w: error correction %q", ErrInvalidFormat, style.ErrorCorrection)
	}

	switch style.Format {
	case "":
		style.Format = "png"
	case "png", "svg":
	default:
		return style, fmt.Errorf("%w: image format %q", ErrInvalidFormat, style.Format)
	}

	if style.Logo != nil {
		logo := *style.Logo
		// Clamped, never exceeded.
		if logo.MaxSizePercent <= 0 || logo.MaxSizePercent > 20 {
			logo.MaxSizePercent = 20
		}
		if logo.Position == "" {
			logo.Position = LogoCenter
		}
		style.Logo = &logo
	}

	return style, nil
}
