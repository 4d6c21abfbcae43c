package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/mgalindo/thumbview/internal/models"
	"github.com/mgalindo/thumbview/resolver"
	"github.com/mgalindo/thumbview/transform"
)

type PregenConfig struct {
	// DirOriginalsRoot anchors relative source paths from queue
	// messages.
	DirOriginalsRoot string

	// Widths to pregenerate when a request does not bring its own.
	Widths []int

	// Quality for pregenerated thumbnails. Zero means the transform
	// default.
	Quality int
}

// PregenService turns queue messages into resolver calls. Pregeneration
// goes through the same cache resolver the view facade uses, so a page
// render after the worker ran is always a cache hit.
type PregenService struct {
	config   PregenConfig
	resolver *resolver.Resolver
}

func NewPregenService(
	config PregenConfig,
	res *resolver.Resolver,
) *PregenService {
	return &PregenService{
		config:   config,
		resolver: res,
	}
}

func (s *PregenService) ProcessGenRequest(
	ctx context.Context,
	req models.GenerateRequest,
) error {
	slog.Debug(
		"Processing thumbnail pregeneration request",
		"requestId", req.RequestID,
		"source", req.Source,
	)

	widths := req.Widths
	if len(widths) == 0 {
		widths = s.config.Widths
	}

	for _, width := range widths {
		select {
		case <-ctx.Done():
			slog.Warn("Context cancelled during pregeneration")
			return ctx.Err()
		default:
		}

		if width <= 0 {
			return fmt.Errorf("invalid pregeneration width %d", width)
		}

		artifact, err := s.resolver.Resolve(ctx, resolver.Request{
			Source: s.sourceRef(req.Source),
			Op:     transform.OpFit,
			Params: resolver.Params{
				Width:   width,
				Quality: s.config.Quality,
			},
		})
		if err != nil {
			return fmt.Errorf(
				"failed to pregenerate %s at width %d: %w",
				req.Source,
				width,
				err,
			)
		}

		if artifact.Existed {
			slog.Debug(
				"Thumbnail already cached",
				"source", req.Source,
				"width", width,
			)
		}
	}

	return nil
}

func (s *PregenService) ProcessEvictRequest(
	ctx context.Context,
	req models.EvictRequest,
) error {
	removed, err := s.resolver.EvictSource(s.sourceRef(req.Source))
	if err != nil {
		return fmt.Errorf(
			"failed to evict thumbnails of %s: %w",
			req.Source,
			err,
		)
	}

	slog.Info(
		"Evicted cached thumbnails",
		"requestId", req.RequestID,
		"source", req.Source,
		"removed", removed,
	)
	return nil
}

// sourceRef anchors relative message paths under the originals root;
// remote URLs pass through untouched.
func (s *PregenService) sourceRef(source string) string {
	if strings.HasPrefix(source, "http://") ||
		strings.HasPrefix(source, "https://") {
		return source
	}
	return filepath.Join(s.config.DirOriginalsRoot, source)
}
