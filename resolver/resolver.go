// Package resolver maps thumbnail requests onto content-addressed cache
// files, generating a file through a transform.Transformer only when no
// file for the request's key exists yet.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/mgalindo/thumbview/transform"
)

const defaultHTTPTimeout = 30 * time.Second

// Params carries the optional knobs of a thumbnail request. Zero width
// or height means that dimension is unconstrained and derived by the
// transform.
type Params struct {
	Width   int
	Height  int
	Format  string // output format, DefaultFormat when empty
	Quality int    // encode quality, transform.DefaultQuality when zero

	Anchor     string // crop / canvas anchor, center when empty
	Background string // canvas fill color for resizeCanvas
	Relative   bool   // resizeCanvas relative mode

	// Target, when set, bypasses cache-key naming entirely and writes
	// to this literal path. Its parent directory must be writable.
	Target string
}

// Request is the unit of work handed to Resolve.
type Request struct {
	Source string
	Op     transform.Op
	Params Params
}

// Artifact describes the cache file a request resolved to.
type Artifact struct {
	Key     string // file base name without extension
	Path    string // absolute path of the cache file
	Ext     string // normalized extension
	Existed bool   // true on cache hit
}

// Hooks receives cache outcome notifications. Any field may be nil.
type Hooks struct {
	CacheHit  func(a Artifact)
	CacheMiss func(a Artifact)
}

type Config struct {
	// TargetDir is the directory all cache files live in. Created on
	// construction when absent.
	TargetDir string

	// HTTPTimeout bounds remote source fetches. Defaults to 30s.
	HTTPTimeout time.Duration
}

type Resolver struct {
	cfg         Config
	transformer transform.Transformer
	httpClient  *http.Client
	hooks       Hooks
}

// New prepares the target directory and returns a Resolver. The
// transformer may be nil for maintenance-only use (Clear, EvictSource);
// Resolve will then fail on every cache miss.
func New(cfg Config, transformer transform.Transformer) (*Resolver, error) {
	if cfg.TargetDir == "" {
		return nil, fmt.Errorf("%w: target directory not configured", ErrDirNotWritable)
	}

	if err := os.MkdirAll(cfg.TargetDir, 0755); err != nil {
		return nil, fmt.Errorf(
			"%w: cannot create %s: %v",
			ErrDirNotWritable,
			cfg.TargetDir,
			err,
		)
	}

	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	return &Resolver{
		cfg:         cfg,
		transformer: transformer,
		httpClient:  &http.Client{Timeout: timeout},
	}, nil
}

// SetHooks installs cache outcome callbacks. Not safe to call once the
// resolver is shared between goroutines.
func (r *Resolver) SetHooks(hooks Hooks) {
	r.hooks = hooks
}

// TargetDir returns the configured cache directory.
func (r *Resolver) TargetDir() string {
	return r.cfg.TargetDir
}

// Resolve returns the cache artifact for req, generating the file first
// when it does not exist yet. Identical requests are idempotent: the
// second call finds the file and skips the transform.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Artifact, error) {
	if req.Op == "" {
		return Artifact{}, ErrNoOperation
	}
	if req.Source == "" {
		return Artifact{}, ErrMissingSource
	}

	artifact, err := r.locate(req)
	if err != nil {
		return Artifact{}, err
	}

	if _, err := os.Stat(artifact.Path); err == nil {
		artifact.Existed = true
		if r.hooks.CacheHit != nil {
			r.hooks.CacheHit(artifact)
		}
		slog.Debug(
			"Thumbnail cache hit",
			"source", req.Source,
			"path", artifact.Path,
		)
		return artifact, nil
	} else if !os.IsNotExist(err) {
		return Artifact{}, fmt.Errorf("failed to stat %s: %w", artifact.Path, err)
	}

	if err := r.generate(ctx, req, artifact); err != nil {
		return Artifact{}, err
	}

	if r.hooks.CacheMiss != nil {
		r.hooks.CacheMiss(artifact)
	}
	return artifact, nil
}

// locate computes the artifact identity without touching the source.
func (r *Resolver) locate(req Request) (Artifact, error) {
	if req.Params.Target != "" {
		return r.locateOverride(req.Params.Target)
	}

	ext, err := NormalizeFormat(req.Params.Format)
	if err != nil {
		return Artifact{}, err
	}

	name := cacheFileName(req.Source, req.Op, req.Params, ext)
	return Artifact{
		Key:  strings.TrimSuffix(name, "."+ext),
		Path: filepath.Join(r.cfg.TargetDir, name),
		Ext:  ext,
	}, nil
}

// locateOverride honors an explicit target path, skipping key naming.
// The override's directory has to exist and be a directory; write
// failures later still surface as ErrDirNotWritable.
func (r *Resolver) locateOverride(target string) (Artifact, error) {
	dir := filepath.Dir(target)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return Artifact{}, fmt.Errorf(
			"%w: override directory %s",
			ErrDirNotWritable,
			dir,
		)
	}

	base := filepath.Base(target)
	ext := strings.TrimPrefix(filepath.Ext(base), ".")
	return Artifact{
		Key:  strings.TrimSuffix(base, filepath.Ext(base)),
		Path: target,
		Ext:  ext,
	}, nil
}

func (r *Resolver) generate(
	ctx context.Context,
	req Request,
	artifact Artifact,
) error {
	if r.transformer == nil {
		return fmt.Errorf("%w: resolver has no transformer", ErrNoOperation)
	}

	src, err := r.loadSource(ctx, req.Source)
	if err != nil {
		return err
	}

	if !filetype.IsImage(src) {
		return fmt.Errorf("%w: %s", ErrInvalidSourceImage, req.Source)
	}

	spec := transform.Spec{
		Op:         req.Op,
		Width:      req.Params.Width,
		Height:     req.Params.Height,
		Format:     artifact.Ext,
		Quality:    req.Params.Quality,
		Anchor:     req.Params.Anchor,
		Background: req.Params.Background,
		Relative:   req.Params.Relative,
	}

	out, err := r.transformer.Transform(ctx, src, spec)
	if err != nil {
		if errors.Is(err, transform.ErrDecode) {
			return fmt.Errorf("%w: %v", ErrInvalidSourceImage, err)
		}
		return fmt.Errorf("transform of %s failed: %w", req.Source, err)
	}

	if err := r.writeAtomic(artifact.Path, out); err != nil {
		return err
	}

	slog.Debug(
		"Thumbnail generated",
		"source", req.Source,
		"path", artifact.Path,
		"bytes", len(out),
	)
	return nil
}

func (r *Resolver) loadSource(ctx context.Context, sourceRef string) ([]byte, error) {
	if isRemote(sourceRef) {
		return r.fetchRemote(ctx, sourceRef)
	}

	buf, err := os.ReadFile(sourceRef)
	if err != nil {
		return nil, fmt.Errorf("failed to read source %s: %w", sourceRef, err)
	}
	return buf, nil
}

func (r *Resolver) fetchRemote(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch source %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf(
			"failed to fetch source %s: status %d",
			url,
			resp.StatusCode,
		)
	}

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read source body from %s: %w", url, err)
	}
	return buf, nil
}

// writeAtomic publishes data at path through a uniquely named temp file
// and a rename, so concurrent readers never observe a partial file. A
// losing writer in a race produces byte-identical output, making the
// last rename harmless.
func (r *Resolver) writeAtomic(path string, data []byte) error {
	tmp := fmt.Sprintf("%s.%s.tmp", path, uuid.New())
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		os.Remove(tmp)
		if isNotWritable(err) {
			return fmt.Errorf("%w: %v", ErrDirNotWritable, err)
		}
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to publish %s: %w", path, err)
	}
	return nil
}

// isNotWritable reports whether a write failed because the directory
// cannot be written: permission denied or a read-only filesystem, which
// os.IsPermission does not cover.
func isNotWritable(err error) bool {
	return os.IsPermission(err) || errors.Is(err, syscall.EROFS)
}

// EvictSource removes every cached variant of sourceRef and reports how
// many files were deleted.
func (r *Resolver) EvictSource(sourceRef string) (int, error) {
	pattern := filepath.Join(
		r.cfg.TargetDir,
		fmt.Sprintf("%s-*.*", sourceDigest(sourceRef)),
	)

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return 0, fmt.Errorf("failed to glob %s: %w", pattern, err)
	}

	removed := 0
	for _, match := range matches {
		if err := os.Remove(match); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", match, err)
		}
		slog.Debug("Evicted cached thumbnail", "path", match)
		removed++
	}
	return removed, nil
}

// Clear deletes every regular file in the target directory and reports
// the count. Meant for operational tooling, not the request path.
func (r *Resolver) Clear() (int, error) {
	entries, err := os.ReadDir(r.cfg.TargetDir)
	if err != nil {
		return 0, fmt.Errorf("failed to list %s: %w", r.cfg.TargetDir, err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(r.cfg.TargetDir, entry.Name())
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", path, err)
		}
		removed++
	}
	return removed, nil
}
