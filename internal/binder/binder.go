package binder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dwizi/commentctl/internal/consoleerr"
	"github.com/dwizi/commentctl/internal/form"
	"github.com/dwizi/commentctl/internal/tasks"
)

type Uploader interface {
	Upload(ctx context.Context, kind tasks.ResourceKind, filename string, content io.Reader) (string, error)
}

// Resource is a server-issued reference for one uploaded file.
type Resource struct {
	Kind       tasks.ResourceKind
	ServerRef  string
	SourceName string
	SourcePath string
	BoundAt    time.Time
}

// Binder owns at most one live Resource per kind. A failed upload leaves
// the previous binding in place; Reset drops every binding and invalidates
// uploads still in flight.
type Binder struct {
	uploader Uploader
	logger   *slog.Logger
	maxBytes int64

	mu    sync.RWMutex
	refs  map[tasks.ResourceKind]Resource
	epoch uint64
}

func New(uploader Uploader, maxBytes int64, logger *slog.Logger) *Binder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Binder{
		uploader: uploader,
		logger:   logger,
		maxBytes: maxBytes,
		refs:     map[tasks.ResourceKind]Resource{},
	}
}

func (b *Binder) UploadFile(ctx context.Context, kind tasks.ResourceKind, path string) (Resource, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Resource{}, fmt.Errorf("%s file path is required", kind)
	}
	file, err := os.Open(path)
	if err != nil {
		return Resource{}, fmt.Errorf("open %s file: %w", kind, err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return Resource{}, fmt.Errorf("stat %s file: %w", kind, err)
	}
	if b.maxBytes > 0 && info.Size() > b.maxBytes {
		return Resource{}, fmt.Errorf("%w: %s is %d bytes, limit is %d", consoleerr.ErrFileTooLarge, filepath.Base(path), info.Size(), b.maxBytes)
	}
	resource, epoch, err := b.upload(ctx, kind, filepath.Base(path), file)
	if err != nil {
		return Resource{}, err
	}
	if absolute, absErr := filepath.Abs(path); absErr == nil {
		resource.SourcePath = absolute
	} else {
		resource.SourcePath = path
	}
	if !b.store(resource, epoch) {
		return Resource{}, consoleerr.ErrStaleUpload
	}
	return resource, nil
}

func (b *Binder) Upload(ctx context.Context, kind tasks.ResourceKind, filename string, content io.Reader) (Resource, error) {
	if b.maxBytes > 0 {
		content = &limitedReader{reader: content, remaining: b.maxBytes}
	}
	resource, epoch, err := b.upload(ctx, kind, filename, content)
	if err != nil {
		return Resource{}, err
	}
	if !b.store(resource, epoch) {
		return Resource{}, consoleerr.ErrStaleUpload
	}
	return resource, nil
}

func (b *Binder) upload(ctx context.Context, kind tasks.ResourceKind, filename string, content io.Reader) (Resource, uint64, error) {
	if _, ok := tasks.ParseKind(string(kind)); !ok {
		return Resource{}, 0, fmt.Errorf("%w: %q", consoleerr.ErrUnknownKind, kind)
	}
	if b.uploader == nil {
		return Resource{}, 0, fmt.Errorf("uploader is not configured")
	}
	epoch := b.currentEpoch()
	ref, err := b.uploader.Upload(ctx, kind, filename, content)
	if err != nil {
		b.logger.Warn("resource upload failed", "kind", kind, "file", filename, "error", err)
		return Resource{}, 0, err
	}
	return Resource{
		Kind:       kind,
		ServerRef:  ref,
		SourceName: filename,
		BoundAt:    time.Now().UTC(),
	}, epoch, nil
}

// store binds the resource unless a Reset happened after the upload began.
func (b *Binder) store(resource Resource, epoch uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.epoch != epoch {
		b.logger.Info("discarding upload finished after reset", "kind", resource.Kind, "file", resource.SourceName)
		return false
	}
	b.refs[resource.Kind] = resource
	b.logger.Info("resource bound", "kind", resource.Kind, "ref", resource.ServerRef)
	return true
}

func (b *Binder) currentEpoch() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.epoch
}

func (b *Binder) Resource(kind tasks.ResourceKind) (Resource, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	resource, ok := b.refs[kind]
	return resource, ok
}

func (b *Binder) Bindings() form.Bindings {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return form.Bindings{
		TokenRef:   b.refs[tasks.KindTokens].ServerRef,
		CommentRef: b.refs[tasks.KindComments].ServerRef,
	}
}

func (b *Binder) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refs = map[tasks.ResourceKind]Resource{}
	b.epoch++
}

type limitedReader struct {
	reader    io.Reader
	remaining int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, consoleerr.ErrFileTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.reader.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, consoleerr.ErrFileTooLarge
	}
	return n, err
}
