// Package storage menyimpan artefak (PDF) ke rantai backend berurutan:
// OSS → S3 → disk lokal. Backend pertama yang berhasil dipakai.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"automark_backend/internals/helpers/httpx"
)

var ErrAllBackendsFailed = errors.New("storage: semua backend gagal")

// defaultCallTimeout: batas satu percobaan ke backend remote.
const defaultCallTimeout = 30 * time.Second

// Backend: satu tujuan penyimpanan. Put mengembalikan URL publik objek.
type Backend interface {
	Name() string
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

type Hint struct {
	Dir         string
	Filename    string
	ContentType string
}

type Object struct {
	Key     string `json:"key"`
	URL     string `json:"url"`
	Backend string `json:"backend"`
	Size    int    `json:"size"`
}

type Store struct {
	remotes     []Backend
	policy      httpx.Policy
	fetcher     *httpx.Client
	local       *LocalBackend
	callTimeout time.Duration
}

// NewStore: local (boleh nil) selalu ditaruh paling akhir.
func NewStore(policy httpx.Policy, fetcher *httpx.Client, local *LocalBackend, remotes ...Backend) *Store {
	s := &Store{policy: policy, fetcher: fetcher, local: local, callTimeout: defaultCallTimeout}
	for _, b := range remotes {
		if b != nil {
			s.remotes = append(s.remotes, b)
		}
	}
	return s
}

// WithCallTimeout mengganti batas waktu per percobaan remote (<= 0 diabaikan).
func (s *Store) WithCallTimeout(d time.Duration) *Store {
	if d > 0 {
		s.callTimeout = d
	}
	return s
}

func (s *Store) BackendNames() []string {
	names := make([]string, 0, len(s.remotes)+1)
	for _, b := range s.remotes {
		names = append(names, b.Name())
	}
	if s.local != nil {
		names = append(names, s.local.Name())
	}
	return names
}

// Put menyimpan data dengan key <dir>/<uuid><ext>.
// Remote dicoba dengan timeout per percobaan; begitu ctx pemanggil habis, sisa
// remote dilewati. Disk lokal selalu ditulis terakhir, lepas dari cancel ctx.
func (s *Store) Put(ctx context.Context, data []byte, hint Hint) (Object, error) {
	if len(s.remotes) == 0 && s.local == nil {
		return Object{}, fmt.Errorf("%w: tidak ada backend", ErrAllBackendsFailed)
	}
	key := BuildKey(hint)
	contentType := hint.ContentType
	if contentType == "" {
		contentType = contentTypeFor(hint.Filename, data)
	}

	var errs []error
	for _, b := range s.remotes {
		if ctx.Err() != nil {
			errs = append(errs, fmt.Errorf("%s: %w", b.Name(), ctx.Err()))
			continue
		}
		url, err := s.putRemote(ctx, b, key, data, contentType)
		if err == nil {
			log.Printf("[STORAGE] %s disimpan via %s (%d bytes)", key, b.Name(), len(data))
			return Object{Key: key, URL: url, Backend: b.Name(), Size: len(data)}, nil
		}
		log.Printf("[STORAGE] backend %s gagal untuk %s: %v", b.Name(), key, err)
		errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
	}

	if s.local != nil {
		url, err := s.local.Put(context.WithoutCancel(ctx), key, data, contentType)
		if err == nil {
			log.Printf("[STORAGE] %s disimpan via %s (%d bytes)", key, s.local.Name(), len(data))
			return Object{Key: key, URL: url, Backend: s.local.Name(), Size: len(data)}, nil
		}
		log.Printf("[STORAGE] backend %s gagal untuk %s: %v", s.local.Name(), key, err)
		errs = append(errs, fmt.Errorf("%s: %w", s.local.Name(), err))
	}
	return Object{}, fmt.Errorf("%w: %w", ErrAllBackendsFailed, errors.Join(errs...))
}

func (s *Store) putRemote(ctx context.Context, b Backend, key string, data []byte, contentType string) (string, error) {
	var url string
	err := httpx.Retry(ctx, s.policy, "store "+b.Name(), func(ctx context.Context, _ int) error {
		callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
		defer cancel()
		u, err := b.Put(callCtx, key, data, contentType)
		if err != nil && callCtx.Err() != nil && ctx.Err() == nil {
			// timeout percobaan ini saja, ctx pemanggil masih hidup
			return httpx.Transient(err)
		}
		url = u
		return err
	})
	return url, err
}

// Open mengambil isi artefak dari URL hasil Put. URL lokal dibaca langsung dari disk.
func (s *Store) Open(ctx context.Context, url string) ([]byte, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("storage: url kosong")
	}
	if s.local != nil {
		if key, ok := s.local.KeyFromURL(url); ok {
			return s.local.Read(key)
		}
	}
	if s.fetcher == nil {
		return nil, fmt.Errorf("storage: tidak bisa mengunduh %s (fetcher nil)", url)
	}
	return s.fetcher.Get(ctx, url)
}
