package storage

import (
	"context"
	"log"

	"automark_backend/internals/configs"
	"automark_backend/internals/helpers/httpx"
)

// NewFromConfig merakit rantai backend dari config. Backend remote yang tidak
// terkonfigurasi atau gagal inisialisasi dilewati; disk lokal selalu tersedia.
func NewFromConfig(ctx context.Context, cfg *configs.Config, fetcher *httpx.Client) (*Store, error) {
	local, err := NewLocalBackend(cfg.Upload.Dir, cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	var remotes []Backend
	if cfg.OSS.Enabled() {
		if b, err := NewOSSBackend(cfg.OSS); err != nil {
			log.Printf("[STORAGE] OSS dilewati: %v", err)
		} else {
			remotes = append(remotes, b)
		}
	} else {
		log.Println("[STORAGE] OSS tidak dikonfigurasi")
	}
	if cfg.S3.Enabled() {
		if b, err := NewS3Backend(ctx, cfg.S3); err != nil {
			log.Printf("[STORAGE] S3 dilewati: %v", err)
		} else {
			remotes = append(remotes, b)
		}
	}

	store := NewStore(httpx.PolicyFromConfig(cfg.HTTP), fetcher, local, remotes...).WithCallTimeout(cfg.HTTP.Timeout)
	log.Printf("[STORAGE] rantai backend: %v", store.BackendNames())
	return store, nil
}
