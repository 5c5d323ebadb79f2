package storage

import "context"

// FuncBackend: backend berbasis function field, untuk test & dry-run.
type FuncBackend struct {
	BackendName string
	PutFunc     func(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

func (f *FuncBackend) Name() string {
	if f.BackendName == "" {
		return "func"
	}
	return f.BackendName
}

func (f *FuncBackend) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	return f.PutFunc(ctx, key, data, contentType)
}
