package exams

import (
	"context"
	"testing"

	"automark_backend/internals/databases/dbtest"
	"automark_backend/internals/helpers/httpx"
	"automark_backend/internals/helpers/storage"
	"automark_backend/internals/seeds/users"
)

func TestSeedDemoExamIsIdempotent(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	local, err := storage.NewLocalBackend(t.TempDir(), "http://files.test")
	if err != nil {
		t.Fatalf("local: %v", err)
	}
	store := storage.NewStore(httpx.DefaultPolicy(), nil, local)

	n, err := users.SeedUsers(ctx, db, users.DemoUsers())
	if err != nil || n != 2 {
		t.Fatalf("SeedUsers: %d %v", n, err)
	}
	if n, _ := users.SeedUsers(ctx, db, users.DemoUsers()); n != 0 {
		t.Fatalf("users seeded twice: %d", n)
	}

	created, err := SeedDemoExam(ctx, db, store, t.TempDir(), "teacher")
	if err != nil || !created {
		t.Fatalf("SeedDemoExam: %v %v", created, err)
	}
	created, err = SeedDemoExam(ctx, db, store, "", "teacher")
	if err != nil || created {
		t.Fatalf("second seed should be skipped: %v %v", created, err)
	}

	if _, err := SeedDemoExam(ctx, db, store, "", "nobody"); err != nil {
		// exam sudah ada, teacher tidak dicek lagi
		t.Fatalf("unexpected error: %v", err)
	}
}
