package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"
)

var (
	ErrNoAPIKey      = errors.New("grading API key belum diset")
	ErrEmptyResponse = errors.New("model tidak mengembalikan teks")
)

// Opener mengambil isi artefak dari URL (storage.Store).
type Opener interface {
	Open(ctx context.Context, url string) ([]byte, error)
}

// Result: teks HTML dari model plus metadata panggilan.
type Result struct {
	Grade    string
	Model    string
	Mode     string
	Attempts int
	Duration time.Duration
}

type Grader interface {
	Grade(ctx context.Context, rubricURL, answerURL string) (Result, error)
}

// FuncGrader: Grader berbasis fungsi, dipakai di test.
type FuncGrader struct {
	GradeFunc func(ctx context.Context, rubricURL, answerURL string) (Result, error)
}

func (f *FuncGrader) Grade(ctx context.Context, rubricURL, answerURL string) (Result, error) {
	if f == nil || f.GradeFunc == nil {
		return Result{}, errors.New("grader belum dikonfigurasi")
	}
	return f.GradeFunc(ctx, rubricURL, answerURL)
}

// ErrorGrade: teks grade yang disimpan kalau grading gagal.
func ErrorGrade(err error) string {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return fmt.Sprintf("<p>Error during grading: %s</p>", html.EscapeString(msg))
}
