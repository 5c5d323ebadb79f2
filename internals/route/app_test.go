package routes

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"

	"automark_backend/internals/configs"
	"automark_backend/internals/databases/dbtest"
	gradingService "automark_backend/internals/features/exams/grading/service"
	"automark_backend/internals/helpers/httpx"
	"automark_backend/internals/helpers/pdfdoc/pdftest"
	"automark_backend/internals/helpers/storage"
)

type envelope map[string]any

func newTestApp(t *testing.T, grade func(ctx context.Context, rubricURL, answerURL string) (gradingService.Result, error)) *fiber.App {
	t.Helper()
	cfg := configs.Default()
	cfg.AppEnv = "test"
	cfg.BaseURL = "http://files.test"
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Upload.Dir = t.TempDir()
	cfg.Midtrans.FreeExamLimit = 0

	local, err := storage.NewLocalBackend(cfg.Upload.Dir, cfg.BaseURL)
	if err != nil {
		t.Fatalf("local backend: %v", err)
	}
	return NewApp(&Deps{
		Cfg:    &cfg,
		DB:     dbtest.Open(t),
		Store:  storage.NewStore(httpx.DefaultPolicy(), nil, local),
		Grader: &gradingService.FuncGrader{GradeFunc: grade},
	})
}

func do(t *testing.T, app *fiber.App, req *http.Request, token string) (int, envelope, []byte) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var body envelope
	_ = sonic.Unmarshal(raw, &body)
	return resp.StatusCode, body, raw
}

func jsonReq(method, path string, payload any) *http.Request {
	raw, _ := sonic.Marshal(payload)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartReq(t *testing.T, path string, fields map[string]string, files map[string][]byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	for field, data := range files {
		fw, err := w.CreateFormFile(field, field+".pdf")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		_, _ = fw.Write(data)
	}
	_ = w.Close()
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func registerAndLogin(t *testing.T, app *fiber.App, username, role string) string {
	t.Helper()
	status, body, raw := do(t, app, jsonReq(http.MethodPost, "/api/register",
		map[string]string{"username": username, "password": "secret", "role": role}), "")
	if status != fiber.StatusCreated {
		t.Fatalf("register %s: %d %s", username, status, raw)
	}
	_ = body
	status, body, raw = do(t, app, jsonReq(http.MethodPost, "/api/login",
		map[string]string{"username": username, "password": "secret"}), "")
	if status != fiber.StatusOK {
		t.Fatalf("login %s: %d %s", username, status, raw)
	}
	token, _ := body["access_token"].(string)
	if token == "" {
		t.Fatalf("no token in %s", raw)
	}
	return token
}

func TestExamSubmissionFlow(t *testing.T) {
	app := newTestApp(t, func(context.Context, string, string) (gradingService.Result, error) {
		return gradingService.Result{}, errors.New("quota exceeded")
	})

	teacher := registerAndLogin(t, app, "teacher", "teacher")
	other := registerAndLogin(t, app, "other", "teacher")
	student := registerAndLogin(t, app, "student", "student")

	// role gating
	status, _, _ := do(t, app, httptest.NewRequest(http.MethodGet, "/api/exams", nil), "")
	if status != fiber.StatusUnauthorized {
		t.Fatalf("anonymous exams list: %d", status)
	}
	status, _, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/api/exams", nil), student)
	if status != fiber.StatusForbidden {
		t.Fatalf("student exams list: %d", status)
	}

	// create exam
	status, body, raw := do(t, app, multipartReq(t, "/api/create-exam",
		map[string]string{"title": "Physics"},
		map[string][]byte{"question_paper": pdftest.Build("Q1"), "rubric_file": pdftest.Build("Q1: 4")}), teacher)
	if status != fiber.StatusCreated {
		t.Fatalf("create exam: %d %s", status, raw)
	}
	exam := body["exam"].(map[string]any)
	code := exam["exam_code"].(string)

	status, _, _ = do(t, app, multipartReq(t, "/api/create-exam",
		map[string]string{"title": "Physics"}, map[string][]byte{"question_paper": pdftest.Build("Q1")}), teacher)
	if status != fiber.StatusBadRequest {
		t.Fatalf("create exam with one file: %d", status)
	}

	// student submits, grader fails
	status, body, _ = do(t, app, multipartReq(t, "/api/submit-answer",
		map[string]string{"exam_code": "NOPE00"}, map[string][]byte{"answer_sheet": pdftest.Build("4")}), student)
	if status != fiber.StatusBadRequest || body["message"] != "Invalid exam code" {
		t.Fatalf("unknown code: %d %v", status, body)
	}
	status, body, raw = do(t, app, multipartReq(t, "/api/submit-answer",
		map[string]string{"exam_code": code}, map[string][]byte{"answer_sheet": pdftest.Build("4")}), student)
	if status != fiber.StatusCreated || body["message"] != "Answer submitted successfully!" {
		t.Fatalf("submit: %d %s", status, raw)
	}
	subID := body["submission_id"].(string)

	// artefak tersimpan bisa diambil lagi lewat /uploads
	sheetURL := body["submission"].(map[string]any)["answer_sheet_url"].(string)
	u, _ := url.Parse(sheetURL)
	status, _, sheet := do(t, app, httptest.NewRequest(http.MethodGet, u.Path, nil), "")
	if status != fiber.StatusOK || !bytes.Equal(sheet, pdftest.Build("4")) {
		t.Fatalf("stored artifact not served byte-identical: %d", status)
	}

	// grade tersembunyi untuk student
	status, body, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/api/submissions", nil), student)
	subs := body["submissions"].([]any)
	if status != fiber.StatusOK || len(subs) != 1 || subs[0].(map[string]any)["grade"] != nil {
		t.Fatalf("student list: %d %v", status, body)
	}

	// teacher melihat grade error
	status, body, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/api/teacher/submissions", nil), teacher)
	row := body["submissions"].([]any)[0].(map[string]any)
	if status != fiber.StatusOK || row["status"] != "grading_failed" || row["student_name"] != "student" {
		t.Fatalf("teacher list: %d %v", status, row)
	}

	// publish: non-owner 403, grading_failed 409
	publish := "/api/publish_grade/" + subID
	if status, _, _ = do(t, app, httptest.NewRequest(http.MethodPost, publish, nil), other); status != fiber.StatusForbidden {
		t.Fatalf("non-owner publish: %d", status)
	}
	if status, _, _ = do(t, app, httptest.NewRequest(http.MethodPost, publish, nil), teacher); status != fiber.StatusConflict {
		t.Fatalf("publish failed grade: %d", status)
	}

	if status, body, _ = do(t, app, jsonReq(http.MethodPost, "/api/update_grade/"+subID, map[string]string{"grade": ""}), teacher); status != fiber.StatusBadRequest || body["message"] != "No grade content provided" {
		t.Fatalf("empty grade: %d %v", status, body)
	}
	if status, _, _ = do(t, app, jsonReq(http.MethodPost, "/api/update_grade/"+subID, map[string]string{"grade": "<p>7/10</p>"}), teacher); status != fiber.StatusOK {
		t.Fatalf("update grade: %d", status)
	}
	if status, body, _ = do(t, app, httptest.NewRequest(http.MethodPost, publish, nil), teacher); status != fiber.StatusOK || body["message"] != "Grade published successfully!" {
		t.Fatalf("publish: %d %v", status, body)
	}
	if status, _, _ = do(t, app, httptest.NewRequest(http.MethodPost, publish, nil), teacher); status != fiber.StatusConflict {
		t.Fatalf("second publish: %d", status)
	}

	_, body, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/api/submissions", nil), student)
	if g := body["submissions"].([]any)[0].(map[string]any)["grade"]; g != "<p>7/10</p>" {
		t.Fatalf("published grade not visible: %v", g)
	}

	// preview
	status, _, img := do(t, app, httptest.NewRequest(http.MethodGet, "/api/submissions/"+subID+"/preview?width=200", nil), student)
	if status != fiber.StatusOK || !bytes.HasPrefix(img, []byte("RIFF")) {
		t.Fatalf("preview: %d", status)
	}
	if status, _, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/api/submissions/"+subID+"/preview", nil), other); status != fiber.StatusForbidden {
		t.Fatalf("preview by other teacher: %d", status)
	}
	if status, _, _ = do(t, app, httptest.NewRequest(http.MethodPost, "/api/publish_grade/not-a-uuid", nil), teacher); status != fiber.StatusBadRequest {
		t.Fatalf("bad id: %d", status)
	}
}

func TestHealthAndSession(t *testing.T) {
	app := newTestApp(t, nil)

	status, body, _ := do(t, app, httptest.NewRequest(http.MethodGet, "/health", nil), "")
	if status != fiber.StatusOK || body["status"] != "OK" {
		t.Fatalf("health: %d %v", status, body)
	}

	status, body, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/api/check-session", nil), "")
	if status != fiber.StatusUnauthorized || body["authenticated"] != false {
		t.Fatalf("anonymous session: %d %v", status, body)
	}

	token := registerAndLogin(t, app, "teacher", "teacher")
	status, body, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/api/check-session", nil), token)
	if status != fiber.StatusOK || body["role"] != "teacher" {
		t.Fatalf("session: %d %v", status, body)
	}

	if status, _, _ = do(t, app, httptest.NewRequest(http.MethodPost, "/api/logout", nil), token); status != fiber.StatusOK {
		t.Fatalf("logout: %d", status)
	}
	if status, _, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/api/exams", nil), token); status != fiber.StatusUnauthorized {
		t.Fatalf("revoked token accepted: %d", status)
	}
}

func TestTestGradingEndpoint(t *testing.T) {
	app := newTestApp(t, func(_ context.Context, rubricURL, answerURL string) (gradingService.Result, error) {
		if strings.Contains(rubricURL, "/question-papers/") {
			return gradingService.Result{}, errors.New("boom")
		}
		return gradingService.Result{Grade: "<p>ok</p>"}, nil
	})
	teacher := registerAndLogin(t, app, "teacher", "teacher")
	other := registerAndLogin(t, app, "other", "teacher")

	status, body, raw := do(t, app, multipartReq(t, "/api/create-exam",
		map[string]string{"title": "Physics"},
		map[string][]byte{"question_paper": pdftest.Build("Q1"), "rubric_file": pdftest.Build("Q1: 4")}), teacher)
	if status != fiber.StatusCreated {
		t.Fatalf("create exam: %d %s", status, raw)
	}
	exam := body["exam"].(map[string]any)
	paper, rubric := exam["question_paper_url"].(string), exam["rubric_url"].(string)

	status, _, _ = do(t, app, jsonReq(http.MethodPost, "/api/test-grading", map[string]string{"rubric": rubric}), teacher)
	if status != fiber.StatusBadRequest {
		t.Fatalf("missing input: %d", status)
	}
	status, body, _ = do(t, app, jsonReq(http.MethodPost, "/api/test-grading",
		map[string]string{"student_response": paper, "rubric": rubric}), teacher)
	if status != fiber.StatusOK || body["grade"] != "<p>ok</p>" {
		t.Fatalf("test-grading: %d %v", status, body)
	}
	status, body, _ = do(t, app, jsonReq(http.MethodPost, "/api/test-grading",
		map[string]string{"student_response": rubric, "rubric": paper}), teacher)
	if status != fiber.StatusInternalServerError || body["message"] != "Error during grading: boom" {
		t.Fatalf("failing test-grading: %d %v", status, body)
	}

	// url luar dan artefak teacher lain ditolak
	status, _, _ = do(t, app, jsonReq(http.MethodPost, "/api/test-grading",
		map[string]string{"student_response": "http://127.0.0.1:6379/", "rubric": rubric}), teacher)
	if status != fiber.StatusForbidden {
		t.Fatalf("internal url: %d", status)
	}
	status, _, _ = do(t, app, jsonReq(http.MethodPost, "/api/test-grading",
		map[string]string{"student_response": paper, "rubric": rubric}), other)
	if status != fiber.StatusForbidden {
		t.Fatalf("other teacher: %d", status)
	}
}
