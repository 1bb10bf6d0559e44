package controller

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"admissions_backend/internals/databases/dbtest"
	"admissions_backend/internals/features/admissions/applicants/model"
	"admissions_backend/internals/features/admissions/applicants/service"
)

type envelope struct {
	Success   bool                `json:"success"`
	Message   string              `json:"message"`
	ErrorCode string              `json:"error_code"`
	Errors    map[string][]string `json:"errors"`
	Data      json.RawMessage     `json:"data"`
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	db := dbtest.Open(t, &model.ApplicantModel{}, &model.ApplicantStatusLogModel{}, &model.ApplicantNoteModel{})
	ctl := NewApplicantController(service.NewApplicantService(db, nil), nil)

	app := fiber.New()
	app.Post("/applicants", ctl.Submit)
	app.Get("/applicants/:id", ctl.Get)
	app.Patch("/applicants/:id", ctl.Patch)
	app.Delete("/applicants/:id", ctl.Delete)
	app.Get("/applicants/:id/ai-hint", ctl.AIHint)
	app.Get("/applicants/:id/notes", ctl.Notes)
	app.Post("/applicants/:id/notes", ctl.AddNote)
	return app
}

func call(t *testing.T, app *fiber.App, method, path string, body any) (int, envelope) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var env envelope
	_ = json.NewDecoder(resp.Body).Decode(&env)
	return resp.StatusCode, env
}

func submitBody(email string) map[string]any {
	return map[string]any{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      email,
		"program":    "Computer Science",
		"gpa":        "3.00",
		"test_score": 75,
	}
}

func TestSubmitAndGet(t *testing.T) {
	app := newTestApp(t)

	code, env := call(t, app, http.MethodPost, "/applicants", submitBody("ada@example.com"))
	if code != fiber.StatusCreated {
		t.Fatalf("submit status = %d (%s)", code, env.Message)
	}
	var a struct {
		ID      string `json:"applicant_id"`
		Score   string `json:"applicant_ai_score"`
		Hint    string `json:"applicant_ai_hint"`
		Version int    `json:"applicant_version"`
	}
	if err := json.Unmarshal(env.Data, &a); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if a.Score != "75.00" || a.Hint != "RECOMMENDED_ACCEPT" {
		t.Fatalf("unexpected applicant %+v", a)
	}

	code, _ = call(t, app, http.MethodGet, "/applicants/"+a.ID, nil)
	if code != fiber.StatusOK {
		t.Fatalf("get status = %d", code)
	}
	code, env = call(t, app, http.MethodGet, "/applicants/"+a.ID+"/ai-hint", nil)
	if code != fiber.StatusOK {
		t.Fatalf("ai-hint status = %d", code)
	}
}

func TestSubmitValidation(t *testing.T) {
	app := newTestApp(t)
	body := submitBody("nope")
	body["gpa"] = "6.5"
	delete(body, "test_score")

	code, env := call(t, app, http.MethodPost, "/applicants", body)
	if code != fiber.StatusUnprocessableEntity {
		t.Fatalf("status = %d", code)
	}
	for _, f := range []string{"email", "gpa", "test_score"} {
		if len(env.Errors[f]) == 0 {
			t.Fatalf("missing error for %s: %v", f, env.Errors)
		}
	}
}

func TestPatchVersionConflictAndNotFound(t *testing.T) {
	app := newTestApp(t)
	_, env := call(t, app, http.MethodPost, "/applicants", submitBody("ada@example.com"))
	var a struct {
		ID string `json:"applicant_id"`
	}
	_ = json.Unmarshal(env.Data, &a)

	code, _ := call(t, app, http.MethodPatch, "/applicants/"+a.ID, map[string]any{"status": "IN_REVIEW", "version": 0})
	if code != fiber.StatusOK {
		t.Fatalf("first patch = %d", code)
	}
	code, env = call(t, app, http.MethodPatch, "/applicants/"+a.ID, map[string]any{"status": "ACCEPTED", "version": 0})
	if code != fiber.StatusConflict || env.ErrorCode != "CONFLICT" {
		t.Fatalf("stale patch = %d %s", code, env.ErrorCode)
	}
	code, env = call(t, app, http.MethodPatch, "/applicants/"+a.ID, map[string]any{"status": "PENDING", "version": 1})
	if code != fiber.StatusBadRequest || env.ErrorCode != "INVALID_STATE" {
		t.Fatalf("illegal transition = %d %s", code, env.ErrorCode)
	}
	code, _ = call(t, app, http.MethodPatch, "/applicants/"+a.ID, map[string]any{"status": "ACCEPTED"})
	if code != fiber.StatusUnprocessableEntity {
		t.Fatalf("missing version = %d", code)
	}

	code, _ = call(t, app, http.MethodDelete, "/applicants/"+a.ID, nil)
	if code != fiber.StatusOK {
		t.Fatalf("delete = %d", code)
	}
	code, env = call(t, app, http.MethodGet, "/applicants/"+a.ID, nil)
	if code != fiber.StatusNotFound || env.ErrorCode != "NOT_FOUND" {
		t.Fatalf("get after delete = %d %s", code, env.ErrorCode)
	}
	code, _ = call(t, app, http.MethodGet, "/applicants/not-a-uuid", nil)
	if code != fiber.StatusBadRequest {
		t.Fatalf("bad id = %d", code)
	}
}

func TestNotes(t *testing.T) {
	app := newTestApp(t)
	_, env := call(t, app, http.MethodPost, "/applicants", submitBody("ada@example.com"))
	var a struct {
		ID string `json:"applicant_id"`
	}
	_ = json.Unmarshal(env.Data, &a)

	code, _ := call(t, app, http.MethodPost, "/applicants/"+a.ID+"/notes", map[string]any{"content": "too short"})
	if code != fiber.StatusUnprocessableEntity {
		t.Fatalf("short note = %d", code)
	}
	for _, text := range []string{"Strong maths background.", "Interview went well overall."} {
		code, _ = call(t, app, http.MethodPost, "/applicants/"+a.ID+"/notes", map[string]any{"content": text})
		if code != fiber.StatusCreated {
			t.Fatalf("add note = %d", code)
		}
	}

	code, env = call(t, app, http.MethodGet, "/applicants/"+a.ID+"/notes", nil)
	var notes []struct {
		Content string `json:"content"`
	}
	_ = json.Unmarshal(env.Data, &notes)
	if code != fiber.StatusOK || len(notes) != 2 {
		t.Fatalf("list notes = %d %+v", code, notes)
	}

	_, env = call(t, app, http.MethodGet, "/applicants/"+a.ID, nil)
	var got struct {
		NoteCount int64 `json:"applicant_note_count"`
	}
	_ = json.Unmarshal(env.Data, &got)
	if got.NoteCount != 2 {
		t.Fatalf("applicant_note_count = %d, want 2", got.NoteCount)
	}

	code, env = call(t, app, http.MethodPost, "/applicants/00000000-0000-0000-0000-000000000001/notes", map[string]any{"content": "Nobody to attach this to."})
	if code != fiber.StatusNotFound || env.ErrorCode != "NOT_FOUND" {
		t.Fatalf("note on unknown applicant = %d %s", code, env.ErrorCode)
	}
}
