package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chimed/internal/model"
	"chimed/internal/store"
)

func newTestTaskRouter() (*gin.Engine, *store.Store) {
	gin.SetMode(gin.TestMode)
	taskStore := store.NewStore()
	h := NewTaskHandler(taskStore, zap.NewNop())
	r := gin.New()
	r.POST("/tasks", h.CreateTask)
	r.PATCH("/tasks/:id", h.PatchTask)
	return r, taskStore
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPatchTaskValidatesSchedule(t *testing.T) {
	r, taskStore := newTestTaskRouter()
	task := model.NewTask("pay rent", "2026-09-01", "09:00", model.PriorityMedium)
	taskStore.Add(task)

	t.Run("malformed time rejected", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPatch, "/tasks/"+task.ID, map[string]string{"time": "9 oclock"})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		got, _ := taskStore.Get(task.ID)
		if got.Time != "09:00" {
			t.Fatalf("rejected patch must not change the stored schedule, got %q", got.Time)
		}
	})

	t.Run("malformed date rejected", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPatch, "/tasks/"+task.ID, map[string]string{"date": "tomorrow"})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		got, _ := taskStore.Get(task.ID)
		if got.Date != "2026-09-01" {
			t.Fatalf("rejected patch must not change the stored schedule, got %q", got.Date)
		}
	})

	t.Run("partial schedule patch validates against the stored half", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPatch, "/tasks/"+task.ID, map[string]string{"date": "2026-09-02"})
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		got, _ := taskStore.Get(task.ID)
		if got.Date != "2026-09-02" || got.Time != "09:00" {
			t.Fatalf("unexpected schedule after patch: %q %q", got.Date, got.Time)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPatch, "/tasks/missing", map[string]string{"time": "10:00"})
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})
}

func TestCreateTaskRejectsMalformedSchedule(t *testing.T) {
	r, taskStore := newTestTaskRouter()

	w := doJSON(t, r, http.MethodPost, "/tasks", map[string]string{
		"title": "water plants",
		"date":  "2026-13-01",
		"time":  "09:00",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if got := len(taskStore.Snapshot()); got != 0 {
		t.Fatalf("rejected task must not be stored, got %d tasks", got)
	}
}
