package jobs

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
)

func sessionAuth(sessionID string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("session_id", sessionID)
		return c.Next()
	}
}

func jobRow(id, sessionID string) *pgxmock.Rows {
	return pgxmock.NewRows(jobColumns).AddRow(
		id, sessionID, time.Now(), "en", 1, []byte(`{}`), "pending", "", "", []string{}, time.Now(), nil)
}

func TestGetJobHandler(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`FROM render_jobs WHERE id=\$1`).WithArgs("job-1").WillReturnRows(jobRow("job-1", "sess-1"))

	app := fiber.New()
	RegisterRoutes(app, NewService(mock), sessionAuth("sess-1"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/jobs/job-1", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("get job status: %v %v", err, resp.StatusCode)
	}
	var job Job
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if job.ID != "job-1" || job.Status != StatusPending {
		t.Fatalf("unexpected job: %+v", job)
	}
}

func TestGetJobHandlerOtherSession(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`FROM render_jobs WHERE id=\$1`).WithArgs("job-1").WillReturnRows(jobRow("job-1", "sess-2"))

	app := fiber.New()
	RegisterRoutes(app, NewService(mock), sessionAuth("sess-1"))

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/jobs/job-1", nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected not found, got %d", resp.StatusCode)
	}
}

func TestGetJobHandlerMissing(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`FROM render_jobs WHERE id=\$1`).WithArgs("nope").WillReturnError(pgx.ErrNoRows)

	app := fiber.New()
	RegisterRoutes(app, NewService(mock), sessionAuth("sess-1"))

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/jobs/nope", nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected not found, got %d", resp.StatusCode)
	}
}

func TestListJobsHandlerEmpty(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`WHERE session_id=\$1`).WithArgs("sess-1", 5).WillReturnRows(pgxmock.NewRows(jobColumns))

	app := fiber.New()
	RegisterRoutes(app, NewService(mock), sessionAuth("sess-1"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/sessions/sess-1/jobs?limit=5", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("list status: %v", err)
	}
	var jobs []Job
	if err := json.NewDecoder(resp.Body).Decode(&jobs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if jobs == nil || len(jobs) != 0 {
		t.Fatalf("expected empty array, got %v", jobs)
	}
}

func TestListJobsHandlerForeignSession(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app, NewService(nil), sessionAuth("sess-1"))

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/sessions/sess-2/jobs", nil))
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected forbidden, got %d", resp.StatusCode)
	}
}
