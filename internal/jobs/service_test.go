package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
)

var jobColumns = []string{"id", "session_id", "sync_timestamp", "lang", "interpolation_level", "overlays", "status",
	"download_url", "message", "logs", "created_at", "finished_at"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestEnsureSchema(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS render_jobs`).WillReturnResult(pgxmock.NewResult("CREATE", 0))

	if err := NewService(mock).EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateJob(t *testing.T) {
	mock := newMock(t)
	sync := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	created := time.Now()

	mock.ExpectQuery(`INSERT INTO render_jobs`).
		WithArgs(pgxmock.AnyArg(), "sess-1", sync, "en", 3, []byte(`{"speedometer":"bottom-left"}`), "pending").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(created))

	job, err := NewService(mock).Create(context.Background(), Job{
		SessionID:          "sess-1",
		SyncTimestamp:      sync,
		Lang:               "en",
		InterpolationLevel: 3,
		Overlays:           map[string]string{"speedometer": "bottom-left"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if job.ID == "" || job.Status != StatusPending {
		t.Fatalf("unexpected job: %+v", job)
	}
	if !job.CreatedAt.Equal(created) {
		t.Fatalf("created_at not scanned")
	}
	if job.Logs == nil {
		t.Fatalf("expected empty logs slice")
	}
}

func TestCreateJobError(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO render_jobs`).WillReturnError(errors.New("db down"))

	if _, err := NewService(mock).Create(context.Background(), Job{SessionID: "sess-1"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestFinishJob(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`UPDATE render_jobs`).
		WithArgs("job-1", "succeeded", "http://proc/out.mp4", "done", []string{"ok"}, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := NewService(mock).Finish(context.Background(), "job-1", Outcome{
		Status:      StatusSucceeded,
		DownloadURL: "http://proc/out.mp4",
		Message:     "done",
		Logs:        []string{"ok"},
	})
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFinishJobNilLogs(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`UPDATE render_jobs`).
		WithArgs("job-1", "cancelled", "", "", []string{}, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := NewService(mock).Finish(context.Background(), "job-1", Outcome{Status: StatusCancelled}); err != nil {
		t.Fatalf("finish: %v", err)
	}
}

func TestGetJob(t *testing.T) {
	mock := newMock(t)
	sync := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	finished := time.Now()
	mock.ExpectQuery(`SELECT id, session_id, sync_timestamp`).
		WithArgs("job-1").
		WillReturnRows(pgxmock.NewRows(jobColumns).AddRow(
			"job-1", "sess-1", sync, "pt-BR", 1, []byte(`{"stats":"top-right"}`), "succeeded",
			"http://proc/out.mp4", "", []string{"line"}, time.Now(), &finished))

	job, err := NewService(mock).Get(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if job.Status != StatusSucceeded || job.Overlays["stats"] != "top-right" {
		t.Fatalf("unexpected job: %+v", job)
	}
	if job.FinishedAt == nil || !job.FinishedAt.Equal(finished) {
		t.Fatalf("finished_at not scanned")
	}
}

func TestGetJobNotFound(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT id, session_id`).WithArgs("missing").WillReturnError(pgx.ErrNoRows)

	if _, err := NewService(mock).Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListBySession(t *testing.T) {
	mock := newMock(t)
	sync := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`WHERE session_id=\$1 ORDER BY created_at DESC LIMIT \$2`).
		WithArgs("sess-1", 20).
		WillReturnRows(pgxmock.NewRows(jobColumns).
			AddRow("job-2", "sess-1", sync, "en", 1, []byte(`{}`), "pending", "", "", []string{}, time.Now(), nil).
			AddRow("job-1", "sess-1", sync, "en", 1, []byte(`{}`), "failed", "", "boom", []string{}, time.Now(), nil))

	jobs, err := NewService(mock).ListBySession(context.Background(), "sess-1", 500)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(jobs) != 2 || jobs[0].ID != "job-2" || jobs[1].Message != "boom" {
		t.Fatalf("unexpected jobs: %+v", jobs)
	}
	if jobs[0].FinishedAt != nil {
		t.Fatalf("expected pending job without finished_at")
	}
}
