package jobs

import (
	"context"
	"errors"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"backend-videosync/internal/db"
)

var ErrNotFound = errors.New("job not found")

const schema = `
CREATE TABLE IF NOT EXISTS render_jobs (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	sync_timestamp TIMESTAMPTZ NOT NULL,
	lang TEXT NOT NULL,
	interpolation_level INT NOT NULL,
	overlays JSONB NOT NULL DEFAULT '{}',
	status TEXT NOT NULL,
	download_url TEXT,
	message TEXT,
	logs TEXT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS render_jobs_session_idx ON render_jobs (session_id, created_at DESC);
`

type Service struct {
	db db.Querier
}

func NewService(q db.Querier) *Service {
	return &Service{db: q}
}

func (s *Service) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schema)
	return err
}

func (s *Service) Create(ctx context.Context, input Job) (Job, error) {
	input.ID = uuid.NewString()
	input.Status = StatusPending
	if input.Overlays == nil {
		input.Overlays = map[string]string{}
	}
	if input.Logs == nil {
		input.Logs = []string{}
	}
	overlays, err := json.Marshal(input.Overlays)
	if err != nil {
		return Job{}, err
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO render_jobs (id, session_id, sync_timestamp, lang, interpolation_level, overlays, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, input.ID, input.SessionID, input.SyncTimestamp, input.Lang, input.InterpolationLevel, overlays, string(input.Status))
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Job{}, err
	}
	return input, nil
}

// Finish records the outcome of a pending job. The first terminal outcome wins.
func (s *Service) Finish(ctx context.Context, id string, out Outcome) error {
	logs := out.Logs
	if logs == nil {
		logs = []string{}
	}
	_, err := s.db.Exec(ctx, `
		UPDATE render_jobs
		SET status=$2, download_url=$3, message=$4, logs=$5, finished_at=$6
		WHERE id=$1 AND status='pending'
	`, id, string(out.Status), out.DownloadURL, out.Message, logs, time.Now())
	return err
}

const selectJob = `
	SELECT id, session_id, sync_timestamp, lang, interpolation_level, overlays, status,
	       COALESCE(download_url,''), COALESCE(message,''), logs, created_at, finished_at
	FROM render_jobs`

func (s *Service) Get(ctx context.Context, id string) (Job, error) {
	row := s.db.QueryRow(ctx, selectJob+` WHERE id=$1`, id)
	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	return job, err
}

func (s *Service) ListBySession(ctx context.Context, sessionID string, limit int) ([]Job, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.db.Query(ctx, selectJob+` WHERE session_id=$1 ORDER BY created_at DESC LIMIT $2`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func scanJob(row pgx.Row) (Job, error) {
	var job Job
	var overlays []byte
	var status string
	if err := row.Scan(&job.ID, &job.SessionID, &job.SyncTimestamp, &job.Lang, &job.InterpolationLevel, &overlays, &status,
		&job.DownloadURL, &job.Message, &job.Logs, &job.CreatedAt, &job.FinishedAt); err != nil {
		return Job{}, err
	}
	job.Status = Status(status)
	if len(overlays) > 0 {
		if err := json.Unmarshal(overlays, &job.Overlays); err != nil {
			return Job{}, err
		}
	}
	return job, nil
}
