package generate

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"backend-videosync/internal/i18n"
	"backend-videosync/internal/jobs"
	"backend-videosync/internal/notify"
	"backend-videosync/internal/overlay"
	"backend-videosync/internal/processor"
	"backend-videosync/internal/syncpoint"
	"backend-videosync/internal/upload"
)

var (
	ErrMissingFiles     = errors.New("track and video are required")
	ErrMissingSyncPoint = errors.New("no sync point selected")
	ErrSyncPointTime    = errors.New("sync point has no timestamp")
	ErrMissingOverlay   = errors.New("no overlay selected")
	ErrAlreadyRunning   = errors.New("a submission is already in progress")
	ErrNotRunning       = errors.New("no submission in progress")
	ErrCancelled        = errors.New("submission cancelled")
)

var messageKeys = map[error]string{
	ErrMissingFiles:     "error_missing_files",
	ErrMissingSyncPoint: "error_missing_sync_point",
	ErrSyncPointTime:    "error_sync_point_time",
	ErrMissingOverlay:   "error_missing_overlay",
	ErrAlreadyRunning:   "error_already_running",
	ErrCancelled:        "processing_cancelled",
}

// MessageKey returns the translation key that describes err.
func MessageKey(err error) string {
	for target, key := range messageKeys {
		if errors.Is(err, target) {
			return key
		}
	}
	return "network_error"
}

// UploadShare is the part of the progress bar driven by bytes actually sent.
const UploadShare = 15.0

// simulatedCeiling keeps the advisory steps below 100 so that only a real
// response completes the bar.
const simulatedCeiling = 99.0

// Step is one stage of the advisory progress display.
type Step struct {
	Key     string
	Percent float64
	Hold    time.Duration
}

var DefaultSteps = []Step{
	{Key: "step_upload", Percent: 15, Hold: 3 * time.Second},
	{Key: "step_analysis", Percent: 35, Hold: 4 * time.Second},
	{Key: "step_sync", Percent: 55, Hold: 3 * time.Second},
	{Key: "step_overlays", Percent: 80, Hold: 5 * time.Second},
	{Key: "step_render", Percent: 100, Hold: time.Second},
}

// FileSource exposes the current uploads; upload.Coordinator implements it.
type FileSource interface {
	Files() (trackFile, videoFile *upload.File)
	InterpolationLevel() int
}

// Processor submits render jobs; processor.Client implements it.
type Processor interface {
	Process(ctx context.Context, req processor.ProcessRequest, onUpload processor.Progress) (processor.ProcessResult, error)
}

// JobRecorder persists submissions; jobs.Service implements it.
type JobRecorder interface {
	Create(ctx context.Context, job jobs.Job) (jobs.Job, error)
	Finish(ctx context.Context, id string, out jobs.Outcome) error
}

// Progress is published as a "progress" event.
type Progress struct {
	JobID   string  `json:"job_id"`
	Percent float64 `json:"percent"`
	Step    string  `json:"step"`
	Label   string  `json:"label"`
}

// Result is the terminal outcome of one submission, published as a "job" event.
type Result struct {
	JobID       string      `json:"job_id"`
	Status      jobs.Status `json:"status"`
	DownloadURL string      `json:"download_url,omitempty"`
	Message     string      `json:"message,omitempty"`
	Logs        []string    `json:"logs"`
}

type State struct {
	Submitting bool    `json:"submitting"`
	JobID      string  `json:"job_id,omitempty"`
	Percent    float64 `json:"percent"`
	Step       string  `json:"step,omitempty"`
	Last       *Result `json:"last,omitempty"`
}

type Deps struct {
	SessionID string
	Files     FileSource
	Selector  *syncpoint.Selector
	Overlays  *overlay.Allocator
	Processor Processor
	Jobs      JobRecorder
	Publisher notify.Publisher
	Notifier  notify.Notifier
	Localizer *i18n.Localizer
	Steps     []Step
}

type run struct {
	jobID   string
	percent float64
	step    string
	simCtx  context.Context
	stopSim context.CancelFunc
	simOnce sync.Once
}

// Orchestrator validates and submits a render job, one at a time per session.
type Orchestrator struct {
	mu      sync.Mutex
	running *run
	last    *Result

	// progressMu orders progress events so a late simulated step is never
	// published after the final one.
	progressMu sync.Mutex

	deps   Deps
	base   context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup
	record bool
}

func New(d Deps) *Orchestrator {
	if d.Notifier == nil {
		d.Notifier = notify.Discard{}
	}
	if d.Localizer == nil {
		d.Localizer = i18n.NewLocalizer("")
	}
	if d.Steps == nil {
		d.Steps = DefaultSteps
	}
	base, stop := context.WithCancel(context.Background())
	return &Orchestrator{deps: d, base: base, stop: stop, record: d.Jobs != nil}
}

func (o *Orchestrator) notify(level notify.Level, titleKey, msgKey string, params map[string]string) {
	o.deps.Notifier.Notify(level, o.deps.Localizer.T(titleKey, nil), o.deps.Localizer.T(msgKey, params))
}

func (o *Orchestrator) publish(eventType string, data any) {
	if o.deps.Publisher != nil {
		o.deps.Publisher.Publish(o.deps.SessionID, eventType, data)
	}
}

// Check reports the first missing precondition, in the order files, sync
// point, sync point time, overlay.
func (o *Orchestrator) Check() error {
	trackFile, videoFile := o.deps.Files.Files()
	if trackFile == nil || videoFile == nil {
		return ErrMissingFiles
	}
	p, ok := o.deps.Selector.Current()
	if !ok {
		return ErrMissingSyncPoint
	}
	if p.Time == nil {
		return ErrSyncPointTime
	}
	if !o.deps.Overlays.HasActive() {
		return ErrMissingOverlay
	}
	return nil
}

func (o *Orchestrator) CanGenerate() bool {
	return o.Check() == nil
}

func (o *Orchestrator) Submitting() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running != nil
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	st := State{}
	if o.running != nil {
		st.Submitting = true
		st.JobID = o.running.jobID
		st.Percent = o.running.percent
		st.Step = o.running.step
	}
	if o.last != nil {
		last := *o.last
		st.Last = &last
	}
	return st
}

// Generate submits the job and waits for the processing service to answer.
func (o *Orchestrator) Generate(ctx context.Context) (Result, error) {
	r, req, err := o.begin(ctx)
	if err != nil {
		return Result{}, err
	}
	return o.execute(ctx, r, req)
}

// Start submits the job in the background and returns its id.
func (o *Orchestrator) Start(ctx context.Context) (string, error) {
	r, req, err := o.begin(ctx)
	if err != nil {
		return "", err
	}
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		if _, err := o.execute(o.base, r, req); err != nil && !errors.Is(err, ErrCancelled) {
			log.Printf("generate: session %s job %s: %v", o.deps.SessionID, r.jobID, err)
		}
	}()
	return r.jobID, nil
}

// Cancel stops the progress display and unlocks submission. The request
// already sent keeps running; its answer is ignored.
func (o *Orchestrator) Cancel() error {
	o.progressMu.Lock()
	o.mu.Lock()
	r := o.running
	if r == nil {
		o.mu.Unlock()
		o.progressMu.Unlock()
		return ErrNotRunning
	}
	o.running = nil
	r.stopSim()
	res := Result{JobID: r.jobID, Status: jobs.StatusCancelled, Message: o.deps.Localizer.T("processing_cancelled", nil), Logs: []string{}}
	last := res
	o.last = &last
	o.mu.Unlock()
	o.progressMu.Unlock()

	o.finishJob(o.base, res)
	o.notify(notify.Warning, "notification_cancelled", "processing_cancelled", nil)
	o.publish("job", res)
	return nil
}

// Wait blocks until background submissions have finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Close aborts background submissions and waits for them.
func (o *Orchestrator) Close() {
	o.stop()
	o.wg.Wait()
}

func (o *Orchestrator) begin(ctx context.Context) (*run, processor.ProcessRequest, error) {
	if err := o.Check(); err != nil {
		o.notify(notify.Error, "notification_error", MessageKey(err), nil)
		return nil, processor.ProcessRequest{}, err
	}

	o.mu.Lock()
	if o.running != nil {
		o.mu.Unlock()
		o.notify(notify.Warning, "notification_warning", "error_already_running", nil)
		return nil, processor.ProcessRequest{}, ErrAlreadyRunning
	}
	simCtx, stopSim := context.WithCancel(o.base)
	r := &run{simCtx: simCtx, stopSim: stopSim}
	o.running = r
	o.mu.Unlock()

	trackFile, videoFile := o.deps.Files.Files()
	point, _ := o.deps.Selector.Current()
	if trackFile == nil || videoFile == nil || point.Time == nil {
		// inputs changed between Check and here
		o.release(r, nil)
		o.notify(notify.Error, "notification_error", "error_missing_files", nil)
		return nil, processor.ProcessRequest{}, ErrMissingFiles
	}

	cfg := o.deps.Overlays.Configuration()
	placed := make(map[string]string, len(cfg))
	for kind, s := range cfg {
		if s.Active && s.Position != nil {
			placed[string(kind)] = string(*s.Position)
		}
	}
	var fields []processor.Field
	for _, f := range o.deps.Overlays.Fields() {
		fields = append(fields, processor.Field{Name: f.Name, Value: f.Value})
	}

	req := processor.ProcessRequest{
		Track:              trackFile.Ref(),
		Video:              videoFile.Ref(),
		SyncTimestamp:      point.Time.UTC(),
		Lang:               o.deps.Localizer.Lang(),
		InterpolationLevel: o.deps.Files.InterpolationLevel(),
		Fields:             fields,
	}

	jobID := o.createJob(ctx, req, placed)
	o.mu.Lock()
	r.jobID = jobID
	o.mu.Unlock()

	o.publish("job", Result{JobID: jobID, Status: jobs.StatusPending, Logs: []string{}})
	o.advance(r, 0, "step_upload")
	return r, req, nil
}

func (o *Orchestrator) createJob(ctx context.Context, req processor.ProcessRequest, placed map[string]string) string {
	if !o.record {
		return uuid.NewString()
	}
	job, err := o.deps.Jobs.Create(ctx, jobs.Job{
		SessionID:          o.deps.SessionID,
		SyncTimestamp:      req.SyncTimestamp,
		Lang:               req.Lang,
		InterpolationLevel: req.InterpolationLevel,
		Overlays:           placed,
	})
	if err != nil {
		log.Printf("generate: record job: %v", err)
		return uuid.NewString()
	}
	return job.ID
}

func (o *Orchestrator) finishJob(ctx context.Context, res Result) {
	if !o.record {
		return
	}
	out := jobs.Outcome{Status: res.Status, DownloadURL: res.DownloadURL, Message: res.Message, Logs: res.Logs}
	if err := o.deps.Jobs.Finish(context.WithoutCancel(ctx), res.JobID, out); err != nil {
		log.Printf("generate: finish job %s: %v", res.JobID, err)
	}
}

func (o *Orchestrator) execute(ctx context.Context, r *run, req processor.ProcessRequest) (Result, error) {
	onUpload := func(fraction float64) {
		if fraction > 1 {
			fraction = 1
		}
		o.advance(r, fraction*UploadShare, "step_upload")
		if fraction >= 1 {
			r.simOnce.Do(func() {
				o.wg.Add(1)
				go o.simulate(r)
			})
		}
	}

	resp, err := o.deps.Processor.Process(ctx, req, onUpload)
	res := Result{JobID: r.jobID, Logs: []string{}}
	var se *processor.ServerError
	switch {
	case err == nil:
		res.Status = jobs.StatusSucceeded
		res.DownloadURL = resp.DownloadURL
		res.Message = resp.Message
		if resp.Logs != nil {
			res.Logs = resp.Logs
		}
	case errors.As(err, &se):
		res.Status = jobs.StatusFailed
		res.Message = se.Message
		if se.Logs != nil {
			res.Logs = se.Logs
		}
	default:
		res.Status = jobs.StatusFailed
		res.Message = o.deps.Localizer.T("network_error", nil)
	}

	o.progressMu.Lock()
	released := o.release(r, &res)
	if released && res.Status == jobs.StatusSucceeded {
		o.publishProgress(r.jobID, 100, "step_render")
	}
	o.progressMu.Unlock()
	if !released {
		return res, ErrCancelled
	}

	o.finishJob(ctx, res)
	switch {
	case err == nil:
		o.notify(notify.Success, "notification_success", "success_message", nil)
	case se != nil:
		o.notify(notify.Error, "notification_error", "server_error", map[string]string{"message": se.Message})
	default:
		o.notify(notify.Error, "notification_error", "network_error", nil)
	}
	o.publish("job", res)
	return res, err
}

// release unlocks submission if r is still the active run and stores res as
// the last outcome. It reports false when r was cancelled meanwhile.
func (o *Orchestrator) release(r *run, res *Result) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	r.stopSim()
	if o.running != r {
		return false
	}
	o.running = nil
	if res != nil {
		last := *res
		o.last = &last
	}
	return true
}

// simulate walks the advisory steps. It never gates anything: the real
// response ends it whenever it arrives.
func (o *Orchestrator) simulate(r *run) {
	defer o.wg.Done()
	for _, s := range o.deps.Steps {
		percent := s.Percent
		if percent > simulatedCeiling {
			percent = simulatedCeiling
		}
		if !o.advance(r, percent, s.Key) {
			return
		}
		t := time.NewTimer(s.Hold)
		select {
		case <-r.simCtx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

// advance raises the displayed progress of r. The bar never moves backwards.
func (o *Orchestrator) advance(r *run, percent float64, step string) bool {
	o.progressMu.Lock()
	defer o.progressMu.Unlock()
	o.mu.Lock()
	if o.running != r {
		o.mu.Unlock()
		return false
	}
	if percent < r.percent || (percent == r.percent && step == r.step) {
		o.mu.Unlock()
		return true
	}
	r.percent = percent
	r.step = step
	jobID := r.jobID
	o.mu.Unlock()

	o.publishProgress(jobID, percent, step)
	return true
}

func (o *Orchestrator) publishProgress(jobID string, percent float64, step string) {
	o.publish("progress", Progress{JobID: jobID, Percent: percent, Step: step, Label: o.deps.Localizer.T(step, nil)})
}
