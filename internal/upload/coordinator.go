package upload

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/tidwall/gjson"

	"backend-videosync/internal/i18n"
	"backend-videosync/internal/notify"
	"backend-videosync/internal/processor"
	"backend-videosync/internal/syncpoint"
	"backend-videosync/internal/track"
)

var (
	ErrMissingFiles      = errors.New("track and video are both required")
	ErrStaleSuggestion   = errors.New("suggestion discarded: inputs changed while fetching")
	ErrNoTrack           = errors.New("no track loaded")
	ErrInterpolation     = errors.New("interpolation level must be between 1 and 10")
	ErrSuggestionIgnored = errors.New("suggestion ignored: a manual sync point was chosen meanwhile")
)

const (
	MinInterpolation = 1
	MaxInterpolation = 10
)

// Suggester fetches a sync point suggestion; processor.Client implements it.
type Suggester interface {
	Suggest(ctx context.Context, req processor.SuggestRequest) (processor.Suggestion, error)
}

// TrackInfo is the extra summary sent for TCX and FIT tracks.
type TrackInfo struct {
	FileType  string               `json:"file_type"`
	SportType string               `json:"sport_type,omitempty"`
	Extra     *processor.ExtraData `json:"extra_data,omitempty"`
}

// Coordinator owns the two upload slots and everything derived from them.
type Coordinator struct {
	mu            sync.Mutex
	trackFile     *File
	videoFile     *File
	info          *TrackInfo
	interpolation int

	// generation changes whenever an input slot changes; fetchSeq whenever a
	// fetch starts. A response is applied only if both still match.
	generation uint64
	fetchSeq   uint64
	cancel     context.CancelFunc
	wg         sync.WaitGroup

	suggester Suggester
	renderer  *track.Renderer
	selector  *syncpoint.Selector
	notifier  notify.Notifier
	loc       *i18n.Localizer
}

func NewCoordinator(s Suggester, r *track.Renderer, sel *syncpoint.Selector, n notify.Notifier, loc *i18n.Localizer, interpolation int) *Coordinator {
	if n == nil {
		n = notify.Discard{}
	}
	if loc == nil {
		loc = i18n.NewLocalizer("")
	}
	if interpolation < MinInterpolation || interpolation > MaxInterpolation {
		interpolation = MinInterpolation
	}
	return &Coordinator{
		suggester:     s,
		renderer:      r,
		selector:      sel,
		notifier:      n,
		loc:           loc,
		interpolation: interpolation,
	}
}

func (c *Coordinator) notify(level notify.Level, titleKey, msgKey string, params map[string]string) {
	c.notifier.Notify(level, c.loc.T(titleKey, nil), c.loc.T(msgKey, params))
}

// AssignTrack validates f and makes it the current track. Every artifact derived
// from the previous track is dropped first. A rejected file is deleted and the
// previous track is kept.
func (c *Coordinator) AssignTrack(f File) error {
	if err := ValidateTrack(f); err != nil {
		_ = f.Remove()
		key := "track_too_large"
		if errors.Is(err, ErrTrackType) {
			key = "track_type_unsupported"
		}
		c.notify(notify.Error, "notification_error", key, map[string]string{"allowed": strings.Join(TrackExtensions, ", ")})
		return err
	}

	c.mu.Lock()
	old := c.trackFile
	c.resetDerivedLocked()
	c.trackFile = &f
	c.generation++
	both := c.videoFile != nil
	c.mu.Unlock()

	if err := old.Remove(); err != nil {
		log.Printf("upload: remove previous track: %v", err)
	}
	c.notify(notify.Success, "notification_gpx_loaded", "track_loaded", map[string]string{"type": f.TrackType(), "name": f.Name})
	if both {
		c.fetchAsync()
	}
	return nil
}

// AssignVideo validates f and makes it the current video.
func (c *Coordinator) AssignVideo(f File) error {
	if err := ValidateVideo(f); err != nil {
		_ = f.Remove()
		key := "video_too_large"
		if errors.Is(err, ErrVideoType) {
			key = "video_type_unsupported"
		}
		c.notify(notify.Error, "notification_error", key, nil)
		return err
	}

	c.mu.Lock()
	old := c.videoFile
	c.videoFile = &f
	c.generation++
	c.cancelFetchLocked()
	both := c.trackFile != nil
	c.mu.Unlock()

	if err := old.Remove(); err != nil {
		log.Printf("upload: remove previous video: %v", err)
	}
	c.notify(notify.Success, "notification_video_loaded", "video_loaded", map[string]string{"name": f.Name})
	if both {
		c.fetchAsync()
	}
	return nil
}

// ClearTrack removes the track together with the rendered path, both markers
// and the sync point.
func (c *Coordinator) ClearTrack() {
	c.mu.Lock()
	old := c.trackFile
	c.trackFile = nil
	c.resetDerivedLocked()
	c.generation++
	c.mu.Unlock()
	_ = old.Remove()
}

// ClearVideo removes the video. The track and the sync point stay.
func (c *Coordinator) ClearVideo() {
	c.mu.Lock()
	old := c.videoFile
	c.videoFile = nil
	c.generation++
	c.cancelFetchLocked()
	c.mu.Unlock()
	_ = old.Remove()
}

// Reset drops both files and all derived state.
func (c *Coordinator) Reset() {
	c.ClearVideo()
	c.ClearTrack()
}

func (c *Coordinator) resetDerivedLocked() {
	c.cancelFetchLocked()
	c.info = nil
	c.renderer.Clear()
	c.selector.Clear()
}

func (c *Coordinator) cancelFetchLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Files returns copies of the current slots.
func (c *Coordinator) Files() (trackFile, videoFile *File) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.trackFile != nil {
		t := *c.trackFile
		trackFile = &t
	}
	if c.videoFile != nil {
		v := *c.videoFile
		videoFile = &v
	}
	return trackFile, videoFile
}

func (c *Coordinator) HasBothFiles() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trackFile != nil && c.videoFile != nil
}

func (c *Coordinator) TrackInfo() *TrackInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.info == nil {
		return nil
	}
	info := *c.info
	return &info
}

func (c *Coordinator) InterpolationLevel() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interpolation
}

func (c *Coordinator) SetInterpolationLevel(level int) error {
	if level < MinInterpolation || level > MaxInterpolation {
		return ErrInterpolation
	}
	c.mu.Lock()
	c.interpolation = level
	c.mu.Unlock()
	return nil
}

func (c *Coordinator) fetchAsync() {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.FetchSuggestion(context.Background()); err != nil {
			log.Printf("upload: suggestion: %v", err)
		}
	}()
}

// Wait blocks until background suggestion fetches have finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Close cancels any in-flight fetch and discards its result.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.generation++
	c.cancelFetchLocked()
	c.mu.Unlock()
	c.wg.Wait()
}

// FetchSuggestion asks the processing service for a sync point and track and
// merges the answer. A newer fetch cancels this one. The answer is dropped if
// either file changed meanwhile, and a suggested point does not replace a
// manual choice made while the request was in flight.
func (c *Coordinator) FetchSuggestion(ctx context.Context) error {
	c.mu.Lock()
	if c.trackFile == nil || c.videoFile == nil {
		c.mu.Unlock()
		return ErrMissingFiles
	}
	c.cancelFetchLocked()
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.fetchSeq++
	seq, gen := c.fetchSeq, c.generation
	req := processor.SuggestRequest{
		Track:              c.trackFile.Ref(),
		Video:              c.videoFile.Ref(),
		InterpolationLevel: c.interpolation,
	}
	revision := c.selector.Revision()
	c.mu.Unlock()
	defer cancel()

	c.notify(notify.Info, "notification_suggestion", "analyzing_files", nil)
	s, err := c.suggester.Suggest(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.fetchSeq || gen != c.generation {
		return ErrStaleSuggestion
	}
	c.cancel = nil
	if err != nil {
		var se *processor.ServerError
		if errors.As(err, &se) {
			c.notify(notify.Error, "notification_error", "suggestion_error", map[string]string{"message": se.Message})
		} else {
			c.notify(notify.Error, "notification_error", "suggestion_comm_error", nil)
		}
		c.notify(notify.Info, "notification_suggestion", "select_manually", nil)
		return err
	}
	return c.mergeLocked(s, revision)
}

func (c *Coordinator) mergeLocked(s processor.Suggestion, revision uint64) error {
	raw := gjson.ParseBytes(s.Points)
	loaded := 0
	if count := len(raw.Array()); count > 0 {
		c.notify(notify.Success, "notification_suggestion", "track_points_loaded", map[string]string{"count": strconv.Itoa(count)})
		points, rejected := track.NormalizeAll(raw, track.Lenient)
		if rejected > 0 {
			log.Printf("upload: %d of %d suggested points rejected", rejected, count)
		}
		loaded = c.showTrackLocked(points)
		if (s.FileType == "TCX" || s.FileType == "FIT") && s.ExtraData != nil {
			c.info = &TrackInfo{FileType: s.FileType, SportType: s.SportType, Extra: s.ExtraData}
			c.notify(notify.Success, "notification_suggestion", "track_extra_detected", map[string]string{"type": s.FileType})
		}
	} else {
		c.notify(notify.Warning, "notification_suggestion", "track_no_points", nil)
	}

	if s.Timestamp == "" || len(s.Latitude) == 0 || len(s.Longitude) == 0 {
		if loaded > 0 {
			c.notify(notify.Info, "notification_suggestion", "track_loaded_select", nil)
		}
		return nil
	}

	if cur, ok := c.selector.Current(); ok && cur.Source == syncpoint.Manual && c.selector.Revision() != revision {
		c.notify(notify.Warning, "notification_suggestion", "suggestion_superseded", nil)
		return ErrSuggestionIgnored
	}

	candidate := syncpoint.Candidate{
		Lat:         track.Number(gjson.ParseBytes(s.Latitude)),
		Lon:         track.Number(gjson.ParseBytes(s.Longitude)),
		Time:        track.ParseTime(gjson.Result{Type: gjson.String, Str: s.Timestamp}),
		DisplayTime: s.DisplayTimestamp,
	}
	if _, err := c.selector.Select(candidate, syncpoint.Suggested); err != nil {
		c.notify(notify.Warning, "notification_suggestion", "suggestion_invalid", nil)
		return fmt.Errorf("apply suggestion: %w", err)
	}
	when := s.DisplayTimestamp
	if when == "" && candidate.Time != nil {
		when = syncpoint.FormatTime(*candidate.Time, c.loc.Lang())
	}
	c.notify(notify.Success, "notification_suggestion", "suggestion_applied", map[string]string{"time": when})
	return nil
}

// showTrackLocked hands points to the renderer and reports the outcome. It
// returns the number of displayed points.
func (c *Coordinator) showTrackLocked(points []track.TrackPoint) int {
	if len(points) == 0 {
		c.renderer.Clear()
		c.notify(notify.Error, "notification_error", "track_no_valid_coords", nil)
		return 0
	}
	res, err := c.renderer.SetTrack(points)
	switch {
	case errors.Is(err, track.ErrNoValidPoints):
		c.notify(notify.Error, "notification_map", "track_no_valid_coords", nil)
		return 0
	case errors.Is(err, track.ErrDegenerateBounds):
		c.notify(notify.Error, "notification_map", "track_bad_bounds", nil)
		return 0
	case err != nil:
		c.notify(notify.Error, "notification_map", "track_no_valid_coords", nil)
		return 0
	}
	if res.Mode == track.ModeMarker {
		c.notify(notify.Warning, "notification_map", "track_single_point", nil)
	} else {
		c.notify(notify.Success, "notification_map", "track_displayed", map[string]string{"count": strconv.Itoa(res.Valid)})
	}
	return res.Valid
}

// SelectAt resolves a map click to the nearest displayed point and makes it the
// manual sync point.
func (c *Coordinator) SelectAt(lat, lon float64) (syncpoint.SyncPoint, string, error) {
	if err := track.CheckCoordinates(lat, lon, track.Lenient); err != nil {
		c.notify(notify.Error, "notification_error", "sync_point_invalid", nil)
		return syncpoint.SyncPoint{}, "", fmt.Errorf("%w: %v", syncpoint.ErrInvalidCoordinates, err)
	}
	p, ok := c.renderer.FindNearest(lat, lon)
	if !ok {
		c.notify(notify.Warning, "notification_warning", "no_track_loaded", nil)
		return syncpoint.SyncPoint{}, "", ErrNoTrack
	}
	desc, err := c.selector.Select(syncpoint.FromTrackPoint(p), syncpoint.Manual)
	if err != nil {
		c.notify(notify.Error, "notification_error", "sync_point_invalid", nil)
		return syncpoint.SyncPoint{}, "", err
	}
	c.notifier.Notify(notify.Success, c.loc.T("notification_sync_selected", nil), desc)
	cur, _ := c.selector.Current()
	return cur, desc, nil
}
