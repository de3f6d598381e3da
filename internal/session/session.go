package session

import (
	"log"
	"sync"
	"time"

	"backend-videosync/internal/generate"
	"backend-videosync/internal/i18n"
	"backend-videosync/internal/mapview"
	"backend-videosync/internal/notify"
	"backend-videosync/internal/overlay"
	"backend-videosync/internal/syncpoint"
	"backend-videosync/internal/track"
	"backend-videosync/internal/upload"
)

// Processor is the remote processing service; processor.Client implements it.
type Processor interface {
	upload.Suggester
	generate.Processor
}

// Session is the state of one browser tab editing one video. Every component
// is owned here; nothing is shared between sessions.
type Session struct {
	ID       string
	ClientID string

	Localizer     *i18n.Localizer
	Map           *mapview.GeoJSONView
	Renderer      *track.Renderer
	Selector      *syncpoint.Selector
	Overlays      *overlay.Allocator
	Uploads       *upload.Coordinator
	Generator     *generate.Orchestrator
	Notifications *notify.Log

	mu       sync.Mutex
	created  time.Time
	lastSeen time.Time
}

type State struct {
	ID                 string                `json:"id"`
	Lang               string                `json:"lang"`
	InterpolationLevel int                   `json:"interpolation_level"`
	Track              *upload.File          `json:"track,omitempty"`
	Video              *upload.File          `json:"video,omitempty"`
	TrackInfo          *upload.TrackInfo     `json:"track_info,omitempty"`
	TrackMode          string                `json:"track_mode"`
	SyncPoint          *syncpoint.SyncPoint  `json:"sync_point,omitempty"`
	Overlays           overlay.Configuration `json:"overlays"`
	CanGenerate        bool                  `json:"can_generate"`
	Generation         generate.State        `json:"generation"`
	CreatedAt          time.Time             `json:"created_at"`
}

func newSession(id, clientID, lang string, d Deps, now time.Time) *Session {
	loc := i18n.NewLocalizer(lang)
	view := mapview.New()
	notes := notify.NewLog(id, d.Publisher)
	renderer := track.NewRenderer(view)
	selector := syncpoint.NewSelector(view, loc)
	overlays := overlay.NewAllocator()
	uploads := upload.NewCoordinator(d.Processor, renderer, selector, notes, loc, d.Interpolation)

	s := &Session{
		ID:            id,
		ClientID:      clientID,
		Localizer:     loc,
		Map:           view,
		Renderer:      renderer,
		Selector:      selector,
		Overlays:      overlays,
		Uploads:       uploads,
		Notifications: notes,
		created:       now,
		lastSeen:      now,
	}
	s.Generator = generate.New(generate.Deps{
		SessionID: id,
		Files:     uploads,
		Selector:  selector,
		Overlays:  overlays,
		Processor: d.Processor,
		Jobs:      d.Jobs,
		Publisher: d.Publisher,
		Notifier:  notes,
		Localizer: loc,
		Steps:     d.Steps,
	})
	return s
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// State snapshots everything a client needs to redraw its screen.
func (s *Session) State() State {
	trackFile, videoFile := s.Uploads.Files()
	st := State{
		ID:                 s.ID,
		Lang:               s.Localizer.Lang(),
		InterpolationLevel: s.Uploads.InterpolationLevel(),
		Track:              trackFile,
		Video:              videoFile,
		TrackInfo:          s.Uploads.TrackInfo(),
		TrackMode:          s.Renderer.Mode().String(),
		Overlays:           s.Overlays.Configuration(),
		CanGenerate:        s.Generator.CanGenerate(),
		Generation:         s.Generator.State(),
	}
	if p, ok := s.Selector.Current(); ok {
		st.SyncPoint = &p
	}
	s.mu.Lock()
	st.CreatedAt = s.created
	s.mu.Unlock()
	return st
}

// Close stops background work and deletes the uploaded files.
func (s *Session) Close() {
	s.Generator.Close()
	s.Uploads.Close()
	s.Uploads.Reset()
	log.Printf("session %s closed", s.ID)
}
