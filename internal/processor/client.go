package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
)

var ErrUnreachable = errors.New("processing service unreachable")

// ServerError is a non-2xx answer from the processing service.
type ServerError struct {
	Status  int
	Message string
	Logs    []string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("processing service returned %d: %s", e.Status, e.Message)
}

// FileRef points at an uploaded file on local disk.
type FileRef struct {
	Name string
	Path string
}

type Field struct {
	Name  string
	Value string
}

type SuggestRequest struct {
	Track              FileRef
	Video              FileRef
	InterpolationLevel int
}

type ExtraData struct {
	TotalDistanceMeters *float64 `json:"total_distance_meters,omitempty"`
	TotalTimeSeconds    *float64 `json:"total_time_seconds,omitempty"`
	TotalCalories       *float64 `json:"total_calories,omitempty"`
	AverageHeartRate    *float64 `json:"average_heart_rate,omitempty"`
	MaxHeartRate        *float64 `json:"max_heart_rate,omitempty"`
	AverageCadence      *float64 `json:"average_cadence,omitempty"`
	MaxCadence          *float64 `json:"max_cadence,omitempty"`
	MaxSpeed            *float64 `json:"max_speed,omitempty"`
}

// Suggestion is the /suggest answer. Points and coordinates stay raw so the
// caller can run them through its own normalization.
type Suggestion struct {
	Points           json.RawMessage `json:"interpolated_points"`
	Timestamp        string          `json:"timestamp"`
	Latitude         json.RawMessage `json:"latitude"`
	Longitude        json.RawMessage `json:"longitude"`
	DisplayTimestamp string          `json:"display_timestamp"`
	FileType         string          `json:"file_type"`
	SportType        string          `json:"sport_type"`
	ExtraData        *ExtraData      `json:"extra_data"`
	Message          string          `json:"message"`
}

type ProcessRequest struct {
	Track              FileRef
	Video              FileRef
	SyncTimestamp      time.Time
	Lang               string
	InterpolationLevel int
	Fields             []Field
}

type ProcessResult struct {
	Message     string   `json:"message"`
	DownloadURL string   `json:"download_url"`
	Logs        []string `json:"logs"`
}

// TimestampLayout is the wire format of syncTimestamp.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Progress receives the fraction of the request body sent so far.
type Progress func(fraction float64)

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Suggest asks the service for a sync point and an interpolated track.
func (c *Client) Suggest(ctx context.Context, req SuggestRequest) (Suggestion, error) {
	fields := []Field{{Name: "interpolationLevel", Value: strconv.Itoa(req.InterpolationLevel)}}
	files := []formFile{{field: "gpxFile", ref: req.Track}, {field: "videoFile", ref: req.Video}}

	var out Suggestion
	if err := c.post(ctx, "/suggest", fields, files, nil, &out); err != nil {
		return Suggestion{}, err
	}
	return out, nil
}

// Process submits a render job and waits for the result.
func (c *Client) Process(ctx context.Context, req ProcessRequest, onUpload Progress) (ProcessResult, error) {
	fields := []Field{
		{Name: "syncTimestamp", Value: req.SyncTimestamp.UTC().Format(TimestampLayout)},
		{Name: "lang", Value: req.Lang},
		{Name: "interpolationLevel", Value: strconv.Itoa(req.InterpolationLevel)},
	}
	fields = append(fields, req.Fields...)
	files := []formFile{{field: "gpxFile", ref: req.Track}, {field: "videoFile", ref: req.Video}}

	var out ProcessResult
	if err := c.post(ctx, "/process", fields, files, onUpload, &out); err != nil {
		return ProcessResult{}, err
	}
	return out, nil
}

type formFile struct {
	field string
	ref   FileRef
}

func (c *Client) post(ctx context.Context, path string, fields []Field, files []formFile, onUpload Progress, out any) error {
	var total int64
	for _, f := range files {
		info, err := os.Stat(f.ref.Path)
		if err != nil {
			return fmt.Errorf("open %s: %w", f.field, err)
		}
		total += info.Size()
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeForm(mw, fields, files))
	}()

	var body io.Reader = pr
	if onUpload != nil {
		body = &countingReader{r: pr, total: total, onUpload: onUpload}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		pr.Close()
		return err
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(httpReq)
	if err != nil {
		pr.CloseWithError(err)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var failure ProcessResult
		_ = json.Unmarshal(raw, &failure)
		if failure.Message == "" {
			failure.Message = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		return &ServerError{Status: resp.StatusCode, Message: failure.Message, Logs: failure.Logs}
	}
	if onUpload != nil {
		onUpload(1)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func writeForm(mw *multipart.Writer, fields []Field, files []formFile) error {
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.ref.Name)
		if err != nil {
			return err
		}
		src, err := os.Open(f.ref.Path)
		if err != nil {
			return err
		}
		_, err = io.Copy(part, src)
		src.Close()
		if err != nil {
			return err
		}
	}
	for _, f := range fields {
		if err := mw.WriteField(f.Name, f.Value); err != nil {
			return err
		}
	}
	return mw.Close()
}

type countingReader struct {
	r        io.Reader
	sent     atomic.Int64
	total    int64
	onUpload Progress
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 && c.total > 0 {
		sent := c.sent.Add(int64(n))
		fraction := float64(sent) / float64(c.total)
		if fraction > 1 {
			fraction = 1
		}
		c.onUpload(fraction)
	}
	return n, err
}
