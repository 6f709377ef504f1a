package uploader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// State tracks a single file transfer. Transitions only move forward:
// Idle -> Uploading -> Succeeded or Failed.
type State int

const (
	StateIdle State = iota
	StateUploading
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateUploading:
		return "uploading"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Status is a point-in-time snapshot of an upload. Progress is 0-100 and
// each reading replaces the previous one; intermediate values are not
// buffered.
type Status struct {
	State    State
	Progress int
	FileURL  string
	Err      error
}

// Upload is one running transfer. It is safe to poll from other goroutines
// while the transfer goroutine drives it.
type Upload struct {
	mu     sync.Mutex
	status Status

	done   chan struct{}
	cancel context.CancelFunc
}

// Done closes when the upload reaches a terminal state.
func (u *Upload) Done() <-chan struct{} {
	return u.done
}

// Cancel aborts an in-flight transfer; the upload then fails with the
// context error.
func (u *Upload) Cancel() {
	u.cancel()
}

func (u *Upload) Status() Status {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.status
}

func (u *Upload) setProgress(percent int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.status.State = StateUploading
	u.status.Progress = percent
}

func (u *Upload) succeed(fileURL string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.status.State = StateSucceeded
	u.status.Progress = 100
	u.status.FileURL = fileURL
}

func (u *Upload) fail(err error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.status.State = StateFailed
	u.status.Err = err
}

// Uploader streams file bytes to presigned PUT URLs. Independent uploads may
// run concurrently; there is no ordering between them and no automatic retry.
type Uploader struct {
	httpClient *http.Client
	onProgress func(percent int)
}

type Option func(*Uploader)

func WithHTTPClient(client *http.Client) Option {
	return func(u *Uploader) {
		u.httpClient = client
	}
}

// WithProgress installs a callback invoked with each new percentage.
func WithProgress(fn func(percent int)) Option {
	return func(u *Uploader) {
		u.onProgress = fn
	}
}

func New(opts ...Option) *Uploader {
	u := &Uploader{httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Start begins the transfer and returns immediately. uploadURL receives the
// bytes; fileURL is the durable public URL reported on success.
func (up *Uploader) Start(ctx context.Context, uploadURL, fileURL string, content io.Reader, size int64) *Upload {
	ctx, cancel := context.WithCancel(ctx)

	u := &Upload{
		status: Status{State: StateUploading},
		done:   make(chan struct{}),
		cancel: cancel,
	}

	go func() {
		defer close(u.done)
		defer cancel()

		if err := up.put(ctx, uploadURL, content, size, u); err != nil {
			u.fail(err)
			return
		}

		u.succeed(fileURL)
	}()

	return u
}

func (up *Uploader) put(ctx context.Context, uploadURL string, content io.Reader, size int64, u *Upload) error {
	body := &progressReader{
		reader: content,
		total:  size,
		report: func(percent int) {
			u.setProgress(percent)
			if up.onProgress != nil {
				up.onProgress(percent)
			}
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, body)
	if err != nil {
		return err
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := up.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload failed: %s; body: %s", resp.Status, string(b))
	}

	return nil
}

// progressReader reports transferred bytes as a percentage of the declared
// total while the request body is consumed.
type progressReader struct {
	reader io.Reader
	total  int64
	sent   int64
	last   int
	report func(percent int)
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if n > 0 && r.total > 0 {
		r.sent += int64(n)
		percent := int(r.sent * 100 / r.total)
		if percent > 100 {
			percent = 100
		}
		if percent != r.last {
			r.last = percent
			r.report(percent)
		}
	}
	return n, err
}
