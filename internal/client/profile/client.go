package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/Sukhmangill977/majoor2.0/internal/client/uploader"
)

// User is the client-side view of the account record.
type User struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profilePicture"`
	Token          string `json:"token,omitempty"`
}

// UpdateFields is the pending profile form. Nil fields are not sent.
type UpdateFields struct {
	Username       *string `json:"username,omitempty"`
	Email          *string `json:"email,omitempty"`
	Password       *string `json:"password,omitempty"`
	ProfilePicture *string `json:"profilePicture,omitempty"`
}

type errorEnvelope struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

type uploadTarget struct {
	UploadURL string `json:"uploadUrl"`
	FileURL   string `json:"fileUrl"`
}

// Client talks to the profile server and coordinates uploads the way the
// profile form does: avatar URLs are staged until Submit, document URLs are
// attached immediately. Avatar and document uploads are independent and may
// run at the same time.
type Client struct {
	baseURL    string
	httpClient *http.Client
	uploader   *uploader.Uploader

	wg sync.WaitGroup

	mu          sync.Mutex
	token       string
	currentUser User
	pending     UpdateFields
	pdfURLs     []string
	avatarErr   error
	documentErr error
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.uploader == nil {
		c.uploader = uploader.New(uploader.WithHTTPClient(c.httpClient))
	}
	return c
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

func WithUploader(u *uploader.Uploader) Option {
	return func(c *Client) {
		c.uploader = u
	}
}

func (c *Client) Signup(ctx context.Context, username, email, password string) (*User, error) {
	body := map[string]string{"username": username, "email": email, "password": password}

	var user User
	if err := c.doJSON(ctx, http.MethodPost, "/v1/auth/signup", body, &user); err != nil {
		return nil, err
	}

	c.setSession(user)
	return &user, nil
}

func (c *Client) Signin(ctx context.Context, email, password string) (*User, error) {
	body := map[string]string{"email": email, "password": password}

	var user User
	if err := c.doJSON(ctx, http.MethodPost, "/v1/auth/signin", body, &user); err != nil {
		return nil, err
	}

	c.setSession(user)
	return &user, nil
}

// Signout discards the token client-side; the server keeps no session state.
func (c *Client) Signout(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodPost, "/v1/auth/signout", nil, nil); err != nil {
		return err
	}

	c.mu.Lock()
	c.token = ""
	c.currentUser = User{}
	c.mu.Unlock()
	return nil
}

// UploadAvatar streams the image to object storage. On success the resulting
// URL is staged into the pending form buffer; nothing is sent to the server
// until Submit.
func (c *Client) UploadAvatar(ctx context.Context, content io.Reader, size int64) (*uploader.Upload, error) {
	target, err := c.requestUploadTarget(ctx, "avatar")
	if err != nil {
		return nil, err
	}

	u := c.uploader.Start(ctx, target.UploadURL, target.FileURL, content, size)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		<-u.Done()
		status := u.Status()

		c.mu.Lock()
		defer c.mu.Unlock()
		if status.State == uploader.StateSucceeded {
			url := status.FileURL
			c.pending.ProfilePicture = &url
			c.avatarErr = nil
		} else {
			c.avatarErr = status.Err
		}
	}()

	return u, nil
}

// UploadDocument streams a PDF to object storage and, on success, attaches
// the URL to the account right away. The server's returned list replaces the
// local one.
func (c *Client) UploadDocument(ctx context.Context, content io.Reader, size int64) (*uploader.Upload, error) {
	target, err := c.requestUploadTarget(ctx, "pdf")
	if err != nil {
		return nil, err
	}

	u := c.uploader.Start(ctx, target.UploadURL, target.FileURL, content, size)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		<-u.Done()
		status := u.Status()

		if status.State != uploader.StateSucceeded {
			c.mu.Lock()
			c.documentErr = status.Err
			c.mu.Unlock()
			return
		}

		urls, err := c.AttachPDF(ctx, status.FileURL)

		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			c.documentErr = err
			return
		}
		c.documentErr = nil
		c.pdfURLs = urls
	}()

	return u, nil
}

// AttachPDF appends the URL to the account's attachment list and returns the
// full list in attachment order.
func (c *Client) AttachPDF(ctx context.Context, downloadURL string) ([]string, error) {
	c.mu.Lock()
	userID := c.currentUser.ID
	c.mu.Unlock()

	var resp struct {
		PDFURLs []string `json:"pdfUrls"`
	}
	body := map[string]string{"downloadURL": downloadURL}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/users/upload/pdf/"+userID, body, &resp); err != nil {
		return nil, err
	}

	return resp.PDFURLs, nil
}

// LoadPDFs fetches the stored attachment list, replacing the local copy.
func (c *Client) LoadPDFs(ctx context.Context) ([]string, error) {
	var resp struct {
		PDFURLs []string `json:"pdfUrls"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/users/pdfs", nil, &resp); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.pdfURLs = resp.PDFURLs
	c.mu.Unlock()
	return resp.PDFURLs, nil
}

// Submit sends the profile form together with any staged avatar URL and
// replaces the local user with the server-confirmed record.
func (c *Client) Submit(ctx context.Context, fields UpdateFields) (*User, error) {
	c.mu.Lock()
	if fields.ProfilePicture == nil && c.pending.ProfilePicture != nil {
		fields.ProfilePicture = c.pending.ProfilePicture
	}
	userID := c.currentUser.ID
	c.mu.Unlock()

	var user User
	if err := c.doJSON(ctx, http.MethodPost, "/v1/users/update/"+userID, fields, &user); err != nil {
		return nil, err
	}

	c.mu.Lock()
	user.Token = c.currentUser.Token
	c.currentUser = user
	c.pending = UpdateFields{}
	c.mu.Unlock()

	return &user, nil
}

func (c *Client) DeleteAccount(ctx context.Context) error {
	c.mu.Lock()
	userID := c.currentUser.ID
	c.mu.Unlock()

	if err := c.doJSON(ctx, http.MethodDelete, "/v1/users/delete/"+userID, nil, nil); err != nil {
		return err
	}

	c.mu.Lock()
	c.token = ""
	c.currentUser = User{}
	c.pdfURLs = nil
	c.mu.Unlock()
	return nil
}

// Wait blocks until the bookkeeping that follows finished uploads (staging
// an avatar URL, attaching a document) has settled.
func (c *Client) Wait() {
	c.wg.Wait()
}

func (c *Client) CurrentUser() User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentUser
}

func (c *Client) PDFURLs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	urls := make([]string, len(c.pdfURLs))
	copy(urls, c.pdfURLs)
	return urls
}

// AvatarError reports the last avatar upload failure, nil if none.
func (c *Client) AvatarError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.avatarErr
}

// DocumentError reports the last document upload or attach failure.
func (c *Client) DocumentError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.documentErr
}

// PendingProfilePicture exposes the staged avatar URL, empty if none.
func (c *Client) PendingProfilePicture() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending.ProfilePicture == nil {
		return ""
	}
	return *c.pending.ProfilePicture
}

func (c *Client) setSession(user User) {
	c.mu.Lock()
	c.token = user.Token
	c.currentUser = user
	c.mu.Unlock()
}

func (c *Client) requestUploadTarget(ctx context.Context, kind string) (*uploadTarget, error) {
	var target uploadTarget
	if err := c.doJSON(ctx, http.MethodPost, "/v1/users/upload-url/"+kind, nil, &target); err != nil {
		return nil, err
	}
	return &target, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var envelope errorEnvelope
		if err := json.Unmarshal(data, &envelope); err == nil && envelope.Message != "" {
			return fmt.Errorf("server error (%d): %s", envelope.StatusCode, envelope.Message)
		}
		return fmt.Errorf("server error: %s", resp.Status)
	}

	if out != nil {
		return json.Unmarshal(data, out)
	}

	return nil
}
