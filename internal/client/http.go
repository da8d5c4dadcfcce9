package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"plant-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const defaultTimeout = 30 * time.Second

// HTTPClient talks to the plant API over HTTP using fiber's client agent.
type HTTPClient struct {
	baseURL string
	timeout time.Duration
}

// NewHTTPClient targets the API served at baseURL, e.g. http://localhost:3001.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{baseURL: strings.TrimRight(baseURL, "/"), timeout: defaultTimeout}
}

// WithTimeout sets the per-request timeout used when ctx has no deadline.
func (h *HTTPClient) WithTimeout(d time.Duration) *HTTPClient {
	h.timeout = d
	return h
}

// FeedURL is the websocket address of the live feed.
func (h *HTTPClient) FeedURL() string {
	u := h.baseURL
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws"
}

func (h *HTTPClient) List(ctx context.Context) ([]models.Plant, error) {
	var plants []models.Plant
	if err := h.do(ctx, fiber.Get(h.baseURL+"/api/plants"), &plants); err != nil {
		return nil, err
	}
	return plants, nil
}

func (h *HTTPClient) Create(ctx context.Context, name string, img Image) (models.Plant, error) {
	var a *fiber.Agent
	if img.File != nil {
		a = multipart(fiber.Post(h.baseURL+"/api/plants"), map[string]string{"name": name, "imageUrl": img.URL}, img.File)
	} else {
		a = fiber.Post(h.baseURL + "/api/plants").JSON(models.CreatePlantRequest{Name: name, ImageURL: img.URL})
	}
	var p models.Plant
	err := h.do(ctx, a, &p)
	return p, err
}

func (h *HTTPClient) AppendImage(ctx context.Context, id string, img Image) (models.Plant, error) {
	target := h.baseURL + "/api/plants/" + url.PathEscape(id) + "/images"
	var a *fiber.Agent
	if img.File != nil {
		a = multipart(fiber.Put(target), map[string]string{"imageUrl": img.URL}, img.File)
	} else {
		a = fiber.Put(target).JSON(models.AppendImageRequest{ImageURL: img.URL})
	}
	var p models.Plant
	err := h.do(ctx, a, &p)
	return p, err
}

// multipart attaches the file as the "image" field plus any non-empty values.
func multipart(a *fiber.Agent, values map[string]string, f *File) *fiber.Agent {
	args := fiber.AcquireArgs()
	defer fiber.ReleaseArgs(args)
	for k, v := range values {
		if v != "" {
			args.Set(k, v)
		}
	}
	// files must be attached before the form is encoded
	return a.FileData(&fiber.FormFile{Fieldname: "image", Name: f.Name, Content: f.Content}).MultipartForm(args)
}

// do sends the request and decodes a 2xx JSON body into out. Other statuses
// become *APIError carrying the server's msg.
func (h *HTTPClient) do(ctx context.Context, a *fiber.Agent, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timeout := h.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	a.Timeout(timeout)

	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		apiErr := &APIError{Status: code}
		var msg struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(body, &msg) == nil {
			apiErr.Msg = msg.Msg
		}
		return apiErr
	}
	return json.Unmarshal(body, out)
}
