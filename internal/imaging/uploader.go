// Package imaging uploads campground photos to a hosted image service
// and removes them when their owners are deleted.
package imaging

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"wanderlust/internal/observability"
)

// ErrUnsupportedFormat is returned when a file's extension is not on the
// allow-list. The check runs before any network call.
var ErrUnsupportedFormat = errors.New("imaging: unsupported image format")

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// AllowedExtension reports whether the filename carries an accepted image
// extension. Matching is case-insensitive.
func AllowedExtension(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// UploadResult identifies a hosted image.
type UploadResult struct {
	URL      string
	PublicID string
}

// Uploader stores and removes hosted images.
type Uploader interface {
	Upload(ctx context.Context, filename string, data []byte) (*UploadResult, error)
	Destroy(ctx context.Context, publicID string) error
}

// CloudinaryClient uploads images to Cloudinary using signed form posts.
type CloudinaryClient struct {
	apiKey    string
	apiSecret string
	folder    string
	baseURL   string
	http      *http.Client
	log       *observability.AdapterLogger
	now       func() time.Time
}

// NewCloudinary creates a client for the given Cloudinary account.
func NewCloudinary(cloudName, apiKey, apiSecret, folder string) *CloudinaryClient {
	return &CloudinaryClient{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		folder:    folder,
		baseURL:   "https://api.cloudinary.com/v1_1/" + cloudName,
		http:      &http.Client{Timeout: 30 * time.Second},
		log:       observability.NewAdapterLogger("cloudinary"),
		now:       time.Now,
	}
}

// sign builds the SHA1 request signature Cloudinary expects for signed
// uploads: the sorted parameter string followed by the API secret.
func (c *CloudinaryClient) sign(publicID, timestamp string) string {
	payload := fmt.Sprintf("public_id=%s&timestamp=%s%s", publicID, timestamp, c.apiSecret)
	return fmt.Sprintf("%x", sha1.Sum([]byte(payload)))
}

type cloudinaryResponse struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
	PublicID  string `json:"public_id"`
	Result    string `json:"result"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload stores the image and returns its hosted URL and public ID. The
// extension allow-list is enforced before the request is made.
func (c *CloudinaryClient) Upload(ctx context.Context, filename string, data []byte) (*UploadResult, error) {
	if !AllowedExtension(filename) {
		return nil, ErrUnsupportedFormat
	}

	span, ctx := observability.NewSpan(ctx, "cloudinary.upload")
	defer span.End()

	publicID := uuid.NewString()
	if c.folder != "" {
		publicID = c.folder + "/" + publicID
	}
	timestamp := fmt.Sprintf("%d", c.now().Unix())

	form := url.Values{}
	form.Set("file", "data:image/jpeg;base64,"+base64.StdEncoding.EncodeToString(data))
	form.Set("api_key", c.apiKey)
	form.Set("public_id", publicID)
	form.Set("timestamp", timestamp)
	form.Set("signature", c.sign(publicID, timestamp))

	parsed, err := c.post(ctx, c.baseURL+"/image/upload", form)
	if err != nil {
		observability.ImageUploads.WithLabelValues("upload", "error").Inc()
		span.SetError(err)
		c.log.LogError(ctx, err, "upload")
		return nil, err
	}

	hostedURL := parsed.SecureURL
	if hostedURL == "" {
		hostedURL = parsed.URL
	}
	if hostedURL == "" {
		observability.ImageUploads.WithLabelValues("upload", "error").Inc()
		return nil, errors.New("imaging: upload response missing URL")
	}
	if parsed.PublicID != "" {
		publicID = parsed.PublicID
	}

	observability.ImageUploads.WithLabelValues("upload", "ok").Inc()
	c.log.LogCall(ctx, "upload", map[string]interface{}{"public_id": publicID})
	return &UploadResult{URL: hostedURL, PublicID: publicID}, nil
}

// Destroy removes a hosted image by its public ID.
func (c *CloudinaryClient) Destroy(ctx context.Context, publicID string) error {
	span, ctx := observability.NewSpan(ctx, "cloudinary.destroy")
	defer span.End()

	timestamp := fmt.Sprintf("%d", c.now().Unix())

	form := url.Values{}
	form.Set("public_id", publicID)
	form.Set("api_key", c.apiKey)
	form.Set("timestamp", timestamp)
	form.Set("signature", c.sign(publicID, timestamp))

	parsed, err := c.post(ctx, c.baseURL+"/image/destroy", form)
	if err != nil {
		observability.ImageUploads.WithLabelValues("destroy", "error").Inc()
		span.SetError(err)
		c.log.LogError(ctx, err, "destroy")
		return err
	}
	if parsed.Result != "ok" {
		observability.ImageUploads.WithLabelValues("destroy", "error").Inc()
		return fmt.Errorf("imaging: destroy result %q", parsed.Result)
	}

	observability.ImageUploads.WithLabelValues("destroy", "ok").Inc()
	c.log.LogCall(ctx, "destroy", map[string]interface{}{"public_id": publicID})
	return nil
}

func (c *CloudinaryClient) post(ctx context.Context, endpoint string, form url.Values) (*cloudinaryResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("imaging: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("imaging: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("imaging: read response: %w", err)
	}

	var parsed cloudinaryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("imaging: decode response: %w", err)
	}
	if parsed.Error.Message != "" {
		return nil, fmt.Errorf("imaging: provider error: %s", parsed.Error.Message)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("imaging: provider returned status %d", res.StatusCode)
	}
	return &parsed, nil
}
