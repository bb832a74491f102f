package uploads

import (
	"context"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"window-backend/internal/shared/server/respond"
	"window-backend/internal/shared/storage/object"
	"window-backend/internal/shared/telemetry"
)

const (
	maxUploadBytes     = 10 << 20
	presignExpires     = 15 * time.Minute
	defaultRegion      = "us-east-1"
	defaultPhotoPrefix = "photos/"
)

var allowedContentTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/heic": {},
}

// Handler accepts window photos. Direct multipart uploads go through the
// object store; clients that can talk to S3 themselves get a presigned PUT.
type Handler struct {
	store   object.ObjectStore
	presign *s3.PresignClient
	bucket  string
	prefix  string
}

// NewHandler constructs a Handler over the given object store. The presign
// route stays disabled until ConfigurePresignFromEnv succeeds.
func NewHandler(store object.ObjectStore) *Handler {
	return &Handler{store: store, prefix: defaultPhotoPrefix}
}

// ConfigurePresignFromEnv enables presigned S3 uploads using PHOTOS_S3_BUCKET
// and the ambient AWS credential chain.
func (h *Handler) ConfigurePresignFromEnv(ctx context.Context) error {
	bucket := strings.TrimSpace(os.Getenv("PHOTOS_S3_BUCKET"))
	if bucket == "" {
		return errConfig("PHOTOS_S3_BUCKET is required")
	}
	region := strings.TrimSpace(os.Getenv("AWS_REGION"))
	if region == "" {
		region = defaultRegion
	}
	prefix := strings.TrimSpace(os.Getenv("PHOTOS_S3_PREFIX"))
	if prefix == "" {
		prefix = defaultPhotoPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return errConfig("failed to load aws config")
	}

	h.presign = s3.NewPresignClient(s3.NewFromConfig(cfg))
	h.bucket = bucket
	h.prefix = prefix
	return nil
}

// RegisterRoutes attaches upload routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/uploads/photos", h.uploadPhoto)
	rg.POST("/uploads/presign", h.presignPhoto)
}

func (h *Handler) uploadPhoto(c *gin.Context) {
	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "photo file is required", nil)
		return
	}
	defer file.Close()

	if header.Size > maxUploadBytes {
		respond.Error(c, http.StatusBadRequest, "validation_error", "photo exceeds size limit", nil)
		return
	}

	key, size, mimeType, err := h.store.Save(c.Request.Context(), header.Filename, file)
	if err != nil {
		telemetry.Error("uploads.save_failed", map[string]any{
			"err":        err.Error(),
			"fileName":   header.Filename,
			"request_id": c.GetString("requestId"),
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to store photo", nil)
		return
	}
	if _, ok := allowedContentTypes[mimeType]; !ok {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is not a supported image", []map[string]string{
			{"field": "photo", "issue": mimeType},
		})
		return
	}

	respond.JSON(c, http.StatusCreated, gin.H{
		"photoKey":  key,
		"sizeBytes": size,
		"mimeType":  mimeType,
	})
}

type presignRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
}

type presignResponse struct {
	UploadURL        string `json:"uploadUrl"`
	S3Key            string `json:"s3Key"`
	ExpiresInSeconds int64  `json:"expiresInSeconds"`
}

func (h *Handler) presignPhoto(c *gin.Context) {
	if h.presign == nil {
		respond.Error(c, http.StatusServiceUnavailable, "not_configured", "presigned uploads are not configured", nil)
		return
	}

	var req presignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	req.FileName = strings.TrimSpace(req.FileName)
	req.ContentType = strings.TrimSpace(req.ContentType)

	if req.FileName == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "fileName is required", nil)
		return
	}
	if _, ok := allowedContentTypes[req.ContentType]; !ok {
		respond.Error(c, http.StatusBadRequest, "validation_error", "contentType is not allowed", nil)
		return
	}
	if req.SizeBytes <= 0 || req.SizeBytes > maxUploadBytes {
		respond.Error(c, http.StatusBadRequest, "validation_error", "sizeBytes exceeds limit", nil)
		return
	}

	key := path.Join(h.prefix, uuid.NewString()+"-"+sanitizeFileName(req.FileName))
	out, err := h.presign.PresignPutObject(c.Request.Context(), presignInput(h.bucket, key), func(opts *s3.PresignOptions) {
		opts.Expires = presignExpires
	})
	if err != nil {
		telemetry.Error("uploads.presign_failed", map[string]any{
			"err":        err.Error(),
			"bucket":     h.bucket,
			"key":        key,
			"request_id": c.GetString("requestId"),
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to generate upload url", nil)
		return
	}

	respond.JSON(c, http.StatusOK, presignResponse{
		UploadURL:        out.URL,
		S3Key:            key,
		ExpiresInSeconds: int64(presignExpires.Seconds()),
	})
}

func presignInput(bucket, key string) *s3.PutObjectInput {
	return &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
}

func sanitizeFileName(name string) string {
	base := path.Base(name)
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out == "" || out == "." {
		return "photo"
	}
	return out
}

type errConfig string

func (e errConfig) Error() string { return string(e) }
