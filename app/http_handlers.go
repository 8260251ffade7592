package app

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mkrupkin/pricefinder/app/models"
	"github.com/mkrupkin/pricefinder/auth"

	"github.com/gin-gonic/gin"
)

const (
	maxImageBytes  = 10 << 20 // 10MB
	minQueryLength = 2
	maxQueryLength = 500
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// AnalyzeProduct is the main search endpoint: accepts either a text_query
// form value or an image upload, runs the pipeline, and returns the assembled
// result.
func AnalyzeProduct(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, errorBody("missing auth context", KindAuth))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 90*time.Second)
	defer cancel()

	req := SearchRequest{Location: readUserLocation(c)}

	if file, err := c.FormFile("image"); err == nil {
		open := func() (io.ReadCloser, error) { return file.Open() }
		imageBase64, imgErr := readImageUpload(open, file.Size, file.Header.Get("Content-Type"))
		if imgErr != nil {
			c.JSON(http.StatusBadRequest, errorBody(imgErr.Error(), KindSchema))
			return
		}
		req.ImageBase64 = imageBase64
		req.Query = "Image: " + file.Filename
	} else {
		query := strings.TrimSpace(c.PostForm("text_query"))
		if query == "" {
			c.JSON(http.StatusBadRequest, errorBody("no image or text query provided", KindSchema))
			return
		}
		if len(query) < minQueryLength {
			c.JSON(http.StatusBadRequest, errorBody("query too short, minimum 2 characters", KindSchema))
			return
		}
		if len(query) > maxQueryLength {
			c.JSON(http.StatusBadRequest, errorBody("query too long, maximum 500 characters", KindSchema))
			return
		}
		req.Query = query
	}

	resp, err := PerformSearch(ctx, claims.UserID, req)
	if err != nil {
		var quota quotaError
		if errors.As(err, &quota) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success":   false,
				"error":     err.Error(),
				"kind":      KindRateLimit,
				"remaining": quota.Status.Remaining,
				"limit":     quota.Status.Limit,
				"plan":      quota.Status.Plan,
			})
			return
		}
		respondPipelineError(c, err)
		return
	}

	logSearch(resp)
	c.JSON(http.StatusOK, resp)
}

// GetQuota exposes the current daily allowance for the authenticated user.
func GetQuota(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, errorBody("missing auth context", KindAuth))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	quota, err := CanUserSearch(ctx, claims.UserID)
	if err != nil {
		respondPipelineError(c, err)
		return
	}

	c.JSON(http.StatusOK, quota)
}

type updatePlanRequest struct {
	Plan       models.Plan `json:"plan"`
	BillingRef string      `json:"billing_ref"`
}

// UpdateUserPlan moves the authenticated user onto the requested plan and
// records the ledger entry.
func UpdateUserPlan(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, errorBody("missing auth context", KindAuth))
		return
	}

	var req updatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid request", KindInvalidPlan))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	change, err := UpdatePlan(ctx, claims.UserID, req.Plan, req.BillingRef)
	if err != nil {
		respondPipelineError(c, err)
		return
	}

	c.JSON(http.StatusOK, change)
}

func readUserLocation(c *gin.Context) models.UserLocation {
	location := models.UserLocation{Country: "Ukraine", City: "Kyiv", IP: c.ClientIP()}
	if raw := c.PostForm("user_location"); raw != "" {
		_ = json.Unmarshal([]byte(raw), &location)
	}
	return location
}

func readImageUpload(open func() (io.ReadCloser, error), size int64, contentType string) (string, error) {
	if size > maxImageBytes {
		return "", errors.New("file too large, maximum size is 10MB")
	}

	f, err := open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > maxImageBytes {
		return "", errors.New("file too large, maximum size is 10MB")
	}

	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if !allowedImageTypes[contentType] {
		return "", errors.New("unsupported file type, use JPEG, PNG or WebP")
	}

	return base64.StdEncoding.EncodeToString(data), nil
}

func errorBody(message, kind string) gin.H {
	return gin.H{"success": false, "error": message, "kind": kind}
}

// respondPipelineError maps the error taxonomy onto transport status codes.
// Only rate_limit is worth a client retry.
func respondPipelineError(c *gin.Context, err error) {
	kind := ErrorKind(err)

	status := http.StatusInternalServerError
	switch kind {
	case KindExtraction, KindSchema:
		status = http.StatusBadGateway
	case KindAuth, KindBilling, KindService:
		status = http.StatusBadGateway
	case KindRateLimit:
		status = http.StatusServiceUnavailable
	case KindUserNotFound:
		status = http.StatusNotFound
	case KindInvalidPlan:
		status = http.StatusBadRequest
	}

	if kind == KindExtraction || kind == KindSchema {
		log.Printf("pipeline rejected provider response: %v", err)
		c.JSON(status, errorBody("could not parse provider response", kind))
		return
	}

	log.Printf("pipeline error kind=%s err=%v", kind, err)
	c.JSON(status, errorBody(err.Error(), kind))
}
