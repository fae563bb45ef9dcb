package certificates

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"event-portal/certificate-service/internal/events"
)

// Handler exposes certificate issuance and verification over HTTP.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/events/:id/certificates", h.IssueCertificate)
	r.GET("/events/:id/certificates", h.ListCertificates)
	r.GET("/verify-certificate/:number", h.VerifyCertificate)
}

// IssueCertificate issues (idempotently) and renders a certificate.
// The response carries the record plus both rendered files, base64
// encoded; 200 means the certificate already existed, 201 that it was
// created by this request.
func (h *Handler) IssueCertificate(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event ID"})
		return
	}

	var req IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.IssueAndRender(c.Request.Context(), eventID, req.UserID, req.ParticipantName)
	if errors.Is(err, events.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}
	if err != nil {
		h.logger.Error("certificate issuance failed",
			zap.String("event_id", eventID.String()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{
		"certificate": result.Record,
		"pdf_base64":  base64.StdEncoding.EncodeToString(result.PDF),
		"png_base64":  base64.StdEncoding.EncodeToString(result.PNG),
	})
}

func (h *Handler) ListCertificates(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event ID"})
		return
	}

	records, err := h.service.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"certificates": records, "total": len(records)})
}

// VerifyCertificate is the public endpoint QR codes point at. It
// always answers 200 with a valid flag so scanners get a uniform
// response shape.
func (h *Handler) VerifyCertificate(c *gin.Context) {
	result, err := h.service.Verify(c.Request.Context(), c.Param("number"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
