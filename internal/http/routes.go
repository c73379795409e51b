package http

import (
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/RagnarAgustsson/HandritiB/internal/config"
	"github.com/RagnarAgustsson/HandritiB/internal/domain"
	"github.com/RagnarAgustsson/HandritiB/internal/metrics"
	"github.com/RagnarAgustsson/HandritiB/internal/pipeline"
	"github.com/RagnarAgustsson/HandritiB/internal/services"
	"github.com/RagnarAgustsson/HandritiB/internal/storage"
)

type API struct {
	cfg       config.Config
	store     *storage.Store
	processor *pipeline.Processor
	finalizer *pipeline.Finalizer
	uploader  *pipeline.Uploader
	pdf       *services.PDFService
	share     *services.ShareService
	metrics   *metrics.Metrics
}

func NewAPI(cfg config.Config, store *storage.Store, processor *pipeline.Processor,
	finalizer *pipeline.Finalizer, uploader *pipeline.Uploader,
	pdf *services.PDFService, share *services.ShareService, m *metrics.Metrics) *API {
	return &API{
		cfg:       cfg,
		store:     store,
		processor: processor,
		finalizer: finalizer,
		uploader:  uploader,
		pdf:       pdf,
		share:     share,
		metrics:   m,
	}
}

func registerRoutes(r *gin.Engine, api *API) {
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/health", api.handleHealth)

		authed := apiGroup.Group("", RequireOwner())
		{
			authed.POST("/sessions", api.handleCreateSession)
			authed.GET("/sessions", api.handleListSessions)
			authed.GET("/sessions/:id", api.handleGetSession)
			authed.PATCH("/sessions/:id", api.handlePatchSession)
			authed.POST("/sessions/:id/chunks", api.handleProcessChunk)
			authed.GET("/sessions/:id/stream", api.handleStream)
			authed.POST("/sessions/:id/pdf", api.handleGeneratePDF)
			authed.POST("/sessions/:id/share", api.handleShareSession)
			authed.POST("/uploads", api.handleUpload)
		}
	}

	r.GET("/pdf/:id", api.handleServePDF)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (a *API) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (a *API) handleCreateSession(c *gin.Context) {
	var payload struct {
		Name    string `json:"name"`
		Profile string `json:"profile"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	profile, err := domain.ParseProfile(payload.Profile)
	if err != nil {
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	name := strings.TrimSpace(payload.Name)
	if name == "" {
		name = "Untitled session"
	}

	sess, err := a.store.CreateSession(ownerID(c), name, profile)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"session": sess})
}

func (a *API) handleListSessions(c *gin.Context) {
	sessions, err := a.store.ListSessionsByOwner(ownerID(c))
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	if sessions == nil {
		sessions = []domain.Session{}
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (a *API) handleGetSession(c *gin.Context) {
	sess, ok := a.ownedSession(c)
	if !ok {
		return
	}

	chunks, err := a.store.ListChunks(sess.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	notes, err := a.store.ListNotes(sess.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": sess, "chunks": chunks, "notes": notes})
}

func (a *API) handlePatchSession(c *gin.Context) {
	sess, ok := a.ownedSession(c)
	if !ok {
		return
	}

	var payload struct {
		Action string `json:"action"`
		Name   string `json:"name"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	switch payload.Action {
	case "finalize":
		updated, err := a.finalizer.Finalize(c.Request.Context(), sess.ID)
		if err != nil {
			respondMapped(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"session": updated})

	case "rename", "":
		name := strings.TrimSpace(payload.Name)
		if name == "" {
			respondMessage(c, http.StatusBadRequest, "missing name")
			return
		}
		updated, err := a.store.UpdateSession(sess.ID, domain.SessionUpdate{Name: &name})
		if err != nil {
			respondMapped(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"session": updated})

	default:
		respondMessage(c, http.StatusBadRequest, "unknown action")
	}
}

// handleProcessChunk is the live-recording path: one flushed audio
// segment in, one chunk-and-note pipeline invocation out.
func (a *API) handleProcessChunk(c *gin.Context) {
	sess, ok := a.ownedSession(c)
	if !ok {
		return
	}
	if sess.Status != domain.StatusActive {
		respondMessage(c, http.StatusConflict, "session is "+string(sess.Status))
		return
	}

	fileHeader, err := c.FormFile("audio")
	if err != nil {
		if bodyTooLarge(err) {
			respondMapped(c, domain.ErrPayloadTooLarge)
			return
		}
		respondMessage(c, http.StatusBadRequest, "missing audio file")
		return
	}

	seq, err := strconv.Atoi(c.DefaultPostForm("seq", "0"))
	if err != nil || seq < 0 {
		respondMessage(c, http.StatusBadRequest, "invalid seq")
		return
	}
	seconds, _ := strconv.Atoi(c.DefaultPostForm("seconds", "0"))

	upload, err := fileHeader.Open()
	if err != nil {
		respondMessage(c, http.StatusInternalServerError, "unable to read uploaded file")
		return
	}
	defer upload.Close()

	data, err := io.ReadAll(upload)
	if err != nil {
		respondMessage(c, http.StatusBadRequest, "unable to read uploaded file")
		return
	}

	result, err := a.processor.ProcessChunk(c.Request.Context(), pipeline.Input{
		SessionID:       sess.ID,
		Seq:             seq,
		Audio:           data,
		Filename:        fileHeader.Filename,
		Profile:         sess.Profile,
		DurationSeconds: seconds,
	})
	if err != nil {
		log.Printf("process chunk seq=%d session=%s: %v", seq, sess.ID, err)
		respondMapped(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transcript":     result.Transcript,
		"notes":          result.Notes,
		"rollingSummary": result.RollingSummary,
		"chunkId":        result.ChunkID,
	})
}

// handleUpload is the whole-file path: split, process every piece and
// finalize in a single request.
func (a *API) handleUpload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		if bodyTooLarge(err) {
			respondMapped(c, domain.ErrPayloadTooLarge)
			return
		}
		respondMessage(c, http.StatusBadRequest, "missing audio file")
		return
	}

	profile, err := domain.ParseProfile(c.PostForm("profile"))
	if err != nil {
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	upload, err := fileHeader.Open()
	if err != nil {
		respondMessage(c, http.StatusInternalServerError, "unable to read uploaded file")
		return
	}
	defer upload.Close()

	data, err := io.ReadAll(upload)
	if err != nil {
		respondMessage(c, http.StatusBadRequest, "unable to read uploaded file")
		return
	}

	result, err := a.uploader.ProcessUpload(c.Request.Context(), ownerID(c),
		c.PostForm("name"), profile, data, fileHeader.Filename)
	if err != nil {
		log.Printf("upload %s: %v", fileHeader.Filename, err)
		respondMapped(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"sessionId": result.Session.ID, "pieces": result.Pieces})
}

func (a *API) handleGeneratePDF(c *gin.Context) {
	sess, ok := a.ownedSession(c)
	if !ok {
		return
	}

	notes, err := a.store.ListNotes(sess.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	outPath := a.pdfPath(sess.ID)
	if err := a.pdf.GeneratePDF(sess, notes, outPath); err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"pdfPath": outPath})
}

func (a *API) handleShareSession(c *gin.Context) {
	sess, ok := a.ownedSession(c)
	if !ok {
		return
	}

	if _, err := os.Stat(a.pdfPath(sess.ID)); err != nil {
		respondMessage(c, http.StatusBadRequest, "no pdf available for this session")
		return
	}

	url, expiresAt, err := a.share.Generate(sess.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url, "expiresAt": expiresAt.UTC()})
}

func (a *API) handleServePDF(c *gin.Context) {
	sessionID := c.Param("id")
	expiresParam := c.Query("exp")
	signature := c.Query("sig")

	if expiresParam == "" || signature == "" {
		respondMessage(c, http.StatusBadRequest, "missing signature")
		return
	}

	expires, err := strconv.ParseInt(expiresParam, 10, 64)
	if err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid expiration")
		return
	}

	if expires < time.Now().Unix() {
		respondMessage(c, http.StatusGone, "link expired")
		return
	}

	path := c.Request.URL.Path
	if !a.share.Validate(path, expires, signature) {
		respondMessage(c, http.StatusForbidden, "invalid signature")
		return
	}

	pdfPath := a.pdfPath(sessionID)
	if _, err := os.Stat(pdfPath); err != nil {
		respondMessage(c, http.StatusNotFound, "pdf not found")
		return
	}

	c.Header("Content-Type", "application/pdf")
	c.FileAttachment(pdfPath, filepath.Base(pdfPath))
}

// ownedSession resolves the :id session and verifies ownership. A session
// another user owns reads as not found, so existence never leaks.
func (a *API) ownedSession(c *gin.Context) (domain.Session, bool) {
	sess, err := a.store.GetSession(c.Param("id"))
	if err != nil || sess.OwnerID != ownerID(c) {
		respondMessage(c, http.StatusNotFound, "session not found")
		return domain.Session{}, false
	}
	return sess, true
}

func (a *API) pdfPath(sessionID string) string {
	return filepath.Join(a.cfg.DataDir, "pdf", sessionID+".pdf")
}

// bodyTooLarge reports whether err came from the request body limit,
// which multipart parsing surfaces before any handler logic runs.
func bodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// respondMapped translates pipeline and store errors into status codes.
func respondMapped(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrPayloadTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrDecodeFailed):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrTranscriptionFailed), errors.Is(err, domain.ErrSummarizationFailed):
		status = http.StatusBadGateway
	}
	respondError(c, status, err)
}

func respondError(c *gin.Context, status int, err error) {
	respondMessage(c, status, err.Error())
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
