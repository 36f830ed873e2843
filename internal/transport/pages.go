package transport

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"fursaver-site/internal/conversation"
	apperrors "fursaver-site/internal/errors"
	"fursaver-site/internal/ingestion"
	"fursaver-site/internal/logger"
	"fursaver-site/internal/screening"
	"fursaver-site/internal/site"
)

const (
	screeningCookie    = "fursaver_screening"
	conversationCookie = "fursaver_chat"
)

func (h *handler) page(c *gin.Context) {
	view := site.ParseView(c.Query("view"))
	page := h.newPage(view)

	// viewing never starts a session; the first upload or message does
	switch view {
	case site.ViewUpload:
		state := screening.State{}
		if ws, ok := h.existingWorkspace(c); ok {
			state = ws.Snapshot()
		}
		page.Screening = &state
	case site.ViewConversation:
		if session, ok := h.existingConversation(c); ok {
			page.Messages = session.Messages()
			page.Sending = session.State() == conversation.StateSending
		} else {
			page.Messages = conversation.NewSession("", nil).Messages()
		}
	}

	c.HTML(http.StatusOK, site.PageTemplate, page)
}

func (h *handler) uploadImage(c *gin.Context) {
	ws := h.workspace(c)
	ctx, cancel := h.requestContext(c)
	defer cancel()

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		rejected := apperrors.NewValidationError(ingestion.InvalidImageMessage, err)
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			rejected = apperrors.NewTooLargeError(fmt.Sprintf("Image is larger than the %s limit.", h.uploadLimit()))
		}
		ws.Reject(rejected.Message)
		h.renderUpload(c, rejected.StatusCode, ws.Snapshot())
		return
	}
	defer file.Close()

	state, err := h.deps.Screenings.SelectImage(ctx, ws.ID, file, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		h.renderUpload(c, apperrors.GetStatusCode(err), state)
		return
	}
	c.Redirect(http.StatusSeeOther, site.ViewUpload.Path())
}

func (h *handler) analyzeImage(c *gin.Context) {
	ws, ok := h.existingWorkspace(c)
	if !ok {
		c.Redirect(http.StatusSeeOther, site.ViewUpload.Path())
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	state, err := h.deps.Screenings.Analyze(ctx, ws.ID)
	if err != nil {
		h.renderUpload(c, apperrors.GetStatusCode(err), state)
		return
	}
	c.Redirect(http.StatusSeeOther, site.ViewUpload.Path())
}

func (h *handler) resetUpload(c *gin.Context) {
	if ws, ok := h.existingWorkspace(c); ok {
		if _, err := h.deps.Screenings.Reset(c.Request.Context(), ws.ID); err != nil {
			logger.WithError(err).Warn("Failed to reset screening")
		}
	}
	c.Redirect(http.StatusSeeOther, site.ViewUpload.Path())
}

func (h *handler) chatAboutResults(c *gin.Context) {
	ws, ok := h.existingWorkspace(c)
	if !ok {
		c.Redirect(http.StatusSeeOther, site.ViewUpload.Path())
		return
	}
	prompt, err := h.deps.Screenings.ChatPrompt(ws.ID)
	if err != nil {
		c.Redirect(http.StatusSeeOther, site.ViewUpload.Path())
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	session, _, err := h.deps.Conversations.OpenWithPrompt(ctx, prompt)
	if err != nil {
		h.renderConversation(c, apperrors.GetStatusCode(err), session, err)
		return
	}
	h.setCookie(c, conversationCookie, session.ID)
	c.Redirect(http.StatusSeeOther, site.ViewConversation.Path())
}

func (h *handler) sendChat(c *gin.Context) {
	session := h.conversation(c)
	ctx, cancel := h.requestContext(c)
	defer cancel()

	if _, _, err := h.deps.Conversations.Send(ctx, session.ID, c.PostForm("message")); err != nil {
		h.renderConversation(c, apperrors.GetStatusCode(err), session, err)
		return
	}
	c.Redirect(http.StatusSeeOther, site.ViewConversation.Path())
}

func (h *handler) newPage(view site.View) site.Page {
	return site.Page{
		View:        view,
		Content:     h.deps.Content,
		UploadLimit: h.uploadLimit(),
	}
}

func (h *handler) renderUpload(c *gin.Context, status int, state screening.State) {
	page := h.newPage(site.ViewUpload)
	page.Screening = &state
	c.HTML(status, site.PageTemplate, page)
}

func (h *handler) renderConversation(c *gin.Context, status int, session *conversation.Session, err error) {
	page := h.newPage(site.ViewConversation)
	if session != nil {
		page.Messages = session.Messages()
		page.Sending = session.State() == conversation.StateSending
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		page.Notice = appErr.Message
	}
	c.HTML(status, site.PageTemplate, page)
}

func (h *handler) existingWorkspace(c *gin.Context) (*screening.Workspace, bool) {
	id, err := c.Cookie(screeningCookie)
	if err != nil {
		return nil, false
	}
	ws, err := h.deps.Screenings.Get(id)
	return ws, err == nil
}

func (h *handler) existingConversation(c *gin.Context) (*conversation.Session, bool) {
	id, err := c.Cookie(conversationCookie)
	if err != nil {
		return nil, false
	}
	session, err := h.deps.Conversations.Get(id)
	return session, err == nil
}

// workspace returns the visitor's screening workspace, starting a new one
// when the cookie is missing or has expired.
func (h *handler) workspace(c *gin.Context) *screening.Workspace {
	if ws, ok := h.existingWorkspace(c); ok {
		return ws
	}
	ws := h.deps.Screenings.Open()
	h.setCookie(c, screeningCookie, ws.ID)
	return ws
}

func (h *handler) conversation(c *gin.Context) *conversation.Session {
	if session, ok := h.existingConversation(c); ok {
		return session
	}
	session := h.deps.Conversations.Open()
	h.setCookie(c, conversationCookie, session.ID)
	return session
}

func (h *handler) setCookie(c *gin.Context, name, value string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, int(h.cfg.Session.TTL.Seconds()), "/", "", c.Request.TLS != nil, true)
}

func (h *handler) uploadLimit() string {
	const mb = 1 << 20
	if h.cfg.MaxUploadSize%mb == 0 {
		return fmt.Sprintf("%dMB", h.cfg.MaxUploadSize/mb)
	}
	return fmt.Sprintf("%d bytes", h.cfg.MaxUploadSize)
}
