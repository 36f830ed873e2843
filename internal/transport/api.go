package transport

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"fursaver-site/internal/conversation"
	apperrors "fursaver-site/internal/errors"
	"fursaver-site/internal/ingestion"
	"fursaver-site/internal/screening"
)

type MessageRequest struct {
	Text string `json:"text"`
}

type ConversationResponse struct {
	ID       string                 `json:"id"`
	State    conversation.State     `json:"state"`
	Messages []conversation.Message `json:"messages"`
}

type ExchangeResponse struct {
	ConversationResponse
	Reply conversation.Message `json:"reply"`
	// Degraded is set when the assistant was unreachable and the fallback
	// reply was used
	Degraded bool `json:"degraded"`
}

// ScreeningErrorResponse carries the workspace alongside the error so a
// client can keep showing the photo after a failed analysis
type ScreeningErrorResponse struct {
	ErrorResponse
	Screening screening.State `json:"screening"`
}

func (h *handler) createScreening(c *gin.Context) {
	ws := h.deps.Screenings.Open()
	c.JSON(http.StatusCreated, ws.Snapshot())
}

func (h *handler) getScreening(c *gin.Context) {
	ws, err := h.deps.Screenings.Get(c.Param("id"))
	if err != nil {
		respondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, ws.Snapshot())
}

func (h *handler) closeScreening(c *gin.Context) {
	if err := h.deps.Screenings.Close(c.Param("id")); err != nil {
		respondAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) putScreeningImage(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.deps.Screenings.Get(id); err != nil {
		respondAppError(c, err)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondAppError(c, apperrors.NewTooLargeError(fmt.Sprintf("Image is larger than the %s limit.", h.uploadLimit())))
			return
		}
		respondAppError(c, apperrors.NewValidationError(ingestion.InvalidImageMessage, err))
		return
	}
	defer file.Close()

	state, err := h.deps.Screenings.SelectImage(ctx, id, file, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		respondScreeningError(c, err, state)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *handler) deleteScreeningImage(c *gin.Context) {
	state, err := h.deps.Screenings.Reset(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *handler) analyzeScreening(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	state, err := h.deps.Screenings.Analyze(ctx, c.Param("id"))
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			respondAppError(c, err)
			return
		}
		respondScreeningError(c, err, state)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *handler) chatAboutScreening(c *gin.Context) {
	prompt, err := h.deps.Screenings.ChatPrompt(c.Param("id"))
	if err != nil {
		respondAppError(c, err)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	session, exchange, err := h.deps.Conversations.OpenWithPrompt(ctx, prompt)
	if err != nil {
		respondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newExchangeResponse(session, exchange))
}

func (h *handler) createConversation(c *gin.Context) {
	session := h.deps.Conversations.Open()
	c.JSON(http.StatusCreated, newConversationResponse(session))
}

func (h *handler) getConversation(c *gin.Context) {
	session, err := h.deps.Conversations.Get(c.Param("id"))
	if err != nil {
		respondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, newConversationResponse(session))
}

func (h *handler) closeConversation(c *gin.Context) {
	if err := h.deps.Conversations.Close(c.Param("id")); err != nil {
		respondAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) postMessage(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondAppError(c, apperrors.NewValidationError("invalid request format", err))
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	session, exchange, err := h.deps.Conversations.Send(ctx, c.Param("id"), req.Text)
	if err != nil {
		respondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, newExchangeResponse(session, exchange))
}

func newConversationResponse(session *conversation.Session) ConversationResponse {
	return ConversationResponse{
		ID:       session.ID,
		State:    session.State(),
		Messages: session.Messages(),
	}
}

func newExchangeResponse(session *conversation.Session, exchange conversation.Exchange) ExchangeResponse {
	return ExchangeResponse{
		ConversationResponse: newConversationResponse(session),
		Reply:                exchange.Reply,
		Degraded:             exchange.Err != nil,
	}
}

func respondScreeningError(c *gin.Context, err error, state screening.State) {
	code := determineStatusCode(err)
	logFailure(c, code, "request processing failed", err)
	c.AbortWithStatusJSON(code, ScreeningErrorResponse{
		ErrorResponse: errorBody(code, "request processing failed", err),
		Screening:     state,
	})
}
