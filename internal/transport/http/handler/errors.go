package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"botgpt/internal/ai"
	"botgpt/internal/app"
	"botgpt/internal/transport/http/middleware"
	"botgpt/internal/transport/http/response"
)

// writeError maps a service error to the response envelope. data is attached
// to upstream failures, which may leave persisted state behind.
func writeError(c *gin.Context, err error, fallback string, data gin.H) {
	switch {
	case errors.Is(err, app.ErrInvalidMode):
		response.Error(c, http.StatusBadRequest, response.CodeInvalidMode, err.Error())
	case errors.Is(err, app.ErrNothingToReply):
		response.Error(c, http.StatusBadRequest, response.CodeNothingToReply, err.Error())
	case errors.Is(err, app.ErrValidation):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrIngestion):
		response.Error(c, http.StatusBadRequest, response.CodeDocumentRejected, err.Error())
	case errors.Is(err, app.ErrConversationNotFound):
		response.Error(c, http.StatusNotFound, response.CodeConversationNotFound, err.Error())
	case errors.Is(err, app.ErrDocumentNotFound):
		response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, err.Error())
	case errors.Is(err, app.ErrNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
	case errors.Is(err, app.ErrUpstream):
		if data == nil {
			data = gin.H{}
		}
		var upstream *ai.UpstreamError
		if errors.As(err, &upstream) {
			data["upstream_status"] = upstream.StatusCode
			data["upstream_body"] = upstream.Body
		}
		data["request_id"] = middleware.GetRequestID(c)
		log.Printf("request %s: %v", middleware.GetRequestID(c), err)
		response.ErrorWithData(c, http.StatusBadGateway, response.CodeUpstream, "failed to call LLM", data)
	default:
		log.Printf("request %s: %s: %v", middleware.GetRequestID(c), fallback, err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}

func parseIDParam(c *gin.Context, key string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(key), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
