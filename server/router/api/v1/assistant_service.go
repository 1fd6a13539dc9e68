package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	aierrors "github.com/hrygo/gigvoice/server/internal/errors"
	gvmiddleware "github.com/hrygo/gigvoice/server/middleware"
	"github.com/hrygo/gigvoice/server/service/assistant"
)

// UtteranceRequest is the body of an assistant call.
type UtteranceRequest struct {
	Text   string `json:"text"`
	UserID string `json:"userId,omitempty"`
	Locale string `json:"locale,omitempty"`
}

// HandleUtterance classifies one utterance, runs its action and returns the reply.
// POST /api/v1/assistant
func (s *APIV1Service) HandleUtterance(c echo.Context) error {
	var req UtteranceRequest
	if err := c.Bind(&req); err != nil {
		return gvmiddleware.ErrorJSON(c, aierrors.InvalidArgument("invalid request body"))
	}
	if req.UserID == "" {
		req.UserID = c.Request().Header.Get(gvmiddleware.UserIDHeader)
	}
	if strings.TrimSpace(req.Text) == "" {
		return gvmiddleware.ErrorJSON(c, aierrors.InvalidArgument("text is required"))
	}

	resp, err := s.AssistantService.Handle(c.Request().Context(), assistant.Request{
		Text:   req.Text,
		UserID: req.UserID,
		Locale: req.Locale,
	})
	if err != nil {
		return gvmiddleware.ErrorJSON(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}
