package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/citywatch/alerts/services/push"
	"github.com/labstack/echo/v4"
)

const ActionSaveSubscription = "save-subscription"

type pushRequest struct {
	UserID       string          `json:"userId"`
	Subscription json.RawMessage `json:"subscription"`
}

// PushHandler serves /push behind the shared-secret gate.
type PushHandler struct {
	push *push.Service
}

func NewPushHandler(pushSvc *push.Service) *PushHandler {
	return &PushHandler{push: pushSvc}
}

func (h *PushHandler) Handle(c echo.Context) error {
	action := c.QueryParam("action")
	if action != ActionSaveSubscription {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown action", "action": action})
	}

	var req pushRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": push.ErrInvalidPayload.Error()})
	}

	row, err := h.push.Save(c.Request().Context(), req.UserID, req.Subscription)
	if errors.Is(err, push.ErrInvalidPayload) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "data": row})
}
