package handlers

import (
	"net/http"

	"github.com/citywatch/alerts/apperror"
	jwtmw "github.com/citywatch/alerts/middleware/jwt"
	"github.com/citywatch/alerts/services/issues"
	"github.com/labstack/echo/v4"
)

type IssuesHandler struct {
	issues *issues.Service
}

func NewIssuesHandler(issuesSvc *issues.Service) *IssuesHandler {
	return &IssuesHandler{issues: issuesSvc}
}

func (h *IssuesHandler) List(c echo.Context) error {
	list, err := h.issues.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "data": list})
}

func (h *IssuesHandler) Create(c echo.Context) error {
	id, _ := jwtmw.GetIdentity(c)

	var in issues.NewIssue
	if err := c.Bind(&in); err != nil {
		return apperror.BadRequest("Invalid issue payload")
	}

	issue, err := h.issues.Create(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]any{"ok": true, "data": issue})
}

func (h *IssuesHandler) Resolve(c echo.Context) error {
	id, _ := jwtmw.GetIdentity(c)

	issue, err := h.issues.Resolve(c.Request().Context(), id, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "data": issue})
}
