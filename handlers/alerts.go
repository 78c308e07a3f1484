package handlers

import (
	"net/http"

	"github.com/citywatch/alerts/apperror"
	"github.com/citywatch/alerts/config"
	"github.com/citywatch/alerts/identity"
	jwtmw "github.com/citywatch/alerts/middleware/jwt"
	"github.com/citywatch/alerts/models"
	"github.com/citywatch/alerts/services/diag"
	"github.com/citywatch/alerts/services/notify"
	"github.com/citywatch/alerts/services/subscriptions"
	"github.com/citywatch/alerts/services/verification"
	"github.com/labstack/echo/v4"
)

const (
	ActionDiag           = "diag"
	ActionVerify         = "verify"
	ActionSubscription   = "subscription"
	ActionSendVerify     = "send-verify"
	ActionSavePrefs      = "save-prefs"
	ActionNotifyNew      = "notify-new"
	ActionNotifyResolved = "notify-resolved"
)

type alertsRequest struct {
	Action         string `json:"action"`
	Email          string `json:"email"`
	City           string `json:"city"`
	WantsNewIssues *bool  `json:"wantsNewIssues"`
	WantsResolved  *bool  `json:"wantsResolved"`
	IssueID        string `json:"issueId"`
	Title          string `json:"title"`
	Type           string `json:"type"`
}

// AlertsHandler serves the single /alerts endpoint. The action comes from the
// query string for GET and from the JSON body for POST.
type AlertsHandler struct {
	config        *config.Config
	identities    identity.Provider
	verification  *verification.Service
	subscriptions *subscriptions.Service
	notifier      *notify.Service
	diag          *diag.Service
}

func NewAlertsHandler(
	cfg *config.Config,
	identities identity.Provider,
	verificationSvc *verification.Service,
	subscriptionSvc *subscriptions.Service,
	notifier *notify.Service,
	diagSvc *diag.Service,
) *AlertsHandler {
	return &AlertsHandler{
		config:        cfg,
		identities:    identities,
		verification:  verificationSvc,
		subscriptions: subscriptionSvc,
		notifier:      notifier,
		diag:          diagSvc,
	}
}

func (h *AlertsHandler) Handle(c echo.Context) error {
	switch c.Request().Method {
	case http.MethodGet:
		switch c.QueryParam("action") {
		case ActionDiag:
			return h.handleDiag(c)
		case ActionVerify:
			return h.handleVerify(c)
		case ActionSubscription:
			return h.handleSubscription(c)
		}
	case http.MethodPost:
		var req alertsRequest
		// an unreadable body is treated as empty and falls through to 404
		_ = (&echo.DefaultBinder{}).BindBody(c, &req)
		if req.Action == "" {
			req.Action = c.QueryParam("action")
		}

		switch req.Action {
		case ActionSendVerify:
			return h.handleSendVerify(c, req)
		case ActionSavePrefs:
			return h.handleSavePrefs(c, req)
		case ActionNotifyNew:
			return h.handleNotify(c, req, models.AlertNewIssue)
		case ActionNotifyResolved:
			return h.handleNotify(c, req, models.AlertResolved)
		}
	}
	return c.String(http.StatusNotFound, "Not found")
}

func (h *AlertsHandler) caller(c echo.Context) (identity.Identity, error) {
	id, ok := jwtmw.Authenticate(c, h.identities)
	if !ok {
		return identity.Identity{}, apperror.Unauthorized("Unauthorized")
	}
	return id, nil
}

func (h *AlertsHandler) handleDiag(c echo.Context) error {
	if h.config.Alerts.DiagRequireAuth {
		if _, err := h.caller(c); err != nil {
			return err
		}
	}
	return c.JSON(http.StatusOK, h.diag.Run(c.Request().Context()))
}

func (h *AlertsHandler) handleVerify(c echo.Context) error {
	outcome, err := h.verification.Redeem(c.Request().Context(), c.QueryParam("token"))
	if err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}
	return c.Redirect(http.StatusFound, outcome.RedirectURL(h.config.Frontend()))
}

func (h *AlertsHandler) handleSubscription(c echo.Context) error {
	id, err := h.caller(c)
	if err != nil {
		return err
	}
	sub, err := h.subscriptions.Current(c.Request().Context(), id, c.QueryParam("city"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "data": sub})
}

func (h *AlertsHandler) handleSendVerify(c echo.Context, req alertsRequest) error {
	id, err := h.caller(c)
	if err != nil {
		return err
	}

	err = h.verification.RequestVerification(c.Request().Context(), id, verification.Request{
		Email:          req.Email,
		City:           req.City,
		WantsNewIssues: req.WantsNewIssues,
		WantsResolved:  req.WantsResolved,
		PublicBaseURL:  "https://" + c.Request().Host,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func (h *AlertsHandler) handleSavePrefs(c echo.Context, req alertsRequest) error {
	id, err := h.caller(c)
	if err != nil {
		return err
	}

	_, err = h.subscriptions.SavePreferences(c.Request().Context(), id, subscriptions.Preferences{
		Email:          req.Email,
		City:           req.City,
		WantsNewIssues: req.WantsNewIssues,
		WantsResolved:  req.WantsResolved,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func (h *AlertsHandler) handleNotify(c echo.Context, req alertsRequest, kind models.AlertKind) error {
	id, err := h.caller(c)
	if err != nil {
		return err
	}

	_, err = h.notifier.Notify(c.Request().Context(), id, notify.Request{
		Kind:    kind,
		City:    req.City,
		IssueID: req.IssueID,
		Title:   req.Title,
		Type:    req.Type,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}
