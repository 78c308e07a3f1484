// Package openapi describes the public HTTP surface as an OpenAPI 3 document.
package openapi

import (
	"encoding/json"
	"net/http"

	"github.com/citywatch/alerts/config"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
	"gopkg.in/yaml.v3"
)

const (
	Title   = "CityWatch Alerts API"
	Version = "1.0.0"

	bearerScheme = "bearerAuth"
	secretScheme = "signingSecret"
)

type Document struct {
	spec *openapi3.T
}

func New(cfg *config.Config) *Document {
	spec := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       Title,
			Version:     Version,
			Description: "Email alert subscriptions, issue notifications and push registration.",
		},
		Paths: openapi3.NewPaths(),
		Components: &openapi3.Components{
			SecuritySchemes: openapi3.SecuritySchemes{
				bearerScheme: &openapi3.SecuritySchemeRef{Value: &openapi3.SecurityScheme{
					Type:         "http",
					Scheme:       "bearer",
					BearerFormat: "JWT",
					Description:  "Access token issued by the identity provider",
				}},
				secretScheme: &openapi3.SecuritySchemeRef{Value: &openapi3.SecurityScheme{
					Type: "apiKey",
					Name: "x-signing-secret",
					In:   "header",
				}},
			},
		},
	}
	if cfg != nil && cfg.Alerts.PublicURL != "" {
		spec.Servers = openapi3.Servers{{URL: cfg.Alerts.PublicURL}}
	}

	d := &Document{spec: spec}
	d.describeAlerts()
	d.describePush()
	d.describeIssues()
	return d
}

func (d *Document) Spec() *openapi3.T {
	return d.spec
}

func (d *Document) JSON() ([]byte, error) {
	return json.MarshalIndent(d.spec, "", "  ")
}

func (d *Document) YAML() ([]byte, error) {
	intermediate, err := d.spec.MarshalYAML()
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(intermediate)
}

func (d *Document) JSONHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		data, err := d.JSON()
		if err != nil {
			return err
		}
		return c.JSONBlob(http.StatusOK, data)
	}
}

func (d *Document) YAMLHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		data, err := d.YAML()
		if err != nil {
			return err
		}
		return c.Blob(http.StatusOK, "application/yaml", data)
	}
}

func errorSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().WithProperty("error", openapi3.NewStringSchema())
}

func okSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().WithProperty("ok", openapi3.NewBoolSchema())
}

func subscriptionSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().
		WithProperty("id", openapi3.NewIntegerSchema()).
		WithProperty("user_id", openapi3.NewStringSchema()).
		WithProperty("city", openapi3.NewStringSchema()).
		WithProperty("email", openapi3.NewStringSchema()).
		WithProperty("wants_new_issues", openapi3.NewBoolSchema()).
		WithProperty("wants_resolved", openapi3.NewBoolSchema()).
		WithProperty("verified_at", openapi3.NewDateTimeSchema().WithNullable())
}

func issueSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().
		WithProperty("id", openapi3.NewStringSchema()).
		WithProperty("creator_id", openapi3.NewStringSchema()).
		WithProperty("title", openapi3.NewStringSchema()).
		WithProperty("type", openapi3.NewStringSchema()).
		WithProperty("city", openapi3.NewStringSchema()).
		WithProperty("status", openapi3.NewStringSchema().WithEnum("open", "resolved")).
		WithProperty("lat", openapi3.NewFloat64Schema()).
		WithProperty("lng", openapi3.NewFloat64Schema())
}

func response(description string, schema *openapi3.Schema) *openapi3.Response {
	r := openapi3.NewResponse().WithDescription(description)
	if schema != nil {
		r = r.WithJSONSchema(schema)
	}
	return r
}

func requires(scheme string) *openapi3.SecurityRequirements {
	return &openapi3.SecurityRequirements{openapi3.NewSecurityRequirement().Authenticate(scheme)}
}

func (d *Document) describeAlerts() {
	get := openapi3.NewOperation()
	get.OperationID = "alertsGet"
	get.Tags = []string{"alerts"}
	get.Summary = "Diagnostics, verification redemption and subscription lookup"
	get.AddParameter(openapi3.NewQueryParameter("action").
		WithRequired(true).
		WithSchema(openapi3.NewStringSchema().WithEnum("diag", "verify", "subscription")))
	get.AddParameter(openapi3.NewQueryParameter("token").WithSchema(openapi3.NewStringSchema()))
	get.AddParameter(openapi3.NewQueryParameter("city").WithSchema(openapi3.NewStringSchema()))
	get.AddResponse(http.StatusOK, response("Diagnostics report or subscription", openapi3.NewObjectSchema().
		WithProperty("ok", openapi3.NewBoolSchema()).
		WithProperty("problems", openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema())).
		WithProperty("data", subscriptionSchema())))
	get.AddResponse(http.StatusFound, response("Redirect to the verification result page", nil))
	get.AddResponse(http.StatusBadRequest, response("Missing token", nil))
	get.AddResponse(http.StatusUnauthorized, response("Missing or invalid bearer token", errorSchema()))
	get.AddResponse(http.StatusNotFound, response("Unknown action or no subscription", nil))

	post := openapi3.NewOperation()
	post.OperationID = "alertsPost"
	post.Tags = []string{"alerts"}
	post.Summary = "Request verification, save preferences or fan out an issue notification"
	post.Security = requires(bearerScheme)
	post.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchema(
		openapi3.NewObjectSchema().
			WithProperty("action", openapi3.NewStringSchema().WithEnum("send-verify", "save-prefs", "notify-new", "notify-resolved")).
			WithProperty("email", openapi3.NewStringSchema()).
			WithProperty("city", openapi3.NewStringSchema()).
			WithProperty("wantsNewIssues", openapi3.NewBoolSchema()).
			WithProperty("wantsResolved", openapi3.NewBoolSchema()).
			WithProperty("issueId", openapi3.NewStringSchema()).
			WithProperty("title", openapi3.NewStringSchema()).
			WithProperty("type", openapi3.NewStringSchema()))}
	post.AddResponse(http.StatusOK, response("Accepted", okSchema()))
	post.AddResponse(http.StatusBadRequest, response("Missing required field", errorSchema()))
	post.AddResponse(http.StatusUnauthorized, response("Missing or invalid bearer token", errorSchema()))
	post.AddResponse(http.StatusForbidden, response("Caller is not the issue creator", errorSchema()))
	post.AddResponse(http.StatusNotFound, response("Unknown action or issue", nil))
	post.AddResponse(http.StatusInternalServerError, response("Store or mail relay failure", errorSchema()))

	d.spec.AddOperation("/alerts", http.MethodGet, get)
	d.spec.AddOperation("/alerts", http.MethodPost, post)
}

func (d *Document) describePush() {
	op := openapi3.NewOperation()
	op.OperationID = "pushSaveSubscription"
	op.Tags = []string{"push"}
	op.Summary = "Register a Web Push subscription, upserted by endpoint"
	op.Security = requires(secretScheme)
	op.AddParameter(openapi3.NewQueryParameter("action").
		WithRequired(true).
		WithSchema(openapi3.NewStringSchema().WithEnum("save-subscription")))
	op.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchema(
		openapi3.NewObjectSchema().
			WithProperty("userId", openapi3.NewStringSchema()).
			WithProperty("subscription", openapi3.NewObjectSchema().
				WithProperty("endpoint", openapi3.NewStringSchema())))}
	op.AddResponse(http.StatusOK, response("Stored subscription", okSchema().
		WithProperty("data", openapi3.NewObjectSchema())))
	op.AddResponse(http.StatusBadRequest, response("Invalid payload or unknown action", errorSchema()))
	op.AddResponse(http.StatusUnauthorized, response("Missing or wrong signing secret", errorSchema()))
	op.AddResponse(http.StatusInternalServerError, response("Store failure", errorSchema()))

	d.spec.AddOperation("/push", http.MethodPost, op)
}

func (d *Document) describeIssues() {
	list := openapi3.NewOperation()
	list.OperationID = "issuesList"
	list.Tags = []string{"issues"}
	list.Security = requires(bearerScheme)
	list.AddResponse(http.StatusOK, response("Issues, newest first", okSchema().
		WithProperty("data", openapi3.NewArraySchema().WithItems(issueSchema()))))
	list.AddResponse(http.StatusUnauthorized, response("Missing or invalid bearer token", errorSchema()))

	create := openapi3.NewOperation()
	create.OperationID = "issuesCreate"
	create.Tags = []string{"issues"}
	create.Security = requires(bearerScheme)
	create.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchema(
		openapi3.NewObjectSchema().
			WithProperty("title", openapi3.NewStringSchema()).
			WithProperty("type", openapi3.NewStringSchema()).
			WithProperty("description", openapi3.NewStringSchema()).
			WithProperty("city", openapi3.NewStringSchema()).
			WithProperty("lat", openapi3.NewFloat64Schema()).
			WithProperty("lng", openapi3.NewFloat64Schema()).
			WithProperty("photo_url", openapi3.NewStringSchema()))}
	create.AddResponse(http.StatusCreated, response("Created issue", okSchema().WithProperty("data", issueSchema())))
	create.AddResponse(http.StatusBadRequest, response("Missing title, type or city", errorSchema()))
	create.AddResponse(http.StatusUnauthorized, response("Missing or invalid bearer token", errorSchema()))

	resolve := openapi3.NewOperation()
	resolve.OperationID = "issuesResolve"
	resolve.Tags = []string{"issues"}
	resolve.Security = requires(bearerScheme)
	resolve.AddParameter(openapi3.NewPathParameter("id").WithSchema(openapi3.NewStringSchema()))
	resolve.AddResponse(http.StatusOK, response("Resolved issue", okSchema().WithProperty("data", issueSchema())))
	resolve.AddResponse(http.StatusForbidden, response("Caller is not the issue creator", errorSchema()))
	resolve.AddResponse(http.StatusNotFound, response("Issue not found", errorSchema()))

	d.spec.AddOperation("/issues", http.MethodGet, list)
	d.spec.AddOperation("/issues", http.MethodPost, create)
	d.spec.AddOperation("/issues/{id}/resolve", http.MethodPost, resolve)
}

var Module = fx.Options(
	fx.Provide(New),
)
