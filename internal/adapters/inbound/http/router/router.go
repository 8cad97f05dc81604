package router

import (
	"net/http"
	"strings"

	"taskflow/internal/adapters/inbound/http/controllers"
	"taskflow/internal/adapters/inbound/http/middleware"
)

type Dependencies struct {
	HealthController               *controllers.HealthController
	SwaggerController              *controllers.SwaggerController
	AuthController                 *controllers.AuthController
	ResourceController             *controllers.ResourceController
	WebhookSubscriptionsController *controllers.WebhookSubscriptionsController
	WebhookDeliveriesController    *controllers.WebhookDeliveriesController
	Admission                      *middleware.Admission
	Recorder                       middleware.RequestRecorder
	MetricsHandler                 http.Handler
}

type access int

const (
	open access = iota
	ipLimited
	authenticated
)

// resourcePrefixes are relayed to the resource handler.
var resourcePrefixes = []string{
	"/v1/tasks",
	"/v1/tasks/",
	"/v1/comments/",
	"/v1/files/",
	"/v1/users/",
}

func New(deps Dependencies) *http.ServeMux {
	mux := http.NewServeMux()
	handle := func(pattern string, level access, handler http.HandlerFunc) {
		var wrapped http.Handler = handler
		switch level {
		case ipLimited:
			wrapped = deps.Admission.Protect(false, wrapped)
		case authenticated:
			wrapped = deps.Admission.Protect(true, wrapped)
		}
		mux.Handle(pattern, middleware.Instrument(deps.Recorder, routeLabel(pattern), wrapped))
	}

	handle("GET /healthz", open, deps.HealthController.GetHealth)
	if deps.MetricsHandler != nil {
		mux.Handle("GET /metrics", deps.MetricsHandler)
	}
	handle("GET /swagger", open, deps.SwaggerController.RedirectToIndex)
	handle("GET "+controllers.OpenAPISpecRoute, open, deps.SwaggerController.GetOpenAPISpec)
	handle("GET /swagger/", open, deps.SwaggerController.ServeUI)

	handle("POST /v1/auth/login", ipLimited, deps.AuthController.Login)
	handle("POST /v1/auth/logout", authenticated, deps.AuthController.Logout)

	handle("POST /v1/webhooks", authenticated, deps.WebhookSubscriptionsController.Create)
	handle("GET /v1/webhooks", authenticated, deps.WebhookSubscriptionsController.List)
	handle("GET /v1/webhooks/{id}", authenticated, deps.WebhookSubscriptionsController.Get)
	handle("PUT /v1/webhooks/{id}/events", authenticated, deps.WebhookSubscriptionsController.UpdateEvents)
	handle("DELETE /v1/webhooks/{id}", authenticated, deps.WebhookSubscriptionsController.Deactivate)
	handle("GET /v1/webhooks/{id}/deliveries", authenticated, deps.WebhookDeliveriesController.List)
	handle(
		"POST /v1/webhooks/{id}/deliveries/{delivery_id}/requeue",
		authenticated,
		deps.WebhookDeliveriesController.Requeue,
	)
	handle("GET /v1/webhook-deliveries/overview", authenticated, deps.WebhookDeliveriesController.GetOverview)

	for _, prefix := range resourcePrefixes {
		handle(prefix, authenticated, deps.ResourceController.Forward)
	}

	return mux
}

// routeLabel strips the method so request metrics group by route.
func routeLabel(pattern string) string {
	if _, path, found := strings.Cut(pattern, " "); found {
		return path
	}
	return pattern
}
