package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/storefront/internal/netx"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

// NewRouter mounts the handler's routes plus /healthz and /metrics, wrapped
// in the metrics middleware and OpenTelemetry server spans.
func NewRouter(h *Handler, m *Metrics) http.Handler {
	r := mux.NewRouter()
	r.Use(m.Middleware, spanNameMiddleware)

	h.RegisterRoutes(r)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		netx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)

	return otelhttp.NewHandler(r, "storefrontd",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/healthz" && r.URL.Path != "/metrics"
		}),
	)
}

// spanNameMiddleware renames the server span after the matched route, which
// is only known once mux has routed the request.
func spanNameMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		trace.SpanFromContext(r.Context()).SetName(r.Method + " " + routeTemplate(r))
		next.ServeHTTP(w, r)
	})
}
