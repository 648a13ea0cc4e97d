package server

import (
	"net/http"

	"connectrpc.com/connect"
	"github.com/caffeinepub/agencydesk/pkg/api/agency/v1/agencyv1connect"
	"github.com/caffeinepub/agencydesk/pkg/sdk"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// RouterOptions controls the construction of the agencyapi HTTP router.
type RouterOptions struct {
	Handler             agencyv1connect.AgencyServiceHandler
	CORSOptions         *cors.Options
	Middleware          []func(http.Handler) http.Handler
	ConnectInterceptors []connect.Interceptor
	HealthHandler       http.HandlerFunc
	// RequestLogging enables chi's request logger.
	RequestLogging bool
}

// DefaultCORSOptions returns the development CORS policy for browser clients.
func DefaultCORSOptions() cors.Options {
	return cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173",
			"http://127.0.0.1:5173",
		},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{
			"Content-Type",
			"Connect-Protocol-Version",
			"Connect-Timeout-Ms",
			"Authorization",
		},
		ExposedHeaders: []string{
			"Connect-Protocol-Version",
			sdk.InvalidFieldsHeader,
		},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

func defaultHealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// NewRouter assembles a chi.Router with shared middleware, CORS policy and
// the AgencyService handler mounted.
func NewRouter(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if opts.RequestLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	corsCfg := DefaultCORSOptions()
	if opts.CORSOptions != nil {
		corsCfg = *opts.CORSOptions
	}
	r.Use(cors.Handler(corsCfg))

	for _, mw := range opts.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	health := opts.HealthHandler
	if health == nil {
		health = defaultHealthHandler
	}
	r.Get("/health", health)

	if opts.Handler != nil {
		path, handler := agencyv1connect.NewAgencyServiceHandler(opts.Handler,
			connect.WithInterceptors(opts.ConnectInterceptors...),
		)
		r.Mount(path, handler)
	}

	return r
}

// NewH2CHandler wraps h for HTTP/2 cleartext, which Connect clients may use.
func NewH2CHandler(h http.Handler) http.Handler {
	return h2c.NewHandler(h, &http2.Server{})
}
