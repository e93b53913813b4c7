package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aknedenik/akne-denik/shared-libs/auth"
	sharederrors "github.com/aknedenik/akne-denik/shared-libs/errors"
	"github.com/aknedenik/akne-denik/shared-libs/logging"
	sharedserver "github.com/aknedenik/akne-denik/shared-libs/server"

	"github.com/aknedenik/akne-denik/gateway-api/internal/access"
	"github.com/aknedenik/akne-denik/gateway-api/internal/billing"
)

const billingTimeout = 15 * time.Second

// Upstream is one proxied service. A nil Transport uses http.DefaultTransport.
type Upstream struct {
	Origin    *url.URL
	Transport http.RoundTripper
}

// Upstreams lists the services behind the gateway.
type Upstreams struct {
	User    Upstream
	Diary   Upstream
	Media   Upstream
	Content Upstream
	Chat    Upstream
}

// Deps bundles everything the gateway router needs. Billing may be nil when payments are
// not configured.
type Deps struct {
	Verifier  auth.Verifier
	Gate      *access.Gate
	Billing   *billing.Service
	Upstreams Upstreams
	Logger    *slog.Logger
}

// Router wires authentication, access gating and the routing table.
func Router(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	up := deps.Upstreams

	return sharedserver.NewRouter("gateway-api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(deps.Verifier))
			r.Use(logProxied(logger))

			// Registration and profile stay reachable after the trial ends.
			r.Mount("/v1/users", proxyHandler(up.User, logger))
			if deps.Billing != nil {
				r.Post("/v1/billing/payment-intents", createPaymentIntent(deps.Billing, logger))
			}

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin)
				r.Mount("/v1/admin/content", proxyHandler(up.Content, logger))
				r.Mount("/v1/admin/chat", proxyHandler(up.Chat, logger))
			})

			r.Group(func(r chi.Router) {
				if deps.Gate != nil {
					r.Use(deps.Gate.Middleware)
				}
				r.Mount("/v1/logs", proxyHandler(up.Diary, logger))
				r.Mount("/v1/progress", proxyHandler(up.Diary, logger))
				r.Mount("/v1/media", proxyHandler(up.Media, logger))
				r.Mount("/v1/content", proxyHandler(up.Content, logger))
				r.Mount("/v1/chat", proxyHandler(up.Chat, logger))
			})
		})
	})
}

func logProxied(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if u, ok := auth.UserFromContext(r.Context()); ok {
				logging.WithRequestID(r.Context(), logger).Debug("routing request",
					slog.String("userId", u.UserID),
					slog.String("path", r.URL.Path),
				)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func proxyHandler(target Upstream, logger *slog.Logger) http.Handler {
	if target.Origin == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sharederrors.Write(w, r, http.StatusBadGateway, sharederrors.CodeUnavailable, "upstream not configured")
		})
	}

	origin := target.Origin
	proxy := httputil.NewSingleHostReverseProxy(origin)
	if target.Transport != nil {
		proxy.Transport = target.Transport
	}
	origDirector := proxy.Director
	proxy.Director = func(req *http.Request) {
		origDirector(req)
		// Ensure the upstream sees the right Host and preserve original path.
		req.Host = origin.Host
		// Upstreams run in gateway auth mode; the ID token transport sets its own credentials.
		req.Header.Del("Authorization")
		if u, ok := auth.UserFromContext(req.Context()); ok {
			auth.ForwardHeaders(req.Header, u)
		}
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.WithRequestID(r.Context(), logger).Error("proxy error",
				slog.Any("error", err),
				slog.String("upstream", origin.Host),
				slog.String("path", r.URL.Path),
			)
		}
		sharederrors.Write(w, r, http.StatusBadGateway, sharederrors.CodeUnavailable, "bad gateway")
	}

	return proxy
}

func createPaymentIntent(service *billing.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.UserFromContext(r.Context())
		if !ok {
			sharederrors.Write(w, r, http.StatusUnauthorized, sharederrors.CodeUnauthorized, "authentication required")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), billingTimeout)
		defer cancel()

		intent, err := service.CreateIntent(ctx, user.UserID)
		switch {
		case err == nil:
			writeJSON(w, http.StatusCreated, intent)
		case errors.Is(err, billing.ErrNotEnrolled):
			sharederrors.Write(w, r, http.StatusNotFound, sharederrors.CodeNotFound, "profile not found; register first")
		case errors.Is(err, billing.ErrAlreadySubscribed):
			sharederrors.Write(w, r, http.StatusConflict, "already_subscribed", err.Error())
		default:
			logging.RequestError(ctx, logger, "create payment intent failed", err, user.UserID)
			sharederrors.Write(w, r, http.StatusBadGateway, sharederrors.CodeUnavailable, "payment provider unavailable")
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
