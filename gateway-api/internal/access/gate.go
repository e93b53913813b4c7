// Package access decides whether a caller may use premium routes.
package access

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	sharedauth "github.com/aknedenik/akne-denik/shared-libs/auth"
	"github.com/aknedenik/akne-denik/shared-libs/enrollment"
	sharederrors "github.com/aknedenik/akne-denik/shared-libs/errors"
	"github.com/aknedenik/akne-denik/shared-libs/program"
)

const lookupTimeout = 5 * time.Second

// Clock delivers the current time.
type Clock interface {
	Now() time.Time
}

// Decision is the outcome of an access check.
type Decision struct {
	Access program.Access      `json:"access"`
	Trial  program.TrialStatus `json:"trial"`
	// Enrolled is false when the user has not registered yet.
	Enrolled bool `json:"enrolled"`
}

// Gate evaluates program access from the user's enrollment.
type Gate struct {
	enrollments enrollment.Reader
	clock       Clock
	policy      program.Policy
	logger      *slog.Logger
}

// NewGate constructs a Gate.
func NewGate(enrollments enrollment.Reader, clock Clock, policy program.Policy, logger *slog.Logger) (*Gate, error) {
	if enrollments == nil {
		return nil, errors.New("enrollment reader is required")
	}
	if clock == nil {
		return nil, errors.New("clock is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{enrollments: enrollments, clock: clock, policy: policy, logger: logger}, nil
}

// Check evaluates the access decision for userID.
func (g *Gate) Check(ctx context.Context, userID string) (Decision, error) {
	e, err := g.enrollments.Get(ctx, userID)
	if errors.Is(err, enrollment.ErrNotFound) {
		return Decision{}, nil
	}
	if err != nil {
		return Decision{}, err
	}
	now := g.clock.Now()
	trial := e.Trial(g.policy, now)
	return Decision{
		Access:   program.Decide(trial, e.SubscriptionState(), now),
		Trial:    trial,
		Enrolled: true,
	}, nil
}

// Middleware rejects callers without access with 402 payment_required. Admins always pass;
// unregistered users pass so the upstream can answer with its registration hint.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := sharedauth.UserFromContext(r.Context())
		if !ok {
			sharederrors.Write(w, r, http.StatusUnauthorized, sharederrors.CodeUnauthorized, "authentication required")
			return
		}
		if user.Admin {
			next.ServeHTTP(w, r)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), lookupTimeout)
		decision, err := g.Check(ctx, user.UserID)
		cancel()
		if err != nil {
			g.logger.Error("access check failed",
				slog.String("userId", user.UserID),
				slog.String("path", r.URL.Path),
				slog.String("error", err.Error()),
			)
			sharederrors.Write(w, r, http.StatusServiceUnavailable, sharederrors.CodeUnavailable, "access check unavailable")
			return
		}
		if decision.Enrolled && !decision.Access.Allowed {
			sharederrors.WriteDetails(w, r, http.StatusPaymentRequired, sharederrors.CodePaymentRequired,
				"trial expired; subscribe to continue the program", decision)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type systemClock struct{}

// NewSystemClock returns a Clock backed by time.Now.
func NewSystemClock() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now() }
