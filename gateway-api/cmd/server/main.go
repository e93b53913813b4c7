package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/stripe/stripe-go/v76/client"
	"google.golang.org/api/idtoken"

	sharedauth "github.com/aknedenik/akne-denik/shared-libs/auth"
	"github.com/aknedenik/akne-denik/shared-libs/enrollment"
	"github.com/aknedenik/akne-denik/shared-libs/envconfig"
	"github.com/aknedenik/akne-denik/shared-libs/firestoreutil"
	"github.com/aknedenik/akne-denik/shared-libs/logging"
	"github.com/aknedenik/akne-denik/shared-libs/program"
	sharedserver "github.com/aknedenik/akne-denik/shared-libs/server"

	"github.com/aknedenik/akne-denik/gateway-api/internal/access"
	"github.com/aknedenik/akne-denik/gateway-api/internal/billing"
	"github.com/aknedenik/akne-denik/gateway-api/internal/config"
	"github.com/aknedenik/akne-denik/gateway-api/internal/httpapi"
)

func main() {
	ctx := context.Background()
	if err := envconfig.LoadDotEnv(); err != nil {
		panic(err)
	}
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("config error: %w", err))
	}

	logger := logging.NewLogger("gateway-api")

	policy, err := program.NewPolicy(cfg.ProgramTimezone)
	if err != nil {
		panic(fmt.Errorf("program timezone: %w", err))
	}

	verifier, err := sharedauth.NewVerifier(sharedauth.Config{
		Mode:      cfg.Auth.Mode,
		ProjectID: cfg.GCPProjectID,
		JWKSURL:   cfg.Auth.JWKSURL,
		Logger:    logger,
	})
	if err != nil {
		panic(fmt.Errorf("auth verifier error: %w", err))
	}

	enrollments, cleanup, err := newEnrollmentReader(ctx, cfg)
	if err != nil {
		panic(fmt.Errorf("enrollment reader init error: %w", err))
	}
	defer cleanup()

	gate, err := access.NewGate(enrollments, access.NewSystemClock(), policy, logger)
	if err != nil {
		panic(fmt.Errorf("access gate init error: %w", err))
	}

	var billingService *billing.Service
	if cfg.Stripe.Enabled() {
		sc := &client.API{}
		sc.Init(cfg.Stripe.SecretKey, nil)
		billingService, err = billing.NewService(sc.PaymentIntents, enrollments, billing.NewSystemClock(), billing.Price{
			Amount:   cfg.Stripe.Amount,
			Currency: cfg.Stripe.Currency,
		})
		if err != nil {
			panic(fmt.Errorf("billing init error: %w", err))
		}
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set; billing routes disabled")
	}

	upstreams, err := newUpstreams(ctx, cfg)
	if err != nil {
		panic(fmt.Errorf("upstream init error: %w", err))
	}

	router := httpapi.Router(httpapi.Deps{
		Verifier:  verifier,
		Gate:      gate,
		Billing:   billingService,
		Upstreams: upstreams,
		Logger:    logger,
	})

	srv := sharedserver.NewHTTPServer(cfg.Port, router)
	if err := sharedserver.Run(ctx, srv, logger); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
}

func newEnrollmentReader(ctx context.Context, cfg config.Config) (enrollment.Reader, func(), error) {
	if cfg.DataStore == config.DataStoreMemory {
		return enrollment.NewMemoryStore(), func() {}, nil
	}
	client, err := firestoreutil.NewClient(ctx, firestoreutil.Config{
		ProjectID:    cfg.GCPProjectID,
		Database:     cfg.Firestore.Database,
		EmulatorHost: cfg.Firestore.EmulatorHost,
	})
	if err != nil {
		return nil, nil, err
	}
	return enrollment.NewFirestoreReader(client), func() { _ = client.Close() }, nil
}

// newUpstreams attaches a Google ID token transport per audience (Cloud Run
// service-to-service) when enabled.
func newUpstreams(ctx context.Context, cfg config.Config) (httpapi.Upstreams, error) {
	build := func(origin *url.URL) (httpapi.Upstream, error) {
		up := httpapi.Upstream{Origin: origin}
		if !cfg.UpstreamIDTokens {
			return up, nil
		}
		audience := origin.Scheme + "://" + origin.Host
		client, err := idtoken.NewClient(ctx, audience)
		if err != nil {
			return httpapi.Upstream{}, fmt.Errorf("idtoken client for %s: %w", audience, err)
		}
		up.Transport = client.Transport
		return up, nil
	}

	var (
		out httpapi.Upstreams
		err error
	)
	targets := []struct {
		origin *url.URL
		dest   *httpapi.Upstream
	}{
		{cfg.Upstreams.User, &out.User},
		{cfg.Upstreams.Diary, &out.Diary},
		{cfg.Upstreams.Media, &out.Media},
		{cfg.Upstreams.Content, &out.Content},
		{cfg.Upstreams.Chat, &out.Chat},
	}
	for _, t := range targets {
		if *t.dest, err = build(t.origin); err != nil {
			return httpapi.Upstreams{}, err
		}
	}
	return out, nil
}
