package web

import (
	"context"
	"net/http"
	"time"

	"aiga/internal/adapters/academy"
	"aiga/internal/adapters/email"
	"aiga/internal/adapters/http/middleware"
	"aiga/internal/adapters/http/perf"
	"aiga/internal/application/orchestrators"
	"aiga/internal/application/projections"
	"aiga/internal/application/viewstate"
)

// Academy is every academy call the portal makes.
type Academy interface {
	orchestrators.ProfileFetcher
	orchestrators.CodeExchanger
	orchestrators.ProfileSubmitter
	orchestrators.BookingCreator
	orchestrators.SessionPublisher
	orchestrators.LoginURLSource
	projections.SessionLister
	projections.BookingLister
	projections.StatsReader
}

var _ Academy = (*academy.Client)(nil)

// Services holds everything the handlers depend on.
type Services struct {
	Machine *viewstate.Machine
	Tokens  orchestrators.SessionTokens
	Academy Academy
	Ledger  orchestrators.ExchangeLedger
	Catalog *projections.SessionCatalog
	Mailer  email.Sender // optional
}

// Options configures the portal's HTTP surface.
type Options struct {
	AuthURL            string // identity provider; discovered from the academy when empty
	PublicURL          string // external base URL of the portal
	CSRFKey            []byte // 32 bytes
	Production         bool   // secure cookies
	RateLimitPerSecond int
	SlowRequestMs      float64
}

// DefaultRateLimitPerSecond is used when Options.RateLimitPerSecond is unset.
const DefaultRateLimitPerSecond = 10

// Global services instance (set by NewMux)
var services *Services

// Global options (set by NewMux)
var options Options

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// timeNow is a variable for testability.
var timeNow = time.Now

// NewMux wires HTTP handlers for the portal.
// PRE: s.Machine, s.Tokens and s.Academy are non-nil; opts.CSRFKey is 32 bytes
// POST: Background rate limiter pruning stops when ctx is done
func NewMux(ctx context.Context, s *Services, opts Options, collector *perf.Collector) http.Handler {
	services = s
	options = opts
	perfCollector = collector
	if services.Catalog == nil {
		services.Catalog = projections.NewSessionCatalog()
	}

	mux := http.NewServeMux()
	registerRoutes(mux)

	rate := opts.RateLimitPerSecond
	if rate <= 0 {
		rate = DefaultRateLimitPerSecond
	}
	limiter := middleware.NewRateLimiter(rate, time.Second)
	go limiter.PruneEvery(ctx, time.Minute, 10*time.Minute)

	// Apply middleware: Timing -> RateLimit -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(opts.CSRFKey, opts.PublicURL, opts.Production),
		middleware.RateLimit(limiter),
		middleware.Timing(collector, opts.SlowRequestMs),
	)
}

// RunStartup settles the view from the stored token. It is run once at boot
// so that a returning user lands on their screen without a callback.
func RunStartup(ctx context.Context) (orchestrators.StartupResult, error) {
	return orchestrators.ExecuteStartup(ctx, orchestrators.StartupInput{}, startupDeps())
}

func startupDeps() orchestrators.StartupDeps {
	return orchestrators.StartupDeps{
		Tokens:    services.Tokens,
		Profiles:  services.Academy,
		Exchanger: services.Academy,
		Ledger:    services.Ledger,
		Machine:   services.Machine,
	}
}
