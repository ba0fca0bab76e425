package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"leakduck-backend/internal/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

const (
	report_http_breaker = "http.breaker"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type HTTPOptions struct {
	Timeout          time.Duration
	UserAgent        string
	CloudflareBypass bool
	// RequestsPerSecond limits the outgoing request rate, 0 means unlimited.
	RequestsPerSecond float64
	// BreakerThreshold is the number of consecutive failures that open the circuit breaker,
	// 0 means 5.
	BreakerThreshold uint32
	// BreakerCooldown is how long the breaker stays open before letting a probe through,
	// 0 means 30 seconds.
	BreakerCooldown time.Duration
}

// HTTPFetcher fetches pages with a resty client, requests are rate limited and go through a
// circuit breaker per host so a site that is down is not hammered by every retry, and does not
// block fetches from other sites.
type HTTPFetcher struct {
	client   *resty.Client
	settings gobreaker.Settings
	tel      telemetry.API

	mutex    sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[[]byte]
}

func NewHTTPFetcher(opts HTTPOptions, tel telemetry.API) *HTTPFetcher {
	tel = telemetry.NewScopedAPI("fetch", tel)

	client := resty.New()
	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	client.SetHeader("user-agent", userAgent)
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	// burst >= 1 just means that no requests will be dropped
	rateLimiter := rate.NewLimiter(limit, 1)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(client, tel)

	threshold := opts.BreakerThreshold
	if threshold == 0 {
		threshold = 5
	}
	cooldown := opts.BreakerCooldown
	if cooldown == 0 {
		cooldown = 30 * time.Second
	}
	settings := gobreaker.Settings{
		Timeout: cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			tel.ReportWarning(report_http_breaker, name, from.String(), to.String())
		},
	}

	return &HTTPFetcher{
		client:   client,
		settings: settings,
		tel:      tel,
		breakers: map[string]*gobreaker.CircuitBreaker[[]byte]{},
	}
}

// breaker returns the circuit breaker of the host of rawURL, it is created on first use.
func (f *HTTPFetcher) breaker(rawURL string) *gobreaker.CircuitBreaker[[]byte] {
	host := rawURL
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Host != "" {
		host = parsed.Host
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()
	breaker, ok := f.breakers[host]
	if !ok {
		settings := f.settings
		settings.Name = host
		breaker = gobreaker.NewCircuitBreaker[[]byte](settings)
		f.breakers[host] = breaker
	}
	return breaker
}

func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "HTTPFetcher.Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("url", pageURL))

	body, err := f.breaker(pageURL).Execute(func() ([]byte, error) {
		res, err := f.client.R().
			SetContext(ctx).
			Get(pageURL)
		if err != nil {
			return nil, err
		}
		if res.StatusCode() == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, pageURL)
		}
		if res.IsError() {
			return nil, fmt.Errorf("get %s: %s", pageURL, res.Status())
		}
		return res.Body(), nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, err
	}
	return body, nil
}
