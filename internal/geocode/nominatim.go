package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/sirupsen/logrus"
)

const (
	DefaultNominatimURL = "https://nominatim.openstreetmap.org"
	defaultTimeout      = 3 * time.Second
	defaultUserAgent    = "nearby-backend/1.0"
)

// errPermanent marks failures that retrying cannot fix.
var errPermanent = errors.New("permanent geocoder failure")

// NominatimConfig configures the Nominatim reverse geocoder.
type NominatimConfig struct {
	BaseURL   string
	UserAgent string
	// Timeout bounds a whole Resolve call, retries included.
	Timeout    time.Duration
	MaxRetries int
	HTTPClient *http.Client
	Logger     logrus.FieldLogger
}

// Nominatim calls the OpenStreetMap reverse geocoding API.
type Nominatim struct {
	baseURL   string
	userAgent string
	timeout   time.Duration
	client    *http.Client
	executor  failsafe.Executor[Place]
}

type nominatimResponse struct {
	Error   string `json:"error"`
	Address struct {
		StateDistrict string `json:"state_district"`
		County        string `json:"county"`
		State         string `json:"state"`
	} `json:"address"`
}

// NewNominatim builds a Nominatim client with retry and circuit breaking.
func NewNominatim(cfg NominatimConfig) *Nominatim {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultNominatimURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}

	retry := retrypolicy.NewBuilder[Place]().
		WithBackoff(100*time.Millisecond, time.Second).
		WithMaxRetries(cfg.MaxRetries).
		HandleIf(func(_ Place, err error) bool {
			return err != nil && !errors.Is(err, errPermanent) && !errors.Is(err, ErrNoResult)
		}).
		Build()

	cbBuilder := circuitbreaker.NewBuilder[Place]().
		WithFailureThresholdRatio(5, 10).
		WithDelay(30 * time.Second).
		WithSuccessThreshold(1).
		HandleIf(func(_ Place, err error) bool {
			return err != nil && !errors.Is(err, ErrNoResult)
		})
	if cfg.Logger != nil {
		logger := cfg.Logger
		cbBuilder = cbBuilder.OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			logger.WithFields(logrus.Fields{
				"from": stateName(e.OldState),
				"to":   stateName(e.NewState),
			}).Warn("geocoder circuit breaker changed state")
		})
	}

	return &Nominatim{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		timeout:   cfg.Timeout,
		client:    cfg.HTTPClient,
		executor:  failsafe.With[Place](retry, cbBuilder.Build()),
	}
}

// Resolve looks up the district and state for a point.
func (n *Nominatim) Resolve(ctx context.Context, lat, lon float64) (Place, error) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	place, err := n.executor.WithContext(ctx).Get(func() (Place, error) {
		return n.fetch(ctx, lat, lon)
	})
	if err != nil {
		return Place{}, fmt.Errorf("reverse geocode %v,%v: %w", lat, lon, err)
	}
	return place, nil
}

func (n *Nominatim) fetch(ctx context.Context, lat, lon float64) (Place, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return Place{}, fmt.Errorf("%w: %v", errPermanent, err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return Place{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return Place{}, fmt.Errorf("nominatim status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return Place{}, fmt.Errorf("%w: nominatim status %d", errPermanent, resp.StatusCode)
	}

	var body nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Place{}, fmt.Errorf("%w: decode: %v", errPermanent, err)
	}
	if body.Error != "" {
		return Place{}, fmt.Errorf("%w: %s", ErrNoResult, body.Error)
	}
	place := Place{District: body.Address.StateDistrict, State: body.Address.State}
	if place.District == "" && place.State == "" {
		return Place{}, ErrNoResult
	}
	return place, nil
}

func stateName(s circuitbreaker.State) string {
	switch s {
	case circuitbreaker.OpenState:
		return "open"
	case circuitbreaker.HalfOpenState:
		return "half-open"
	default:
		return "closed"
	}
}
