package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/renewabletx/gridmix/internal/energy"
	"github.com/renewabletx/gridmix/internal/logger"
)

// DefaultFuelMixURL is the grid operator's public fuel-mix dashboard feed.
const DefaultFuelMixURL = "https://www.ercot.com/api/1/services/read/dashboards/fuel-mix.json"

// ErrEmptyFeed is returned when the feed responds with no data points.
var ErrEmptyFeed = errors.New("fuel mix feed returned no data")

// Reading is the most recent fuel mix reported by the feed: the upstream
// timestamp string and megawatts keyed by upstream display label.
type Reading struct {
	Timestamp string
	Mix       map[string]float64
}

// TotalMW sums generation across all reported labels.
func (r Reading) TotalMW() float64 {
	var total float64
	for _, mw := range r.Mix {
		total += mw
	}
	return total
}

// RenewableMW sums generation across labels flagged renewable in the
// catalog. Labels the catalog does not know contribute nothing here; they
// surface as errors at ingestion instead.
func (r Reading) RenewableMW() float64 {
	var total float64
	for label, mw := range r.Mix {
		if meta, err := energy.MetaForLabel(label); err == nil && meta.Renewable {
			total += mw
		}
	}
	return total
}

// RenewablePct returns the renewable share in percent, 0 when total is 0.
func (r Reading) RenewablePct() float64 {
	total := r.TotalMW()
	if total == 0 {
		return 0
	}
	return r.RenewableMW() / total * 100
}

// Title builds the human-readable chart title for this reading.
func (r Reading) Title() string {
	display := r.Timestamp
	if t, err := time.Parse("2006-01-02 15:04:05", r.Timestamp); err == nil {
		display = t.Format("Jan 02, 2006 03:04 PM")
	}
	return fmt.Sprintf("Energy Mix | %s using %.1f MW (%.1f%% Renewable)",
		display, r.TotalMW(), r.RenewablePct())
}

// Client fetches the current fuel mix from the operator's dashboard feed.
type Client struct {
	name    string
	url     string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	log     *logger.Logger
}

func NewClient(client *http.Client, url string, log *logger.Logger) *Client {
	if url == "" {
		url = DefaultFuelMixURL
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "fuelmix",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		name: "fuelmix",
		url:  url,
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      3,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: cb,
		log:     log.With("component", "feed"),
	}
}

func (c *Client) Name() string {
	return c.name
}

// Fetch returns the most recent fuel-mix reading. The feed nests readings
// by day and then by timestamp; the lexically greatest key on each level is
// the newest one.
func (c *Client) Fetch(ctx context.Context) (Reading, error) {
	buildRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, c.url, nil)
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return Reading{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Data map[string]map[string]map[string]struct {
			Gen float64 `json:"gen"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Reading{}, fmt.Errorf("decode fuel mix payload: %w", err)
	}

	dayKey, ok := latestKey(payload.Data)
	if !ok {
		return Reading{}, ErrEmptyFeed
	}
	tsKey, ok := latestKey(payload.Data[dayKey])
	if !ok {
		return Reading{}, ErrEmptyFeed
	}

	mix := make(map[string]float64)
	for label, entry := range payload.Data[dayKey][tsKey] {
		mix[label] = entry.Gen
	}

	reading := Reading{Timestamp: tsKey, Mix: mix}
	c.log.Info("fetched fuel mix",
		"timestamp", reading.Timestamp,
		"totalMw", reading.TotalMW(),
		"renewablePct", reading.RenewablePct(),
	)
	return reading, nil
}

// latestKey returns the lexically greatest key of m.
func latestKey[V any](m map[string]V) (string, bool) {
	var best string
	found := false
	for k := range m {
		if !found || k > best {
			best = k
			found = true
		}
	}
	return best, found
}
