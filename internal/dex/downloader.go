package dex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly"

	"dextracker/internal/logging"
	"dextracker/internal/store/filestore"
)

// DefaultDelay is the pause between PokeAPI requests.
const DefaultDelay = 150 * time.Millisecond

// Downloader saves every PokeAPI pokedex as {OutDir}/{name}.json.
type Downloader struct {
	BaseURL    string
	OutDir     string
	UserAgent  string
	Delay      time.Duration
	MaxRetries int
	Logger     *logging.Logger
}

// crawl is the state of one Run.
type crawl struct {
	d        *Downloader
	listURL  string
	mu       sync.Mutex
	attempts map[string]int
	saved    []string
	errs     []error
}

// Run lists all pokedexes and downloads each one. It keeps going past
// individual failures and returns them joined, along with the paths saved.
func (d *Downloader) Run(ctx context.Context) ([]string, error) {
	base := strings.TrimRight(d.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	ua := d.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	logger := d.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	cr := &crawl{
		d:        d,
		listURL:  base + "/pokedex/?limit=2000",
		attempts: map[string]int{},
	}

	c := colly.NewCollector(
		colly.UserAgent(ua),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(defaultTimeout)
	if d.Delay > 0 {
		if err := c.Limit(&colly.LimitRule{DomainGlob: "*", Delay: d.Delay}); err != nil {
			return nil, fmt.Errorf("configuring rate limit: %w", err)
		}
	}

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	c.OnResponse(func(r *colly.Response) {
		if resourceName(r.Request.URL.Path) == "pokedex" {
			cr.handleList(r, base, logger)
			return
		}
		cr.handleDex(r, logger)
	})

	c.OnError(func(r *colly.Response, err error) {
		cr.handleError(c, r, err, logger)
	})

	if err := c.Visit(cr.listURL); err != nil && !errors.Is(err, colly.ErrAlreadyVisited) {
		cr.addErr(fmt.Errorf("listing pokedexes: %w", err))
	}
	c.Wait()

	if err := ctx.Err(); err != nil {
		cr.addErr(err)
	}
	return cr.saved, errors.Join(cr.errs...)
}

func (cr *crawl) handleList(r *colly.Response, base string, logger *logging.Logger) {
	var list PokedexList
	if err := json.Unmarshal(r.Body, &list); err != nil {
		cr.addErr(fmt.Errorf("decoding pokedex list: %w", err))
		return
	}
	logger.Info("pokedex list fetched", "count", len(list.Results))

	for _, res := range list.Results {
		if res.Name == "" {
			continue
		}
		// Errors land in OnError; Visit's own return only covers scheduling.
		_ = r.Request.Visit(base + "/pokedex/" + res.Name + "/")
	}
}

func (cr *crawl) handleDex(r *colly.Response, logger *logging.Logger) {
	name := resourceName(r.Request.URL.Path)
	out := filepath.Join(cr.d.OutDir, name+".json")
	if err := filestore.WriteAtomic(out, r.Body); err != nil {
		cr.addErr(fmt.Errorf("saving %s: %w", name, err))
		return
	}

	cr.mu.Lock()
	cr.saved = append(cr.saved, out)
	cr.mu.Unlock()
	logger.Info("pokedex saved", "name", name, "path", out)
}

func (cr *crawl) handleError(c *colly.Collector, r *colly.Response, err error, logger *logging.Logger) {
	u := r.Request.URL.String()

	cr.mu.Lock()
	cr.attempts[u]++
	attempt := cr.attempts[u]
	cr.mu.Unlock()

	if retryableStatus(r.StatusCode) && attempt <= cr.d.MaxRetries {
		logger.Warn("request failed, retrying", "url", u, "status", r.StatusCode, "attempt", attempt, "error", err)
		if verr := c.Visit(u); verr != nil {
			cr.addErr(fmt.Errorf("retrying %s: %w", u, verr))
		}
		return
	}
	cr.addErr(fmt.Errorf("GET %s (status %d): %w", u, r.StatusCode, err))
}

func (cr *crawl) addErr(err error) {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	cr.errs = append(cr.errs, err)
}

// resourceName is the last path segment: "pokedex" for the list, the dex name
// otherwise.
func resourceName(p string) string {
	return path.Base(strings.TrimRight(p, "/"))
}

// retryableStatus reports whether a failed response is worth repeating. Zero
// means no response arrived.
func retryableStatus(status int) bool {
	return status == 0 || status == http.StatusTooManyRequests || status >= 500
}
