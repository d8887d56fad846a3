// Package snapapi talks to the Marvel Snap asset API: the card list, the art
// variant list and rendered artwork images.
package snapapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/patrickmn/go-cache"

	"github.com/arcanaland/snaplabel/internal/card"
	"github.com/arcanaland/snaplabel/internal/config"
	"github.com/arcanaland/snaplabel/internal/errors"
	"github.com/arcanaland/snaplabel/internal/logging"
)

const (
	cardsPath    = "v2/latest/en/cards.json"
	variantsPath = "v2/latest/en/artVariants.json"

	cacheKeyCards    = "cards"
	cacheKeyVariants = "artVariants"

	component = "snapapi"
)

// Client fetches metadata and artwork from the asset API. Metadata responses
// are kept for the client's lifetime so repeated calls within a run see the
// same card order.
type Client struct {
	baseURL    *url.URL
	imagePath  string // fmt template taking the variant id
	userAgent  string
	httpClient *http.Client
	cache      *cache.Cache
	logger     *slog.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the client logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the API described by cfg
func NewClient(cfg *config.Config, opts ...Option) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, errors.Newf("invalid base URL %q: %w", cfg.BaseURL, err).
			Category(errors.CategoryConfiguration).
			Component(component).
			Build()
	}
	// Relative references resolve under the base path only with a trailing slash
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	style := strings.Trim(cfg.ImageStyle, "/")
	ext := strings.TrimPrefix(cfg.ImageExt, ".")

	c := &Client{
		baseURL:    base,
		imagePath:  fmt.Sprintf("art/render/%s/%d/%%s.%s", style, cfg.ImageSize, ext),
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      cache.New(cache.NoExpiration, 0),
		logger:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// FetchCards returns released cards in response order
func (c *Client) FetchCards(ctx context.Context) ([]card.Card, error) {
	if cached, found := c.cache.Get(cacheKeyCards); found {
		if cards, ok := cached.([]card.Card); ok {
			return cards, nil
		}
	}

	var all []card.Card
	if err := c.getJSON(ctx, cardsPath, &all); err != nil {
		return nil, err
	}

	cards := make([]card.Card, 0, len(all))
	for _, cd := range all {
		if cd.Released() {
			cards = append(cards, cd)
		}
	}

	c.cache.Set(cacheKeyCards, cards, cache.NoExpiration)
	c.logger.Debug("cards fetched",
		"received", len(all),
		"released", len(cards))

	return cards, nil
}

// FetchArtVariants returns art variants that are not test data, in response order
func (c *Client) FetchArtVariants(ctx context.Context) ([]card.ArtVariant, error) {
	if cached, found := c.cache.Get(cacheKeyVariants); found {
		if variants, ok := cached.([]card.ArtVariant); ok {
			return variants, nil
		}
	}

	var all []card.ArtVariant
	if err := c.getJSON(ctx, variantsPath, &all); err != nil {
		return nil, err
	}

	variants := make([]card.ArtVariant, 0, len(all))
	for _, v := range all {
		if v.Released() {
			variants = append(variants, v)
		}
	}

	c.cache.Set(cacheKeyVariants, variants, cache.NoExpiration)
	c.logger.Debug("art variants fetched",
		"received", len(all),
		"released", len(variants))

	return variants, nil
}

// ImageURL returns the rendered artwork URL for a variant
func (c *Client) ImageURL(variant string) string {
	ref := &url.URL{Path: fmt.Sprintf(c.imagePath, variant)}
	return c.baseURL.ResolveReference(ref).String()
}

// OpenImage requests the rendered artwork of a variant and returns the
// response body as a stream. The caller must close it.
func (c *Client) OpenImage(ctx context.Context, variant string) (io.ReadCloser, error) {
	imageURL := c.ImageURL(variant)

	resp, err := c.do(ctx, imageURL)
	if err != nil {
		return nil, errors.Newf("image request failed: %w", err).
			Category(errors.CategoryDownload).
			Component(component).
			Context("variant", variant).
			Context("url", imageURL).
			Build()
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, errors.Newf("image request returned status %d", resp.StatusCode).
			Category(errors.CategoryDownload).
			Component(component).
			Context("variant", variant).
			Context("url", imageURL).
			Context("status_code", resp.StatusCode).
			Build()
	}

	return resp.Body, nil
}

// getJSON fetches a path relative to the base URL and decodes the JSON body
func (c *Client) getJSON(ctx context.Context, path string, result any) error {
	endpoint := c.baseURL.ResolveReference(&url.URL{Path: path}).String()

	resp, err := c.do(ctx, endpoint)
	if err != nil {
		return errors.Newf("metadata request failed: %w", err).
			Category(errors.CategoryMetadata).
			Component(component).
			Context("url", endpoint).
			Build()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Newf("metadata request returned status %d", resp.StatusCode).
			Category(errors.CategoryMetadata).
			Component(component).
			Context("url", endpoint).
			Context("status_code", resp.StatusCode).
			Build()
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return errors.Newf("failed to parse metadata response: %w", err).
			Category(errors.CategoryMetadata).
			Component(component).
			Context("url", endpoint).
			Build()
	}

	return nil
}

func (c *Client) do(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.logger.Debug("api request", "url", target)
	return c.httpClient.Do(req)
}
