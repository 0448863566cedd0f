// Package jamendo pages the Jamendo track listing and normalizes records into
// catalog feed tracks.
package jamendo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	types "github.com/echobeat/catalog-seeder/internal/domain/catalog"
	"github.com/echobeat/catalog-seeder/internal/platform/logger"
)

const DefaultBaseURL = "https://api.jamendo.com/v3.0"

// Track is one record of the /tracks endpoint.
type Track struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Duration     int       `json:"duration"`
	ArtistID     string    `json:"artist_id"`
	ArtistName   string    `json:"artist_name"`
	AlbumID      string    `json:"album_id"`
	AlbumName    string    `json:"album_name"`
	ReleaseDate  string    `json:"releasedate"`
	AlbumImage   string    `json:"album_image"`
	Audio        string    `json:"audio"`
	Image        string    `json:"image"`
	LicenseCCURL string    `json:"license_ccurl"`
	MusicInfo    MusicInfo `json:"musicinfo"`
}

type MusicInfo struct {
	Tags struct {
		Genres []string `json:"genres"`
	} `json:"tags"`
}

type Headers struct {
	Status       string `json:"status"`
	Code         int    `json:"code"`
	ErrorMessage string `json:"error_message"`
	Warnings     string `json:"warnings"`
	ResultsCount int    `json:"results_count"`
	ResultsFull  int    `json:"results_fullcount"`
}

type Response struct {
	Headers Headers `json:"headers"`
	Results []Track `json:"results"`
}

// Feed is the track source the ingestion pipeline pages through.
type Feed interface {
	Page(ctx context.Context, offset, limit int) (types.FeedPage, error)
}

type Client struct {
	clientID   string
	baseURL    string
	license    string
	httpClient *http.Client
	log        *logger.Logger
}

var _ Feed = (*Client)(nil)

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLicense restricts results to a Jamendo license filter such as "ccplus".
func WithLicense(license string) Option {
	return func(c *Client) {
		c.license = strings.TrimSpace(license)
	}
}

func New(log *logger.Logger, clientID, baseURL string, opts ...Option) (*Client, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, types.ConfigurationError("jamendo.new", "JAMENDO_CLIENT_ID is required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		clientID:   clientID,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 20 * time.Second},
		log:        log.With("client", "Jamendo"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Page(ctx context.Context, offset, limit int) (types.FeedPage, error) {
	const op = "jamendo.tracks"
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 200 {
		return types.FeedPage{}, types.ValidationError(op, "", fmt.Sprintf("limit must be in 1..200, got %d", limit))
	}

	q := url.Values{}
	q.Set("client_id", c.clientID)
	q.Set("format", "json")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	q.Set("include", "musicinfo licenses")
	q.Set("fullcount", "true")
	q.Set("order", "id")
	if c.license != "" {
		q.Set("license", c.license)
	}
	endpoint := c.baseURL + "/tracks/?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return types.FeedPage{}, types.NewError(types.CodeUpstreamFetch, op, "", "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return types.FeedPage{}, types.NewError(types.CodeUpstreamFetch, op, "", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return types.FeedPage{}, types.NewError(types.CodeUpstreamFetch, op, "",
			fmt.Sprintf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var payload Response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return types.FeedPage{}, types.NewError(types.CodeUpstreamFetch, op, "", "decode response", err)
	}
	if payload.Headers.Code != 0 || (payload.Headers.Status != "" && payload.Headers.Status != "success") {
		msg := strings.TrimSpace(payload.Headers.ErrorMessage)
		if msg == "" {
			msg = payload.Headers.Status
		}
		return types.FeedPage{}, types.NewError(types.CodeUpstreamFetch, op, "", fmt.Sprintf("api status %d: %s", payload.Headers.Code, msg), nil)
	}

	page := types.FeedPage{
		Offset:  offset,
		Limit:   limit,
		Total:   payload.Headers.ResultsFull,
		Records: make([]types.FeedTrack, 0, len(payload.Results)),
	}
	for _, t := range payload.Results {
		page.Records = append(page.Records, t.ToFeedTrack())
	}
	c.log.Debug("Feed page fetched", "offset", offset, "limit", limit, "records", len(page.Records), "total", page.Total)
	return page, nil
}

// ToFeedTrack normalizes the record. The cover prefers the track image and
// falls back to the album image.
func (t Track) ToFeedTrack() types.FeedTrack {
	image := strings.TrimSpace(t.Image)
	if image == "" {
		image = strings.TrimSpace(t.AlbumImage)
	}
	return types.FeedTrack{
		ExternalID:      strings.TrimSpace(t.ID),
		Name:            strings.TrimSpace(t.Name),
		Artists:         SplitArtists(t.ArtistName),
		Album:           strings.TrimSpace(t.AlbumName),
		DurationSeconds: t.Duration,
		AudioURL:        strings.TrimSpace(t.Audio),
		ImageURL:        image,
		LicenseURL:      strings.TrimSpace(t.LicenseCCURL),
		ReleaseDate:     strings.TrimSpace(t.ReleaseDate),
		Genres:          normalizeGenres(t.MusicInfo.Tags.Genres),
	}
}

var artistSeparators = []string{", ", " & ", " feat. ", " ft. ", " Feat. ", " Ft. "}

// SplitArtists splits a credited artist string into individual names.
func SplitArtists(raw string) []string {
	parts := []string{raw}
	for _, sep := range artistSeparators {
		var next []string
		for _, p := range parts {
			next = append(next, strings.Split(p, sep)...)
		}
		parts = next
	}
	return types.CleanNames(parts)
}

// normalizeGenres title-cases Jamendo's lowercase genre tags.
func normalizeGenres(tags []string) []string {
	caser := cases.Title(language.Und)
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		out = append(out, caser.String(tag))
	}
	return types.CleanNames(out)
}
