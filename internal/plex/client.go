package plex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"strconv"
	"strings"
)

const (
	productName    = "ratesync"
	productVersion = "0.1.0"
	// libraryIdentifier is the fixed identifier Plex expects on rating and
	// scrobble requests.
	libraryIdentifier = "com.plexapp.plugins.library"
)

var (
	// ErrNotFound indicates the requested item does not exist on the server.
	ErrNotFound = errors.New("plex: item not found")
	// ErrUnauthorized indicates the token was rejected.
	ErrUnauthorized = errors.New("plex: unauthorized")
)

// Doer abstracts http.Client.Do for testing.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client talks to one Plex Media Server.
type Client struct {
	baseURL  string
	token    string
	clientID string
	client   Doer
}

// NewClient constructs a server client. A nil doer falls back to
// http.DefaultClient.
func NewClient(baseURL, token, clientID string, doer Doer) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:    strings.TrimSpace(token),
		clientID: clientID,
		client:   doer,
	}
}

// BaseURL returns the server address the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Identity verifies the server is reachable and the token accepted.
func (c *Client) Identity(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/identity", nil, nil)
}

// Sections lists the server's library sections.
func (c *Client) Sections(ctx context.Context) ([]Section, error) {
	var resp mediaContainerResponse
	if err := c.doJSON(ctx, http.MethodGet, "/library/sections", nil, &resp); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	sections := make([]Section, 0, len(resp.MediaContainer.Directory))
	for _, dir := range resp.MediaContainer.Directory {
		if dir.Key == "" || dir.Title == "" {
			continue
		}
		sections = append(sections, Section{Key: dir.Key, Title: dir.Title, Type: dir.Type})
	}
	return sections, nil
}

// SectionByTitle resolves a section by its display name, case-insensitively.
func (c *Client) SectionByTitle(ctx context.Context, title string) (Section, error) {
	sections, err := c.Sections(ctx)
	if err != nil {
		return Section{}, err
	}
	for _, section := range sections {
		if strings.EqualFold(section.Title, title) {
			return section, nil
		}
	}
	return Section{}, fmt.Errorf("library section %q: %w", title, ErrNotFound)
}

// SectionItems enumerates every item in a section.
func (c *Client) SectionItems(ctx context.Context, sectionKey string) ([]Item, error) {
	path := fmt.Sprintf("/library/sections/%s/all", url.PathEscape(sectionKey))
	var resp mediaContainerResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("enumerate section %s: %w", sectionKey, err)
	}
	items := make([]Item, 0, len(resp.MediaContainer.Metadata))
	for _, meta := range resp.MediaContainer.Metadata {
		items = append(items, meta.item())
	}
	return items, nil
}

// FindByGUID searches one section for an item carrying the given external
// GUID. The boolean is false when nothing matches.
func (c *Client) FindByGUID(ctx context.Context, sectionKey, guid string) (Item, bool, error) {
	path := fmt.Sprintf("/library/sections/%s/all", url.PathEscape(sectionKey))
	query := url.Values{"guid": []string{guid}}
	var resp mediaContainerResponse
	if err := c.doJSON(ctx, http.MethodGet, path+"?"+query.Encode(), nil, &resp); err != nil {
		return Item{}, false, fmt.Errorf("search section %s by guid: %w", sectionKey, err)
	}
	if len(resp.MediaContainer.Metadata) == 0 {
		return Item{}, false, nil
	}
	return resp.MediaContainer.Metadata[0].item(), true, nil
}

// Item fetches one item by rating key. Used to read the authoritative current
// rating just before a write, since indexed snapshots can be stale.
func (c *Client) Item(ctx context.Context, ratingKey string) (Item, error) {
	path := fmt.Sprintf("/library/metadata/%s", url.PathEscape(ratingKey))
	var resp mediaContainerResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return Item{}, fmt.Errorf("fetch item %s: %w", ratingKey, err)
	}
	if len(resp.MediaContainer.Metadata) == 0 {
		return Item{}, fmt.Errorf("fetch item %s: %w", ratingKey, ErrNotFound)
	}
	return resp.MediaContainer.Metadata[0].item(), nil
}

// Rate writes a rating (0-10 scale) for the item.
func (c *Client) Rate(ctx context.Context, ratingKey string, rating float64) error {
	query := url.Values{
		"key":        []string{ratingKey},
		"identifier": []string{libraryIdentifier},
		"rating":     []string{strconv.FormatFloat(rating, 'f', -1, 64)},
	}
	if err := c.doJSON(ctx, http.MethodPut, "/:/rate?"+query.Encode(), nil, nil); err != nil {
		return fmt.Errorf("rate item %s: %w", ratingKey, err)
	}
	return nil
}

// MarkWatched scrobbles the item as watched.
func (c *Client) MarkWatched(ctx context.Context, ratingKey string) error {
	query := url.Values{
		"key":        []string{ratingKey},
		"identifier": []string{libraryIdentifier},
	}
	if err := c.doJSON(ctx, http.MethodGet, "/:/scrobble?"+query.Encode(), nil, nil); err != nil {
		return fmt.Errorf("mark item %s watched: %w", ratingKey, err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	applyStandardHeaders(req, c.clientID)
	if c.token != "" {
		req.Header.Set("X-Plex-Token", c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("plex request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("plex %s %s returned %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func applyStandardHeaders(req *http.Request, clientID string) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Plex-Client-Identifier", clientID)
	req.Header.Set("X-Plex-Product", productName)
	req.Header.Set("X-Plex-Version", productVersion)
	req.Header.Set("X-Plex-Device-Name", productName)
	req.Header.Set("X-Plex-Platform", runtime.GOOS)
}
