package plex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultResourcesURL = "https://plex.tv/api/v2/resources?includeHttps=1"

// Resource is one device attached to a plex.tv account.
type Resource struct {
	Name        string       `json:"name"`
	Provides    string       `json:"provides"`
	Owned       bool         `json:"owned"`
	Connections []Connection `json:"connections"`
}

// Connection is one address candidate for reaching a resource.
type Connection struct {
	URI   string `json:"uri"`
	Local bool   `json:"local"`
}

// Server reports whether the resource is an owned, reachable media server.
func (r Resource) Server() bool {
	return r.Owned && len(r.Connections) > 0 && strings.Contains(r.Provides, "server")
}

// DiscoverServers lists the account's owned media servers via plex.tv.
func DiscoverServers(ctx context.Context, token, clientID, resourcesURL string, doer Doer) ([]Resource, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("plex: token required for server discovery")
	}
	if doer == nil {
		doer = http.DefaultClient
	}
	if resourcesURL == "" {
		resourcesURL = defaultResourcesURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resourcesURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build resources request: %w", err)
	}
	applyStandardHeaders(req, clientID)
	req.Header.Set("X-Plex-Token", token)

	resp, err := doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch plex resources: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("plex resources returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var resources []Resource
	if err := json.NewDecoder(resp.Body).Decode(&resources); err != nil {
		return nil, fmt.Errorf("decode resources: %w", err)
	}

	servers := make([]Resource, 0, len(resources))
	for _, resource := range resources {
		if resource.Server() {
			servers = append(servers, resource)
		}
	}
	return servers, nil
}
