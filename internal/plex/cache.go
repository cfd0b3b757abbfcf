package plex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ConnectionCache establishes and reuses server connections for the life of
// the process. It replaces ad hoc module-level caches with an explicitly
// owned object: construct one per run and pass it where needed.
type ConnectionCache struct {
	token        string
	clientID     string
	timeout      time.Duration
	doer         Doer
	resourcesURL string

	mu        sync.Mutex
	clients   map[string]*Client
	resources []Resource
}

// CacheOption customizes a ConnectionCache.
type CacheOption func(*ConnectionCache)

// WithDoer overrides the HTTP backend, primarily for tests.
func WithDoer(doer Doer) CacheOption {
	return func(c *ConnectionCache) { c.doer = doer }
}

// WithResourcesURL overrides the plex.tv resources endpoint, primarily for tests.
func WithResourcesURL(u string) CacheOption {
	return func(c *ConnectionCache) { c.resourcesURL = u }
}

// NewConnectionCache builds a cache for the given account token. Connection
// attempts give up after timeout.
func NewConnectionCache(token string, timeout time.Duration, opts ...CacheOption) *ConnectionCache {
	cache := &ConnectionCache{
		token:    token,
		clientID: uuid.NewString(),
		timeout:  timeout,
		clients:  make(map[string]*Client),
	}
	for _, opt := range opts {
		opt(cache)
	}
	if cache.doer == nil {
		cache.doer = &http.Client{Timeout: timeout}
	}
	return cache
}

// DirectClient returns a cached client for a directly configured server URL,
// bypassing plex.tv discovery.
func (c *ConnectionCache) DirectClient(ctx context.Context, serverURL string) (*Client, error) {
	c.mu.Lock()
	if client, ok := c.clients[serverURL]; ok {
		c.mu.Unlock()
		return client, nil
	}
	c.mu.Unlock()

	client := NewClient(serverURL, c.token, c.clientID, c.doer)
	connectCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := client.Identity(connectCtx); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", serverURL, err)
	}

	c.mu.Lock()
	c.clients[serverURL] = client
	c.mu.Unlock()
	return client, nil
}

// ServerNames lists the owned servers available to the account.
func (c *ConnectionCache) ServerNames(ctx context.Context) ([]string, error) {
	resources, err := c.ServerResources(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resources))
	for _, resource := range resources {
		names = append(names, resource.Name)
	}
	return names, nil
}

// Connect returns a client for the named server, establishing and caching
// the connection on first use. An empty name selects the first owned server.
func (c *ConnectionCache) Connect(ctx context.Context, serverName string) (*Client, error) {
	c.mu.Lock()
	if client, ok := c.clients[serverName]; ok {
		c.mu.Unlock()
		return client, nil
	}
	c.mu.Unlock()

	resources, err := c.ServerResources(ctx)
	if err != nil {
		return nil, err
	}
	if len(resources) == 0 {
		return nil, errors.New("plex: no owned servers on account")
	}

	var target *Resource
	if serverName == "" {
		target = &resources[0]
	} else {
		for i := range resources {
			if resources[i].Name == serverName {
				target = &resources[i]
				break
			}
		}
	}
	if target == nil {
		return nil, fmt.Errorf("plex: server %q not found among account resources", serverName)
	}

	client, err := c.connectResource(ctx, *target)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.clients[serverName] = client
	c.clients[target.Name] = client
	c.mu.Unlock()
	return client, nil
}

// ServerResources returns the account's owned server resources, fetching the
// plex.tv listing once and reusing it afterwards.
func (c *ConnectionCache) ServerResources(ctx context.Context) ([]Resource, error) {
	c.mu.Lock()
	cached := c.resources
	c.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	resources, err := DiscoverServers(ctx, c.token, c.clientID, c.resourcesURL, c.doer)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.resources = resources
	c.mu.Unlock()
	return resources, nil
}

// connectResource tries each advertised connection until one answers within
// the timeout, preferring local addresses.
func (c *ConnectionCache) connectResource(ctx context.Context, resource Resource) (*Client, error) {
	ordered := make([]Connection, 0, len(resource.Connections))
	for _, conn := range resource.Connections {
		if conn.Local {
			ordered = append(ordered, conn)
		}
	}
	for _, conn := range resource.Connections {
		if !conn.Local {
			ordered = append(ordered, conn)
		}
	}

	var lastErr error
	for _, conn := range ordered {
		client := NewClient(conn.URI, c.token, c.clientID, c.doer)
		connectCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err := client.Identity(connectCtx)
		cancel()
		if err == nil {
			return client, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no connection candidates")
	}
	return nil, fmt.Errorf("connect to server %q: %w", resource.Name, lastErr)
}
