package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Location is the human readable place for a coordinate.
type Location struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
}

// LocationCache stores reverse geocoding results.
type LocationCache interface {
	Get(ctx context.Context, key string) (*Location, error)
	Set(ctx context.Context, key string, location *Location) error
}

// GeocodeClient resolves coordinates to place names using a Nominatim
// compatible reverse geocoding endpoint.
type GeocodeClient struct {
	httpClient *http.Client
	baseURL    string
	cache      LocationCache
}

func NewGeocodeClient(baseURL string, cache LocationCache) *GeocodeClient {
	return &GeocodeClient{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		cache:      cache,
	}
}

type nominatimResponse struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Address     struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		Suburb  string `json:"suburb"`
		County  string `json:"county"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"address"`
}

// Reverse returns the place at the coordinate. Results are cached per
// ~100m cell.
func (c *GeocodeClient) Reverse(ctx context.Context, latitude float64, longitude float64) (*Location, error) {
	key := fmt.Sprintf("geocode:%.3f:%.3f", latitude, longitude)
	if c.cache != nil {
		location, err := c.cache.Get(ctx, key)
		if err == nil && location != nil {
			return location, nil
		}
	}

	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("lat", fmt.Sprintf("%f", latitude))
	query.Set("lon", fmt.Sprintf("%f", longitude))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "geofeed-backend")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned status: %s", resp.Status)
	}

	var body nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	location := &Location{
		Name:     firstNonEmpty(body.Address.City, body.Address.Town, body.Address.Village, body.Address.Suburb, body.Name, body.Address.County, body.Address.State),
		FullName: body.DisplayName,
	}

	if c.cache != nil {
		// A failed cache write only costs a repeat lookup.
		_ = c.cache.Set(ctx, key, location)
	}

	return location, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

// RedisLocationCache keeps geocoding results in redis with a fixed TTL.
type RedisLocationCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient(host string, port string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: host + ":" + port,
		DB:   0,
	})
}

func NewRedisLocationCache(client *redis.Client, ttl time.Duration) *RedisLocationCache {
	return &RedisLocationCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *RedisLocationCache) Get(ctx context.Context, key string) (*Location, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var location Location
	if err := json.Unmarshal(data, &location); err != nil {
		return nil, err
	}
	return &location, nil
}

func (c *RedisLocationCache) Set(ctx context.Context, key string, location *Location) error {
	data, err := json.Marshal(location)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}
