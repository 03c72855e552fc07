package client

import (
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"sync"
	"testing"
)

func TestIsPasswordPwned(t *testing.T) {
	// SHA-1 of "password" is 5BAA61E4C9B93F3F0682250B6CF8331B7EE68FD8.
	ranges := map[string]string{
		"/range/5BAA6": "0018A45C4D1DEF81644B54AB7F969B88D65:1\r\n1E4C9B93F3F0682250B6CF8331B7EE68FD8:3861493\r\n",
	}
	var mu sync.Mutex
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		fmt.Fprint(w, ranges[r.URL.Path])
	}))
	defer server.Close()

	hibp := NewHIBPClientWithURL(server.URL)

	pwned, err := hibp.IsPasswordPwned(context.Background(), "password")
	if err != nil {
		t.Fatal(err)
	}
	if !pwned {
		t.Fatal("expected password to be pwned")
	}

	clean := "a much longer passphrase nobody uses"
	pwned, err = hibp.IsPasswordPwned(context.Background(), clean)
	if err != nil {
		t.Fatal(err)
	}
	if pwned {
		t.Fatal("expected password to be clean")
	}

	digest := strings.ToUpper(fmt.Sprintf("%x", sha1.Sum([]byte(clean))))
	expected := []string{"/range/5BAA6", "/range/" + digest[:5]}
	mu.Lock()
	defer mu.Unlock()
	if len(paths) != 2 || paths[0] != expected[0] || paths[1] != expected[1] {
		t.Fatalf("expected only hash prefixes to be sent %v, got %v", expected, paths)
	}
}

type memoryLocationCache struct {
	mu    sync.Mutex
	items map[string]*Location
}

func (c *memoryLocationCache) Get(ctx context.Context, key string) (*Location, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items[key], nil
}

func (c *memoryLocationCache) Set(ctx context.Context, key string, location *Location) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = location
	return nil
}

func TestGeocodeReverseUsesCache(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("format") != "jsonv2" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"display_name": "Mitte, Berlin, Germany", "address": {"suburb": "Mitte", "city": "Berlin"}}`)
	}))
	defer server.Close()

	cache := &memoryLocationCache{items: map[string]*Location{}}
	geocoder := NewGeocodeClient(server.URL, cache)

	for i := 0; i < 2; i++ {
		location, err := geocoder.Reverse(context.Background(), 52.52, 13.405)
		if err != nil {
			t.Fatal(err)
		}
		if location.Name != "Berlin" || location.FullName != "Mitte, Berlin, Germany" {
			t.Fatalf("unexpected location %+v", location)
		}
	}

	if calls != 1 {
		t.Fatalf("expected one upstream call, got %d", calls)
	}
}

func TestGeocodeReverseUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	geocoder := NewGeocodeClient(server.URL, nil)
	if _, err := geocoder.Reverse(context.Background(), 1, 1); err == nil {
		t.Fatal("expected error")
	}
}

func TestSendHTML(t *testing.T) {
	mail := NewMailClient("smtp.example.com", "587", "", "")

	var sentTo []string
	var sentMessage string
	mail.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		if addr != "smtp.example.com:587" {
			t.Errorf("unexpected addr %s", addr)
		}
		sentTo = to
		sentMessage = string(msg)
		return nil
	}

	if err := mail.SendHTML("no-reply@geofeed.app", "ana@example.com", "Hello", "<b>hi</b>"); err != nil {
		t.Fatal(err)
	}
	if len(sentTo) != 1 || sentTo[0] != "ana@example.com" {
		t.Fatalf("unexpected recipients %v", sentTo)
	}
	if !strings.Contains(sentMessage, "Content-Type: text/html") || !strings.HasSuffix(sentMessage, "<b>hi</b>") {
		t.Fatalf("unexpected message %q", sentMessage)
	}

	mail.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}
	if err := mail.SendHTML("a@b.c", "d@e.f", "s", "b"); err == nil {
		t.Fatal("expected send error")
	}
}

func TestImageKey(t *testing.T) {
	key := ImageKey("Sunset.JPG")
	if !strings.HasPrefix(key, "posts/") || !strings.HasSuffix(key, ".jpg") {
		t.Fatalf("unexpected key %s", key)
	}
	if ImageKey("a.png") == ImageKey("a.png") {
		t.Fatal("expected unique keys")
	}
}
