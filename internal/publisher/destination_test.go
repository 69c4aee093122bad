package publisher

import (
	"errors"
	"testing"
)

func TestDestinationParse(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		host  string
		port  int
		app   string
		key   string
		tcURL string
	}{
		{
			name:  "app and key, default port",
			url:   "rtmp://server.example.com/live/streamkey",
			host:  "server.example.com",
			port:  1935,
			app:   "live",
			key:   "streamkey",
			tcURL: "rtmp://server.example.com/live",
		},
		{
			name:  "explicit port",
			url:   "rtmp://ingest.example.com:1936/app/key",
			host:  "ingest.example.com",
			port:  1936,
			app:   "app",
			key:   "key",
			tcURL: "rtmp://ingest.example.com:1936/app",
		},
		{
			name:  "app only",
			url:   "rtmp://a.rtmp.youtube.com/live2",
			host:  "a.rtmp.youtube.com",
			port:  1935,
			app:   "live2",
			key:   "",
			tcURL: "rtmp://a.rtmp.youtube.com/live2",
		},
		{
			name:  "multi-segment key",
			url:   "rtmp://host/app/key/with/slashes",
			host:  "host",
			port:  1935,
			app:   "app",
			key:   "key/with/slashes",
			tcURL: "rtmp://host/app",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep, err := Destination{URL: tt.url}.Parse()
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.url, err)
			}
			if ep.Host != tt.host || ep.Port != tt.port || ep.App != tt.app || ep.Key != tt.key {
				t.Errorf("got %+v, want host=%s port=%d app=%s key=%s", ep, tt.host, tt.port, tt.app, tt.key)
			}
			if got := ep.TCURL(); got != tt.tcURL {
				t.Errorf("TCURL() = %q, want %q", got, tt.tcURL)
			}
		})
	}
}

func TestDestinationParseInvalid(t *testing.T) {
	urls := []string{
		"http://server.example.com/live/key", // wrong scheme
		"rtmp:///live/key",                   // no host
		"rtmp://host",                        // no application
		"rtmp://host:notaport/live",
		"rtmp://host:0/live",
		"rtmp://host:70000/live",
	}
	for _, u := range urls {
		if _, err := (Destination{URL: u}).Parse(); !errors.Is(err, ErrInvalidURL) {
			t.Errorf("Parse(%q) = %v, want ErrInvalidURL", u, err)
		}
	}
}

func TestEndpointAddr(t *testing.T) {
	ep := &Endpoint{Host: "host", Port: 1935}
	if got := ep.Addr(); got != "host:1935" {
		t.Errorf("Addr() = %q, want host:1935", got)
	}
}
