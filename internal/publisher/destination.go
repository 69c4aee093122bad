// Destination parsing. A destination identifies the target RTMP endpoint
// and is parsed once into host, port, application, and optional stream key.

package publisher

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// DefaultRTMPPort is used when the destination URL names no port.
const DefaultRTMPPort = 1935

// Destination identifies a target RTMP endpoint.
type Destination struct {
	URL      string `yaml:"url" json:"url"`
	Platform string `yaml:"platform" json:"platform"`
}

// Endpoint is a parsed destination, immutable after construction.
type Endpoint struct {
	Host string
	Port int
	App  string
	Key  string // stream key embedded in the URL path, may be empty
}

// Parse validates the destination URL and splits it into its parts:
// rtmp://host[:port]/application[/streamKey].
func (d Destination) Parse() (*Endpoint, error) {
	u, err := url.Parse(d.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "rtmp" {
		return nil, fmt.Errorf("%w: scheme %q is not rtmp", ErrInvalidURL, u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	port := DefaultRTMPPort
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("%w: port %q", ErrInvalidURL, p)
		}
	}

	parts := strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)
	if parts[0] == "" {
		return nil, fmt.Errorf("%w: missing application name", ErrInvalidURL)
	}

	ep := &Endpoint{
		Host: u.Hostname(),
		Port: port,
		App:  parts[0],
	}
	if len(parts) == 2 {
		ep.Key = parts[1]
	}
	return ep, nil
}

// Addr returns the host:port dial target.
func (e *Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// TCURL returns the tcUrl value sent in the connect command.
func (e *Endpoint) TCURL() string {
	if e.Port == DefaultRTMPPort {
		return fmt.Sprintf("rtmp://%s/%s", e.Host, e.App)
	}
	return fmt.Sprintf("rtmp://%s:%d/%s", e.Host, e.Port, e.App)
}
