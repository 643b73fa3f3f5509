package auth

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing/transport"
)

// Endpoint is the parsed form of a remote URL relevant to credentials.
type Endpoint struct {
	Protocol string
	Host     string
	Port     int
	User     string
}

// ParseEndpoint parses http(s), ssh, scp-like and file remote URLs.
func ParseEndpoint(remoteURL string) (*Endpoint, error) {
	if remoteURL == "" {
		return nil, fmt.Errorf("remote URL cannot be empty")
	}

	ep, err := transport.NewEndpoint(remoteURL)
	if err != nil {
		return nil, fmt.Errorf("invalid remote URL: %w", err)
	}

	return &Endpoint{
		Protocol: ep.Protocol,
		Host:     ep.Host,
		Port:     ep.Port,
		User:     ep.User,
	}, nil
}

// UsernameHint returns the user embedded in the URL, or DefaultUsername.
func UsernameHint(remoteURL string) string {
	ep, err := ParseEndpoint(remoteURL)
	if err != nil || ep.User == "" {
		return DefaultUsername
	}
	return ep.User
}

// IsSSH reports whether the endpoint speaks the SSH transport.
func (e *Endpoint) IsSSH() bool {
	return isSupportedScheme(e.Protocol)
}

// IsHTTP reports whether the endpoint speaks the smart HTTP transport.
func (e *Endpoint) IsHTTP() bool {
	return e.Protocol == "http" || e.Protocol == "https"
}

func isSupportedScheme(s string) bool {
	return s == "ssh" || s == "git+ssh"
}
