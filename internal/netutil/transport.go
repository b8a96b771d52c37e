package netutil

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// NewTransport creates an HTTP transport that logs every dial at debug level,
// tagging whether the backend sits on the local network.
func NewTransport(logger *logrus.Logger) *http.Transport {
	return &http.Transport{
		DialContext:           createDialContext(logger),
		TLSHandshakeTimeout:   10 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          10,
		// Polls and commands overlap; keep a few warm connections per host.
		MaxIdleConnsPerHost: 4,
	}
}

func createDialContext(logger *logrus.Logger) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}

		logger.WithFields(logrus.Fields{
			"host":  host,
			"local": IsLocalOrPrivateHost(host),
		}).Debug("Dialing backend")

		dialer := net.Dialer{Timeout: 5 * time.Second}
		return dialer.DialContext(ctx, network, addr)
	}
}

// IsLocalOrPrivateHost checks if a hostname is localhost or a private network address
func IsLocalOrPrivateHost(host string) bool {
	if host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return true
	}

	if strings.HasSuffix(host, ".local") || strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".lan") {
		return true
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return false // External domain name
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast()
}

// NewHTTPClient creates an HTTP client with the logging transport.
func NewHTTPClient(timeout time.Duration, logger *logrus.Logger) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: NewTransport(logger),
	}
}
