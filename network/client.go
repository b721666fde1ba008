// Package network provides the HTTP client used to reach providers.
package network

import (
	"net/http"
	"time"
)

// Fingerprinted is the shared client whose TLS handshake looks like Chrome's.
// Providers behind anti-bot CDNs reject Go's default ClientHello.
var Fingerprinted = &http.Client{
	Timeout:   time.Minute,
	Transport: NewFingerprintedTransport(),
}
