// Package platform holds the per-network publishing adapters. Every
// adapter speaks its platform's own protocol but presents the same
// contract: formatted content in, a soft outcome out. Adapters never
// panic or return transport errors; anything that goes wrong becomes
// Outcome{Success: false, Error: ...} so the orchestrator always has a
// message to persist.
package platform

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/v9cf/contentfactory/internal/models"
)

// Outcome is the uniform result of one publish attempt.
type Outcome struct {
	Success         bool
	PlatformPostID  string
	PlatformPostURL string
	Error           string
	ErrorCode       string
}

// Content is the formatted payload handed to an adapter. Text has already
// been through FormatForPlatform.
type Content struct {
	Text      string
	MediaURLs []string
}

// Adapter publishes one piece of content to one platform.
type Adapter interface {
	Publish(ctx context.Context, tokens *models.TokenBundle, content Content) Outcome
}

// Platform calls get a bounded timeout; once the deadline passes the
// outcome is unknown and is reported with ErrorCodeTimeout for manual
// reconciliation.
const callTimeout = 15 * time.Second

const (
	ErrorCodeTimeout  = "timeout"
	ErrorCodeUpstream = "upstream"
	ErrorCodeDomain   = "domain"
)

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: callTimeout}
}

// Registry maps platforms to their adapters.
type Registry struct {
	adapters map[models.Platform]Adapter
}

// NewRegistry wires the supported platform set.
func NewRegistry() *Registry {
	return &Registry{
		adapters: map[models.Platform]Adapter{
			models.PlatformTwitter:   NewTwitterAdapter(),
			models.PlatformInstagram: NewInstagramAdapter(),
			models.PlatformFacebook:  NewFacebookAdapter(),
			models.PlatformLinkedIn:  NewLinkedInAdapter(),
		},
	}
}

// Lookup returns the adapter for a platform, or false when the platform
// has no publishing support.
func (r *Registry) Lookup(p models.Platform) (Adapter, bool) {
	adapter, ok := r.adapters[p]
	return adapter, ok
}

// Register replaces or adds an adapter. Tests use it to install stubs.
func (r *Registry) Register(p models.Platform, a Adapter) {
	r.adapters[p] = a
}

func failure(code, message string) Outcome {
	return Outcome{Success: false, Error: message, ErrorCode: code}
}

// transportFailure converts a network-layer error into a soft outcome,
// distinguishing deadline expiry from other upstream failures.
func transportFailure(ctx context.Context, err error) Outcome {
	var uerr *url.Error
	if ctx.Err() == context.DeadlineExceeded || (errors.As(err, &uerr) && uerr.Timeout()) {
		return failure(ErrorCodeTimeout, "platform call timed out; outcome unknown")
	}
	return failure(ErrorCodeUpstream, err.Error())
}
