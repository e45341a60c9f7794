package resolver

import (
	"context"
	"net"

	"github.com/quaydns/quaydns/internal/dns/domain"
)

// UpstreamClient forwards a single question to configured upstream DNS
// servers and returns the decoded response.
type UpstreamClient interface {
	Resolve(ctx context.Context, query domain.Question) (domain.DNSResponse, error)
}

// RecordStore is the subset of the record store the dispatcher depends on:
// a local lookup on cache hit, and population on a successful upstream
// forward.
type RecordStore interface {
	Query(question domain.Question) []domain.ResourceRecord
	InsertOrUpdate(rr domain.ResourceRecord) bool
}

// MetricsRecorder observes dispatcher outcomes. A nil MetricsRecorder is a
// valid ResolverOptions.Metrics value -- the dispatcher skips recording.
type MetricsRecorder interface {
	RecordQuery(result string)
	RecordCacheHit()
	RecordUpstreamForward(outcome string)
}

// DNSResponder converts one received datagram into a response datagram. It
// owns decode failure handling, well-formedness checks, and response
// encoding -- the transport only moves bytes.
type DNSResponder interface {
	HandleRequest(ctx context.Context, data []byte, clientAddr net.Addr) []byte
}

// ServerTransport defines the interface for DNS server transport implementations.
// Different transport types (UDP, DoH, DoT, DoQ) can implement this interface
// while providing the same request handling contract to the service layer.
type ServerTransport interface {
	// Start begins listening for requests and handling them via the provided handler.
	// The transport handles all network protocol concerns and wire format conversion.
	Start(ctx context.Context, handler DNSResponder) error

	// Stop gracefully shuts down the transport, closing connections and cleaning up resources.
	Stop() error

	// Address returns the network address the transport is bound to.
	Address() string
}
