package resolver

import (
	"context"
	"encoding/binary"
	"net"

	"github.com/quaydns/quaydns/internal/dns/common/log"
	"github.com/quaydns/quaydns/internal/dns/domain"
	"github.com/quaydns/quaydns/internal/dns/gateways/wire"
)

// Resolver is the per-request dispatcher: it decodes a raw datagram, tries
// local storage, then an upstream forward, and always produces a
// well-formed encoded response, never an error to the caller.
type Resolver struct {
	codec    wire.DNSCodec
	store    RecordStore
	upstream UpstreamClient
	logger   log.Logger
	metrics  MetricsRecorder
}

// ResolverOptions configures a Resolver. Upstream may be nil, disabling
// forwarding and reporting recursion_available = false. Metrics may also
// be nil.
type ResolverOptions struct {
	Codec    wire.DNSCodec
	Store    RecordStore
	Upstream UpstreamClient
	Logger   log.Logger
	Metrics  MetricsRecorder
}

func NewResolver(opts ResolverOptions) *Resolver {
	return &Resolver{
		codec:    opts.Codec,
		store:    opts.Store,
		upstream: opts.Upstream,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
}

// recordQuery notes the final disposition of a request, a no-op when no
// MetricsRecorder is configured.
func (r *Resolver) recordQuery(result string) {
	if r.metrics != nil {
		r.metrics.RecordQuery(result)
	}
}

var _ DNSResponder = (*Resolver)(nil)

func (r *Resolver) recursionAvailable() bool {
	return r.upstream != nil
}

// HandleRequest implements the dispatcher described by the resolver's
// design: decode, local lookup, upstream forward, and a SERVFAIL fallback,
// each producing an encoded response.
func (r *Resolver) HandleRequest(ctx context.Context, data []byte, clientAddr net.Addr) []byte {
	query, err := r.codec.DecodeQuery(data)
	if err != nil {
		r.logger.Warn(map[string]any{
			"client": clientAddr.String(),
			"error":  err.Error(),
		}, "failed to decode DNS query, replying FORMERR")
		r.recordQuery("formerr")
		return r.encodeOrNil(domain.DNSResponse{
			ID:                 recoverID(data),
			RCode:              domain.RCodeFormErr,
			RecursionAvailable: r.recursionAvailable(),
		})
	}

	if hits := r.store.Query(query); len(hits) > 0 {
		resp, err := domain.NewDNSResponse(query.ID, domain.RCodeNoError, query, hits, nil, nil)
		if err != nil {
			r.logger.Error(map[string]any{"error": err.Error()}, "built invalid response from local hits")
			r.recordQuery("servfail")
			return r.encodeOrNil(r.servfail(query))
		}
		resp.Authoritative = true
		resp.RecursionAvailable = r.recursionAvailable()
		if r.metrics != nil {
			r.metrics.RecordCacheHit()
		}
		r.recordQuery("noerror")
		return r.encodeOrNil(resp)
	}

	if query.RD && r.upstream != nil {
		resp, err := r.upstream.Resolve(ctx, query)
		if err != nil {
			r.logger.Warn(map[string]any{
				"client": clientAddr.String(),
				"name":   query.Name,
				"error":  err.Error(),
			}, "upstream forward failed, replying SERVFAIL")
			if r.metrics != nil {
				r.metrics.RecordUpstreamForward("failure")
			}
			r.recordQuery("servfail")
			return r.encodeOrNil(r.servfail(query))
		}
		for _, rr := range resp.Answers {
			r.store.InsertOrUpdate(rr)
		}
		resp.ID = query.ID
		resp.Question = query
		resp.Authoritative = false
		resp.RecursionAvailable = true
		if r.metrics != nil {
			r.metrics.RecordUpstreamForward("success")
		}
		r.recordQuery("noerror")
		return r.encodeOrNil(resp)
	}

	r.recordQuery("servfail")
	return r.encodeOrNil(r.servfail(query))
}

func (r *Resolver) servfail(query domain.Question) domain.DNSResponse {
	resp := domain.NewDNSErrorResponse(query.ID, domain.RCodeServFail, query)
	resp.RecursionAvailable = r.recursionAvailable()
	return resp
}

func (r *Resolver) encodeOrNil(resp domain.DNSResponse) []byte {
	data, err := r.codec.EncodeResponse(resp, r.logger)
	if err != nil {
		r.logger.Error(map[string]any{
			"query_id": resp.ID,
			"error":    err.Error(),
		}, "failed to encode DNS response")
		return nil
	}
	return data
}

// recoverID extracts the 16-bit transaction id from the first two bytes of
// a datagram that failed to decode, per the dispatcher's malformed-request
// contract: the client must still see its own id come back.
func recoverID(data []byte) uint16 {
	if len(data) < 2 {
		return 0
	}
	return binary.BigEndian.Uint16(data[:2])
}
