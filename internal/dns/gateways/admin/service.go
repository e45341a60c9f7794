// Package admin implements the operator-facing record-management RPC
// service: InsertOrUpdate and Lookup over a hand-registered
// grpc.ServiceDesc, no protoc step required.
package admin

import (
	"context"
	"math/rand/v2"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/google/uuid"

	"github.com/quaydns/quaydns/internal/dns/common/log"
	"github.com/quaydns/quaydns/internal/dns/common/rrdata"
	"github.com/quaydns/quaydns/internal/dns/domain"
	"github.com/quaydns/quaydns/internal/dns/gateways/wire"
	"github.com/quaydns/quaydns/internal/dns/services/resolver"
)

// minAdminTTL is the floor every admin-inserted record's ttl is clamped to.
// A package-level var rather than a const so tests can lower it to observe
// expiry/auto-refresh behavior without waiting out a real 60-second TTL.
var minAdminTTL uint32 = 60

// RecordStore is the subset of recordstore.Store the admin service needs.
type RecordStore interface {
	InsertOrUpdate(rr domain.ResourceRecord) bool
}

// Service implements the admin RPC surface: record insertion with an
// optional auto-refresh goroutine, and in-process lookups through the
// dispatcher.
type Service struct {
	store    RecordStore
	dispatch resolver.DNSResponder
	codec    wire.DNSCodec
	logger   log.Logger

	refreshWG sync.WaitGroup
}

// NewService constructs a Service. dispatch is typically the same
// *resolver.Resolver wired into the UDP transport; Lookup calls it
// in-process rather than opening a socket.
func NewService(store RecordStore, dispatch resolver.DNSResponder, codec wire.DNSCodec, logger log.Logger) *Service {
	return &Service{store: store, dispatch: dispatch, codec: codec, logger: logger}
}

// InsertOrUpdate validates and stores the given record, clamping its ttl to
// at least minAdminTTL. When req.AutoRefreshTTL is true, a background
// goroutine reissues the insert every ttl seconds until ctx is cancelled.
func (s *Service) InsertOrUpdate(ctx context.Context, req *InsertOrUpdateRequest) (*InsertOrUpdateResponse, error) {
	correlationID := uuid.NewString()

	rr, err := s.buildRecord(req.Record)
	if err != nil {
		s.logger.Warn(map[string]any{"correlation_id": correlationID, "error": err.Error()}, "admin InsertOrUpdate rejected")
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	replaced := s.store.InsertOrUpdate(rr)
	s.logger.Info(map[string]any{
		"correlation_id": correlationID,
		"name":            rr.Name,
		"qtype":           rr.Type,
		"ttl":             rr.TTL(),
		"replaced":        replaced,
	}, "admin InsertOrUpdate applied")

	if req.AutoRefreshTTL {
		s.refreshWG.Add(1)
		go s.autoRefresh(ctx, rr, correlationID)
	}

	return &InsertOrUpdateResponse{Replaced: replaced}, nil
}

// autoRefresh reissues InsertOrUpdate for rr every rr.TTL() seconds with a
// fresh expiry, keeping it alive past its own expiry, until ctx is
// cancelled. Grounded in the original admin client's periodic RefreshTtl
// behavior.
func (s *Service) autoRefresh(ctx context.Context, rr domain.ResourceRecord, correlationID string) {
	defer s.refreshWG.Done()

	ttl := rr.TTL()
	if ttl == 0 {
		return
	}
	ticker := time.NewTicker(time.Duration(ttl) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fresh, err := domain.NewCachedResourceRecord(rr.Name, rr.Type, rr.Class, ttl, rr.Data, rr.Text, time.Now())
			if err != nil {
				return
			}
			s.store.InsertOrUpdate(fresh)
			s.logger.Debug(map[string]any{"correlation_id": correlationID, "name": rr.Name}, "admin auto-refresh reissued")
		}
	}
}

// Wait blocks until every auto-refresh goroutine spawned by InsertOrUpdate
// has exited. Part of main's shutdown join gate.
func (s *Service) Wait() {
	s.refreshWG.Wait()
}

// buildRecord validates req and converts it into a domain.ResourceRecord,
// clamping ttl to at least minAdminTTL.
func (s *Service) buildRecord(req AdminRecord) (domain.ResourceRecord, error) {
	ttl := req.TTL
	if ttl < minAdminTTL {
		ttl = minAdminTTL
	}

	data, err := rrdata.Encode(domain.RRType(req.QType), req.Data)
	if err != nil {
		return domain.ResourceRecord{}, err
	}

	class := domain.RRClass(req.QClass)
	if class == 0 {
		class = domain.RRClassIN
	}

	return domain.NewCachedResourceRecord(req.Name, domain.RRType(req.QType), class, ttl, data, req.Data, time.Now())
}

// Lookup synthesizes a query and calls the dispatcher in-process rather
// than opening a real UDP round-trip.
func (s *Service) Lookup(ctx context.Context, req *LookupRequest) (*LookupResponse, error) {
	id := uint16(rand.UintN(1 << 16))
	q, err := domain.NewQuestion(id, req.Question.Name, domain.RRType(req.Question.QType), domain.RRClass(req.Question.QClass), req.RecursionDesired)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	data, err := s.codec.EncodeQuery(q)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	respData := s.dispatch.HandleRequest(ctx, data, &net.UDPAddr{})
	if respData == nil {
		return nil, status.Error(codes.Internal, "dispatcher produced no response")
	}

	resp, err := s.codec.DecodeResponse(respData, id, time.Now())
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	if resp.RCode != domain.RCodeNoError {
		return nil, status.Error(codes.Internal, "lookup failed: "+resp.RCode.String())
	}

	out := &LookupResponse{}
	for _, rr := range resp.Answers {
		if !rr.Type.IsKnown() {
			continue // unsupported types are silently omitted
		}
		text, err := rrdata.Decode(rr.Type, rr.Data)
		if err != nil {
			continue // so is rdata that fails to decode
		}
		out.Records = append(out.Records, AdminRecord{
			Name:   rr.Name,
			QType:  uint16(rr.Type),
			QClass: uint16(rr.Class),
			TTL:    rr.TTL(),
			Data:   text,
		})
	}
	return out, nil
}
