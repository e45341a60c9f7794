// Package recordstore implements the sharded, TTL-expiring in-memory record
// store that backs both authoritative zone data and cached upstream answers.
package recordstore

import (
	"bytes"
	"container/heap"
	"context"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/quaydns/quaydns/internal/dns/common/log"
	"github.com/quaydns/quaydns/internal/dns/common/utils"
	"github.com/quaydns/quaydns/internal/dns/domain"
)

// numShards is a compile-time constant per the record store's design: a
// fixed-width array of shards, each independently mutex-protected.
const numShards = 32

// Store is a hash-sharded, TTL-aware cache of ResourceRecords.
type Store struct {
	shards [numShards]*shard
	logger log.Logger
	wg     sync.WaitGroup
}

type shard struct {
	mu         sync.Mutex
	records    []domain.ResourceRecord
	generation map[string]uint64
	heap       deadlineHeap
	wake       chan struct{}
	logger     log.Logger
}

// New constructs a Store with numShards empty shards. Call Run to start the
// per-shard reaper goroutines before serving traffic.
func New(logger log.Logger) *Store {
	s := &Store{logger: logger}
	for i := range s.shards {
		s.shards[i] = &shard{
			generation: make(map[string]uint64),
			wake:       make(chan struct{}, 1),
			logger:     logger,
		}
	}
	return s
}

// Run starts one reaper goroutine per shard. Cancelling ctx stops all of
// them; call Wait afterward to block until they have all exited.
func (s *Store) Run(ctx context.Context) {
	for _, sh := range s.shards {
		s.wg.Add(1)
		go sh.reap(ctx, &s.wg)
	}
}

// Wait blocks until every shard reaper goroutine started by Run has exited.
func (s *Store) Wait() {
	s.wg.Wait()
}

// shardFor selects the shard index for a canonical query name using a stable
// hash so record placement is deterministic across calls.
func shardFor(name string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return int(h.Sum32() % numShards)
}

// recordKey identifies a stored record by its (qname, qtype, data) triple,
// the same identity InsertOrUpdate/Remove use for matching.
func recordKey(rr domain.ResourceRecord) string {
	return fmt.Sprintf("%s|%d|%x", rr.Name, rr.Type, rr.Data)
}

// recordKeyParts is the decoded form of a recordKey string, used by the
// reaper to recover what to remove from a heap item without storing the
// full record (and its Data/Text) in every scheduled deadline.
type recordKeyParts struct {
	name   string
	rrtype domain.RRType
	data   []byte
}

func splitRecordKey(key string) recordKeyParts {
	var name, hexData string
	var rrtype uint16
	// name may itself contain '.', but not '|', so a plain split is safe.
	parts := strings.SplitN(key, "|", 3)
	if len(parts) == 3 {
		name = parts[0]
		fmt.Sscanf(parts[1], "%d", &rrtype)
		hexData = parts[2]
	}
	data, _ := hex.DecodeString(hexData)
	return recordKeyParts{name: name, rrtype: domain.RRType(rrtype), data: data}
}

// InsertOrUpdate stores rr, replacing any existing record with the same
// (qname, qtype, data) triple. Returns true if an existing record was
// replaced, false if rr was newly appended. Authoritative records (no
// expiration) are never scheduled for removal; cached records with a
// positive TTL get a deadline on the shard's reaper heap.
func (s *Store) InsertOrUpdate(rr domain.ResourceRecord) bool {
	sh := s.shards[shardFor(rr.Name)]
	return sh.insertOrUpdate(rr)
}

func (sh *shard) insertOrUpdate(rr domain.ResourceRecord) bool {
	sh.mu.Lock()

	updated := false
	for i, existing := range sh.records {
		if existing.Name == rr.Name && existing.Type == rr.Type && bytes.Equal(existing.Data, rr.Data) {
			sh.records[i] = rr
			updated = true
			break
		}
	}
	if !updated {
		sh.records = append(sh.records, rr)
	}

	key := recordKey(rr)
	sh.generation[key]++
	gen := sh.generation[key]

	var shouldWake bool
	if expiresAt, ok := rr.ExpiresAt(); ok && rr.TTL() > 0 {
		heap.Push(&sh.heap, &deadlineItem{deadline: expiresAt, key: key, gen: gen})
		shouldWake = sh.heap.Peek() != nil && sh.heap[0].key == key
	}
	sh.mu.Unlock()

	if shouldWake {
		select {
		case sh.wake <- struct{}{}:
		default:
		}
	}
	return updated
}

// Remove deletes the record matching rr's (qname, qtype, data) triple.
// Returns true if a record was found and removed.
func (s *Store) Remove(rr domain.ResourceRecord) bool {
	sh := s.shards[shardFor(rr.Name)]
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.removeLocked(rr.Name, rr.Type, rr.Data)
}

func (sh *shard) removeLocked(name string, rrtype domain.RRType, data []byte) bool {
	for i, existing := range sh.records {
		if existing.Name == name && existing.Type == rrtype && bytes.Equal(existing.Data, data) {
			last := len(sh.records) - 1
			sh.records[i] = sh.records[last]
			sh.records = sh.records[:last]
			return true
		}
	}
	return false
}

// Query returns every non-expired record matching the canonical form of
// question.Name whose type equals question.Type, or which is a CNAME (so a
// CNAME answer is observable to a query of any type for the same name).
// Expired records are skipped, never actively removed here -- that is the
// reaper's job.
func (s *Store) Query(question domain.Question) []domain.ResourceRecord {
	name := utils.CanonicalDNSName(question.Name)
	sh := s.shards[shardFor(name)]
	sh.mu.Lock()
	defer sh.mu.Unlock()

	var out []domain.ResourceRecord
	for _, rr := range sh.records {
		if rr.Name != name {
			continue
		}
		if rr.Type != question.Type && rr.Type != domain.RRTypeCNAME {
			continue
		}
		if rr.IsExpired() {
			continue
		}
		out = append(out, rr)
	}
	return out
}

// reap sweeps this shard's deadline heap, removing records whose scheduled
// removal has come due, and sleeps until the next deadline (or a wake signal
// from a fresher InsertOrUpdate, or ctx cancellation).
func (sh *shard) reap(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		sh.mu.Lock()
		now := time.Now()
		for sh.heap.Len() > 0 {
			item := sh.heap.Peek()
			if item.deadline.After(now) {
				break
			}
			heap.Pop(&sh.heap)
			if sh.generation[item.key] == item.gen {
				parts := splitRecordKey(item.key)
				sh.removeLocked(parts.name, parts.rrtype, parts.data)
			}
		}

		wait := time.Hour
		if sh.heap.Len() > 0 {
			if d := time.Until(sh.heap.Peek().deadline); d > 0 {
				wait = d
			} else {
				wait = 0
			}
		}
		sh.mu.Unlock()

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-ctx.Done():
			return
		case <-sh.wake:
		case <-timer.C:
		}
	}
}
