// Package wire provides encoding and decoding of DNS messages for UDP transport.
// It handles the DNS wire format as specified in RFC 1035.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/quaydns/quaydns/internal/dns/common/log"
	"github.com/quaydns/quaydns/internal/dns/common/rrdata"
	"github.com/quaydns/quaydns/internal/dns/common/utils"
	"github.com/quaydns/quaydns/internal/dns/domain"
)

// maxJumps bounds the number of compression-pointer hops a single name
// decode may follow, guarding against pointer loops in hostile packets.
const maxJumps = 5

// udpCodec implements the DNSCodec interface for standard DNS over UDP messages.
type udpCodec struct {
	logger log.Logger
}

// NewUDPCodec creates and returns a new instance of udpCodec using the provided logger.
func NewUDPCodec(logger log.Logger) *udpCodec {
	return &udpCodec{logger: logger}
}

// writeHeader appends a 12-byte DNS header to buf.
func writeHeader(buf *bytes.Buffer, h domain.Header) {
	_ = binary.Write(buf, binary.BigEndian, h.ID)
	buf.WriteByte(h.FlagsByte1())
	buf.WriteByte(h.FlagsByte2())
	_ = binary.Write(buf, binary.BigEndian, h.QDCount)
	_ = binary.Write(buf, binary.BigEndian, h.ANCount)
	_ = binary.Write(buf, binary.BigEndian, h.NSCount)
	_ = binary.Write(buf, binary.BigEndian, h.ARCount)
}

// readHeader parses the first 12 bytes of a DNS message.
func readHeader(data []byte) (domain.Header, error) {
	if len(data) < 12 {
		return domain.Header{}, errors.New("message too short for header")
	}
	h := domain.HeaderFromFlags(data[2], data[3])
	h.ID = binary.BigEndian.Uint16(data[0:2])
	h.QDCount = binary.BigEndian.Uint16(data[4:6])
	h.ANCount = binary.BigEndian.Uint16(data[6:8])
	h.NSCount = binary.BigEndian.Uint16(data[8:10])
	h.ARCount = binary.BigEndian.Uint16(data[10:12])
	return h, nil
}

// nameTable tracks name -> message-offset mappings for RFC 1035 section 4.1.4
// compression while a single message is being written.
type nameTable map[string]int

// writeName writes name to buf using compression against table when a suffix
// of name has already been written earlier in the same message.
func writeName(buf *bytes.Buffer, name string, table nameTable) error {
	name = utils.PresentationDNSName(name)
	if name == "" {
		buf.WriteByte(0)
		return nil
	}
	labels := strings.Split(name, ".")
	for i := range labels {
		suffix := strings.ToLower(strings.Join(labels[i:], "."))
		if offset, ok := table[suffix]; ok && offset <= 0x3FFF {
			buf.WriteByte(0xC0 | byte(offset>>8))
			buf.WriteByte(byte(offset & 0xFF))
			return nil
		}
		if buf.Len() <= 0x3FFF {
			table[suffix] = buf.Len()
		}
		label := labels[i]
		if len(label) > 63 {
			return fmt.Errorf("label too long: %s", label)
		}
		buf.WriteByte(byte(len(label)))
		buf.WriteString(label)
	}
	buf.WriteByte(0)
	return nil
}

// decodeName decodes a domain name from a DNS message at the specified offset,
// following compression pointers as defined in RFC 1035 section 4.1.4.
func decodeName(data []byte, offset int) (string, int, error) {
	return decodeNameJumps(data, offset, 0)
}

func decodeNameJumps(data []byte, offset, jumps int) (string, int, error) {
	if jumps > maxJumps {
		return "", 0, errors.New("too many compression pointer jumps")
	}
	var labels []string
	for {
		if offset >= len(data) {
			return "", 0, errors.New("offset out of bounds")
		}
		length := int(data[offset])
		if length == 0 {
			offset++
			break
		}
		if length&0xC0 == 0xC0 {
			if offset+1 >= len(data) {
				return "", 0, errors.New("compression pointer out of bounds")
			}
			ptr := int(binary.BigEndian.Uint16(data[offset:offset+2]) & 0x3FFF)
			suffix, _, err := decodeNameJumps(data, ptr, jumps+1)
			if err != nil {
				return "", 0, err
			}
			labels = append(labels, suffix)
			offset += 2
			return strings.Join(labels, "."), offset, nil
		}
		offset++
		if offset+length > len(data) {
			return "", 0, errors.New("label length out of bounds")
		}
		labels = append(labels, string(data[offset:offset+length]))
		offset += length
	}
	return strings.Join(labels, "."), offset, nil
}

// EncodeQuery serializes a Question into a binary format suitable for sending via UDP.
func (c *udpCodec) EncodeQuery(query domain.Question) ([]byte, error) {
	var buf bytes.Buffer
	h := domain.Header{
		ID:               query.ID,
		RecursionDesired: query.RD,
		QDCount:          1,
	}
	writeHeader(&buf, h)

	table := nameTable{}
	if err := writeName(&buf, query.Name, table); err != nil {
		return nil, err
	}
	_ = binary.Write(&buf, binary.BigEndian, uint16(query.Type))
	_ = binary.Write(&buf, binary.BigEndian, uint16(query.Class))

	return buf.Bytes(), nil
}

// DecodeQuery parses a DNS query message from data. Exactly one question is
// required; the caller (dispatcher) is responsible for turning a violation
// of that invariant into a FORMERR response.
func (c *udpCodec) DecodeQuery(data []byte) (domain.Question, error) {
	h, err := readHeader(data)
	if err != nil {
		return domain.Question{}, err
	}
	if h.QDCount != 1 {
		return domain.Question{}, fmt.Errorf("expected exactly one question, got %d", h.QDCount)
	}
	name, offset, err := decodeName(data, 12)
	if err != nil {
		return domain.Question{}, fmt.Errorf("failed to decode question name: %w", err)
	}
	if offset+4 > len(data) {
		return domain.Question{}, errors.New("truncated question fields")
	}
	qtype := binary.BigEndian.Uint16(data[offset : offset+2])
	qclass := binary.BigEndian.Uint16(data[offset+2 : offset+4])
	return domain.Question{
		ID:    h.ID,
		Name:  name,
		Type:  domain.RRType(qtype),
		Class: domain.RRClass(qclass),
		RD:    h.RecursionDesired,
	}, nil
}

// EncodeResponse serializes a DNSResponse into a binary format suitable for sending via UDP.
// The question section is always echoed, even when Answers is empty, so that
// error responses (FORMERR/SERVFAIL/REFUSED) remain well-formed.
func (c *udpCodec) EncodeResponse(resp domain.DNSResponse, logger log.Logger) ([]byte, error) {
	if logger == nil {
		logger = c.logger
	}
	var buf bytes.Buffer

	h := domain.Header{
		ID:                  resp.ID,
		QueryResponse:       true,
		RecursionDesired:    resp.Question.RD,
		RecursionAvailable:  resp.RecursionAvailable,
		AuthoritativeAnswer: resp.Authoritative,
		ResponseCode:        resp.RCode,
		QDCount:             1,
	}
	if n := len(resp.Answers); n <= 0xFFFF {
		h.ANCount = uint16(n)
	} else {
		return nil, fmt.Errorf("too many answer records: %d", n)
	}
	if n := len(resp.Authority); n <= 0xFFFF {
		h.NSCount = uint16(n)
	} else {
		return nil, fmt.Errorf("too many authority records: %d", n)
	}
	if n := len(resp.Additional); n <= 0xFFFF {
		h.ARCount = uint16(n)
	} else {
		return nil, fmt.Errorf("too many additional records: %d", n)
	}
	writeHeader(&buf, h)

	table := nameTable{}
	if err := writeName(&buf, resp.Question.Name, table); err != nil {
		return nil, err
	}
	_ = binary.Write(&buf, binary.BigEndian, uint16(resp.Question.Type))
	_ = binary.Write(&buf, binary.BigEndian, uint16(resp.Question.Class))

	if logger != nil {
		logger.Debug(map[string]any{
			"id": resp.ID, "rcode": resp.RCode.String(), "an": h.ANCount,
		}, "wrote DNS response header and question")
	}

	writeSection := func(records []domain.ResourceRecord) error {
		for _, rr := range records {
			if err := writeName(&buf, rr.Name, table); err != nil {
				return err
			}
			_ = binary.Write(&buf, binary.BigEndian, uint16(rr.Type))
			_ = binary.Write(&buf, binary.BigEndian, uint16(rr.Class))
			_ = binary.Write(&buf, binary.BigEndian, rr.TTL())

			dataLen := len(rr.Data)
			if dataLen > 0xFFFF {
				return fmt.Errorf("resource record data too large: %d bytes", dataLen)
			}
			_ = binary.Write(&buf, binary.BigEndian, uint16(dataLen))
			buf.Write(rr.Data)
		}
		return nil
	}

	if err := writeSection(resp.Answers); err != nil {
		return nil, err
	}
	if err := writeSection(resp.Authority); err != nil {
		return nil, err
	}
	if err := writeSection(resp.Additional); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// DecodeResponse parses a raw DNS response from a UDP packet into a DNSResponse,
// validating the response ID and canonicalizing resource record data.
func (c *udpCodec) DecodeResponse(data []byte, expectedID uint16, now time.Time) (domain.DNSResponse, error) {
	h, err := readHeader(data)
	if err != nil {
		return domain.DNSResponse{}, err
	}
	if h.ID != expectedID {
		return domain.DNSResponse{}, fmt.Errorf("ID mismatch: expected %d, got %d", expectedID, h.ID)
	}

	offset := 12
	var question domain.Question
	for i := 0; i < int(h.QDCount); i++ {
		name, newOffset, err := decodeName(data, offset)
		if err != nil {
			return domain.DNSResponse{}, fmt.Errorf("failed to decode question name: %w", err)
		}
		if newOffset+4 > len(data) {
			return domain.DNSResponse{}, errors.New("truncated question fields")
		}
		if i == 0 {
			question = domain.Question{
				ID:    h.ID,
				Name:  name,
				Type:  domain.RRType(binary.BigEndian.Uint16(data[newOffset : newOffset+2])),
				Class: domain.RRClass(binary.BigEndian.Uint16(data[newOffset+2 : newOffset+4])),
				RD:    h.RecursionDesired,
			}
		}
		offset = newOffset + 4
	}

	parseN := func(n uint16) ([]domain.ResourceRecord, error) {
		out := make([]domain.ResourceRecord, 0, n)
		for i := 0; i < int(n); i++ {
			rr, newOffset, err := c.parseResourceRecord(data, offset, now)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
			out = append(out, rr)
			offset = newOffset
		}
		return out, nil
	}

	answers, err := parseN(h.ANCount)
	if err != nil {
		return domain.DNSResponse{}, fmt.Errorf("failed to parse answers: %w", err)
	}
	authority, err := parseN(h.NSCount)
	if err != nil {
		return domain.DNSResponse{}, fmt.Errorf("failed to parse authority records: %w", err)
	}
	additional, err := parseN(h.ARCount)
	if err != nil {
		return domain.DNSResponse{}, fmt.Errorf("failed to parse additional records: %w", err)
	}

	return domain.DNSResponse{
		ID:                 h.ID,
		RCode:              h.ResponseCode,
		Question:           question,
		Authoritative:      h.AuthoritativeAnswer,
		RecursionAvailable: h.RecursionAvailable,
		Answers:            answers,
		Authority:          authority,
		Additional:         additional,
	}, nil
}

// parseResourceRecord extracts a single resource record from response data,
// resolving any compression pointers embedded in NS/CNAME/MX RDATA so that
// the stored record's Data is always canonical (compression-free) and safe
// to re-emit verbatim in a differently-laid-out message later.
func (c *udpCodec) parseResourceRecord(data []byte, offset int, now time.Time) (domain.ResourceRecord, int, error) {
	name, offset, err := decodeName(data, offset)
	if err != nil {
		return domain.ResourceRecord{}, 0, fmt.Errorf("failed to decode record name: %w", err)
	}
	if offset+10 > len(data) {
		return domain.ResourceRecord{}, 0, errors.New("truncated record section")
	}

	typ := domain.RRType(binary.BigEndian.Uint16(data[offset : offset+2]))
	offset += 2
	class := domain.RRClass(binary.BigEndian.Uint16(data[offset : offset+2]))
	offset += 2
	ttl := binary.BigEndian.Uint32(data[offset : offset+4])
	offset += 4
	rdLen := int(binary.BigEndian.Uint16(data[offset : offset+2]))
	offset += 2

	if offset+rdLen > len(data) {
		return domain.ResourceRecord{}, 0, errors.New("truncated rdata")
	}
	rdataStart := offset
	rawData := data[rdataStart : rdataStart+rdLen]
	nextOffset := offset + rdLen

	canonical, err := canonicalizeRData(typ, data, rdataStart, rawData)
	if err != nil {
		return domain.ResourceRecord{}, 0, fmt.Errorf("failed to canonicalize rdata: %w", err)
	}

	text, _ := rrdata.Decode(typ, canonical)

	rr, err := domain.NewCachedResourceRecord(name, typ, class, ttl, canonical, text, now)
	if err != nil {
		return domain.ResourceRecord{}, 0, fmt.Errorf("invalid resource record: %w", err)
	}
	return rr, nextOffset, nil
}

// canonicalizeRData resolves message-relative name compression inside RDATA
// for the record types that embed a domain name (NS, CNAME, MX), producing
// compression-free bytes that can be copied verbatim into any later message.
// Other types have no embedded names at the wire level and are copied as-is.
func canonicalizeRData(typ domain.RRType, data []byte, rdataStart int, raw []byte) ([]byte, error) {
	switch typ {
	case domain.RRTypeNS, domain.RRTypeCNAME:
		host, _, err := decodeName(data, rdataStart)
		if err != nil {
			return nil, err
		}
		return rrdata.Encode(typ, host)
	case domain.RRTypeMX:
		if len(raw) < 2 {
			return nil, errors.New("truncated MX rdata")
		}
		pref := binary.BigEndian.Uint16(raw[0:2])
		host, _, err := decodeName(data, rdataStart+2)
		if err != nil {
			return nil, err
		}
		return rrdata.Encode(domain.RRTypeMX, fmt.Sprintf("%d %s", pref, host))
	default:
		out := make([]byte, len(raw))
		copy(out, raw)
		return out, nil
	}
}

var _ DNSCodec = &udpCodec{}
