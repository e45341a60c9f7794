package domain

import (
	"testing"
	"time"
)

func mustQuestion(t *testing.T) Question {
	t.Helper()
	q, err := NewQuestion(12345, "example.com.", RRTypeA, RRClassIN, true)
	if err != nil {
		t.Fatalf("failed to build test question: %v", err)
	}
	return q
}

func TestNewDNSResponse(t *testing.T) {
	timeFixture := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	rr, err := NewCachedResourceRecord("example.com.", RRTypeA, RRClassIN, 300, []byte{192, 0, 2, 1}, "192.0.2.1", timeFixture)
	if err != nil {
		t.Fatalf("Failed to create test resource record: %v", err)
	}
	q := mustQuestion(t)

	tests := []struct {
		name        string
		id          uint16
		rcode       RCode
		answers     []ResourceRecord
		expectError bool
	}{
		{"valid response with answers", 12345, RCode(0), []ResourceRecord{rr}, false},
		{"valid NXDOMAIN response", 12346, RCode(3), nil, false},
		{"invalid RCode", 12347, RCode(255), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := NewDNSResponse(tt.id, tt.rcode, q, tt.answers, nil, nil)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
				return
			}
			if resp.ID != tt.id {
				t.Errorf("Expected ID %d, got %d", tt.id, resp.ID)
			}
			if resp.RCode != tt.rcode {
				t.Errorf("Expected RCode %d, got %d", tt.rcode, resp.RCode)
			}
			if resp.Question.Name != q.Name {
				t.Errorf("Expected question to be echoed, got %+v", resp.Question)
			}
		})
	}
}

func TestNewDNSErrorResponse(t *testing.T) {
	q := mustQuestion(t)
	resp := NewDNSErrorResponse(999, RCodeServFail, q)
	if resp.RCode != RCodeServFail {
		t.Errorf("expected SERVFAIL, got %v", resp.RCode)
	}
	if len(resp.Answers) != 0 {
		t.Errorf("expected no answers on an error response")
	}
	if resp.Question.Name != q.Name {
		t.Errorf("expected question to be echoed on error response")
	}
}

func TestDNSResponse_IsError(t *testing.T) {
	tests := []struct {
		name     string
		rcode    RCode
		expected bool
	}{
		{"NOERROR is not error", 0, false},
		{"FORMERR is error", 1, true},
		{"SERVFAIL is error", 2, true},
		{"NXDOMAIN is error", 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := DNSResponse{RCode: tt.rcode}
			if resp.IsError() != tt.expected {
				t.Errorf("Expected IsError() = %v for RCode %d", tt.expected, tt.rcode)
			}
		})
	}
}

func TestDNSResponse_HasAnswers(t *testing.T) {
	timeFixture := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	rr, _ := NewCachedResourceRecord("example.com.", RRTypeA, RRClassIN, 300, []byte{192, 0, 2, 1}, "192.0.2.1", timeFixture)

	tests := []struct {
		name     string
		answers  []ResourceRecord
		expected bool
	}{
		{"no answers", nil, false},
		{"has answers", []ResourceRecord{rr}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := DNSResponse{Answers: tt.answers}
			if resp.HasAnswers() != tt.expected {
				t.Errorf("Expected HasAnswers() = %v", tt.expected)
			}
		})
	}
}

func TestDNSResponse_Counts(t *testing.T) {
	timeFixture := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	rr, _ := NewCachedResourceRecord("example.com.", RRTypeA, RRClassIN, 300, []byte{192, 0, 2, 1}, "192.0.2.1", timeFixture)

	resp := DNSResponse{
		Answers:    []ResourceRecord{rr, rr},
		Authority:  []ResourceRecord{rr},
		Additional: []ResourceRecord{rr, rr, rr},
	}

	if resp.AnswerCount() != 2 {
		t.Errorf("Expected AnswerCount() = 2, got %d", resp.AnswerCount())
	}
	if resp.AuthorityCount() != 1 {
		t.Errorf("Expected AuthorityCount() = 1, got %d", resp.AuthorityCount())
	}
	if resp.AdditionalCount() != 3 {
		t.Errorf("Expected AdditionalCount() = 3, got %d", resp.AdditionalCount())
	}
}
