package rrdata

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

func TestEncodeCAAData_Valid(t *testing.T) {
	tests := []struct {
		input    string
		expected []byte
	}{
		{
			input:    `0 issue "letsencrypt.org"`,
			expected: append([]byte{0, 5}, append([]byte("issue"), []byte("letsencrypt.org")...)...),
		},
		{
			input:    `128 iodef "mailto:security@example.com"`,
			expected: append([]byte{128, 5}, append([]byte("iodef"), []byte("mailto:security@example.com")...)...),
		},
		{
			input:    `0 issuewild "comodoca.com"`,
			expected: append([]byte{0, 9}, append([]byte("issuewild"), []byte("comodoca.com")...)...),
		},
	}

	for _, tt := range tests {
		got, err := encodeCAAData(tt.input)
		if err != nil {
			t.Errorf("encodeCAAData(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if !bytes.Equal(got, tt.expected) {
			t.Errorf("encodeCAAData(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestEncodeCAAData_InvalidFormat(t *testing.T) {
	invalidInputs := []string{
		`0 issue`,                 // missing value
		`issue "letsencrypt.org"`, // missing flag
		`0`,                       // missing tag and value
		``,                        // empty string
	}

	for _, input := range invalidInputs {
		_, err := encodeCAAData(input)
		if err == nil {
			t.Errorf("encodeCAAData(%q) expected error, got nil", input)
		}
	}
}

func TestEncodeCAAData_InvalidFlag(t *testing.T) {
	_, err := encodeCAAData(`foo issue "letsencrypt.org"`)
	if err == nil || !strings.Contains(err.Error(), "invalid CAA flag") {
		t.Errorf("encodeCAAData with invalid flag did not return expected error: %v", err)
	}
}

func TestEncodeCAAData_TagTooLong(t *testing.T) {
	longTag := strings.Repeat("a", 256)
	input := fmt.Sprintf("0 %s \"value\"", longTag)
	_, err := encodeCAAData(input)
	if err == nil || !strings.Contains(err.Error(), "CAA tag too long") {
		t.Errorf("encodeCAAData with long tag did not return expected error: %v", err)
	}
}

func TestEncodeCAAData_ValueTooLong(t *testing.T) {
	longValue := strings.Repeat("b", 256)
	input := fmt.Sprintf("0 issue \"%s\"", longValue)
	_, err := encodeCAAData(input)
	if err == nil || !strings.Contains(err.Error(), "CAA value too long") {
		t.Errorf("encodeCAAData with long value did not return expected error: %v", err)
	}
}
