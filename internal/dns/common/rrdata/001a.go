package rrdata

import (
	"fmt"
	"net"
)

// encodeAData encodes an A record string into its binary representation.
func encodeAData(data string) ([]byte, error) {
	// data = "192.168.0.1"
	ip := net.ParseIP(data)
	if ip == nil || !isIPv4(ip) {
		return nil, fmt.Errorf("invalid A record IP: %s", data)
	}
	return ip.To4(), nil
}

// decodeAData decodes a byte slice representing an A record's RDATA into its string form.
func decodeAData(b []byte) (string, error) {
	if len(b) != net.IPv4len {
		return "", fmt.Errorf("invalid A record length: %d", len(b))
	}
	return net.IP(b).String(), nil
}
