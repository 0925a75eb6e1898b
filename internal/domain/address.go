package domain

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// AddressLength is the byte length of an account address.
const AddressLength = 20

// Address is a 20-byte account identifier, hex-encoded in external surfaces.
type Address [AddressLength]byte

// ZeroAddress is the all-zero address. Transfers to or from it are rejected.
var ZeroAddress = Address{}

// BurnSink is the conventional unspendable address used to permanently
// remove tokens from circulation.
var BurnSink = MustParseAddress("0x000000000000000000000000000000000000dEaD")

// ParseAddress decodes a 0x-prefixed or bare hex string into an Address.
func ParseAddress(s string) (Address, error) {
	var a Address
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	if len(s) != AddressLength*2 {
		return a, fmt.Errorf("address must be %d hex characters, got %d", AddressLength*2, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("decode address: %w", err)
	}
	copy(a[:], b)
	return a, nil
}

// MustParseAddress is ParseAddress that panics on invalid input.
// Intended for constants and test fixtures.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Hex returns the 0x-prefixed lowercase hex encoding of the address.
func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

// IsZero reports whether the address is the zero address.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// String implements fmt.Stringer.
func (a Address) String() string {
	return a.Hex()
}
