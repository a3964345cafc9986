package wallet

import (
	"github.com/scylladb/go-set/strset"
	"github.com/wx-shi/utxo-dashboard/pkg"
)

const (
	minAddressLen = 25
	maxAddressLen = 42
)

// Accepted leading characters: bech32 "bc1", base58 P2PKH "1" and P2SH "3".
var addressPrefixes = strset.New("bc1", "1", "3")

// ValidAddress is a syntactic pre-filter only. It does not check any
// checksum, accepts plenty of invalid strings and rejects bech32m (P2TR)
// addresses longer than 42 characters.
func ValidAddress(address string) bool {
	if len(address) < minAddressLen || len(address) > maxAddressLen {
		return false
	}
	return addressPrefixes.Has(address[:1]) || addressPrefixes.Has(address[:3])
}

// Validator checks wallet addresses before they enter a registry.
type Validator struct {
	// Strict additionally decodes the address (base58check, bech32,
	// bech32m) and requires a mainnet network prefix.
	Strict bool
}

func (v Validator) Valid(address string) bool {
	if !ValidAddress(address) {
		return false
	}
	if v.Strict {
		_, err := pkg.DecodeMainnetAddress(address)
		return err == nil
	}
	return true
}
