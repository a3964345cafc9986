package pkg

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

// Address type labels.
const (
	AddressP2PKH   = "P2PKH"
	AddressP2SH    = "P2SH"
	AddressP2WPKH  = "P2WPKH"
	AddressP2WSH   = "P2WSH"
	AddressP2TR    = "P2TR"
	AddressUnknown = "unknown"
)

// DecodeMainnetAddress decodes a base58check or bech32/bech32m address and
// checks it belongs to mainnet.
func DecodeMainnetAddress(address string) (btcutil.Address, error) {
	addr, err := btcutil.DecodeAddress(address, &chaincfg.MainNetParams)
	if err != nil {
		return nil, err
	}
	if !addr.IsForNet(&chaincfg.MainNetParams) {
		return nil, btcutil.ErrUnknownAddressType
	}
	return addr, nil
}

// AddressType labels the script type of a mainnet address.
func AddressType(address string) string {
	addr, err := DecodeMainnetAddress(address)
	if err != nil {
		return AddressUnknown
	}
	switch addr.(type) {
	case *btcutil.AddressPubKeyHash:
		return AddressP2PKH
	case *btcutil.AddressScriptHash:
		return AddressP2SH
	case *btcutil.AddressWitnessPubKeyHash:
		return AddressP2WPKH
	case *btcutil.AddressWitnessScriptHash:
		return AddressP2WSH
	case *btcutil.AddressTaproot:
		return AddressP2TR
	default:
		return AddressUnknown
	}
}

// ScriptPubKey returns the hex encoded output script that pays to address.
func ScriptPubKey(address string) (string, error) {
	addr, err := DecodeMainnetAddress(address)
	if err != nil {
		return "", err
	}
	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(script), nil
}
