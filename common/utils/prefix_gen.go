package utils

import (
	prt "github.com/abcfe/abcfe-wallet/protocol"
)

// "sess:current"
func GetSessionKey() []byte {
	return []byte(prt.PrefixSession + "current")
}

// "salt:provider:subject"
func GetSaltKey(provider, subject string) []byte {
	return []byte(prt.PrefixSalt + provider + ":" + subject)
}

// "signkey:sessionID"
func GetSigningKeyKey(sessionID string) []byte {
	return []byte(prt.PrefixSigningKey + sessionID)
}

// "coin:objectID"
func GetCoinKey(id prt.ObjectID) []byte {
	return []byte(prt.PrefixCoin + AddressToString(id))
}

// "coin:addr:address"
func GetCoinListKey(address prt.Address) []byte {
	return []byte(prt.PrefixCoinList + AddressToString(address))
}

// "tx:digest"
func GetTxKey(digest string) []byte {
	return []byte(prt.PrefixTxs + digest)
}

// "addr:sent:address"
func GetAddressSentKey(address prt.Address) []byte {
	return []byte(prt.PrefixAddressSent + AddressToString(address))
}

// "addr:recv:address"
func GetAddressReceivedKey(address prt.Address) []byte {
	return []byte(prt.PrefixAddressReceived + AddressToString(address))
}

// "faucet:address"
func GetFaucetKey(address prt.Address) []byte {
	return []byte(prt.PrefixFaucet + AddressToString(address))
}
