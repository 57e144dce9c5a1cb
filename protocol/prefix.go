package protocol

const (
	// Wallet client store. Durable scope survives logout, ephemeral scope is wiped on logout.
	PrefixScopeDurable   = "dur:"
	PrefixScopeEphemeral = "eph:"

	PrefixSession    = "sess:"    // sess:current = Session record
	PrefixSalt       = "salt:"    // salt:Provider:Subject = per-subject salt (8 bytes BE)
	PrefixSigningKey = "signkey:" // signkey:SessionID = signing material of the session

	// Devnet ledger metadata
	PrefixMeta        = "meta:"
	PrefixMetaGenesis = "meta:genesis" // genesis unix time
	PrefixMetaCoinSeq = "meta:seq"     // coin creation sequence counter

	// Coin related prefixes
	PrefixCoin     = "coin:"      // coin:ObjectID = Coin data
	PrefixCoinList = "coin:addr:" // coin:addr:Address = coin key set

	// Transaction related prefixes
	PrefixTxs = "tx:" // tx:Digest = TxBlock

	// Account related prefixes
	PrefixAddressReceived = "addr:recv:" // addr:recv:Address = received digest list
	PrefixAddressSent     = "addr:sent:" // addr:sent:Address = sent digest list
	PrefixFaucet          = "faucet:"    // faucet:Address = last faucet unix time
)
