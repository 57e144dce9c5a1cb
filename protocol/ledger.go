package protocol

// Native coin of the network, 9 decimals
const (
	NativeCoinType = "0x2::abc::ABC"
	NativeDecimals = 9
)

type ExecutionStatus string

const (
	StatusSuccess ExecutionStatus = "success"
	StatusFailure ExecutionStatus = "failure"
)

type Coin struct {
	ObjectID ObjectID `json:"objectId"`
	Version  uint64   `json:"version"`
	Balance  uint64   `json:"balance"` // minimal units
	Owner    Address  `json:"owner"`
	CoinType string   `json:"coinType"`
	Seq      uint64   `json:"seq"` // creation order
}

// TransferRequest describes a single-coin payment: the coin is either split
// (Amount < coin balance) or transferred whole.
type TransferRequest struct {
	Sender      Address  `json:"sender"`
	Recipient   Address  `json:"recipient"`
	CoinType    string   `json:"coinType"`
	CoinID      ObjectID `json:"coinId"`
	CoinVersion uint64   `json:"coinVersion"`
	Amount      uint64   `json:"amount"`
	Split       bool     `json:"split"`
	GasPrice    uint64   `json:"gasPrice"`
	GasBudget   uint64   `json:"gasBudget"`
}

// TransactionData is the canonical form signed by the sender
type TransactionData struct {
	Version   string          `json:"version"`
	Transfer  TransferRequest `json:"transfer"`
	CreatedAt int64           `json:"createdAt"`
}

type ExecutionResult struct {
	Digest  string          `json:"digest"`
	Status  ExecutionStatus `json:"status"`
	Error   string          `json:"error,omitempty"`
	GasUsed uint64          `json:"gasUsed"`
}

// BalanceChange amount is a signed decimal string in minimal units
type BalanceChange struct {
	Owner    Address `json:"owner"`
	CoinType string  `json:"coinType"`
	Amount   string  `json:"amount"`
}

type TxBlock struct {
	Digest         string          `json:"digest"`
	Sender         Address         `json:"sender"`
	TimestampMs    int64           `json:"timestampMs"`
	Status         ExecutionStatus `json:"status"`
	Error          string          `json:"error,omitempty"`
	BalanceChanges []BalanceChange `json:"balanceChanges"`
}

// TxFilter selects transactions by sender or by recipient, exactly one is set
type TxFilter struct {
	FromAddress *Address `json:"fromAddress,omitempty"`
	ToAddress   *Address `json:"toAddress,omitempty"`
}

type Page struct {
	Cursor     string `json:"cursor,omitempty"`
	Limit      int    `json:"limit"`
	Descending bool   `json:"descending"`
}

// ProofPoints is an opaque proof artifact produced by the proof service
type ProofPoints struct {
	A []string `json:"a"`
	B []string `json:"b"`
	C []string `json:"c"`
}

type ProofArtifact struct {
	Points      ProofPoints `json:"proofPoints"`
	Issuer      string      `json:"iss"`
	AddressSeed string      `json:"addressSeed"` // hex
}

// ZkLoginSignature is the composite signature of the proof scheme
type ZkLoginSignature struct {
	Inputs        ProofArtifact `json:"inputs"`
	MaxEpoch      uint64        `json:"maxEpoch"`
	UserSignature Signature     `json:"userSignature"` // ed25519 signature of the ephemeral key
}
