package rest

import (
	prt "github.com/abcfe/abcfe-wallet/protocol"
)

// General response structure
type RestResp struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type BalanceResp struct {
	Address  string `json:"address"`
	CoinType string `json:"coinType"`
	Balance  string `json:"balance"` // minimal units, arbitrary precision
}

type EpochResp struct {
	Epoch uint64 `json:"epoch"`
}

type GasPriceResp struct {
	GasPrice uint64 `json:"gasPrice"`
}

// BuildTxResp txBytes are base64 in JSON
type BuildTxResp struct {
	TxBytes []byte `json:"txBytes"`
}

type ExecuteTxReq struct {
	TxBytes   []byte        `json:"txBytes"`
	Signature prt.Signature `json:"signature"`
}

type QueryTxsReq struct {
	Filter prt.TxFilter `json:"filter"`
	Page   prt.Page     `json:"page"`
}

type QueryTxsResp struct {
	Transactions []prt.TxBlock `json:"transactions"`
	NextCursor   string        `json:"nextCursor,omitempty"`
}

type FaucetReq struct {
	Address string `json:"address"`
}
