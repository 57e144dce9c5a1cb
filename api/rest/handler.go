package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/abcfe/abcfe-wallet/api"
	"github.com/abcfe/abcfe-wallet/common/utils"
	"github.com/abcfe/abcfe-wallet/core"
	prt "github.com/abcfe/abcfe-wallet/protocol"
	"github.com/gorilla/mux"
)

// get home response
func HomeHandler(w http.ResponseWriter, r *http.Request) {
	info := map[string]string{
		"name":    "ABCFE Devnet Ledger API",
		"version": "1.0.0",
	}
	sendResp(w, http.StatusOK, info, nil)
}

func GetStatus(l *core.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sendResp(w, http.StatusOK, l.GetStatus(), nil)
	}
}

func GetEpoch(l *core.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sendResp(w, http.StatusOK, EpochResp{Epoch: l.CurrentEpoch()}, nil)
	}
}

func GetReferenceGasPrice(l *core.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sendResp(w, http.StatusOK, GasPriceResp{GasPrice: l.ReferenceGasPrice()}, nil)
	}
}

// coinType query parameter, native coin when absent
func coinTypeParam(r *http.Request) string {
	if ct := r.URL.Query().Get("coinType"); ct != "" {
		return ct
	}
	return prt.NativeCoinType
}

func GetAddressCoins(l *core.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address, err := utils.StringToAddress(mux.Vars(r)["address"])
		if err != nil {
			sendResp(w, http.StatusBadRequest, nil, err)
			return
		}

		coins, err := l.GetCoins(address, coinTypeParam(r))
		if err != nil {
			sendResp(w, http.StatusInternalServerError, nil, err)
			return
		}
		sendResp(w, http.StatusOK, coins, nil)
	}
}

func GetAddressBalance(l *core.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		addrStr := mux.Vars(r)["address"]
		address, err := utils.StringToAddress(addrStr)
		if err != nil {
			sendResp(w, http.StatusBadRequest, nil, err)
			return
		}

		coinType := coinTypeParam(r)
		balance, err := l.GetBalance(address, coinType)
		if err != nil {
			sendResp(w, http.StatusInternalServerError, nil, err)
			return
		}

		sendResp(w, http.StatusOK, BalanceResp{
			Address:  utils.AddressToString(address),
			CoinType: coinType,
			Balance:  balance.String(),
		}, nil)
	}
}

func GetCoin(l *core.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := utils.StringToAddress(mux.Vars(r)["id"])
		if err != nil {
			sendResp(w, http.StatusBadRequest, nil, err)
			return
		}

		coin, err := l.GetCoin(id)
		if err != nil {
			sendResp(w, statusFor(err), nil, err)
			return
		}
		sendResp(w, http.StatusOK, coin, nil)
	}
}

func BuildTx(l *core.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req prt.TransferRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			sendResp(w, http.StatusBadRequest, nil, err)
			return
		}

		txBytes, err := l.BuildTransaction(req)
		if err != nil {
			sendResp(w, statusFor(err), nil, err)
			return
		}
		sendResp(w, http.StatusOK, BuildTxResp{TxBytes: txBytes}, nil)
	}
}

// ExecuteTx answers 200 for executed transactions, including failed ones;
// the status field tells them apart
func ExecuteTx(l *core.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ExecuteTxReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			sendResp(w, http.StatusBadRequest, nil, err)
			return
		}

		result, err := l.Execute(req.TxBytes, req.Signature)
		if err != nil {
			sendResp(w, statusFor(err), nil, err)
			return
		}
		sendResp(w, http.StatusOK, result, nil)
	}
}

func GetTx(l *core.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blk, err := l.GetTx(mux.Vars(r)["digest"])
		if err != nil {
			sendResp(w, statusFor(err), nil, err)
			return
		}
		sendResp(w, http.StatusOK, blk, nil)
	}
}

func QueryTxs(l *core.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req QueryTxsReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			sendResp(w, http.StatusBadRequest, nil, err)
			return
		}

		blocks, next, err := l.QueryTransactions(req.Filter, req.Page)
		if err != nil {
			sendResp(w, http.StatusBadRequest, nil, err)
			return
		}
		sendResp(w, http.StatusOK, QueryTxsResp{Transactions: blocks, NextCursor: next}, nil)
	}
}

func RequestFaucet(l *core.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FaucetReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			sendResp(w, http.StatusBadRequest, nil, err)
			return
		}

		address, err := utils.StringToAddress(req.Address)
		if err != nil {
			sendResp(w, http.StatusBadRequest, nil, err)
			return
		}

		result, err := l.RequestFaucet(address)
		if err != nil {
			sendResp(w, statusFor(err), nil, err)
			return
		}
		sendResp(w, http.StatusOK, result, nil)
	}
}

func GetWSStatus(hub *api.WSHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sendResp(w, http.StatusOK, map[string]interface{}{
			"connectedClients": hub.GetClientCount(),
		}, nil)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidTransaction), errors.Is(err, core.ErrInvalidSignature):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrCoinNotFound), errors.Is(err, core.ErrTxNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrDuplicateTx):
		return http.StatusConflict
	case errors.Is(err, core.ErrFaucetCooldown):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func sendResp(w http.ResponseWriter, statusCode int, data interface{}, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := RestResp{
		Success: err == nil,
		Data:    data,
	}

	if err != nil {
		response.Error = err.Error()
	}

	json.NewEncoder(w).Encode(response)
}
