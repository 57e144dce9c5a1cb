package rest

import (
	"net/http"

	"github.com/abcfe/abcfe-wallet/api"
	"github.com/abcfe/abcfe-wallet/core"
	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

func setupRouter(ledger *core.Ledger, wsHub *api.WSHub) http.Handler {
	r := mux.NewRouter()

	// Middleware setup
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)
	r.Use(BodyLimitMiddleware(maxBodyBytes))

	// Base route
	r.HandleFunc("/", HomeHandler).Methods("GET")

	// WebSocket endpoint
	r.HandleFunc("/ws", api.HandleWebSocket(wsHub))

	apiRouter := r.PathPrefix("/api/v1").Subrouter()

	// Ledger status
	apiRouter.HandleFunc("/status", GetStatus(ledger)).Methods("GET")
	apiRouter.HandleFunc("/epoch", GetEpoch(ledger)).Methods("GET")
	apiRouter.HandleFunc("/gas-price", GetReferenceGasPrice(ledger)).Methods("GET")

	// Coin related API
	apiRouter.HandleFunc("/address/{address}/coins", GetAddressCoins(ledger)).Methods("GET")
	apiRouter.HandleFunc("/address/{address}/balance", GetAddressBalance(ledger)).Methods("GET")
	apiRouter.HandleFunc("/coin/{id}", GetCoin(ledger)).Methods("GET")

	// Transaction related API
	apiRouter.HandleFunc("/tx/build", BuildTx(ledger)).Methods("POST")
	apiRouter.HandleFunc("/tx/execute", ExecuteTx(ledger)).Methods("POST")
	apiRouter.HandleFunc("/tx/{digest}", GetTx(ledger)).Methods("GET")
	apiRouter.HandleFunc("/txs/query", QueryTxs(ledger)).Methods("POST")

	// Devnet faucet
	apiRouter.HandleFunc("/faucet", RequestFaucet(ledger)).Methods("POST")

	// WebSocket status API
	apiRouter.HandleFunc("/ws/status", GetWSStatus(wsHub)).Methods("GET")

	return r
}
