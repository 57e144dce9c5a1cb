package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/abcfe/abcfe-wallet/api"
	"github.com/abcfe/abcfe-wallet/common/logger"
	"github.com/abcfe/abcfe-wallet/core"
	prt "github.com/abcfe/abcfe-wallet/protocol"
)

// Server REST API 서버 구조체
type Server struct {
	port       int
	httpServer *http.Server
	ledger     *core.Ledger
	wsHub      *api.WSHub
}

func NewServer(port int, ledger *core.Ledger) *Server {
	wsHub := api.NewWSHub()
	wsHub.SetStatusProvider(func() interface{} { return ledger.GetStatus() })
	ledger.Subscribe(func(blk prt.TxBlock) { wsHub.BroadcastNewTransaction(blk) })

	return &Server{
		port:   port,
		ledger: ledger,
		wsHub:  wsHub,
	}
}

// Handler returns the router, used by Start and by tests
func (s *Server) Handler() http.Handler {
	return setupRouter(s.ledger, s.wsHub)
}

func (s *Server) Start() error {
	go s.wsHub.Run()

	addr := fmt.Sprintf(":%d", s.port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	logger.Info("REST API Server starting on port ", s.port)
	logger.Info("WebSocket available at ws://localhost:", s.port, "/ws")
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("REST API Server error: ", err)
		}
	}()

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	logger.Info("Shutting down REST API Server...")
	s.wsHub.Stop()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) GetWSHub() *api.WSHub {
	return s.wsHub
}
