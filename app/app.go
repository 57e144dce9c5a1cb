package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abcfe/abcfe-wallet/api/rest"
	"github.com/abcfe/abcfe-wallet/common/logger"
	conf "github.com/abcfe/abcfe-wallet/config"
	"github.com/abcfe/abcfe-wallet/core"
	"github.com/abcfe/abcfe-wallet/ledger"
	prt "github.com/abcfe/abcfe-wallet/protocol"
	"github.com/abcfe/abcfe-wallet/prover"
	"github.com/abcfe/abcfe-wallet/storage"
	"github.com/abcfe/abcfe-wallet/wallet"
	"github.com/syndtr/goleveldb/leveldb"
)

// WalletApp wires the wallet service to its store and the remote ledger
type WalletApp struct {
	Conf   conf.Config
	Store  storage.Store
	Ledger *ledger.Client
	Wallet *wallet.Wallet
}

func loadConfig(configPath string) (*conf.Config, error) {
	cfg, err := conf.NewConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.InitLogger(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

func NewWallet(configPath string) (*WalletApp, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(cfg)
	if err != nil {
		logger.Error("Failed to open wallet store: ", err)
		return nil, err
	}

	w, client, err := BuildWallet(cfg, store)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &WalletApp{Conf: *cfg, Store: store, Ledger: client, Wallet: w}, nil
}

// BuildWallet assembles the wallet over an opened store
func BuildWallet(cfg *conf.Config, store storage.Store) (*wallet.Wallet, *ledger.Client, error) {
	timeout := time.Duration(cfg.Ledger.TimeoutSec) * time.Second
	client := ledger.NewClient(cfg.Ledger.URL, timeout)

	durable := storage.NewScoped(store, prt.PrefixScopeDurable)
	ephemeral := storage.NewScoped(store, prt.PrefixScopeEphemeral)

	strategy, err := NewStrategy(cfg, durable, client)
	if err != nil {
		return nil, nil, err
	}

	sessions := wallet.NewSessionStore(durable, ephemeral, time.Duration(cfg.Wallet.SessionTTLMin)*time.Minute)
	w := wallet.New(strategy, sessions, client, wallet.Options{
		CoinType:  cfg.Ledger.CoinType,
		Decimals:  cfg.Ledger.Decimals,
		PageSize:  cfg.Ledger.PageSize,
		GasBudget: cfg.Ledger.GasBudget,
		Timeout:   timeout,
		ClientIDs: clientIDs(cfg),
	})

	logger.Info("wallet ready, scheme=", strategy.Scheme(), " ledger=", cfg.Ledger.URL)
	return w, client, nil
}

// NewStrategy picks the account strategy configured in [Wallet] Scheme
func NewStrategy(cfg *conf.Config, durable wallet.KVStore, epochs wallet.EpochSource) (wallet.AccountStrategy, error) {
	scheme, err := wallet.ParseScheme(cfg.Wallet.Scheme)
	if err != nil {
		return nil, err
	}

	switch scheme {
	case wallet.SchemeProof:
		return wallet.NewProofStrategy(wallet.NewSaltStore(durable), prover.New(), epochs, clientIDs(cfg), cfg.Wallet.MaxEpochWindow)
	default:
		return wallet.NewDirectStrategy(), nil
	}
}

func clientIDs(cfg *conf.Config) map[wallet.Provider]string {
	return map[wallet.Provider]string{
		wallet.ProviderGithub: cfg.Auth.GithubClientID,
		wallet.ProviderGoogle: cfg.Auth.GoogleClientID,
	}
}

func (p *WalletApp) Close() {
	if p.Store != nil {
		logger.HandleErr(p.Store.Close())
	}
	logger.Sync()
}

// NodeApp runs the devnet ledger behind the REST API
type NodeApp struct {
	stop       chan struct{}
	Conf       conf.Config
	DB         *leveldb.DB // Mutex within db should not be copied
	Ledger     *core.Ledger
	restServer *rest.Server
}

func NewNode(configPath string) (*NodeApp, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	db, err := storage.InitDB(cfg.Node.DBPath)
	if err != nil {
		logger.Error("Failed to load db: ", err)
		return nil, err
	}

	l, err := core.NewLedger(db, cfg)
	if err != nil {
		logger.Error("failed to initialize ledger: ", err)
		db.Close()
		return nil, err
	}

	return &NodeApp{
		stop:       make(chan struct{}),
		Conf:       *cfg,
		DB:         db,
		Ledger:     l,
		restServer: rest.NewServer(cfg.Node.RestPort, l),
	}, nil
}

func (p *NodeApp) Start() error {
	if err := p.restServer.Start(); err != nil {
		return fmt.Errorf("failed to start REST API server: %w", err)
	}

	status := p.Ledger.GetStatus()
	logger.Info("devnet ledger started, epoch=", status.CurrentEpoch, " gasPrice=", status.GasPrice)
	return nil
}

func (p *NodeApp) Cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if p.restServer != nil {
		if err := p.restServer.Stop(ctx); err != nil {
			logger.Error("Error stopping REST API server:", err)
		}
	}

	if p.DB != nil {
		if err := p.DB.Close(); err != nil {
			logger.Error("Error closing DB connection:", err)
		}
	}

	logger.Info("All resources cleaned up")
	logger.Sync()
}

func (p *NodeApp) Wait() {
	<-p.stop
}

func (p *NodeApp) Terminate() {
	p.Cleanup()
	close(p.stop)
}

func (p *NodeApp) SigHandler() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("Arrived terminate signal: ", sig)
		p.Terminate()
	}()
}
