package config

import (
	"os"
	"path"

	"github.com/abcfe/abcfe-wallet/common/utils"
	"github.com/naoina/toml"
)

type Common struct {
	Level       string // local, dev, prod, alpha
	ServiceName string
	NetworkID   string // 네트워크 식별자
}

type LogInfo struct {
	Path       string
	MaxAgeHour int
	RotateHour int
}

// Store 지갑 로컬 저장소 설정 (세션, salt, 임시 키)
type Store struct {
	Path    string
	Backend string // leveldb, bolt
}

// Ledger 원격 원장 노드 접속 설정
type Ledger struct {
	URL        string
	TimeoutSec int // 호출당 타임아웃 (초)
	CoinType   string
	Decimals   int
	PageSize   int
	GasBudget  uint64
}

// Auth OAuth 클라이언트 ID 설정 (로그인 필수, proof 방식에서는 audience로 사용)
type Auth struct {
	GithubClientID string
	GoogleClientID string
}

type Wallet struct {
	Scheme         string // direct, proof
	SessionTTLMin  int    // 세션 유효 시간 (분)
	MaxEpochWindow uint64 // 임시 키 유효 에포크 수
}

// Node devnet 원장 노드 설정
type Node struct {
	DBPath            string
	RestPort          int
	EpochSec          int
	GasPrice          uint64
	FaucetAmount      uint64
	FaucetCooldownSec int // 주소별 faucet 재요청 대기 시간 (초)
	TxVersion         string
}

type Genesis struct {
	SystemAddresses []string `toml:"SystemAddresses"`
	SystemBalances  []uint64 `toml:"SystemBalances"`
	Timestamp       int64    `toml:"Timestamp"` // 제네시스 타임스탬프 (고정값, 0이면 현재 시간 사용)
}

type Config struct {
	Common  Common
	LogInfo LogInfo
	Store   Store
	Ledger  Ledger
	Auth    Auth
	Wallet  Wallet
	Node    Node
	Genesis Genesis
}

func NewConfig(filepath string) (*Config, error) {
	if filepath == "" {
		workDir, _ := os.Getwd()
		rootDir := utils.FindProjectRoot(workDir)
		filepath = path.Join(rootDir, "config", "config.toml")
	}

	if file, err := os.Open(filepath); err != nil {
		return nil, err
	} else {
		defer file.Close()

		c := new(Config)
		if err := toml.NewDecoder(file).Decode(c); err != nil {
			return nil, err
		} else {
			c.sanitize()
			return c, nil
		}
	}
}

// Default 설정 파일 없이 기본값만 채운 설정 (테스트, devnet)
func Default() *Config {
	c := new(Config)
	c.sanitize()
	return c
}

func (p *Config) sanitize() {
	p.LogInfo.Path = utils.ExpandHome(p.LogInfo.Path)
	p.Store.Path = utils.ExpandHome(p.Store.Path)
	p.Node.DBPath = utils.ExpandHome(p.Node.DBPath)

	if p.Store.Backend == "" {
		p.Store.Backend = "leveldb"
	}
	if p.Ledger.TimeoutSec <= 0 {
		p.Ledger.TimeoutSec = 10
	}
	if p.Ledger.CoinType == "" {
		p.Ledger.CoinType = "0x2::abc::ABC"
	}
	if p.Ledger.Decimals <= 0 {
		p.Ledger.Decimals = 9
	}
	if p.Ledger.PageSize <= 0 {
		p.Ledger.PageSize = 20
	}
	if p.Ledger.GasBudget == 0 {
		p.Ledger.GasBudget = 10_000_000
	}
	if p.Wallet.Scheme == "" {
		p.Wallet.Scheme = "direct"
	}
	if p.Wallet.SessionTTLMin <= 0 {
		p.Wallet.SessionTTLMin = 24 * 60
	}
	if p.Wallet.MaxEpochWindow == 0 {
		p.Wallet.MaxEpochWindow = 2
	}
	if p.Node.RestPort == 0 {
		p.Node.RestPort = 9000
	}
	if p.Node.EpochSec <= 0 {
		p.Node.EpochSec = 86400
	}
	if p.Node.GasPrice == 0 {
		p.Node.GasPrice = 1000
	}
	if p.Node.FaucetCooldownSec <= 0 {
		p.Node.FaucetCooldownSec = 60
	}
	if p.Node.TxVersion == "" {
		p.Node.TxVersion = "1"
	}
}
