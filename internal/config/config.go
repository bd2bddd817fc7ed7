// Package config loads the configuration snapshot the transcoder, the
// rollup RPC client and the gateway binaries depend on. It is passed by
// value into constructors rather than read from a package-level global
// (spec.md §9). ConfigError is surfaced only at startup, by this loader and
// by constructors such as rolluprpc.NewClient — request-time paths never
// construct one.
package config

import (
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"pjgateway/internal/domain"
	"pjgateway/internal/validate"
)

// Config is the configuration snapshot spec.md §6 and §9 require: the
// transcoder's constants, plus the ambient wiring (RPC endpoint, Redis,
// Kafka, HTTP, tracing) needed to run the gateway binaries.
type Config struct {
	RollupRPCURL string
	HTTPAddr     string
	RedisAddr    string
	OtelEndpoint string

	KafkaBrokers   []string
	KafkaTopic     string
	KafkaGroupID   string
	CacheBatchSize int

	LogLevel      string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int

	// Web3ChainID is the chain id emitted for EIP-155 transactions (spec.md
	// §4.6 step 9).
	Web3ChainID uint64

	// PolyjuiceCreatorAccountID is the rollup account id used for contract
	// creation and native transfers (spec.md §4.6 step 7).
	PolyjuiceCreatorAccountID uint32

	// AutoCreateAccountFromID is the sentinel from_id substituted when the
	// sender has no rollup account yet (spec.md §4.6 step 5, §9).
	AutoCreateAccountFromID uint32

	// MaxTransactionSize bounds the RLP-encoded transaction size (spec.md
	// §4.4).
	MaxTransactionSize int

	GasBounds validate.GasBounds

	// EthAccountLockCodeHash and RollupScriptHash parameterize the
	// EOA-script-hash derivation (spec.md §4.5); see DESIGN.md for the
	// Open Question this resolves.
	EthAccountLockCodeHash [32]byte
	RollupScriptHash       [32]byte
}

// EnvSource abstracts environment lookups so tests can supply a fixed map
// instead of the process environment.
type EnvSource interface {
	Lookup(key string) (string, bool)
}

// EnvMap is an in-memory EnvSource, used by tests and by FromEnviron.
type EnvMap map[string]string

func (e EnvMap) Lookup(key string) (string, bool) {
	value, ok := e[key]
	return value, ok
}

// FromEnviron snapshots os.Environ() into an EnvSource.
func FromEnviron() EnvSource {
	env := make(EnvMap)
	for _, entry := range os.Environ() {
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		env[parts[0]] = parts[1]
	}
	return env
}

// Load builds a Config from source, returning a *domain.ConfigError for any
// missing required value.
func Load(source EnvSource) (Config, error) {
	if source == nil {
		return Config{}, domain.NewConfigError("env source is required")
	}

	rollupRPCURL, ok := source.Lookup("ROLLUP_RPC_URL")
	if !ok || rollupRPCURL == "" {
		return Config{}, domain.NewConfigError("ROLLUP_RPC_URL is required")
	}

	web3ChainID, err := parseUintEnv(source, "WEB3_CHAIN_ID", 0)
	if err != nil {
		return Config{}, err
	}
	if web3ChainID == 0 {
		return Config{}, domain.NewConfigError("WEB3_CHAIN_ID is required")
	}

	creatorID, err := parseUint32Env(source, "POLYJUICE_CREATOR_ACCOUNT_ID", 0)
	if err != nil {
		return Config{}, err
	}

	autoCreateFromID, err := parseUint32Env(source, "AUTO_CREATE_ACCOUNT_FROM_ID", 0xFFFFFFFF)
	if err != nil {
		return Config{}, err
	}

	maxTxSize, err := parseIntEnv(source, "MAX_TRANSACTION_SIZE", 128*1024)
	if err != nil {
		return Config{}, err
	}

	minGasLimit, err := parseBigIntEnv(source, "MIN_GAS_LIMIT", big.NewInt(21000))
	if err != nil {
		return Config{}, err
	}
	maxGasLimit, err := parseBigIntEnv(source, "MAX_GAS_LIMIT", big.NewInt(12_500_000))
	if err != nil {
		return Config{}, err
	}
	minGasPrice, err := parseBigIntEnv(source, "MIN_GAS_PRICE", big.NewInt(0))
	if err != nil {
		return Config{}, err
	}
	maxGasPrice, err := parseBigIntEnv(source, "MAX_GAS_PRICE", nil)
	if err != nil {
		return Config{}, err
	}

	ethAccountLockCodeHash, err := parseHash32Env(source, "ETH_ACCOUNT_LOCK_CODE_HASH")
	if err != nil {
		return Config{}, err
	}
	rollupScriptHash, err := parseHash32Env(source, "ROLLUP_SCRIPT_HASH")
	if err != nil {
		return Config{}, err
	}

	httpAddr := ":8024"
	if raw, ok := source.Lookup("HTTP_ADDR"); ok && raw != "" {
		httpAddr = raw
	}

	redisAddr := "127.0.0.1:6379"
	if raw, ok := source.Lookup("REDIS_ADDR"); ok && strings.TrimSpace(raw) != "" {
		redisAddr = strings.TrimSpace(raw)
	}

	otelEndpoint, _ := source.Lookup("OTEL_EXPORTER_OTLP_ENDPOINT")
	otelEndpoint = strings.TrimSpace(otelEndpoint)

	kafkaBrokers, err := parseList(source, "KAFKA_BROKERS", "localhost:9092")
	if err != nil {
		return Config{}, err
	}
	kafkaTopic, ok := source.Lookup("KAFKA_AUTO_CREATE_ACCOUNT_TOPIC")
	if !ok || kafkaTopic == "" {
		kafkaTopic = "polyjuice-gateway-auto-create-account"
	}
	kafkaGroupID, ok := source.Lookup("KAFKA_GROUP_ID")
	if !ok || kafkaGroupID == "" {
		kafkaGroupID = "polyjuice-gateway-cacheworker"
	}
	cacheBatchSize, err := parseIntEnv(source, "CACHE_BATCH_SIZE", 1)
	if err != nil {
		return Config{}, err
	}

	logLevel, _ := source.Lookup("LOG_LEVEL")
	logFile, _ := source.Lookup("LOG_FILE")
	logMaxSizeMB, err := parseIntEnv(source, "LOG_MAX_SIZE_MB", 100)
	if err != nil {
		return Config{}, err
	}
	logMaxBackups, err := parseIntEnv(source, "LOG_MAX_BACKUPS", 5)
	if err != nil {
		return Config{}, err
	}

	return Config{
		RollupRPCURL:              rollupRPCURL,
		HTTPAddr:                  httpAddr,
		RedisAddr:                 redisAddr,
		OtelEndpoint:              otelEndpoint,
		KafkaBrokers:              kafkaBrokers,
		KafkaTopic:                kafkaTopic,
		KafkaGroupID:              kafkaGroupID,
		CacheBatchSize:            cacheBatchSize,
		LogLevel:                  logLevel,
		LogFile:                   logFile,
		LogMaxSizeMB:              logMaxSizeMB,
		LogMaxBackups:             logMaxBackups,
		Web3ChainID:               web3ChainID,
		PolyjuiceCreatorAccountID: creatorID,
		AutoCreateAccountFromID:   autoCreateFromID,
		MaxTransactionSize:        maxTxSize,
		GasBounds: validate.GasBounds{
			MinGasLimit: minGasLimit,
			MaxGasLimit: maxGasLimit,
			MinGasPrice: minGasPrice,
			MaxGasPrice: maxGasPrice,
		},
		EthAccountLockCodeHash: ethAccountLockCodeHash,
		RollupScriptHash:       rollupScriptHash,
	}, nil
}

func parseUintEnv(source EnvSource, key string, defaultValue uint64) (uint64, error) {
	raw, ok := source.Lookup(key)
	if !ok || raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, domain.NewConfigError("invalid " + key + ": " + err.Error())
	}
	return value, nil
}

func parseUint32Env(source EnvSource, key string, defaultValue uint32) (uint32, error) {
	value, err := parseUintEnv(source, key, uint64(defaultValue))
	if err != nil {
		return 0, err
	}
	return uint32(value), nil
}

func parseIntEnv(source EnvSource, key string, defaultValue int) (int, error) {
	raw, ok := source.Lookup(key)
	if !ok || raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewConfigError("invalid " + key + ": " + err.Error())
	}
	return value, nil
}

func parseBigIntEnv(source EnvSource, key string, defaultValue *big.Int) (*big.Int, error) {
	raw, ok := source.Lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return defaultValue, nil
	}
	value, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok {
		return nil, domain.NewConfigError("invalid " + key)
	}
	return value, nil
}

func parseHash32Env(source EnvSource, key string) ([32]byte, error) {
	var out [32]byte
	raw, ok := source.Lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return out, domain.NewConfigError(key + " is required")
	}
	b := common.FromHex(strings.TrimSpace(raw))
	if len(b) != 32 {
		return out, domain.NewConfigError(key + " must be a 32-byte hex hash")
	}
	copy(out[:], b)
	return out, nil
}

func parseList(source EnvSource, key string, defaultValue string) ([]string, error) {
	raw, ok := source.Lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		raw = defaultValue
	}
	items := strings.Split(raw, ",")
	var values []string
	for _, item := range items {
		value := strings.TrimSpace(item)
		if value == "" {
			continue
		}
		values = append(values, value)
	}
	if len(values) == 0 {
		return nil, domain.NewConfigError(key + " is required")
	}
	return values, nil
}
