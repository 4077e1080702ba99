package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator"
	"github.com/step-security-bot/hedera-mirror-node/common"
)

// Node is the mirror node configuration
type Node struct {
	PostgreSQL struct {
		// PortWrite is the port of the PostgreSQL write server
		PortWrite int `validate:"required" env:"HMN_POSTGRESQL_PORTWRITE"`
		// HostWrite is the host of the PostgreSQL write server
		HostWrite string `validate:"required" env:"HMN_POSTGRESQL_HOSTWRITE"`
		// UserWrite is the username of the PostgreSQL write server
		UserWrite string `validate:"required" env:"HMN_POSTGRESQL_USERWRITE"`
		// PasswordWrite is the password of the PostgreSQL write server
		PasswordWrite string `env:"HMN_POSTGRESQL_PASSWORDWRITE"`
		// NameWrite is the name of the PostgreSQL write database
		NameWrite string `validate:"required" env:"HMN_POSTGRESQL_NAMEWRITE"`
		// PortRead is the port of the PostgreSQL read server
		PortRead int `env:"HMN_POSTGRESQL_PORTREAD"`
		// HostRead is the host of the PostgreSQL read server.  When empty
		// the write server is used for reads too.
		HostRead string `env:"HMN_POSTGRESQL_HOSTREAD"`
		// UserRead is the username of the PostgreSQL read server
		UserRead string `env:"HMN_POSTGRESQL_USERREAD"`
		// PasswordRead is the password of the PostgreSQL read server
		PasswordRead string `env:"HMN_POSTGRESQL_PASSWORDREAD"`
		// NameRead is the name of the PostgreSQL read database
		NameRead string `env:"HMN_POSTGRESQL_NAMEREAD"`
	} `validate:"required"`
	Importer struct {
		Enabled bool `env:"HMN_IMPORTER_ENABLED"`
		// BatchSize is the number of transactions that triggers a flush
		// in the middle of a record file
		BatchSize int `validate:"required,min=1" env:"HMN_IMPORTER_BATCHSIZE"`
		// Path is the directory the record file dumps are imported from
		Path string `env:"HMN_IMPORTER_PATH"`
		// PollInterval is the time to wait for new record files once the
		// directory has been fully imported
		PollInterval time.Duration `validate:"required" env:"HMN_IMPORTER_POLLINTERVAL"`
	}
	Web3 struct {
		Enabled bool `env:"HMN_WEB3_ENABLED"`
		// MinGas is the lowest gas limit a call can ask for
		MinGas uint64 `validate:"required" env:"HMN_WEB3_MINGAS"`
		// MaxGas is the highest gas limit a call can ask for, and the
		// limit of calls without one
		MaxGas uint64 `validate:"required,gtefield=MinGas" env:"HMN_WEB3_MAXGAS"`
		// MaxConcurrentCalls bounds the calls executing at once
		MaxConcurrentCalls int `validate:"required,min=1" env:"HMN_WEB3_MAXCONCURRENTCALLS"`
		// CallTimeout is the time a call waits for an execution slot
		CallTimeout time.Duration `validate:"required" env:"HMN_WEB3_CALLTIMEOUT"`
		Estimate    struct {
			Threshold     uint64 `validate:"required" env:"HMN_WEB3_ESTIMATE_THRESHOLD"`
			MaxIterations int    `validate:"required,min=1" env:"HMN_WEB3_ESTIMATE_MAXITERATIONS"`
		}
		Cache struct {
			// Mode is exclusive for a cache per call, or shared for a
			// cache shared by all the calls
			Mode string        `validate:"oneof=exclusive shared" env:"HMN_WEB3_CACHE_MODE"`
			TTL  time.Duration `validate:"required" env:"HMN_WEB3_CACHE_TTL"`
			Size int           `validate:"required,min=1" env:"HMN_WEB3_CACHE_SIZE"`
		}
	}
	Debug struct {
		// APIAddress is the address the debug API listens at.  The debug
		// API is disabled when empty.
		APIAddress string `env:"HMN_DEBUG_APIADDRESS"`
		// MeddlerLogs enables meddler debug mode, printing all queries
		MeddlerLogs bool `env:"HMN_DEBUG_MEDDLERLOGS"`
	}
	Log struct {
		Level string   `validate:"required,oneof=debug info warn error" env:"HMN_LOG_LEVEL"`
		Out   []string `validate:"required,min=1" env:"HMN_LOG_OUT"`
	}
}

// LoadNode loads the Node configuration from path, which may be empty
func LoadNode(path string) (*Node, error) {
	var cfg Node
	if err := LoadConfig(path, DefaultValues, &cfg); err != nil {
		return nil, common.Wrap(err)
	}
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, common.Wrap(fmt.Errorf("error validating configuration: %w", err))
	}
	return &cfg, nil
}
