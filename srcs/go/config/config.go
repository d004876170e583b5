package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vislab/jobpool/srcs/go/utils"
)

const (
	LogLevelEnvKey    = `JOBPOOL_CONFIG_LOG_LEVEL`
	LogTimestampKey   = `JOBPOOL_CONFIG_LOG_TIMESTAMP`
	HistoryDBEnvKey   = `JOBPOOL_CONFIG_HISTORY_DB`
	SSHTimeoutEnvKey  = `JOBPOOL_CONFIG_SSH_TIMEOUT`
	PingTimeoutEnvKey = `JOBPOOL_CONFIG_PING_TIMEOUT`
)

var ConfigEnvKeys = []string{
	LogLevelEnvKey,
	LogTimestampKey,
	HistoryDBEnvKey,
	SSHTimeoutEnvKey,
	PingTimeoutEnvKey,
}

// NoHistory disables the dispatch history database when used as its path.
const NoHistory = `none`

var (
	LogLevel     = `INFO`
	LogTimestamp = false
	HistoryDB    = defaultHistoryDB()
	SSHTimeout   = 8 * time.Second
	PingTimeout  = 500 * time.Millisecond
)

func init() {
	if val := os.Getenv(LogLevelEnvKey); len(val) > 0 {
		LogLevel = strings.ToUpper(val)
	}
	if val := os.Getenv(LogTimestampKey); len(val) > 0 {
		LogTimestamp = isTrue(val)
	}
	if val := os.Getenv(HistoryDBEnvKey); len(val) > 0 {
		HistoryDB = val
	}
	if val := os.Getenv(SSHTimeoutEnvKey); len(val) > 0 {
		SSHTimeout = parseDuration(val)
	}
	if val := os.Getenv(PingTimeoutEnvKey); len(val) > 0 {
		PingTimeout = parseDuration(val)
	}
}

func defaultHistoryDB() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return NoHistory
	}
	return filepath.Join(home, ".jobpool", "history.db")
}

func isTrue(val string) bool {
	return val == "true" || val == "1"
}

func parseDuration(val string) time.Duration {
	d, err := time.ParseDuration(val)
	if err != nil {
		utils.ExitErr(err)
	}
	return d
}
