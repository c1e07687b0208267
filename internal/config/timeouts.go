package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts bounds how long a single compute or transport call may block.
type Timeouts struct {
	InstanceCreate    time.Duration // create plus waiting for the create action
	InstanceStart     time.Duration // power on plus waiting for the action
	InstanceDelete    time.Duration // delete plus waiting for the action
	APICall           time.Duration // lookups and listings
	SSHConnect        time.Duration // overall budget for reaching sshd
	RetryMaxAttempts  int           // SSH connection attempts
	RetryInitialDelay time.Duration // first delay between SSH attempts
}

// LoadTimeouts loads timeouts from the environment, falling back to defaults
// for unset or unparsable values.
//
// Environment Variables:
//   - FOGPROV_TIMEOUT_CREATE (default: 10m)
//   - FOGPROV_TIMEOUT_START (default: 5m)
//   - FOGPROV_TIMEOUT_DELETE (default: 5m)
//   - FOGPROV_TIMEOUT_API (default: 30s)
//   - FOGPROV_TIMEOUT_SSH (default: 5m)
//   - FOGPROV_RETRY_MAX_ATTEMPTS (default: 30)
//   - FOGPROV_RETRY_INITIAL_DELAY (default: 2s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		InstanceCreate:    parseDuration("FOGPROV_TIMEOUT_CREATE", 10*time.Minute),
		InstanceStart:     parseDuration("FOGPROV_TIMEOUT_START", 5*time.Minute),
		InstanceDelete:    parseDuration("FOGPROV_TIMEOUT_DELETE", 5*time.Minute),
		APICall:           parseDuration("FOGPROV_TIMEOUT_API", 30*time.Second),
		SSHConnect:        parseDuration("FOGPROV_TIMEOUT_SSH", 5*time.Minute),
		RetryMaxAttempts:  parseInt("FOGPROV_RETRY_MAX_ATTEMPTS", 30),
		RetryInitialDelay: parseDuration("FOGPROV_RETRY_INITIAL_DELAY", 2*time.Second),
	}
}

func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i <= 0 {
		return defaultVal
	}
	return i
}
