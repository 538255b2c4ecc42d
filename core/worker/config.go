package worker

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Command-line argument names of the worker contract. The parent emits them
// as separate argv entries ("--key value"), so values with spaces or quotes
// need no escaping.
const (
	argIsChildProcess     = "isChildProcess"
	argProcessID          = "processId"
	argServiceInitializer = "serviceInitializer"
)

// RuntimeConfig is a worker process's configuration, reconstructed from the
// command line the parent spawned it with.
type RuntimeConfig struct {
	// IsChildProcess distinguishes a worker invocation of the shared binary
	// from the parent invocation.
	IsChildProcess bool

	// ProcessID is this worker's stable index in [0, pool size).
	ProcessID int

	// ServiceInitializer names the registered initializer that populates
	// this worker's service registry.
	ServiceInitializer string

	// ExtraArgs carries user-provided arguments the core does not interpret.
	ExtraArgs map[string]string
}

// BuildArgs produces the argv the parent passes to a worker process. Extra
// arguments are emitted in sorted key order so spawns are deterministic.
func BuildArgs(processID int, serviceInitializer string, extra map[string]string) []string {
	args := []string{
		"--" + argIsChildProcess, "true",
		"--" + argProcessID, strconv.Itoa(processID),
	}
	if serviceInitializer != "" {
		args = append(args, "--"+argServiceInitializer, serviceInitializer)
	}

	keys := make([]string, 0, len(extra))
	for key := range extra {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		args = append(args, "--"+key, extra[key])
	}
	return args
}

// ParseArgs reconstructs a RuntimeConfig from argv. Arguments must follow
// the "--key value" contract produced by BuildArgs; a trailing key without a
// value is an error.
func ParseArgs(args []string) (RuntimeConfig, error) {
	cfg := RuntimeConfig{ExtraArgs: make(map[string]string)}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			continue
		}
		key := strings.TrimPrefix(arg, "--")
		if i+1 >= len(args) {
			return RuntimeConfig{}, fmt.Errorf("argument --%s is missing a value", key)
		}
		i++
		value := args[i]

		switch key {
		case argIsChildProcess:
			parsed, err := strconv.ParseBool(value)
			if err != nil {
				return RuntimeConfig{}, fmt.Errorf("argument --%s: %w", key, err)
			}
			cfg.IsChildProcess = parsed
		case argProcessID:
			parsed, err := strconv.Atoi(value)
			if err != nil {
				return RuntimeConfig{}, fmt.Errorf("argument --%s: %w", key, err)
			}
			cfg.ProcessID = parsed
		case argServiceInitializer:
			cfg.ServiceInitializer = value
		default:
			cfg.ExtraArgs[key] = value
		}
	}
	return cfg, nil
}

// IsChildProcess reports whether argv marks a worker invocation, without
// requiring the full configuration to parse.
func IsChildProcess(args []string) bool {
	cfg, err := ParseArgs(args)
	return err == nil && cfg.IsChildProcess
}
