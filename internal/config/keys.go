package config

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/ethereum/go-ethereum/common"

	cerr "github.com/cupcakedapp/cupcake/pkg/errors"
)

// maxKeyDistance is the largest edit distance still offered as a suggestion.
const maxKeyDistance = 4

type accessor struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

//nolint:gochecknoglobals // Static key table
var accessors = map[string]accessor{
	"home": {
		get: func(c *Config) string { return c.Home },
		set: func(c *Config, v string) error { c.Home = v; return nil },
	},
	"provider.url": {
		get: func(c *Config) string { return c.Provider.URL },
		set: func(c *Config, v string) error { c.Provider.URL = SanitizeURL(v); return nil },
	},
	"provider.poll_interval": durationKey(func(c *Config) *time.Duration { return &c.Provider.PollInterval }),
	"provider.timeout":       durationKey(func(c *Config) *time.Duration { return &c.Provider.Timeout }),
	"provider.rate_limit": {
		get: func(c *Config) string { return strconv.FormatFloat(c.Provider.RateLimit, 'f', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || f < 0 || math.IsInf(f, 0) || math.IsNaN(f) {
				return invalid("provider.rate_limit", v, "a non-negative number")
			}
			c.Provider.RateLimit = f
			return nil
		},
	},
	"provider.burst":          intKey("provider.burst", func(c *Config) *int { return &c.Provider.Burst }),
	"provider.retry_attempts": intKey("provider.retry_attempts", func(c *Config) *int { return &c.Provider.RetryAttempts }),
	"network.chain_id": {
		get: func(c *Config) string { return c.Network.ChainID },
		set: func(c *Config, v string) error { c.Network.ChainID = strings.TrimSpace(v); return nil },
	},
	"network.name": {
		get: func(c *Config) string { return c.Network.Name },
		set: func(c *Config, v string) error { c.Network.Name = v; return nil },
	},
	"network.native_currency.name": {
		get: func(c *Config) string { return c.Network.NativeCurrency.Name },
		set: func(c *Config, v string) error { c.Network.NativeCurrency.Name = v; return nil },
	},
	"network.native_currency.symbol": {
		get: func(c *Config) string { return c.Network.NativeCurrency.Symbol },
		set: func(c *Config, v string) error { c.Network.NativeCurrency.Symbol = v; return nil },
	},
	"network.native_currency.decimals": intKey("network.native_currency.decimals", func(c *Config) *int {
		return &c.Network.NativeCurrency.Decimals
	}),
	"network.rpc_urls":      listKey(func(c *Config) *[]string { return &c.Network.RPCURLs }),
	"network.explorer_urls": listKey(func(c *Config) *[]string { return &c.Network.ExplorerURLs }),
	"contract.address": {
		get: func(c *Config) string { return c.Contract.Address },
		set: func(c *Config, v string) error {
			if !common.IsHexAddress(v) {
				return invalid("contract.address", v, "a 0x-prefixed 20 byte address")
			}
			c.Contract.Address = v
			return nil
		},
	},
	"transaction.confirmation_timeout": durationKey(func(c *Config) *time.Duration {
		return &c.Transaction.ConfirmationTimeout
	}),
	"transaction.receipt_poll_interval": durationKey(func(c *Config) *time.Duration {
		return &c.Transaction.ReceiptPollInterval
	}),
	"output.default_format": enumKey("output.default_format", []string{"text", "json", "auto"},
		func(c *Config) *string { return &c.Output.DefaultFormat }),
	"output.color": enumKey("output.color", []string{"auto", "always", "never"},
		func(c *Config) *string { return &c.Output.Color }),
	"output.verbose": {
		get: func(c *Config) string { return strconv.FormatBool(c.Output.Verbose) },
		set: func(c *Config, v string) error { c.Output.Verbose = parseBool(v); return nil },
	},
	"logging.level": enumKey("logging.level", []string{"off", "error", "debug"},
		func(c *Config) *string { return &c.Logging.Level }),
	"logging.file": {
		get: func(c *Config) string { return c.Logging.File },
		set: func(c *Config, v string) error { c.Logging.File = v; return nil },
	},
	"logging.debug_panel_size": intKey("logging.debug_panel_size", func(c *Config) *int { return &c.Logging.DebugPanelSize }),
}

// Keys returns every settable key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(accessors))
	for k := range accessors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value at a dot-separated key such as "provider.url".
func (c *Config) Get(key string) (string, error) {
	a, ok := accessors[key]
	if !ok {
		return "", unknownKey(key)
	}
	return a.get(c), nil
}

// Set parses value and stores it at key.
func (c *Config) Set(key, value string) error {
	a, ok := accessors[key]
	if !ok {
		return unknownKey(key)
	}
	return a.set(c, value)
}

// SuggestKey returns the known key closest to key, or "" when none is close.
func SuggestKey(key string) string {
	best, bestDist := "", maxKeyDistance+1
	for _, k := range Keys() {
		// Match on the last segment too so "url" finds "provider.url".
		d := levenshtein.ComputeDistance(key, k)
		if tail := k[strings.LastIndex(k, ".")+1:]; tail != k {
			d = min(d, levenshtein.ComputeDistance(key, tail)+1)
		}
		if d < bestDist {
			best, bestDist = k, d
		}
	}
	return best
}

func unknownKey(key string) error {
	err := cerr.WithDetails(cerr.ErrUnknownConfigKey, map[string]string{"key": key})
	if s := SuggestKey(key); s != "" {
		return cerr.WithSuggestion(err, fmt.Sprintf("Did you mean %q?", s))
	}
	return cerr.WithSuggestion(err, "Run 'cupcake config show' to list keys")
}

func durationKey(field func(*Config) *time.Duration) accessor {
	return accessor{
		get: func(c *Config) string { return field(c).String() },
		set: func(c *Config, v string) error {
			d, ok := parseDuration(v)
			if !ok {
				return cerr.WithDetails(cerr.ErrInvalidInput, map[string]string{"value": v, "want": "a positive duration"})
			}
			*field(c) = d
			return nil
		},
	}
}

func intKey(key string, field func(*Config) *int) accessor {
	return accessor{
		get: func(c *Config) string { return strconv.Itoa(*field(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil || n < 0 {
				return invalid(key, v, "a non-negative integer")
			}
			*field(c) = n
			return nil
		},
	}
}

func enumKey(key string, valid []string, field func(*Config) *string) accessor {
	return accessor{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error {
			v = strings.ToLower(strings.TrimSpace(v))
			if !slices.Contains(valid, v) {
				return invalid(key, v, strings.Join(valid, ", "))
			}
			*field(c) = v
			return nil
		},
	}
}

func listKey(field func(*Config) *[]string) accessor {
	return accessor{
		get: func(c *Config) string { return strings.Join(*field(c), ",") },
		set: func(c *Config, v string) error {
			var items []string
			for _, item := range strings.Split(v, ",") {
				if item = SanitizeURL(item); item != "" {
					items = append(items, item)
				}
			}
			*field(c) = items
			return nil
		},
	}
}
