package config

const (
	defaultConfigPath           = "~/.config/samplesort/config.toml"
	defaultDataDir              = "~/.local/share/samplesort"
	defaultLogDir               = "~/.local/share/samplesort/logs"
	defaultAPIBind              = "127.0.0.1:7488"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultWindowSeconds        = 180
	defaultColorLimit           = 3
	defaultMaxRounds            = 5
	defaultSweepConcurrency     = 4
	defaultStrictMinSharedWords = 2
	defaultWeightDescription    = 0.5
	defaultWeightColor          = 0.3
	defaultWeightTime           = 0.2
	defaultWeightedMinScore     = 0.55
	defaultNamingPlaceholder    = "ungrouped"
	defaultNamingMaxSuffix      = 10000
	defaultNotifyTimeout        = 10
	defaultAPIRateLimit         = 20.0
	defaultAPIBurst             = 40
)

// defaultCodePatterns accept label codes such as "LAB-7", "AB12345" and
// "KIT-04-0012".
var defaultCodePatterns = []string{
	`^[A-Z]{2,6}-?[0-9]{1,8}$`,
	`^[A-Z0-9]{2,6}-[A-Z0-9]{1,8}-[0-9]{1,6}$`,
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Grouping: Grouping{
			WindowSeconds:        defaultWindowSeconds,
			ColorLimit:           defaultColorLimit,
			MaxRounds:            defaultMaxRounds,
			SweepConcurrency:     defaultSweepConcurrency,
			MatchOnExtract:       true,
			InheritInvalidGroups: true,
			StrictMinSharedWords: defaultStrictMinSharedWords,
			WeightDescription:    defaultWeightDescription,
			WeightColor:          defaultWeightColor,
			WeightTime:           defaultWeightTime,
			WeightedMinScore:     defaultWeightedMinScore,
		},
		Naming: Naming{
			Placeholder: defaultNamingPlaceholder,
			MaxSuffix:   defaultNamingMaxSuffix,
		},
		Codes: Codes{
			Patterns: append([]string(nil), defaultCodePatterns...),
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Sweeps:         true,
			Errors:         true,
		},
		API: API{
			RateLimit: defaultAPIRateLimit,
			Burst:     defaultAPIBurst,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
