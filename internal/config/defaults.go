package config

const (
	defaultLogDir         = "~/.local/share/batchenc/logs"
	defaultQuality        = "1080p"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultSoftwareBinary = "transcode-video"
	defaultHardwareBinary = "other-transcode"
	defaultFFprobeBinary  = "ffprobe"
	defaultNtfyTimeout    = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		Encoding: Encoding{
			Fallback: true,
			Quality:  defaultQuality,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
