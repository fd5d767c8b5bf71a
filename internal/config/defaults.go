package config

const (
	defaultConfigPath       = "~/.config/reci/config.toml"
	defaultStateDir         = "~/.reci"
	defaultTimeoutSeconds   = 15
	defaultSubmitCooldownMS = 5000
	defaultPageCooldownMS   = 3000
	defaultToastMS          = 2500
	defaultPreviewCacheSize = 64
	defaultMaxSourceBytes   = 1 << 20
	defaultLogLevel         = "info"
	defaultLogFormat        = "console"
	defaultServerBind       = "127.0.0.1:8910"
	defaultServerDataDir    = "~/.reci/server"
	defaultPageSize         = 10
	defaultMaxUploadBytes   = 1 << 20
	defaultPolicyTTLSeconds = 300
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		StateDir: defaultStateDir,
		API: API{
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		UI: UI{
			SubmitCooldownMS: defaultSubmitCooldownMS,
			PageCooldownMS:   defaultPageCooldownMS,
			ToastMS:          defaultToastMS,
			PreviewCacheSize: defaultPreviewCacheSize,
		},
		Images: Images{
			MaxSourceBytes: defaultMaxSourceBytes,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Server: Server{
			Bind:             defaultServerBind,
			DataDir:          defaultServerDataDir,
			PageSize:         defaultPageSize,
			MaxUploadBytes:   defaultMaxUploadBytes,
			PolicyTTLSeconds: defaultPolicyTTLSeconds,
		},
	}
}
