package config

const (
	defaultScratchDir             = "~/.cache/banshee/scratch"
	defaultLibraryDir             = "~/Music"
	defaultLogDir                 = "~/.local/share/banshee/logs"
	defaultStateDir               = "~/.local/share/banshee"
	defaultFormat                 = "ogg"
	defaultFFmpegBinary           = "ffmpeg"
	defaultFFprobeBinary          = "ffprobe"
	defaultBitrateKbps            = 192
	defaultDraptoPreset           = 6
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultNotifyRequestTimeout   = 10
	defaultWorkflowShutdownTimout = 30
)

var defaultImportExtensions = []string{".aac", ".flac", ".m4a", ".mp3", ".ogg", ".opus", ".wav"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ScratchDir: defaultScratchDir,
			LibraryDir: defaultLibraryDir,
			LogDir:     defaultLogDir,
			StateDir:   defaultStateDir,
		},
		Encoding: Encoding{
			DefaultFormat: defaultFormat,
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			BitrateKbps:   defaultBitrateKbps,
			DraptoPreset:  defaultDraptoPreset,
		},
		Import: Import{
			Extensions:     append([]string(nil), defaultImportExtensions...),
			ProbeDurations: true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Transactions:   true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Workflow: Workflow{
			ShutdownTimeout: defaultWorkflowShutdownTimout,
		},
	}
}
