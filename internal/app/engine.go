package app

import (
	"log/slog"

	"banshee/internal/codec"
	"banshee/internal/config"
	"banshee/internal/services/drapto"
	"banshee/internal/services/ffmpeg"
)

// NewEngine builds the codec router for cfg: ffmpeg for the audio formats
// and drapto for av1. drapto runs in-process unless a binary is configured.
func NewEngine(cfg *config.Config, logger *slog.Logger) *codec.Router {
	audio := ffmpeg.New(
		ffmpeg.WithBinary(cfg.Encoding.FFmpegBinary),
		ffmpeg.WithProbeBinary(cfg.Encoding.FFprobeBinary),
		ffmpeg.WithBitrate(cfg.Encoding.BitrateKbps),
		ffmpeg.WithLogger(logger),
	)

	var client drapto.Client
	if cfg.Encoding.DraptoBinary != "" {
		client = drapto.NewCLI(
			drapto.WithBinary(cfg.Encoding.DraptoBinary),
			drapto.WithPreset(cfg.Encoding.DraptoPreset),
		)
	} else {
		client = drapto.NewLibrary()
	}

	routes := make(map[codec.Format]codec.Engine)
	for _, format := range codec.Formats() {
		if format.Audio() {
			routes[format] = audio
		}
	}
	routes[codec.FormatAV1] = drapto.NewEngine(client, logger)
	return codec.NewRouter(routes)
}
