package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// CheckFFmpegForDrapto reports the ffmpeg binary a drapto CLI will execute.
// drapto prefers an ffmpeg sitting next to its own executable and otherwise
// resolves "ffmpeg" from PATH.
func CheckFFmpegForDrapto(draptoCommand string) Status {
	result := Status{
		Name:        "FFmpeg (drapto)",
		Description: "Used by the drapto CLI for av1 encodes",
	}

	if draptoBinary := strings.TrimSpace(draptoCommand); draptoBinary != "" {
		if resolved, err := exec.LookPath(draptoBinary); err == nil {
			candidate := filepath.Join(filepath.Dir(resolved), executableName("ffmpeg"))
			if info, statErr := os.Stat(candidate); statErr == nil && isExecutable(info) {
				result.Command = candidate
				result.Available = true
				return result
			}
		}
	}

	if ffmpegPath, err := exec.LookPath("ffmpeg"); err == nil {
		result.Command = ffmpegPath
		result.Available = true
		return result
	}
	result.Command = "ffmpeg"
	result.Detail = fmt.Sprintf("binary %q not found", "ffmpeg")
	return result
}

func executableName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
