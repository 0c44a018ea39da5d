package preflight

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"banshee/internal/config"
	"banshee/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the binaries the configured encoders need. ffmpeg
// and ffprobe are required; drapto is only checked when the CLI backend is
// configured, since the library backend is linked in.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Encoding.FFmpegBinary,
			Description: "Required for audio encodes",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Encoding.FFprobeBinary,
			Description: "Required for progress and import tags",
			Optional:    !cfg.Import.ProbeDurations,
		},
	}
	if cfg.Encoding.DraptoBinary != "" {
		requirements = append(requirements, deps.Requirement{
			Name:        "Drapto",
			Command:     cfg.Encoding.DraptoBinary,
			Description: "Required for av1 encodes",
			Optional:    true,
		})
	}
	statuses := deps.CheckBinaries(requirements)
	if cfg.Encoding.DraptoBinary != "" {
		ffmpeg := deps.CheckFFmpegForDrapto(cfg.Encoding.DraptoBinary)
		ffmpeg.Optional = true
		statuses = append(statuses, ffmpeg)
	}
	return statuses
}

// CheckNtfy verifies that the ntfy server behind topicURL reports healthy.
func CheckNtfy(ctx context.Context, topicURL string) Result {
	const name = "ntfy"
	parsed, err := url.Parse(strings.TrimSpace(topicURL))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("invalid topic url %q", topicURL)}
	}
	health := parsed.Scheme + "://" + parsed.Host + "/v1/health"

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, health, nil)
	if err != nil {
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("health check failed (%v)", err)}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("health check failed (%v)", err)}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("health check failed (%d)", resp.StatusCode)}
	}
	var payload struct {
		Healthy bool `json:"healthy"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || !payload.Healthy {
		return Result{Name: name, Optional: true, Detail: "server reports unhealthy"}
	}
	return Result{Name: name, Passed: true, Optional: true, Detail: "Reachable"}
}
