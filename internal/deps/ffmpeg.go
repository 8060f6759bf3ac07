package deps

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/Ocean50ul/home-server/internal/config"
)

// CheckFFmpeg reports the ffmpeg binary a run will execute.
//
// Resolution order matches config.FFmpegBinary: a managed install under
// [ffmpeg].dir wins when it exists and is executable, then the configured
// binary name resolves through PATH. The prepare command installs the
// managed copy, so a fresh machine is expected to fail this check until
// prepare has run.
func CheckFFmpeg(cfg *config.Config) Status {
	result := Status{
		Name:        "FFmpeg",
		Description: "Used for resampling and fixture generation",
	}

	if managed := cfg.ManagedFFmpegPath(); managed != "" {
		if info, err := os.Stat(managed); err == nil && isExecutable(info) {
			result.Command = managed
			result.Available = true
			result.Detail = "managed install"
			return result
		}
	}

	name := strings.TrimSpace(cfg.FFmpeg.Binary)
	if name == "" {
		name = "ffmpeg"
	}
	if resolved, err := exec.LookPath(name); err == nil {
		result.Command = resolved
		result.Available = true
		return result
	}

	result.Command = name
	result.Available = false
	result.Detail = fmt.Sprintf("binary %q not found; run prepare to install a managed copy", name)
	return result
}

// CheckFFprobe reports the ffprobe binary used for media probing. There
// is no managed ffprobe; only PATH resolution applies. Probing falls
// back to the embedded tag reader when the binary is missing, so the
// tool is optional.
func CheckFFprobe(cfg *config.Config) Status {
	result := Status{
		Name:        "FFprobe",
		Description: "Used for media metadata probing",
		Optional:    true,
	}

	name := strings.TrimSpace(cfg.FFmpeg.FFprobeBinary)
	if name == "" {
		name = "ffprobe"
	}
	if resolved, err := exec.LookPath(name); err == nil {
		result.Command = resolved
		result.Available = true
		return result
	}

	result.Command = name
	result.Available = false
	result.Detail = fmt.Sprintf("binary %q not found", name)
	return result
}

// Check reports every external tool home-server can use.
func Check(cfg *config.Config) []Status {
	return []Status{
		CheckFFmpeg(cfg),
		CheckFFprobe(cfg),
	}
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
