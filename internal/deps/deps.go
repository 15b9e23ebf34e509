package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"omvdecoder/internal/faults"
)

// Requirement defines an external dependency omvdecoder relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	// Path is the resolved executable when Available.
	Path   string
	Detail string
}

// ToolRequirements lists the executables used by decoding and conversion.
func ToolRequirements(ffmpeg, ffprobe string) []Requirement {
	return []Requirement{
		{
			Name:        "FFprobe",
			Command:     ffprobe,
			Description: "Inspects the embedded Theora stream",
		},
		{
			Name:        "FFmpeg",
			Command:     ffmpeg,
			Description: "Decodes Theora and encodes h264/ffmpeg outputs",
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = resolved
		results = append(results, status)
	}
	return results
}

// RequireAll returns ErrToolingNotFound naming every missing non-optional dependency.
func RequireAll(statuses []Status) error {
	var missing []string
	for _, status := range statuses {
		if status.Available || status.Optional {
			continue
		}
		missing = append(missing, status.Name+" ("+status.Detail+")")
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", faults.ErrToolingNotFound, strings.Join(missing, ", "))
}
