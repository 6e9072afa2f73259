package ledger

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ProbeTimeout is the maximum duration the default VCS probe waits for the
// subprocess to answer.
const ProbeTimeout = 5 * time.Second

// Probe resolves the current revision identifier for the workspace. It
// returns "" when the revision cannot be determined — callers render that
// as a null revision_id, never an error.
type Probe interface {
	CurrentRevisionID(workspaceRoot string) string
}

// GitProbe shells out to `git rev-parse HEAD` with a bounded timeout and
// swallows any failure.
type GitProbe struct{}

// CurrentRevisionID implements Probe.
func (GitProbe) CurrentRevisionID(workspaceRoot string) string {
	ctx, cancel := context.WithTimeout(context.Background(), ProbeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "rev-parse", "HEAD")
	cmd.Dir = workspaceRoot
	out, err := cmd.Output()
	if err != nil {
		log.Debug().Err(err).Str("workspace", workspaceRoot).Msg("ledger: vcs probe failed")
		return ""
	}
	return strings.TrimSpace(string(out))
}
