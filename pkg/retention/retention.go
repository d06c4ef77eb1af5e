// Package retention prunes old releases from the releases directory,
// keeping the active release and the most recent others.
package retention

import (
	"context"
	"sort"
	"strings"

	"github.com/alessio/shellescape"
	"github.com/arthur-debert/sshrelease/pkg/logging"
	"github.com/arthur-debert/sshrelease/pkg/remote"
	"github.com/rs/zerolog"
)

// Result lists what a prune kept and removed, most recent first.
type Result struct {
	Kept    []string
	Removed []string
}

// Manager prunes releases through a remote executor.
type Manager struct {
	exec   remote.Executor
	logger zerolog.Logger
}

// NewManager returns a manager running its commands through exec.
func NewManager(exec remote.Executor) *Manager {
	return &Manager{exec: exec, logger: logging.GetLogger("retention")}
}

// Prune keeps the keep most recent releases of releasesDir and deletes
// the rest. active is always kept. keep is clamped to at least 1.
func (m *Manager) Prune(ctx context.Context, releasesDir string, keep int, active string) (*Result, error) {
	if keep < 1 {
		keep = 1
	}

	listing, err := m.exec.Execute(ctx, "ls -1 "+shellescape.Quote(releasesDir), false)
	if err != nil {
		return nil, err
	}

	ordered := Order(parseListing(listing.Stdout), active)
	result := &Result{Kept: ordered}
	if len(ordered) > keep {
		result.Kept = ordered[:keep]
		result.Removed = ordered[keep:]
	}

	m.logger.Debug().
		Str("dir", releasesDir).
		Int("keep", keep).
		Strs("kept", result.Kept).
		Strs("removed", result.Removed).
		Msg("Retention computed")

	if len(result.Removed) == 0 {
		return result, nil
	}

	quoted := make([]string, len(result.Removed))
	for i, name := range result.Removed {
		quoted[i] = shellescape.Quote(name)
	}
	command := "cd " + shellescape.Quote(releasesDir) + " && rm -rf " + strings.Join(quoted, " ")
	if _, err := m.exec.Execute(ctx, command, false); err != nil {
		return nil, err
	}

	m.logger.Info().Strs("removed", result.Removed).Msg("Old releases removed")
	return result, nil
}

// Order returns names with active first, then the others sorted by
// descending tag. Timestamp tags sort chronologically this way.
func Order(names []string, active string) []string {
	rest := make([]string, 0, len(names))
	hasActive := false
	for _, name := range names {
		if name == active {
			hasActive = true
			continue
		}
		rest = append(rest, name)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(rest)))

	if !hasActive {
		return rest
	}
	return append([]string{active}, rest...)
}

func parseListing(out string) []string {
	var names []string
	seen := map[string]bool{}
	for _, line := range strings.Split(out, "\n") {
		name := strings.TrimSpace(line)
		if name == "" || name == "." || name == ".." || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

