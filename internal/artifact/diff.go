package artifact

import (
	"github.com/aqasim81/tiger/internal/change"
	"github.com/aqasim81/tiger/internal/project"
)

// DiffStatus classifies one change when comparing a live project with an artifact.
type DiffStatus string

// Diff statuses.
const (
	Unchanged DiffStatus = "unchanged"
	Modified  DiffStatus = "modified"
	Added     DiffStatus = "added"
	Removed   DiffStatus = "removed"
)

// DiffEntry is the comparison result for one change hash.
type DiffEntry struct {
	Hash   string
	Timing change.Timing
	Status DiffStatus
	// Scripts lists the script files whose content differs, for Modified.
	Scripts []string
}

// Diff compares the live project with a packaged one by content hash. Live
// changes come first in project order, followed by changes that exist only
// in the artifact.
func Diff(live *project.Project, pkg *PackagedProject) ([]DiffEntry, error) {
	packaged := make(map[string]change.Packaged, len(pkg.Changes))
	for _, c := range pkg.Changes {
		packaged[c.Hash] = c
	}

	seen := make(map[string]bool, len(live.Changes))
	out := make([]DiffEntry, 0, len(live.Changes))

	for _, m := range live.Changes {
		seen[m.Hash] = true

		pc, ok := packaged[m.Hash]
		if !ok {
			out = append(out, DiffEntry{Hash: m.Hash, Timing: m.Timing, Status: Added})
			continue
		}

		scripts, err := changedScripts(live.Live(m), pc)
		if err != nil {
			return nil, err
		}

		entry := DiffEntry{Hash: m.Hash, Timing: m.Timing, Status: Unchanged}
		if len(scripts) > 0 || pc.Timing != m.Timing {
			entry.Status = Modified
			entry.Scripts = scripts
		}

		out = append(out, entry)
	}

	for _, c := range pkg.Changes {
		if !seen[c.Hash] {
			out = append(out, DiffEntry{Hash: c.Hash, Timing: c.Timing, Status: Removed})
		}
	}

	return out, nil
}

func changedScripts(lc change.Live, pc change.Packaged) ([]string, error) {
	var changed []string

	for _, d := range []change.Direction{change.Up, change.Down} {
		body, err := lc.Content(d)
		if err != nil {
			return nil, err
		}

		packagedBody, err := pc.Content(d)
		if err != nil {
			return nil, err
		}

		if change.ContentHash([]byte(body)) != change.ContentHash([]byte(packagedBody)) {
			changed = append(changed, d.FileName())
		}
	}

	return changed, nil
}
