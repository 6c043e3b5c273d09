// Package readme patches marker-delimited regions of a markdown document
// with freshly rendered report fragments.
package readme

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/sirupsen/logrus"

	"github.com/naka-gawa/profile-activity/internal/render"
)

// Marker names. A region is delimited by <!-- NAME_START --> and <!-- NAME_END -->.
const (
	ActiveReposMarker = "ACTIVE_REPOS"
	NewReposMarker    = "NEW_REPOS"
	LastUpdatedMarker = "LAST_UPDATED"
)

const lastUpdatedLayout = "2006-01-02"

// ReplaceBlock replaces every region named marker with body on its own lines.
func ReplaceBlock(content, marker, body string) string {
	return replaceRegion(content, marker, func(start, end string) string {
		return start + "\n" + body + "\n" + end
	})
}

// ReplaceInline replaces every region named marker with body on the marker line.
func ReplaceInline(content, marker, body string) string {
	return replaceRegion(content, marker, func(start, end string) string {
		return start + " " + body + " " + end
	})
}

func replaceRegion(content, marker string, build func(start, end string) string) string {
	pattern := regionPattern(marker)
	return pattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := pattern.FindStringSubmatch(match)
		return build(groups[1], groups[2])
	})
}

func regionPattern(marker string) *regexp.Regexp {
	quoted := regexp.QuoteMeta(marker)
	return regexp.MustCompile(`(?s)(<!-- ` + quoted + `_START -->).*?(<!-- ` + quoted + `_END -->)`)
}

// Patch writes the report into the README content and reports whether anything changed.
// Missing markers are left alone.
func Patch(content string, report render.Report) (string, bool) {
	patched := ReplaceBlock(content, ActiveReposMarker, report.ActiveRepos)
	patched = ReplaceBlock(patched, NewReposMarker, report.NewRepos)
	patched = ReplaceInline(patched, LastUpdatedMarker,
		fmt.Sprintf("_Last updated: %s_", report.GeneratedAt.UTC().Format(lastUpdatedLayout)))
	return patched, patched != content
}

// Updater applies a report to a README file on disk.
type Updater struct {
	logger logrus.FieldLogger
	// out receives the patched document on a dry run.
	out io.Writer
}

// NewUpdater creates an Updater printing dry-run previews to out.
func NewUpdater(logger logrus.FieldLogger, out io.Writer) *Updater {
	return &Updater{logger: logger, out: out}
}

// Update patches the file at path. On a dry run the result is written to the
// updater's output instead of the file. It returns whether the content changed.
func (u *Updater) Update(path string, report render.Report, dryRun bool) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, fmt.Errorf("README not found: %s", path)
		}
		return false, fmt.Errorf("failed to stat README: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read README: %w", err)
	}

	patched, changed := Patch(string(data), report)
	log := u.logger.WithField("path", path)
	if !changed {
		log.Info("No changes needed")
		return false, nil
	}

	if dryRun {
		log.Info("Dry run, README left untouched")
		if _, err := fmt.Fprintln(u.out, patched); err != nil {
			return true, fmt.Errorf("failed to write dry run preview: %w", err)
		}
		return true, nil
	}

	if err := os.WriteFile(path, []byte(patched), info.Mode().Perm()); err != nil {
		return true, fmt.Errorf("failed to write README: %w", err)
	}
	log.Info("Updated README")
	return true, nil
}
