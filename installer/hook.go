package installer

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/debcore/debcore/config"
	"github.com/debcore/debcore/scheduler"
)

// HookVersion selects the pre-install-packages hook's stdin format:
// version 1 is a bare list of .deb paths; versions 2 and 3 add a
// configuration dump and a structured action line ahead of it.
type HookVersion int

const (
	HookV1 HookVersion = 1
	HookV2 HookVersion = 2
	HookV3 HookVersion = 3
)

// HookAction is one line of the version 2/3 action list: a package
// moving from oldVersion to newVersion, with the concrete step to
// perform on it.
type HookAction struct {
	Package    string
	OldVersion string // empty if not previously installed
	NewVersion string // empty if being removed
	Arch       string
	Path       string // .deb archive path; empty for remove/configure-only steps
	Configure  bool   // true if this line reports a configure-only step (no path)
}

// compareSign reproduces the "<", "=", ">" marker the hook protocol puts
// between old and new version strings; callers that already have a
// version.Compare result should pass its sign through here.
func compareSign(cmp int) string {
	switch {
	case cmp < 0:
		return "<"
	case cmp > 0:
		return ">"
	default:
		return "="
	}
}

// WriteHookStdin renders the pre-install-packages hook's stdin payload
// for the given version, writing it to w. For HookV1, debPaths is used
// directly; for HookV2/HookV3, cfg and actions are rendered ahead of it
// and debPaths is ignored (paths are embedded in each action line).
func WriteHookStdin(w io.Writer, version HookVersion, debPaths []string, cfg map[string]string, actions []HookAction, versionCompare func(old, new string) int) error {
	switch version {
	case HookV1:
		for _, p := range debPaths {
			if _, err := fmt.Fprintln(w, p); err != nil {
				return fmt.Errorf("installer: writing hook v1 stdin: %w", err)
			}
		}
		return nil
	case HookV2, HookV3:
		if _, err := fmt.Fprintf(w, "VERSION %d\n", version); err != nil {
			return fmt.Errorf("installer: writing hook header: %w", err)
		}
		keys := make([]string, 0, len(cfg))
		for k := range cfg {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if _, err := fmt.Fprintf(w, "%s=%s\n", k, cfg[k]); err != nil {
				return fmt.Errorf("installer: writing hook config line: %w", err)
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return fmt.Errorf("installer: writing hook blank separator: %w", err)
		}
		for _, a := range actions {
			line, err := renderHookActionLine(a, versionCompare)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return fmt.Errorf("installer: writing hook action line: %w", err)
			}
		}
		return nil
	default:
		return fmt.Errorf("installer: unsupported hook protocol version %d", version)
	}
}

func renderHookActionLine(a HookAction, versionCompare func(old, new string) int) (string, error) {
	old := a.OldVersion
	if old == "" {
		old = "-"
	}
	new := a.NewVersion
	if new == "" {
		new = "-"
	}
	arch := a.Arch
	if arch == "" {
		arch = "-"
	}

	sign := "="
	if a.OldVersion != "" && a.NewVersion != "" && versionCompare != nil {
		sign = compareSign(versionCompare(a.OldVersion, a.NewVersion))
	}

	trailer := a.Path
	switch {
	case a.NewVersion == "":
		trailer = "**REMOVE**"
	case a.Configure:
		trailer = "**CONFIGURE**"
	case trailer == "":
		return "", fmt.Errorf("installer: hook action for %s has neither a path nor REMOVE/CONFIGURE marker", a.Package)
	}

	return strings.Join([]string{a.Package, old, arch, sign, new, arch, trailer}, " "), nil
}

// ActionsFromChangeset converts one scheduler Changeset into the
// HookAction lines a version 2/3 hook expects, in changeset order.
func ActionsFromChangeset(cs scheduler.Changeset) []HookAction {
	actions := make([]HookAction, 0, len(cs.Actions))
	for _, ia := range cs.Actions {
		switch ia.Type {
		case scheduler.Remove:
			actions = append(actions, HookAction{Package: ia.Package})
		case scheduler.Unpack:
			a := HookAction{Package: ia.Package}
			if ia.Version != nil {
				a.NewVersion = ia.Version.Version.String()
				a.Arch = ia.Version.Architecture
				a.Path = ia.Version.Filename
			}
			actions = append(actions, a)
		case scheduler.Configure:
			a := HookAction{Package: ia.Package, Configure: true}
			if ia.Version != nil {
				a.NewVersion = ia.Version.Version.String()
				a.Arch = ia.Version.Architecture
			}
			actions = append(actions, a)
		}
	}
	return actions
}

// ConfigDump flattens a config.Config's known scalar keys into the
// plain map[string]string the version 2/3 hook header expects. Callers
// pass the same key set they queried the Config with.
func ConfigDump(cfg config.Config, keys []string) map[string]string {
	dump := make(map[string]string, len(keys))
	for _, k := range keys {
		if cfg.Has(k) {
			dump[k] = cfg.String(k, "")
		}
	}
	return dump
}
