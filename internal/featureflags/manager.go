// Package featureflags evaluates the FEATURE_FLAGS setting.
package featureflags

import (
	"hash/fnv"
	"maps"
	"strconv"
	"strings"
)

// Flags consulted by the services.
const (
	// AIModeration runs new articles and comments through the moderator.
	AIModeration = "ai_moderation"
	// CommentSummary exposes the comment summary endpoint.
	CommentSummary = "comment_summary"
)

// flag is one parsed setting. percent is the share of members, 0 to 100,
// who get the feature; on and off parse to 100 and 0.
type flag struct {
	raw     string
	percent int
}

// Manager holds flags parsed from a list such as
// "ai_moderation=on,comment_summary=25%". Values are on/true/1, off/false/0
// or a percentage rolled out deterministically by member id. Malformed
// entries are skipped and unknown flags are off.
type Manager struct {
	flags map[string]flag
}

// NewManager parses raw.
func NewManager(raw string) *Manager {
	m := &Manager{flags: make(map[string]flag)}
	for _, entry := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(entry, "=")
		key, value = normalize(key), normalize(value)
		if !ok || key == "" || value == "" {
			continue
		}
		m.flags[key] = parseFlag(value)
	}
	return m
}

func parseFlag(value string) flag {
	f := flag{raw: value}
	switch value {
	case "on", "true", "1":
		f.percent = 100
		return f
	case "off", "false", "0":
		return f
	}
	if pct, ok := strings.CutSuffix(value, "%"); ok {
		if n, err := strconv.Atoi(pct); err == nil {
			f.percent = min(max(n, 0), 100)
		}
	}
	return f
}

// Enabled reports whether name is on for the member userID. A partial
// rollout is off for anonymous callers.
func (m *Manager) Enabled(name, userID string) bool {
	if m == nil {
		return false
	}
	name = normalize(name)
	f, ok := m.flags[name]
	switch {
	case !ok || f.percent == 0:
		return false
	case f.percent == 100:
		return true
	case userID == "":
		return false
	}
	return bucket(name, userID) < f.percent
}

// Raw returns the configured value of every flag.
func (m *Manager) Raw() map[string]string {
	out := map[string]string{}
	if m == nil {
		return out
	}
	for name, f := range m.flags {
		out[name] = f.raw
	}
	return out
}

// Snapshot evaluates every flag for userID.
func (m *Manager) Snapshot(userID string) map[string]bool {
	out := map[string]bool{}
	if m == nil {
		return out
	}
	for name := range maps.Keys(m.flags) {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// bucket places a member in 0..99 for one flag, so different flags roll out
// to different members.
func bucket(name, userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name + ":" + userID))
	return int(h.Sum32() % 100)
}
