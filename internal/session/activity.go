package session

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-autopilot/internal/types"
)

// maxActivityEntries bounds the live progress feed; oldest entries are
// evicted. The feed is best-effort presentation, not an audit trail.
const maxActivityEntries = 80

// categoryPrefixes maps leading message symbols to presentation categories.
var categoryPrefixes = []struct {
	prefix   string
	category string
}{
	{"✅", "success"},
	{"❌", "error"},
	{"⚠️", "warning"},
	{"🔍", "search"},
	{"📧", "email"},
	{"📄", "document"},
}

// CategorizeMessage derives a presentation category from the leading-symbol
// conventions used in activity messages.
func CategorizeMessage(message string) string {
	trimmed := strings.TrimSpace(message)
	for _, p := range categoryPrefixes {
		if strings.HasPrefix(trimmed, p.prefix) {
			return p.category
		}
	}
	return "info"
}

// AppendActivity appends a timestamped entry to the owner's activity log,
// evicting the oldest entries beyond the bound.
func (s *Store) AppendActivity(ownerID uuid.UUID, message string) {
	_ = s.Update(ownerID, func(sess *types.PipelineSession) {
		sess.ActivityLog = append(sess.ActivityLog, types.ActivityEntry{
			ID:        uuid.New(),
			Message:   message,
			Category:  CategorizeMessage(message),
			Timestamp: time.Now(),
		})
		if len(sess.ActivityLog) > maxActivityEntries {
			sess.ActivityLog = sess.ActivityLog[len(sess.ActivityLog)-maxActivityEntries:]
		}
	})
}
