package log

import (
	"sync/atomic"

	"seta/internal/core"
)

// IssueLogger reports malformed records found at the store boundary as
// warnings, and keeps a running count per issue kind.
type IssueLogger struct {
	logger *Logger

	timestamp atomic.Int64
	amount    atomic.Int64
	category  atomic.Int64
}

var _ core.Observer = (*IssueLogger)(nil)

func NewIssueLogger(logger *Logger) *IssueLogger {
	return &IssueLogger{logger: logger.WithComponent(ComponentCore)}
}

func (l *IssueLogger) Malformed(kind core.Issues, recordID, detail string) {
	if kind.Has(core.IssueTimestamp) {
		l.timestamp.Add(1)
	}
	if kind.Has(core.IssueAmount) {
		l.amount.Add(1)
	}
	if kind.Has(core.IssueCategory) {
		l.category.Add(1)
	}
	l.logger.Warn("Malformed expense record",
		FieldIssue, kind.String(),
		FieldRecordID, recordID,
		FieldDetail, detail,
		FieldOperation, OpParse)
}

// Counts returns how many timestamp, amount and category issues were seen.
func (l *IssueLogger) Counts() (timestamp, amount, category int64) {
	return l.timestamp.Load(), l.amount.Load(), l.category.Load()
}
