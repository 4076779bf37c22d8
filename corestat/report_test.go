package corestat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quartzray/pathtrace/tracerlog"
)

type captureWriter struct {
	lines []string
}

func (w *captureWriter) Write(event *tracerlog.Event) {
	w.lines = append(w.lines, event.UserMsg)
}
func (w *captureWriter) Close() {}
func (w *captureWriter) Sync()  {}

func TestLogSummaryEmitsWarnOnlyWhenNonZero(t *testing.T) {
	cap1 := &captureWriter{}
	log := tracerlog.New("test-summary-warn", nil)
	log.AddWriter(cap1)

	var c Counters
	c.IncWarnings(3)
	LogSummary(log, c.Snap())

	joined := strings.Join(cap1.lines, "\n")
	assert.Contains(t, joined, "3 numerical warning")
}

func TestLogSummarySilentOnNoWarnings(t *testing.T) {
	cap1 := &captureWriter{}
	log := tracerlog.New("test-summary-clean", nil)
	log.AddWriter(cap1)

	var c Counters
	LogSummary(log, c.Snap())

	for _, line := range cap1.lines {
		assert.NotContains(t, line, "numerical warning")
	}
}
