package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTracker_Increment(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewTracker(&buf, "chunks", 100, 10)

	tracker.Start()
	tracker.Increment(25)
	tracker.Increment(25)
	tracker.Increment(50)

	assert.Greater(t, tracker.Elapsed(), time.Duration(0))
	output := buf.String()
	assert.Contains(t, output, "100/100")
	assert.Contains(t, output, "100.0%")
	assert.Contains(t, output, "chunks/s")
}

func TestTracker_FinishKeepsPartialCount(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewTracker(&buf, "chunks", 45, 100)

	tracker.Start()
	tracker.Update(25)
	tracker.Finish()

	output := buf.String()
	assert.Contains(t, output, "25/45")
	assert.True(t, strings.HasSuffix(output, "\n"))
}

func TestTracker_ZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewTracker(&buf, "", 0, 10)

	tracker.Start()
	tracker.Finish()

	output := buf.String()
	assert.Contains(t, output, "0/0")
	assert.Contains(t, output, "items/s")
}

func TestTracker_CapsAtTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewTracker(&buf, "records", 100, 10)

	tracker.Start()
	tracker.Increment(150)

	assert.Contains(t, buf.String(), "100/100")
	assert.Equal(t, 100, tracker.Current())
}

func TestTracker_SetTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewTracker(&buf, "chunks", 0, 1)

	tracker.Start()
	tracker.SetTotal(10)
	tracker.Update(5)

	assert.Contains(t, buf.String(), "5/10")
}

func TestTracker_NotStarted(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewTracker(&buf, "chunks", 100, 10)

	tracker.Increment(10)
	tracker.Finish()

	assert.Empty(t, buf.String())
	assert.Zero(t, tracker.Elapsed())
}

func TestTracker_ReportInterval(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewTracker(&buf, "chunks", 1000, 100)

	tracker.Start()

	tracker.Update(50)
	assert.Empty(t, buf.String(), "should not print under interval")

	buf.Reset()
	tracker.Update(100)
	assert.NotEmpty(t, buf.String(), "should print at interval")

	buf.Reset()
	tracker.Update(150)
	assert.Empty(t, buf.String())

	buf.Reset()
	tracker.Update(250)
	assert.NotEmpty(t, buf.String())
}
