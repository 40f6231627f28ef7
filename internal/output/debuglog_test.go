package output

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	debug []string
	error []string
}

func (r *recordingLogger) Debug(format string, args ...any) {
	r.debug = append(r.debug, fmt.Sprintf(format, args...))
}

func (r *recordingLogger) Error(format string, args ...any) {
	r.error = append(r.error, fmt.Sprintf(format, args...))
}

func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2024, 5, 1, 13, 4, 5, 0, time.UTC) }
}

func TestDebugLog_NewestFirst(t *testing.T) {
	t.Parallel()

	log := NewDebugLog(0, nil)
	log.now = fixedClock()

	log.Append("first")
	log.Append("second")

	lines := strings.Split(strings.TrimSpace(log.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "[13:04:05] second", lines[0])
	assert.Equal(t, "[13:04:05] first", lines[1])
}

func TestDebugLog_AppendsData(t *testing.T) {
	t.Parallel()

	log := NewDebugLog(0, nil)
	log.now = fixedClock()
	log.Append("STATUS", "Connecting to wallet...")
	log.Append("payload", map[string]int{"code": 4001})

	assert.Contains(t, log.String(), `[13:04:05] STATUS "Connecting to wallet..."`)
	assert.Contains(t, log.String(), `"code": 4001`)
}

func TestDebugLog_Truncates(t *testing.T) {
	t.Parallel()

	log := NewDebugLog(30, nil)
	log.now = fixedClock()
	for i := 0; i < 10; i++ {
		log.Append(fmt.Sprintf("line %d", i))
	}

	text := log.String()
	assert.LessOrEqual(t, len([]rune(text)), 30)
	assert.True(t, strings.HasPrefix(text, "[13:04:05] line 9"))
}

func TestDebugLog_ForwardsToFile(t *testing.T) {
	t.Parallel()

	file := &recordingLogger{}
	log := NewDebugLog(0, file)

	log.Debug("connected %s", "0xabc")
	log.Error("send failed: %d", 4001)

	assert.Equal(t, []string{"connected 0xabc"}, file.debug)
	assert.Equal(t, []string{"send failed: 4001"}, file.error)
	assert.Contains(t, log.String(), "ERROR send failed: 4001")
}

func TestTruncateRunes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ab", truncateRunes("abc", 2))
	assert.Equal(t, "—x", truncateRunes("—xy", 2))
	assert.Equal(t, "abc", truncateRunes("abc", 5))
}
