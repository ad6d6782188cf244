package dashboard

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/hazstudy/internal/study"
	"github.com/zulandar/hazstudy/internal/workflow"
)

// Poll and heartbeat intervals of the activity stream.
var (
	ssePollInterval      = 2 * time.Second
	sseHeartbeatInterval = 15 * time.Second
)

// logEvent is one activity-log entry sent over SSE.
type logEvent struct {
	Index   int       `json:"index"`
	At      time.Time `json:"at"`
	Message string    `json:"message"`
	State   string    `json:"state"`
}

// handleStudyEvents streams the activity log of a study. Entries from
// ?since= onwards are sent first, then new entries as they are saved.
func handleStudyEvents(ctrl *workflow.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		s, err := ctrl.Get(id)
		if err != nil {
			fail(c, err)
			return
		}
		next, _ := strconv.Atoi(c.DefaultQuery("since", "0"))
		if next < 0 {
			next = 0
		}

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		writeSSE(c.Writer, "connected", map[string]string{"study": id})
		next = writeLog(c.Writer, s.Log, string(s.State), next)
		c.Writer.Flush()

		ctx := c.Request.Context()
		ticker := time.NewTicker(ssePollInterval)
		heartbeat := time.NewTicker(sseHeartbeatInterval)
		defer ticker.Stop()
		defer heartbeat.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-heartbeat.C:
				writeSSE(c.Writer, "heartbeat", map[string]string{
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				})
				c.Writer.Flush()
			case <-ticker.C:
				s, err := ctrl.Get(id)
				if err != nil {
					writeSSE(c.Writer, "error", gin.H{"error": err.Error()})
					c.Writer.Flush()
					return
				}
				if len(s.Log) <= next {
					continue
				}
				next = writeLog(c.Writer, s.Log, string(s.State), next)
				c.Writer.Flush()
			}
		}
	}
}

// writeLog sends entries[from:] and returns the index of the next entry.
func writeLog(w io.Writer, entries []study.LogEntry, state string, from int) int {
	for i := from; i < len(entries); i++ {
		writeSSE(w, "log", logEvent{Index: i, At: entries[i].At, Message: entries[i].Message, State: state})
	}
	return max(from, len(entries))
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}
