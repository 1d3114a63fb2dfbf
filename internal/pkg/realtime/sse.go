package realtime

import (
	"bytes"
	"fmt"
)

// FormatEvent renders one SSE frame (event: name / data: payload).
func FormatEvent(event string, data []byte) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "event: %s\n", event)
	b.WriteString("data: ")
	b.Write(data)
	b.WriteString("\n\n")
	return b.Bytes()
}

// Heartbeat returns an SSE comment frame. Proxies drop idle connections,
// so the stream writer emits one between snapshots.
func Heartbeat() []byte {
	return []byte(": keepalive\n\n")
}
