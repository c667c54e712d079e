package agent

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// loopWindowSize is K in the sliding window of recent tool-call
// signatures.
const loopWindowSize = 6

// loopRepeatThreshold is the number of times a signature must recur
// within the window before it counts as a detected loop.
const loopRepeatThreshold = 3

// maxLoopWarnings is how many times loop detection may inject a
// steering message before the orchestrator forces termination.
const maxLoopWarnings = 2

// loopDetector watches the sequence of tool calls made during one
// orchestrator run for a model stuck repeating itself.
type loopDetector struct {
	window   []string
	warnings int
}

func newLoopDetector() *loopDetector {
	return &loopDetector{window: make([]string, 0, loopWindowSize)}
}

// toolCallSignature hashes a tool name together with its canonical
// (re-marshaled) argument JSON so that key-order differences don't
// defeat detection.
func toolCallSignature(name string, args json.RawMessage) string {
	canonical := args
	var v any
	if len(args) > 0 {
		if err := json.Unmarshal(args, &v); err == nil {
			if reenc, err := json.Marshal(v); err == nil {
				canonical = reenc
			}
		}
	}
	sum := sha256.Sum256(append([]byte(name+"\x00"), canonical...))
	return name + ":" + hex.EncodeToString(sum[:8])
}

// observe records a tool call and reports whether it has now recurred
// at least loopRepeatThreshold times within the last loopWindowSize
// calls.
func (d *loopDetector) observe(signature string) bool {
	d.window = append(d.window, signature)
	if len(d.window) > loopWindowSize {
		d.window = d.window[len(d.window)-loopWindowSize:]
	}
	count := 0
	for _, s := range d.window {
		if s == signature {
			count++
		}
	}
	return count >= loopRepeatThreshold
}

// warn increments the warning counter and reports whether the
// orchestrator should now force termination.
func (d *loopDetector) warn() (forceTerminate bool) {
	d.warnings++
	return d.warnings >= maxLoopWarnings
}
