package sprig

import (
	"fmt"
	"log"
	"os"
	"time"
)

// FrameStats counts the work done by one Render/Draw pair. Counters are
// always populated; the timings only in debug mode.
type FrameStats struct {
	Groups       int // render groups processed
	Rebuilds     int // groups that rebuilt their instruction set
	Validates    int // ValidateRenderable calls
	Updates      int // UpdateRenderable calls issued by groups
	Adds         int // dispatch units added during rebuilds
	Instructions int // instructions visited by Draw
	DrawCalls    int // executors that submitted

	TransformTime time.Duration
	ProcessTime   time.Duration
	SubmitTime    time.Duration
}

// debugLog prints timing and instruction stats to stderr.
func (r *Renderer) debugLog(stats FrameStats) {
	if !r.debug {
		return
	}
	total := stats.TransformTime + stats.ProcessTime + stats.SubmitTime
	_, _ = fmt.Fprintf(os.Stderr,
		"[sprig] transform: %v | process: %v | submit: %v | total: %v\n",
		stats.TransformTime, stats.ProcessTime, stats.SubmitTime, total)
	_, _ = fmt.Fprintf(os.Stderr,
		"[sprig] groups: %d | rebuilds: %d | validates: %d | updates: %d | adds: %d | instructions: %d | draw calls: %d\n",
		stats.Groups, stats.Rebuilds, stats.Validates, stats.Updates, stats.Adds, stats.Instructions, stats.DrawCalls)
}

// globalDebug mirrors the most recently set debug flag so that node
// operations (which lack a Renderer pointer) can check it cheaply. With
// several renderers it reflects whichever called SetDebugMode last.
var globalDebug bool

// debugLogf logs a warning when debug mode is on.
func debugLogf(format string, args ...any) {
	if globalDebug {
		log.Printf("sprig: "+format, args...)
	}
}

// debugCheckDestroyed panics with a descriptive message when a destroyed node
// is used in a tree operation. In release mode callers skip this entirely.
func debugCheckDestroyed(n *Node, op string) {
	if n.destroyed {
		panic(fmt.Sprintf("sprig debug: %s on destroyed node %q (ID was %d)", op, n.Name, n.ID))
	}
}

// debugCheckTreeDepth warns on stderr if tree depth exceeds the threshold.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(n *Node) {
	depth := 0
	for p := n; p != nil; p = p.parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		_, _ = fmt.Fprintf(os.Stderr, "[sprig] warning: tree depth %d exceeds %d (node %q)\n",
			depth, debugMaxTreeDepth, n.Name)
	}
}

// debugCheckChildCount warns on stderr if a node has more than 1000 children.
const debugMaxChildCount = 1000

func debugCheckChildCount(n *Node) {
	if len(n.children) > debugMaxChildCount {
		_, _ = fmt.Fprintf(os.Stderr, "[sprig] warning: node %q has %d children (threshold %d)\n",
			n.Name, len(n.children), debugMaxChildCount)
	}
}
