package classify

import "strings"

// Labels returned by the classification endpoint.
const (
	LabelBrainDump       = "BRAIN_DUMP"
	LabelSimpleTask      = "SIMPLE_TASK"
	LabelSimpleNote      = "SIMPLE_NOTE"
	LabelMessageAnalysis = "MESSAGE_ANALYSIS"
)

// Labels lists every valid classification label.
var Labels = []string{LabelBrainDump, LabelSimpleTask, LabelSimpleNote, LabelMessageAnalysis}

// IsLabel reports whether s is a known label.
func IsLabel(s string) bool {
	for _, l := range Labels {
		if l == s {
			return true
		}
	}
	return false
}

// Result is a labelled classification with a confidence in [0,1].
type Result struct {
	Classification string  `json:"classification"`
	Confidence     float64 `json:"confidence"`
	Reasoning      string  `json:"reasoning"`
}

var (
	multiItemSeparators = []string{" and ", ", ", "; "}
	quickTaskKeywords   = []string{"task", "todo", "create a task", "schedule", "need to", "review"}
	quickNoteKeywords   = []string{"note", "remember", "thinking", "project", "idea"}
)

// QuickClassify labels a message from keywords alone. It backs the
// classification endpoint when no model answer is available.
func QuickClassify(message string) Result {
	lower := strings.ToLower(message)
	multi := false
	for _, sep := range multiItemSeparators {
		if strings.Contains(message, sep) {
			multi = true
			break
		}
	}

	switch {
	case len(message) > LengthThreshold && multi:
		return Result{LabelBrainDump, 0.7, "Long message with multiple items (fallback heuristic)"}
	case ContainsAny(lower, quickTaskKeywords):
		return Result{LabelSimpleTask, 0.6, "Task-related keywords detected (fallback heuristic)"}
	case ContainsAny(lower, quickNoteKeywords):
		return Result{LabelSimpleNote, 0.6, "Note-related keywords detected (fallback heuristic)"}
	default:
		return Result{LabelMessageAnalysis, 0.5, "General message requiring analysis (fallback heuristic)"}
	}
}
