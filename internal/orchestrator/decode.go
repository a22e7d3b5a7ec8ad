package orchestrator

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/vcalderon2009/note-taker/internal/classify"
	"github.com/vcalderon2009/note-taker/internal/model"
)

const (
	taskTitleMax = 120
	noteTitleMax = 80

	overridePriority = 3
	untitled         = "Untitled"
)

// MalformedError reports model output that could not be decoded into the
// expected shape. Raw is the text that was decoded.
type MalformedError struct {
	Raw    string
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed model output: %s", e.Reason)
}

func malformed(raw, format string, args ...any) *MalformedError {
	return &MalformedError{Raw: raw, Reason: fmt.Sprintf(format, args...)}
}

// StripFences removes a surrounding markdown code fence (```json or ```).
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// RepairJSON strips code fences and closes a truncated brain-dump payload:
// a trailing ']' gets '}', a trailing '"' gets '}]}', anything else that is
// not '}' gets ']}'. The result may parse while meaning something different
// from what the model intended.
func RepairJSON(s string) string {
	s = StripFences(s)
	if strings.HasSuffix(s, "}") {
		return s
	}
	switch {
	case strings.HasSuffix(s, "]"):
		return s + "}"
	case strings.HasSuffix(s, `"`):
		return s + "}]}"
	default:
		return s + "]}"
	}
}

// DecodeSimple decodes a single note-or-task answer. text is the user's raw
// message and supplies defaults for fields the model left out. A note answer
// becomes a task when text carries an explicit task marker.
func DecodeSimple(content, text string) (*model.ClassificationResult, error) {
	raw := StripFences(content)
	if !gjson.Valid(raw) {
		return nil, malformed(raw, "invalid JSON")
	}
	doc := gjson.Parse(raw)
	if !doc.IsObject() {
		return nil, malformed(raw, "expected an object, got %s", doc.Type)
	}

	kind := doc.Get("type").String()
	if kind == model.KindNote && classify.HasExplicitTaskMarker(text) {
		note := doc.Get("note")
		title := nonEmpty(note.Get("title").String(), truncateRunes(text, taskTitleMax))
		desc := text
		if b := note.Get("body"); b.Exists() {
			desc = b.String()
		}
		return &model.ClassificationResult{
			Kind: model.KindTask,
			Task: &model.TaskDraft{
				Title:       title,
				Description: &desc,
				Status:      model.DefaultTaskStatus,
				Priority:    intPtr(overridePriority),
			},
		}, nil
	}

	if task := doc.Get("task"); kind == model.KindTask && task.IsObject() {
		return &model.ClassificationResult{
			Kind: model.KindTask,
			Task: &model.TaskDraft{
				Title:       nonEmpty(task.Get("title").String(), truncateRunes(text, taskTitleMax)),
				Description: optString(task.Get("description")),
				DueAt:       optTime(task.Get("due_at")),
				Status:      nonEmpty(task.Get("status").String(), model.DefaultTaskStatus),
				Priority:    optInt(task.Get("priority")),
			},
		}, nil
	}

	note := doc.Get("note")
	if !note.IsObject() {
		note = gjson.Result{}
	}
	return &model.ClassificationResult{
		Kind: model.KindNote,
		Note: &model.NoteDraft{
			Title: nonEmpty(note.Get("title").String(), defaultNoteTitle(text)),
			Body:  nonEmpty(note.Get("body").String(), text),
			Tags:  stringList(note.Get("tags")),
		},
	}, nil
}

// DecodeBrainDump repairs and decodes a brain-dump answer. Anything other than
// {"type":"brain_dump","items":[...]} is malformed. Non-object items are skipped.
func DecodeBrainDump(content string) (*model.ClassificationResult, error) {
	raw := RepairJSON(content)
	if !gjson.Valid(raw) {
		return nil, malformed(raw, "invalid JSON after repair")
	}
	doc := gjson.Parse(raw)
	if !doc.IsObject() {
		return nil, malformed(raw, "expected an object, got %s", doc.Type)
	}
	if kind := doc.Get("type").String(); kind != model.KindBrainDump {
		return nil, malformed(raw, "unexpected type %q", kind)
	}
	items := doc.Get("items")
	if !items.IsArray() {
		return nil, malformed(raw, "items is not a list")
	}

	res := &model.ClassificationResult{Kind: model.KindBrainDump}
	for _, it := range items.Array() {
		if !it.IsObject() {
			continue
		}
		title := untitled
		if t := it.Get("title"); t.Exists() && t.Type != gjson.Null {
			title = t.String()
		}
		if it.Get("type").String() == model.KindTask {
			res.Items = append(res.Items, model.Draft{Task: &model.TaskDraft{
				Title:       title,
				Description: optString(it.Get("description")),
				DueAt:       optTime(it.Get("due_at")),
				Status:      model.DefaultTaskStatus,
				Priority:    optInt(it.Get("priority")),
			}})
			continue
		}
		body := it.Get("body")
		if !body.Exists() {
			body = it.Get("title")
		}
		res.Items = append(res.Items, model.Draft{Note: &model.NoteDraft{
			Title: title,
			Body:  body.String(),
			Tags:  stringList(it.Get("tags")),
		}})
	}

	if s := doc.Get("summary"); s.Exists() {
		res.Summary = s.String()
	} else {
		res.Summary = fmt.Sprintf("Organized %d items from your brain dump", len(res.Items))
	}
	return res, nil
}

// FallbackClassify picks task or note from keywords alone. A task is titled
// by the text after the first ':' (or the whole text, capped).
func FallbackClassify(text string, taskKeywords []string) *model.ClassificationResult {
	if classify.ContainsAny(strings.ToLower(text), taskKeywords) {
		title := text
		if i := strings.Index(text, ":"); i >= 0 {
			title = text[i+1:]
		}
		title = nonEmpty(strings.TrimSpace(title), truncateRunes(text, taskTitleMax))
		return &model.ClassificationResult{
			Kind: model.KindTask,
			Task: &model.TaskDraft{Title: title, Status: model.DefaultTaskStatus},
		}
	}
	return &model.ClassificationResult{
		Kind: model.KindNote,
		Note: &model.NoteDraft{Title: defaultNoteTitle(text), Body: text},
	}
}

func defaultNoteTitle(text string) string {
	first, _, _ := strings.Cut(text, "\n")
	return nonEmpty(truncateRunes(first, noteTitleMax), "Note")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func nonEmpty(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func intPtr(v int) *int { return &v }

func optString(r gjson.Result) *string {
	if !r.Exists() || r.Type == gjson.Null {
		return nil
	}
	s := r.String()
	return &s
}

func optInt(r gjson.Result) *int {
	if r.Type != gjson.Number {
		return nil
	}
	return intPtr(int(r.Int()))
}

func optTime(r gjson.Result) *time.Time {
	if r.Type != gjson.String {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, r.Str); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func stringList(r gjson.Result) []string {
	if !r.IsArray() {
		return nil
	}
	var out []string
	for _, v := range r.Array() {
		if v.Type == gjson.String {
			out = append(out, v.Str)
		}
	}
	return out
}
