package logger

import (
	"io"
	"log"
	"strconv"
	"strings"
	"sync"
)

var (
	rejectMu   sync.Mutex
	rejectLog  *log.Logger
	rejectText bool
)

// SetRejectWriter routes rejected input lines to w. A nil writer disables the dump.
func SetRejectWriter(w io.Writer) {
	rejectMu.Lock()
	defer rejectMu.Unlock()
	if w == nil {
		rejectLog = nil
		return
	}
	rejectLog = log.New(w, "", log.LstdFlags)
}

// EnableRejectText controls whether the offending line itself is written.
func EnableRejectText(enabled bool) {
	rejectMu.Lock()
	rejectText = enabled
	rejectMu.Unlock()
}

type rejectSection struct {
	Title string
	Body  string
}

func logReject(kind, source string, line int, sections []rejectSection) {
	rejectMu.Lock()
	out := rejectLog
	rejectMu.Unlock()
	if out == nil {
		return
	}
	var b strings.Builder
	b.WriteString("[REJECT]")
	if kind != "" {
		b.WriteString("[")
		b.WriteString(kind)
		b.WriteString("]")
	}
	if source != "" {
		b.WriteString("[")
		b.WriteString(source)
		if line > 0 {
			b.WriteString(":")
			b.WriteString(strconv.Itoa(line))
		}
		b.WriteString("]")
	}
	b.WriteString("\n")
	for _, sec := range sections {
		t := strings.TrimSpace(sec.Title)
		if t == "" {
			t = "CONTENT"
		}
		b.WriteString("--- ")
		b.WriteString(t)
		b.WriteString(" ---\n")
		body := sec.Body
		b.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			b.WriteString("\n")
		}
	}
	b.WriteString("=====\n")
	out.Print(b.String())
}

// LogReject records a skipped input line together with the reason it was dropped.
func LogReject(kind, source string, line int, reason, text string) {
	sections := []rejectSection{{Title: "REASON", Body: reason}}
	rejectMu.Lock()
	withText := rejectText
	rejectMu.Unlock()
	if withText && strings.TrimSpace(text) != "" {
		sections = append(sections, rejectSection{Title: "LINE", Body: text})
	}
	logReject(kind, source, line, sections)
}
