// Package editor implements the line editor from spec.md §4.2: a
// grapheme-aware buffer with an Emacs-style binding set, a bounded
// de-duplicated history, and a completer hook. It is modeled on the
// teacher-adjacent CommandInput in underground-node-network's
// internal/ui/input, generalized from rune slicing to grapheme slicing
// (term.Graphemes) and from a single History/HIndex pair to a buffer
// that restores the in-progress edit when navigation returns to it.
package editor

import (
	"strings"

	"chatd/term"
)

// Result classifies what feeding a key event produced.
type Result int

const (
	None Result = iota
	Redraw
	Submit
	Cancel
)

// EditResult is returned by Feed: Result plus the submitted line (valid
// only when Result == Submit) and, after a Tab that matched more than
// one candidate, the full candidate list for the session controller to
// print as a system message below the prompt (spec.md §4.2).
type EditResult struct {
	Result     Result
	Line       string
	Candidates []string
}

// MaxHistory bounds how many submitted lines are retained for Up/Down
// recall, per spec.md §4.2's "bounded" history requirement.
const MaxHistory = 100

// Completer mirrors spec.md §4.2's completer contract: given the buffer
// and cursor (as a grapheme index), return candidate completions and the
// grapheme index the candidates replace from.
type Completer func(buffer string, cursor int) (candidates []string, replaceFrom int)

// Editor holds one session's in-progress input line.
type Editor struct {
	graphemes []string // current buffer, one entry per grapheme cluster
	cursor    int       // index into graphemes, 0..len(graphemes)

	history   []string
	histIndex int    // len(history) means "not browsing, editing live buffer"
	saved     string // buffer stashed when history browsing starts

	completer Completer
}

// New returns an empty editor. completer may be nil, in which case Tab
// is a no-op.
func New(completer Completer) *Editor {
	return &Editor{completer: completer, histIndex: 0}
}

// Buffer returns the current line as a string.
func (e *Editor) Buffer() string {
	return strings.Join(e.graphemes, "")
}

// Cursor returns the current cursor position as a grapheme index.
func (e *Editor) Cursor() int {
	return e.cursor
}

// CursorWidth returns the display-column offset of the cursor from the
// start of the buffer, for prompt redraw math.
func (e *Editor) CursorWidth() int {
	return term.Width(strings.Join(e.graphemes[:e.cursor], ""))
}

// Feed applies one decoded key event to the buffer and reports what the
// session controller should do next.
func (e *Editor) Feed(ev term.Event) EditResult {
	switch ev.Type {
	case term.KeyRune:
		e.insert(string(ev.Rune))
		return EditResult{Result: Redraw}
	case term.KeyEnter:
		return e.submit()
	case term.KeyBackspace:
		if e.cursor > 0 {
			e.deleteRange(e.cursor-1, e.cursor)
		}
		return EditResult{Result: Redraw}
	case term.KeyDelete:
		if e.cursor < len(e.graphemes) {
			e.deleteRange(e.cursor, e.cursor+1)
		}
		return EditResult{Result: Redraw}
	case term.KeyArrowLeft:
		if e.cursor > 0 {
			e.cursor--
		}
		return EditResult{Result: Redraw}
	case term.KeyArrowRight:
		if e.cursor < len(e.graphemes) {
			e.cursor++
		}
		return EditResult{Result: Redraw}
	case term.KeyHome:
		e.cursor = 0
		return EditResult{Result: Redraw}
	case term.KeyEnd:
		e.cursor = len(e.graphemes)
		return EditResult{Result: Redraw}
	case term.KeyCtrl:
		return e.feedCtrl(ev.Ctrl)
	case term.KeyAltB:
		e.cursor = e.prevWordBoundary()
		return EditResult{Result: Redraw}
	case term.KeyAltF:
		e.cursor = e.nextWordBoundary()
		return EditResult{Result: Redraw}
	case term.KeyArrowUp:
		e.historyPrev()
		return EditResult{Result: Redraw}
	case term.KeyArrowDown:
		e.historyNext()
		return EditResult{Result: Redraw}
	case term.KeyTab:
		return e.complete()
	case term.KeyEscape:
		e.clear()
		return EditResult{Result: Cancel}
	default:
		return EditResult{Result: None}
	}
}

func (e *Editor) feedCtrl(c byte) EditResult {
	switch c {
	case 'A':
		e.cursor = 0
	case 'E':
		e.cursor = len(e.graphemes)
	case 'B':
		if e.cursor > 0 {
			e.cursor--
		}
	case 'F':
		if e.cursor < len(e.graphemes) {
			e.cursor++
		}
	case 'P':
		e.historyPrev()
	case 'N':
		e.historyNext()
	case 'K':
		e.deleteRange(e.cursor, len(e.graphemes))
	case 'U':
		e.deleteRange(0, e.cursor)
	case 'W':
		start := e.prevWordBoundary()
		e.deleteRange(start, e.cursor)
	case 'D':
		if e.cursor < len(e.graphemes) {
			e.deleteRange(e.cursor, e.cursor+1)
		}
	default:
		return EditResult{Result: None}
	}
	return EditResult{Result: Redraw}
}

func (e *Editor) insert(g string) {
	e.graphemes = append(e.graphemes, "")
	copy(e.graphemes[e.cursor+1:], e.graphemes[e.cursor:])
	e.graphemes[e.cursor] = g
	e.cursor++
	e.histIndex = len(e.history) // typing while browsing history edits a fresh line
}

func (e *Editor) deleteRange(from, to int) {
	if from < 0 {
		from = 0
	}
	if to > len(e.graphemes) {
		to = len(e.graphemes)
	}
	if from >= to {
		return
	}
	e.graphemes = append(e.graphemes[:from], e.graphemes[to:]...)
	e.cursor = from
}

func (e *Editor) clear() {
	e.graphemes = nil
	e.cursor = 0
	e.histIndex = len(e.history)
}

func (e *Editor) submit() EditResult {
	line := e.Buffer()
	if line != "" {
		e.pushHistory(line)
	}
	e.clear()
	return EditResult{Result: Submit, Line: line}
}

func (e *Editor) pushHistory(line string) {
	// De-duplicate: a repeat of the most recent entry doesn't grow the
	// list, matching typical shell-history behavior.
	if len(e.history) > 0 && e.history[len(e.history)-1] == line {
		return
	}
	e.history = append(e.history, line)
	if len(e.history) > MaxHistory {
		e.history = e.history[len(e.history)-MaxHistory:]
	}
}

func (e *Editor) historyPrev() {
	if len(e.history) == 0 || e.histIndex == 0 {
		return
	}
	if e.histIndex == len(e.history) {
		e.saved = e.Buffer()
	}
	e.histIndex--
	e.setBuffer(e.history[e.histIndex])
}

func (e *Editor) historyNext() {
	if e.histIndex >= len(e.history) {
		return
	}
	e.histIndex++
	if e.histIndex == len(e.history) {
		e.setBuffer(e.saved)
		return
	}
	e.setBuffer(e.history[e.histIndex])
}

func (e *Editor) setBuffer(s string) {
	e.graphemes = term.Graphemes(s)
	e.cursor = len(e.graphemes)
}

func (e *Editor) prevWordBoundary() int {
	i := e.cursor
	for i > 0 && isSpace(e.graphemes[i-1]) {
		i--
	}
	for i > 0 && !isSpace(e.graphemes[i-1]) {
		i--
	}
	return i
}

func (e *Editor) nextWordBoundary() int {
	i := e.cursor
	n := len(e.graphemes)
	for i < n && isSpace(e.graphemes[i]) {
		i++
	}
	for i < n && !isSpace(e.graphemes[i]) {
		i++
	}
	return i
}

func isSpace(g string) bool {
	return g == " " || g == "\t"
}

func (e *Editor) complete() EditResult {
	if e.completer == nil {
		return EditResult{Result: None}
	}
	candidates, from := e.completer(e.Buffer(), e.cursor)
	if len(candidates) == 0 {
		return EditResult{Result: None}
	}
	if len(candidates) == 1 {
		e.replaceFrom(from, candidates[0])
		return EditResult{Result: Redraw}
	}
	prefix := commonPrefix(candidates)
	if prefix != "" {
		e.replaceFrom(from, prefix)
	}
	return EditResult{Result: Redraw, Candidates: candidates}
}

// replaceFrom swaps graphemes[from:cursor] for replacement, leaving the
// cursor immediately after it.
func (e *Editor) replaceFrom(from int, replacement string) {
	if from < 0 {
		from = 0
	}
	if from > e.cursor {
		from = e.cursor
	}
	repl := term.Graphemes(replacement)
	tail := append([]string(nil), e.graphemes[e.cursor:]...)
	e.graphemes = append(append(e.graphemes[:from:from], repl...), tail...)
	e.cursor = from + len(repl)
}

func commonPrefix(candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	prefix := candidates[0]
	for _, c := range candidates[1:] {
		prefix = longestCommonPrefix(prefix, c)
		if prefix == "" {
			break
		}
	}
	return prefix
}

func longestCommonPrefix(a, b string) string {
	ag, bg := term.Graphemes(a), term.Graphemes(b)
	n := len(ag)
	if len(bg) < n {
		n = len(bg)
	}
	i := 0
	for i < n && ag[i] == bg[i] {
		i++
	}
	return strings.Join(ag[:i], "")
}
