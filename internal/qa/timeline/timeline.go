// Package timeline normalizes human-entered evidence time expressions into
// canonical HH:MM:SS offsets and plans clip windows from them.
package timeline

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultPointWindowSeconds is the fixed clip length for point evidence.
const DefaultPointWindowSeconds = 10

// Window is one planned clip against a source video.
type Window struct {
	Start    string // HH:MM:SS offset from video start
	End      string // HH:MM:SS, always Start + Duration
	Duration int    // seconds
	IsPoint  bool
}

// NormalizeToken canonicalizes a single time token into HH:MM:SS.
//   - HH:MM:SS passes through zero-padded
//   - a two-part token is MM:SS relative to video start
//   - a bare integer is seconds since start
//
// Unparseable tokens are returned unchanged; callers skip them downstream.
func NormalizeToken(token string) string {
	token = strings.TrimSpace(token)
	parts := strings.Split(token, ":")
	switch len(parts) {
	case 3:
		h, herr := strconv.Atoi(strings.TrimSpace(parts[0]))
		m, merr := strconv.Atoi(strings.TrimSpace(parts[1]))
		s, serr := strconv.Atoi(strings.TrimSpace(parts[2]))
		if herr != nil || merr != nil || serr != nil {
			return token
		}
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	case 2:
		m, merr := strconv.Atoi(strings.TrimSpace(parts[0]))
		s, serr := strconv.Atoi(strings.TrimSpace(parts[1]))
		if merr != nil || serr != nil {
			return token
		}
		return fmt.Sprintf("00:%02d:%02d", m, s)
	case 1:
		if sec, err := strconv.Atoi(strings.TrimSpace(parts[0])); err == nil && sec >= 0 {
			return FormatSeconds(sec)
		}
	}
	return token
}

// ParseRange splits an evidence expression into (start, end, isPoint).
// Ranges use a hyphen or en-dash; a leading "~" or a single token marks a
// point. Both ends are normalized via NormalizeToken.
func ParseRange(expr string) (start, end string, isPoint bool) {
	expr = strings.TrimSpace(expr)
	expr = strings.ReplaceAll(expr, "–", "-") // en-dash
	if strings.HasPrefix(expr, "~") {
		t := NormalizeToken(strings.TrimPrefix(expr, "~"))
		return t, t, true
	}
	if i := strings.Index(expr, "-"); i >= 0 {
		return NormalizeToken(expr[:i]), NormalizeToken(expr[i+1:]), false
	}
	t := NormalizeToken(expr)
	return t, t, true
}

// ToSeconds parses an HH:MM:SS token. Returns an error for anything that is
// not three colon-separated integers.
func ToSeconds(t string) (int, error) {
	parts := strings.Split(t, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("not an HH:MM:SS token: %q", t)
	}
	h, herr := strconv.Atoi(parts[0])
	m, merr := strconv.Atoi(parts[1])
	s, serr := strconv.Atoi(parts[2])
	if herr != nil || merr != nil || serr != nil {
		return 0, fmt.Errorf("not an HH:MM:SS token: %q", t)
	}
	return h*3600 + m*60 + s, nil
}

// FormatSeconds renders a non-negative second count as HH:MM:SS.
func FormatSeconds(sec int) string {
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, (sec%3600)/60, sec%60)
}

// PlanWindow turns one evidence expression into a clip window. A point
// window runs minSeconds forward from the point. A range keeps its declared
// duration unless shorter than minSeconds, in which case the end is extended
// forward; the start never moves backward. ok is false for expressions whose
// start (or end) cannot be resolved to an offset.
func PlanWindow(expr string, minSeconds int) (Window, bool) {
	if minSeconds < 1 {
		minSeconds = 1
	}
	start, end, isPoint := ParseRange(expr)
	startSec, err := ToSeconds(start)
	if err != nil {
		return Window{}, false
	}

	dur := minSeconds
	if !isPoint {
		endSec, err := ToSeconds(end)
		if err != nil {
			return Window{}, false
		}
		declared := endSec - startSec
		if declared < 0 {
			declared = 0
		}
		if declared > minSeconds {
			dur = declared
		}
	}

	return Window{
		Start:    start,
		End:      FormatSeconds(startSec + dur),
		Duration: dur,
		IsPoint:  isPoint,
	}, true
}

// PlanWindows plans windows for a batch of expressions. Entries are
// independent: malformed tokens are skipped, never fatal for the batch.
func PlanWindows(exprs []string, minSeconds int) []Window {
	var out []Window
	for _, e := range exprs {
		if w, ok := PlanWindow(e, minSeconds); ok {
			out = append(out, w)
		}
	}
	return out
}
