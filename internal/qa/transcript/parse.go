package transcript

import (
	"regexp"
	"strings"
)

// TextSection is one video block parsed out of a plain-text day transcript.
type TextSection struct {
	VideoID  string
	Students []string
}

var (
	sectionSplitRE   = regexp.MustCompile(`\n=+\n`)
	sectionVideoRE   = regexp.MustCompile(`Video\s+\d+:\s*([\w-]+)`)
	studentsBlockRE  = regexp.MustCompile(`(?i)Students:\s*\n([^\n]+)`)
	studentsInlineRE = regexp.MustCompile(`(?i)Students:\s*([^\n.]+)`)
	noStudentsRE     = regexp.MustCompile(`(?i)no\s+students\s+are\s+present`)
)

// ParseDayText extracts the per-video sections of a text day transcript.
// Each block starts with a "Video N: <id>" header; the outfit labels come
// from the "Students:" line, either on the following line or inline.
func ParseDayText(text string) []TextSection {
	var sections []TextSection
	for _, block := range sectionSplitRE.Split(text, -1) {
		m := sectionVideoRE.FindStringSubmatch(block)
		if m == nil {
			continue
		}
		sec := TextSection{VideoID: strings.TrimSpace(m[1])}
		if sm := studentsBlockRE.FindStringSubmatch(block); sm != nil {
			sec.Students = splitStudents(sm[1])
		} else if sm := studentsInlineRE.FindStringSubmatch(block); sm != nil {
			sec.Students = splitStudents(sm[1])
		}
		sections = append(sections, sec)
	}
	return sections
}

func splitStudents(line string) []string {
	line = strings.TrimSpace(line)
	if line == "" || noStudentsRE.MatchString(line) {
		return nil
	}
	var out []string
	for _, part := range strings.Split(line, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
