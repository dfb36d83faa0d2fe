package usecase

import (
	"regexp"
	"strings"

	"github.com/producelens/backend/internal/domain"
)

const (
	questionMarker = "Q:"
	answerMarker   = "A:"

	// faqHeaderLines is how many leading lines may carry the update marker.
	faqHeaderLines = 5
)

// updateMarker matches the FAQ's last-updated line in its header.
var updateMarker = regexp.MustCompile(`(?i)(?:last updated|最后更新时间)\s*[:：]?\s*(.*?)\s*(?:-->)?\s*$`)

type faqState int

const (
	awaitingQuestion faqState = iota
	accumulatingAnswer
)

// faqParser is a two-state line parser. Answer lines before the first question
// are ignored; a pair is committed when the next question starts or input ends,
// and only if it collected at least one answer line.
type faqParser struct {
	state    faqState
	question string
	answer   strings.Builder
	hasLines bool
	entries  []domain.FAQEntry
}

func (p *faqParser) line(line string) {
	switch {
	case strings.HasPrefix(line, questionMarker):
		p.commit()
		p.question = strings.TrimSpace(line[len(questionMarker):])
		p.state = accumulatingAnswer
	case strings.HasPrefix(line, answerMarker):
		if p.state != accumulatingAnswer {
			return
		}
		p.answer.WriteString(strings.TrimSpace(line[len(answerMarker):]))
		p.hasLines = true
	}
}

func (p *faqParser) commit() {
	if p.state == accumulatingAnswer && p.question != "" && p.hasLines {
		p.entries = append(p.entries, domain.FAQEntry{
			Question: p.question,
			Answer:   p.answer.String(),
		})
	}
	p.state = awaitingQuestion
	p.question = ""
	p.answer.Reset()
	p.hasLines = false
}

// ParseFAQ parses Q:/A: formatted text into a corpus, reading the optional
// last-updated marker from the first few lines.
func ParseFAQ(text string) domain.FAQCorpus {
	lines := strings.Split(text, "\n")

	p := &faqParser{}
	for _, line := range lines {
		p.line(strings.TrimRight(line, "\r"))
	}
	p.commit()

	entries := p.entries
	if entries == nil {
		entries = []domain.FAQEntry{}
	}

	return domain.FAQCorpus{
		Entries:     entries,
		LastUpdated: parseUpdateMarker(lines),
	}
}

// parseUpdateMarker finds "Last updated: <value>" in the header lines, tolerating
// comment wrappers such as "<!-- ... -->" or a leading "#".
func parseUpdateMarker(lines []string) string {
	for i, line := range lines {
		if i >= faqHeaderLines {
			break
		}
		if m := updateMarker.FindStringSubmatch(strings.TrimRight(line, "\r")); m != nil {
			return m[1]
		}
	}
	return ""
}
