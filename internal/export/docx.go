package export

import (
	"regexp"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"

	"github.com/nguyentantai21042004/video-transcriber/internal/domain"
	"github.com/nguyentantai21042004/video-transcriber/internal/language"
)

const (
	fontName = "Times New Roman"
	fontSize = 13
)

var (
	reHeading  = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	reBold     = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reBullet   = regexp.MustCompile(`^[\-\*]\s+(.+)$`)
	reNumbered = regexp.MustCompile(`^(\d+)[.)]\s+(.+)$`)
)

// WriteDocx saves the transcript as a Word document at outputPath: a title,
// the language line and one paragraph per segment prefixed with its stamp.
func WriteDocx(outputPath, title string, t domain.Transcript) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return err
	}

	addStyledRun(doc.AddParagraph(""), title, true, 16)
	if t.Language != "" {
		p := doc.AddParagraph("")
		p.AddText("Language: " + language.DisplayName(t.Language)).Font(fontName).Size(fontSize).Color("555555")
	}
	doc.AddParagraph("")

	if len(t.Segments) == 0 {
		for _, para := range strings.Split(t.Text, "\n") {
			if para = strings.TrimSpace(para); para != "" {
				doc.AddParagraph("").AddText(para).Font(fontName).Size(fontSize).Color("000000")
			}
		}
		return doc.SaveTo(outputPath)
	}

	for _, seg := range t.Segments {
		p := doc.AddParagraph("")
		p.AddText(Stamp(seg.Start) + " ").Font(fontName).Size(fontSize).Color("555555").Bold(true)
		p.AddText(strings.TrimSpace(seg.Text)).Font(fontName).Size(fontSize).Color("000000")
	}
	return doc.SaveTo(outputPath)
}

// WriteMarkdownDocx converts markdown text to a styled docx file.
func WriteMarkdownDocx(outputPath, title, markdown string) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return err
	}

	addStyledRun(doc.AddParagraph(""), title, true, 16)

	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed == "---" {
			continue
		}

		if m := reHeading.FindStringSubmatch(trimmed); m != nil {
			addStyledRun(doc.AddParagraph(""), m[2], true, headingSize(len(m[1])))
			continue
		}

		if marker, body, ok := listItem(trimmed); ok {
			p := doc.AddParagraph("")
			p.AddText(marker).Font(fontName).Size(fontSize).Color("000000").Bold(true)
			addRichText(p, body)
			continue
		}

		addRichText(doc.AddParagraph(""), trimmed)
	}

	return doc.SaveTo(outputPath)
}

// listItem splits a markdown list line into its rendered marker and body.
// Bullets render as "• " and numbered items keep their number as "N. ".
func listItem(line string) (marker, body string, ok bool) {
	if m := reBullet.FindStringSubmatch(line); m != nil {
		return "• ", m[1], true
	}
	if m := reNumbered.FindStringSubmatch(line); m != nil {
		return m[1] + ". ", m[2], true
	}
	return "", "", false
}

func headingSize(level int) uint64 {
	switch level {
	case 1:
		return 16
	case 2:
		return 15
	case 3:
		return 14
	default:
		return fontSize
	}
}

func addStyledRun(p *docx.Paragraph, text string, bold bool, size uint64) {
	text = cleanMarkdownInline(text)
	run := p.AddText(text).Font(fontName).Size(size).Color("000000")
	if bold {
		run.Bold(true)
	}
}

func addRichText(p *docx.Paragraph, text string) {
	parts := reBold.Split(text, -1)
	matches := reBold.FindAllStringSubmatch(text, -1)

	for i, part := range parts {
		if part != "" {
			p.AddText(cleanMarkdownInline(part)).Font(fontName).Size(fontSize).Color("000000")
		}
		if i < len(matches) {
			p.AddText(cleanMarkdownInline(matches[i][1])).Font(fontName).Size(fontSize).Color("000000").Bold(true)
		}
	}
}

func cleanMarkdownInline(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	s = strings.ReplaceAll(s, "`", "")
	return s
}
