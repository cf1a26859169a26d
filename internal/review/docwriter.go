package review

import (
	"regexp"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
)

const (
	fontName = "SimSun"
	fontSize = 12

	docHeading = "AI评价："
)

// markupPattern matches the markdown control characters the model tends
// to sprinkle into replies; they are stripped before insertion.
var markupPattern = regexp.MustCompile(`[#*]`)

func cleanMarkup(s string) string {
	return markupPattern.ReplaceAllString(s, "")
}

// writeReviewDoc renders the model's reply as a plain-paragraph docx file.
func writeReviewDoc(body, outputPath string) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return err
	}

	addRun(doc.AddParagraph(""), docHeading, true)
	for _, line := range strings.Split(cleanMarkup(body), "\n") {
		line = strings.TrimRight(line, " \t")
		addRun(doc.AddParagraph(""), line, false)
	}

	return doc.SaveTo(outputPath)
}

func addRun(p *docx.Paragraph, text string, bold bool) {
	run := p.AddText(text).Font(fontName).Size(fontSize).Color("000000")
	if bold {
		run.Bold(true)
	}
}
