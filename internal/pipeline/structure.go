package pipeline

import (
	"regexp"
	"strings"

	"resumescreen/internal/errors"
)

var (
	bulletPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\s*[-•●▪◦]`),
		regexp.MustCompile(`^\s*\d+\.`),
		regexp.MustCompile(`^\s*[a-zA-Z]\)`),
	}
	headingKeywords = []string{"experience", "education", "skills", "projects", "certifications", "summary"}
	bulletGlyphs    = strings.NewReplacer("•", "-", "●", "-", "▪", "-", "◦", "-")
)

// classifyLine returns the block kind of line, or "" for a blank line.
func classifyLine(line string) BlockKind {
	line = strings.TrimSpace(line)
	if line == "" {
		return ""
	}
	for _, p := range bulletPatterns {
		if p.MatchString(line) {
			return BlockBullet
		}
	}
	lower := strings.ToLower(line)
	for _, kw := range headingKeywords {
		if strings.Contains(lower, kw) && len(strings.Fields(line)) <= 4 {
			return BlockHeading
		}
	}
	return BlockParagraph
}

// AnalyzeStructure splits text into bullet, heading and paragraph blocks and
// derives layout signals over the non-empty lines.
func AnalyzeStructure(text string) ([]Block, LayoutSignals, error) {
	if text == "" {
		return nil, LayoutSignals{}, errors.NewPipelineError(errors.ErrCodeStructure, "No raw text available", nil)
	}

	var blocks []Block
	bullets, paragraphs := 0, 0
	for _, line := range strings.Split(text, "\n") {
		line = bulletGlyphs.Replace(line)
		kind := classifyLine(line)
		switch kind {
		case "":
			continue
		case BlockBullet:
			bullets++
		case BlockParagraph:
			paragraphs++
		}
		blocks = append(blocks, Block{Kind: kind, Text: strings.TrimSpace(line)})
	}

	if len(blocks) == 0 {
		return nil, LayoutSignals{}, errors.NewPipelineError(errors.ErrCodeStructure, "Resume has no usable lines", nil)
	}

	return blocks, LayoutSignals{
		TotalBlocks:    len(blocks),
		BulletRatio:    round2(ratio(bullets, len(blocks))),
		ParagraphRatio: round2(ratio(paragraphs, len(blocks))),
		LowStructure:   len(blocks) < 5,
	}, nil
}
