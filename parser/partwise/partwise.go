// Package partwise parses MusicXML "partwise" scores and converts them into
// GJM notations. Parsing is a single forward pass over the XML token stream:
// each parse function enters just inside an opening tag and consumes through
// the matching closing tag, so no look-ahead or backtracking ever happens.
package partwise

import (
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/Adam-Roller/mxl-2-solo/gjm"
	"golang.org/x/net/html/charset"
)

// Small struct for non-fatal warnings
type ParseWarning struct {
	Offset  int64 // byte offset into the input where the finding was made
	Message string
}

func (pw ParseWarning) String() string {
	return fmt.Sprintf("offset %d: %s", pw.Offset, pw.Message)
}

type Parser struct {
	decoder *xml.Decoder
	logger  *log.Logger

	// Collect any warnings whilst parsing.
	warnings []ParseWarning

	// Whether or not the parser has already been used.
	// Parsing can only be done once per Parser.
	used bool
}

// NewParser creates a new parser reading a MusicXML document from r.
// Non-UTF-8 exports (Shift_JIS, Latin-1) are handled via the declared
// document encoding.
func NewParser(r io.Reader, logger *log.Logger) *Parser {
	if logger == nil {
		logger = log.Default()
	}
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charset.NewReaderLabel
	return &Parser{
		decoder: decoder,
		logger:  logger,
	}
}

// addWarning adds to the list of warnings encountered when parsing.
func (p *Parser) addWarning(format string, args ...any) {
	p.warnings = append(p.warnings, ParseWarning{
		Offset:  p.decoder.InputOffset(),
		Message: fmt.Sprintf(format, args...),
	})
}

func (p *Parser) fatalf(format string, args ...any) error {
	return fmt.Errorf("offset %d: %s", p.decoder.InputOffset(), fmt.Sprintf(format, args...))
}

// readErr wraps a token-stream error. Event-source errors always abort the
// whole conversion.
func readErr(err error) error {
	return fmt.Errorf("error while reading input: %w", err)
}

// attrValue returns the value of the named attribute of a start element,
// or "" when absent.
func attrValue(se xml.StartElement, name string) string {
	for _, attr := range se.Attr {
		if attr.Name.Local == name {
			return attr.Value
		}
	}
	return ""
}

// textValue parses the character content of a leaf tag. The decoder must be
// positioned just inside the tag named label; on return it sits just past
// the matching closing tag. Nested elements and extra text are warned about
// and skipped.
func (p *Parser) textValue(label string) (string, error) {
	var value string
	for {
		tok, err := p.decoder.Token()
		if err != nil {
			return "", readErr(err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			s := strings.TrimSpace(string(t))
			if s == "" {
				continue
			}
			if value == "" {
				value = s
			} else {
				p.addWarning("extra text inside <%s>", label)
			}
		case xml.StartElement:
			p.addWarning("unexpected <%s> element inside <%s>", t.Name.Local, label)
			if err := p.decoder.Skip(); err != nil {
				return "", readErr(err)
			}
		case xml.EndElement:
			if t.Name.Local == label {
				if value == "" {
					p.addWarning("no text content inside <%s>", label)
				}
				return value, nil
			}
		}
	}
}

// intValue parses the integer content of a leaf tag. A value that is not an
// integer is fatal for the whole conversion.
func (p *Parser) intValue(label string) (int, error) {
	s, err := p.textValue(label)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, p.fatalf("invalid integer in <%s>: %q", label, s)
	}
	return v, nil
}

// skip consumes the remainder of the element whose start tag was just read.
func (p *Parser) skip() error {
	if err := p.decoder.Skip(); err != nil {
		return readErr(err)
	}
	return nil
}

// A collection of parts in source order.
type Score struct {
	Parts []*Part
}

// A Part groups the measures that MusicXML considers one part but that GJM
// must treat as separate tracks, one per staff. Staves[0] is staff 1.
// Staves discovered mid-part start their sequence at that point; earlier
// measures for them do not exist.
type Part struct {
	Staves [][]Measure
}

// Parse consumes the whole document, reports accumulated warnings through
// the logger, and converts the parsed score into a GJM notation.
func (p *Parser) Parse() (*gjm.Notation, error) {
	score, err := p.parseInternal()
	if err != nil {
		return nil, err
	}

	if len(p.warnings) > 0 {
		p.logger.Println("Warnings produced while parsing file:")
		for _, warning := range p.warnings {
			p.logger.Printf("%v\n", warning)
		}
	}

	return p.buildNotation(score)
}

func (p *Parser) parseInternal() (*Score, error) {
	if p.used {
		return nil, fmt.Errorf("parser already used")
	}
	p.used = true

	var score *Score
	for {
		tok, err := p.decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, readErr(err)
		}
		if t, ok := tok.(xml.StartElement); ok && t.Name.Local == "score-partwise" {
			score, err = p.parseScore()
			if err != nil {
				return nil, err
			}
		}
	}

	if score == nil {
		return nil, fmt.Errorf("no <score-partwise> element found in input")
	}
	return score, nil
}

// parseScore consumes everything inside <score-partwise>. Header elements
// such as <part-list> carry no data the conversion needs and fall through.
func (p *Parser) parseScore() (*Score, error) {
	score := &Score{}
	for {
		tok, err := p.decoder.Token()
		if err != nil {
			return nil, readErr(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "part" {
				part, err := p.parsePart()
				if err != nil {
					return nil, err
				}
				score.Parts = append(score.Parts, part)
			}
		case xml.EndElement:
			if t.Name.Local == "score-partwise" {
				return score, nil
			}
		}
	}
}

func (p *Parser) parsePart() (*Part, error) {
	part := &Part{Staves: make([][]Measure, 1)}
	for {
		tok, err := p.decoder.Token()
		if err != nil {
			return nil, readErr(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "measure" {
				// Attributes carry over from one measure to the next.
				attrs := part.carryAttributes()
				measures, err := p.parseMeasure(attrs)
				if err != nil {
					return nil, err
				}
				for len(part.Staves) < len(measures) {
					part.Staves = append(part.Staves, nil)
				}
				for i := range measures {
					part.Staves[i] = append(part.Staves[i], measures[i])
				}
			}
		case xml.EndElement:
			if t.Name.Local == "part" {
				return part, nil
			}
		}
	}
}

// carryAttributes returns the attributes the next measure starts from: the
// trailing snapshot of the previous measure, or defaults for the first one.
func (part *Part) carryAttributes() Attributes {
	if staff := part.Staves[0]; len(staff) > 0 {
		return staff[len(staff)-1].Attributes.Clone()
	}
	return defaultAttributes()
}
