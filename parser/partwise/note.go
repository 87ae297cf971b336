package partwise

import (
	"encoding/xml"

	"github.com/Adam-Roller/mxl-2-solo/gjm"
)

// NoteType enumerates the MusicXML note length names.
type NoteType int

const (
	TenTwentyFourth NoteType = iota
	FiveTwelfth
	TwoFiftySixth
	OneTwentyEighth
	SixtyFourth
	// Nothing shorter than ThirtySecond is representable in GJM.
	ThirtySecond
	Sixteenth
	Eighth
	Quarter
	Half
	Whole
	// Nothing longer than Whole is representable in GJM.
	Breve
	Long
	Maxima
)

var noteTypeNames = map[string]NoteType{
	"1024th":  TenTwentyFourth,
	"512th":   FiveTwelfth,
	"256th":   TwoFiftySixth,
	"128th":   OneTwentyEighth,
	"64th":    SixtyFourth,
	"32nd":    ThirtySecond,
	"16th":    Sixteenth,
	"eighth":  Eighth,
	"quarter": Quarter,
	"half":    Half,
	"whole":   Whole,
	"breve":   Breve,
	"long":    Long,
	"maxima":  Maxima,
}

// DurationType returns the GJM name for the note length, or "" for lengths
// GJM cannot represent.
func (t NoteType) DurationType() gjm.DurationType {
	switch t {
	case ThirtySecond:
		return gjm.The32nd
	case Sixteenth:
		return gjm.The16th
	case Eighth:
		return gjm.Eighth
	case Quarter:
		return gjm.Quarter
	case Half:
		return gjm.Half
	case Whole:
		return gjm.Whole
	default:
		return ""
	}
}

// A representation of a single note. Built wholly from one <note> subtree
// and never modified afterwards.
type Note struct {
	// The numeric note value, increasing by one each half step, with the
	// A-flat-relative numbering GJM expects (index 13 is A1).
	PitchIndex int
	// Note alteration in half steps, i.e. a flat note has Alter = -1.
	Alter int
	// Duration of the note in divisions.
	Duration int
	// Note duration type as an enum.
	Type NoteType
	// In multi-staff parts Staff tracks which staff each note sits on (1-based).
	Staff int
	// Whether the note is a rest or not.
	IsRest bool
	// Whether the note is dotted.
	Dotted bool
	// Whether the note is arpeggiated.
	Arpeggiate bool
	// Whether the note is the start of a triplet.
	Triplet bool
	// Whether a slur/tie starts on this note.
	SlurStart bool
	// Whether a slur/tie stops on this note.
	SlurStop bool
}

func newNote() Note {
	return Note{
		Type:  Quarter,
		Staff: 1,
	}
}

// Per-letter offsets: how many half steps from A flat each letter name is.
// The numbering is deliberately non-contiguous; GJM counts pitches this way.
var pitchOffsets = map[string]int{
	"A": 13,
	"B": 15,
	"C": 4,
	"D": 6,
	"E": 8,
	"F": 9,
	"G": 11,
}

// pitchIndex converts a MusicXML step and octave into a pitch index.
// Each octave spans 12 indexes and the numbering starts at octave one, with
// octave zero sharing the bottom range. Unknown letters contribute no offset.
func pitchIndex(step string, octave int) int {
	index := 0
	if octave > 0 {
		index = (octave - 1) * 12
	}
	return index + pitchOffsets[step]
}

var numberedSigns = map[int]int{
	1:  1,
	3:  2,
	4:  3,
	6:  4,
	8:  5,
	9:  6,
	11: 7,
}

// NumberedSign returns the 1-7 scale degree numeral for the note's pitch
// class. Residues off the natural positions fall back to 1.
func (n Note) NumberedSign() int {
	if sign, ok := numberedSigns[n.PitchIndex%12]; ok {
		return sign
	}
	return 1
}

// AlterantType names the note's alteration. Alterations beyond a single
// half step saturate to Flat/Sharp; the parser warns when that happens.
func (n Note) AlterantType() string {
	switch {
	case n.Alter < 0:
		return "Flat"
	case n.Alter > 0:
		return "Sharp"
	default:
		return "Natural"
	}
}

// parseNote parses the tags and values within a <note> tag, returning the
// constructed Note and whether it continues a previously started chord.
// Engraving-only children (voice, stem, beam and friends) are skipped.
func (p *Parser) parseNote() (Note, bool, error) {
	note := newNote()
	isChord := false
	for {
		tok, err := p.decoder.Token()
		if err != nil {
			return note, false, readErr(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pitch":
				if err := p.parsePitch(&note); err != nil {
					return note, false, err
				}
			case "chord":
				isChord = true
				if err := p.skip(); err != nil {
					return note, false, err
				}
			case "type":
				s, err := p.textValue("type")
				if err != nil {
					return note, false, err
				}
				// Unknown length strings keep the Quarter default.
				if nt, ok := noteTypeNames[s]; ok {
					note.Type = nt
				}
			case "duration":
				if note.Duration, err = p.intValue("duration"); err != nil {
					return note, false, err
				}
			case "staff":
				if note.Staff, err = p.intValue("staff"); err != nil {
					return note, false, err
				}
			case "rest":
				note.IsRest = true
				if err := p.skip(); err != nil {
					return note, false, err
				}
			case "dot":
				note.Dotted = true
				if err := p.skip(); err != nil {
					return note, false, err
				}
			case "notations":
				if err := p.parseNotations(&note); err != nil {
					return note, false, err
				}
			default:
				if err := p.skip(); err != nil {
					return note, false, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "note" {
				return note, isChord, nil
			}
		}
	}
}

// parsePitch parses a <pitch> subtree into the note's pitch index and
// alteration.
func (p *Parser) parsePitch(note *Note) error {
	var step string
	octave := 0
	for {
		tok, err := p.decoder.Token()
		if err != nil {
			return readErr(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "step":
				if step, err = p.textValue("step"); err != nil {
					return err
				}
			case "octave":
				if octave, err = p.intValue("octave"); err != nil {
					return err
				}
				if octave < 0 {
					return p.fatalf("octave must not be negative, got %d", octave)
				}
			case "alter":
				if note.Alter, err = p.intValue("alter"); err != nil {
					return err
				}
				if note.Alter < -1 || note.Alter > 1 {
					p.addWarning("alteration of %d half steps saturates to a single accidental", note.Alter)
				}
			default:
				if err := p.skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "pitch" {
				note.PitchIndex = pitchIndex(step, octave)
				return nil
			}
		}
	}
}

// parseNotations picks the arpeggio, tuplet and slur/tie markers out of a
// <notations> subtree. Everything else in there is ornaments and articulation
// GJM has no use for.
func (p *Parser) parseNotations(note *Note) error {
	for {
		tok, err := p.decoder.Token()
		if err != nil {
			return readErr(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "arpeggiate":
				note.Arpeggiate = true
			case "tuplet":
				if attrValue(t, "type") == "start" {
					note.Triplet = true
				}
			case "slur", "tied":
				switch attrValue(t, "type") {
				case "start":
					note.SlurStart = true
				case "stop":
					note.SlurStop = true
				}
			}
			if err := p.skip(); err != nil {
				return err
			}
		case xml.EndElement:
			if t.Name.Local == "notations" {
				return nil
			}
		}
	}
}
