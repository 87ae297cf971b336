package partwise

import (
	"encoding/xml"
	"math"
	"sort"
	"strconv"
)

// A Chord is the set of notes that begin on the same division of the same
// staff. Its representative duration is the shortest of its members, and
// the length/dotted fields follow whichever note supplied that minimum.
type Chord struct {
	// The notes of the chord, in arrival order.
	Notes []Note
	// The division the chord begins on.
	StartTime  int
	Duration   int
	Type       NoteType
	Dotted     bool
	IsRest     bool
	Arpeggiate bool
	Triplet    bool
	SlurStart  bool
	SlurStop   bool
}

func chordFromNote(start int, note Note) Chord {
	return Chord{
		Notes:      []Note{note},
		StartTime:  start,
		Duration:   note.Duration,
		Type:       note.Type,
		Dotted:     note.Dotted,
		IsRest:     note.IsRest,
		Arpeggiate: note.Arpeggiate,
		Triplet:    note.Triplet,
		SlurStart:  note.SlurStart,
		SlurStop:   note.SlurStop,
	}
}

// add joins a note to the chord. MusicXML lets simultaneous notes disagree
// on duration; the chord keeps the minimum duration and the length fields
// of the note that supplied it.
func (c *Chord) add(note Note) {
	if c.Duration > note.Duration {
		c.Duration = note.Duration
		c.Type = note.Type
		c.Dotted = note.Dotted
	}
	c.Notes = append(c.Notes, note)
}

// A Measure is one staff's slice of one source measure: its chords in time
// order plus the attributes snapshot in effect for the whole measure.
type Measure struct {
	Chords     []Chord
	Attributes Attributes
}

// durationRatio is the factor converting this measure's divisions into GJM
// duration stamps. The GJM system only represents length as a power-of-two
// subdivision of a whole note, scaled by the beat count.
func (m *Measure) durationRatio() float64 {
	sourceMax := m.Attributes.Divisions * m.Attributes.Beats
	targetMax := (64 / m.Attributes.BeatType) * m.Attributes.Beats
	return float64(targetMax) / float64(sourceMax)
}

// durationStampMax converts the total consumed duration of the measure into
// the highest valid stamp. Stamps are zero-based offsets, so one is
// subtracted from the converted count, floored at zero.
func (m *Measure) durationStampMax() int {
	consumed := 0
	for i := range m.Chords {
		consumed += m.Chords[i].Duration
	}
	stampMax := int(math.Round(float64(consumed) * m.durationRatio()))
	if stampMax > 0 {
		stampMax--
	}
	return stampMax
}

// gjmDuration converts the chord's duration into stamps.
func (c *Chord) gjmDuration(ratio float64) int {
	return int(math.Round(float64(c.Duration) * ratio))
}

// parseMeasure parses one <measure> subtree and returns one Measure per
// staff. The measure runs a division cursor forward over its notes; chord
// continuation pulls the cursor back to the shortest member, and <backup>
// rewinds it (floored at zero). Notes buffer into a position-keyed map and
// only become chords once the whole measure has been consumed, since the
// chord/backup mechanism allows out-of-order emission.
func (p *Parser) parseMeasure(base Attributes) ([]Measure, error) {
	attrs := base.Clone()
	notes := make(map[int][]Note)
	currentPos := 0
	lastPos := 0

	for {
		tok, err := p.decoder.Token()
		if err != nil {
			return nil, readErr(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "attributes":
				// Reparse from the measure's baseline, not from the current
				// state: a <sound> direction earlier in the same measure is
				// overridden by an attributes element.
				parsed, err := p.parseAttributes(base)
				if err != nil {
					return nil, err
				}
				if parsed.StaffCount() < attrs.StaffCount() {
					parsed.Clefs = append(parsed.Clefs, attrs.Clefs[parsed.StaffCount():]...)
				}
				attrs = parsed
			case "note":
				note, isChord, err := p.parseNote()
				if err != nil {
					return nil, err
				}
				position := currentPos
				if isChord {
					// Chord members share the previous start position. The
					// cursor only moves if this member is shorter than the
					// chord so far; the chord's length is governed by its
					// shortest member.
					position = lastPos
					if note.Duration < currentPos-lastPos {
						currentPos = lastPos + note.Duration
					}
				} else {
					lastPos = currentPos
					currentPos += note.Duration
				}
				notes[position] = append(notes[position], note)
			case "backup":
				if err := p.parseBackup(&currentPos); err != nil {
					return nil, err
				}
			case "direction":
				if err := p.parseDirection(&attrs); err != nil {
					return nil, err
				}
			default:
				if err := p.skip(); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "measure" {
				return p.buildMeasures(attrs, notes), nil
			}
		}
	}
}

// parseBackup rewinds the division cursor. The cursor never goes negative.
func (p *Parser) parseBackup(currentPos *int) error {
	for {
		tok, err := p.decoder.Token()
		if err != nil {
			return readErr(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "duration" {
				d, err := p.intValue("duration")
				if err != nil {
					return err
				}
				if *currentPos >= d {
					*currentPos -= d
				} else {
					*currentPos = 0
				}
			} else if err := p.skip(); err != nil {
				return err
			}
		case xml.EndElement:
			if t.Name.Local == "backup" {
				return nil
			}
		}
	}
}

// parseDirection picks tempo and volume out of a <direction> subtree's
// <sound> element. The rest of direction is visual formatting.
func (p *Parser) parseDirection(attrs *Attributes) error {
	for {
		tok, err := p.decoder.Token()
		if err != nil {
			return readErr(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "sound" {
				if v := attrValue(t, "dynamics"); v != "" {
					f, err := strconv.ParseFloat(v, 64)
					if err != nil {
						return p.fatalf("invalid sound dynamics attribute: %q", v)
					}
					attrs.Volume = int(math.Round(f))
				}
				if v := attrValue(t, "tempo"); v != "" {
					f, err := strconv.ParseFloat(v, 64)
					if err != nil {
						return p.fatalf("invalid sound tempo attribute: %q", v)
					}
					attrs.Tempo = int(math.Round(f))
				}
			}
			if err := p.skip(); err != nil {
				return err
			}
		case xml.EndElement:
			if t.Name.Local == "direction" {
				return nil
			}
		}
	}
}

// buildMeasures groups the buffered notes into chords, first by staff, then
// within a staff by identical start position, and yields one Measure per
// staff. Iterating start positions in ascending order keeps each staff's
// chords time-sorted no matter what order the source emitted notes in.
func (p *Parser) buildMeasures(attrs Attributes, notes map[int][]Note) []Measure {
	staffCount := attrs.StaffCount()
	chords := make([][]Chord, staffCount)

	positions := make([]int, 0, len(notes))
	for start := range notes {
		positions = append(positions, start)
	}
	sort.Ints(positions)

	for _, start := range positions {
		for _, note := range notes[start] {
			if note.Staff < 1 || note.Staff > staffCount {
				p.addWarning("note on staff %d but the measure declares %d staves, dropping it", note.Staff, staffCount)
				continue
			}
			idx := note.Staff - 1
			if n := len(chords[idx]); n > 0 && chords[idx][n-1].StartTime == start {
				chords[idx][n-1].add(note)
			} else {
				chords[idx] = append(chords[idx], chordFromNote(start, note))
			}
		}
	}

	measures := make([]Measure, staffCount)
	for i := range measures {
		measures[i] = Measure{Chords: chords[i], Attributes: attrs}
	}
	return measures
}
