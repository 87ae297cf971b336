package partwise

import (
	"encoding/xml"
	"slices"
	"strconv"

	"github.com/Adam-Roller/mxl-2-solo/gjm"
)

// Clef enumerates the clef signs the converter understands.
type Clef int

const (
	GClef Clef = iota
	FClef
)

// GJMType returns the GJM clef name (clef sign plus staff line).
func (c Clef) GJMType() gjm.ClefType {
	if c == FClef {
		return gjm.ClefF
	}
	return gjm.ClefG
}

// Attributes is the measure-level state a part carries forward. All scalar
// fields are shared by every staff of the part: MusicXML updates them once
// and the update applies to all staves, so storing them once makes that
// invariant structural. Only the clef is per staff.
type Attributes struct {
	// Number of divisions per beat.
	Divisions int
	// Volume out of 100.
	Volume int
	// Beats per minute.
	Tempo int
	// The major key as a shift from C major in fifths, i.e. B-flat major
	// has Key = -2.
	Key int
	// The number of beats per measure (the top of the time signature).
	Beats int
	// What type of note counts as a beat (the bottom of the time signature).
	BeatType int
	// Per-staff clefs; index 0 is staff 1. The length is the staff count.
	Clefs []Clef
}

func defaultAttributes() Attributes {
	return Attributes{
		Divisions: 24,
		Volume:    80,
		Tempo:     108,
		Key:       0,
		Beats:     4,
		BeatType:  4,
		Clefs:     []Clef{GClef},
	}
}

// Clone returns a copy that shares no state with the receiver.
func (a Attributes) Clone() Attributes {
	b := a
	b.Clefs = slices.Clone(a.Clefs)
	return b
}

// StaffCount reports how many staves these attributes describe.
func (a Attributes) StaffCount() int {
	return len(a.Clefs)
}

// growStaves extends the per-staff state to n staves, cloning staff 1's
// clef into the new ones. The staff count never shrinks.
func (a *Attributes) growStaves(n int) {
	for len(a.Clefs) < n {
		a.Clefs = append(a.Clefs, a.Clefs[0])
	}
}

// ClefForStaff returns the clef of a 1-based staff number, falling back to
// staff 1 for out-of-range requests.
func (a Attributes) ClefForStaff(staff int) Clef {
	if staff >= 1 && staff <= len(a.Clefs) {
		return a.Clefs[staff-1]
	}
	return a.Clefs[0]
}

// parseAttributes parses an <attributes> subtree on top of the carried-in
// baseline. Divisions, key and time signature updates apply to every staff;
// a <staves> declaration grows (never shrinks) the per-staff state; clef
// updates target the staff named by their number attribute.
func (p *Parser) parseAttributes(base Attributes) (Attributes, error) {
	attrs := base.Clone()
	for {
		tok, err := p.decoder.Token()
		if err != nil {
			return attrs, readErr(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "divisions":
				v, err := p.intValue("divisions")
				if err != nil {
					return attrs, err
				}
				if v <= 0 {
					return attrs, p.fatalf("divisions must be positive, got %d", v)
				}
				attrs.Divisions = v
			case "key":
				if err := p.parseKey(&attrs); err != nil {
					return attrs, err
				}
			case "time":
				if err := p.parseTime(&attrs); err != nil {
					return attrs, err
				}
			case "staves":
				n, err := p.intValue("staves")
				if err != nil {
					return attrs, err
				}
				attrs.growStaves(n)
			case "clef":
				if err := p.parseClef(t, &attrs); err != nil {
					return attrs, err
				}
			default:
				if err := p.skip(); err != nil {
					return attrs, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "attributes" {
				return attrs, nil
			}
		}
	}
}

func (p *Parser) parseKey(attrs *Attributes) error {
	for {
		tok, err := p.decoder.Token()
		if err != nil {
			return readErr(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "fifths" {
				if attrs.Key, err = p.intValue("fifths"); err != nil {
					return err
				}
			} else if err := p.skip(); err != nil {
				return err
			}
		case xml.EndElement:
			if t.Name.Local == "key" {
				return nil
			}
		}
	}
}

func (p *Parser) parseTime(attrs *Attributes) error {
	for {
		tok, err := p.decoder.Token()
		if err != nil {
			return readErr(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "beats":
				v, err := p.intValue("beats")
				if err != nil {
					return err
				}
				if v <= 0 {
					return p.fatalf("beats must be positive, got %d", v)
				}
				attrs.Beats = v
			case "beat-type":
				v, err := p.intValue("beat-type")
				if err != nil {
					return err
				}
				if v <= 0 {
					return p.fatalf("beat-type must be positive, got %d", v)
				}
				attrs.BeatType = v
			default:
				if err := p.skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "time" {
				return nil
			}
		}
	}
}

func (p *Parser) parseClef(start xml.StartElement, attrs *Attributes) error {
	// Assume the clef refers to the first staff unless otherwise specified;
	// single-staff parts carry no number attribute.
	staff := 1
	if v := attrValue(start, "number"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p.fatalf("invalid clef number attribute: %q", v)
		}
		staff = n
	}
	for {
		tok, err := p.decoder.Token()
		if err != nil {
			return readErr(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "sign" {
				sign, err := p.textValue("sign")
				if err != nil {
					return err
				}
				var clef Clef
				switch sign {
				case "G":
					clef = GClef
				case "F":
					clef = FClef
				default:
					p.addWarning("unrecognized clef value %q", sign)
					continue
				}
				if staff < 1 || staff > attrs.StaffCount() {
					p.addWarning("clef for staff %d but only %d staves are declared", staff, attrs.StaffCount())
					continue
				}
				attrs.Clefs[staff-1] = clef
			} else if err := p.skip(); err != nil {
				return err
			}
		case xml.EndElement:
			if t.Name.Local == "clef" {
				return nil
			}
		}
	}
}
