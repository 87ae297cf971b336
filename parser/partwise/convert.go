package partwise

import (
	"fmt"

	"github.com/Adam-Roller/mxl-2-solo/gjm"
)

// buildNotation converts a fully parsed score into a GJM notation. Header
// time-signature, tempo and measure-count data always come from the first
// part's first staff. Parts flatten into tracks in source order, one track
// per staff, capped at the GJM track limit; staves beyond the cap are
// dropped without error.
func (p *Parser) buildNotation(score *Score) (*gjm.Notation, error) {
	if len(score.Parts) == 0 || len(score.Parts[0].Staves) == 0 || len(score.Parts[0].Staves[0]) == 0 {
		return nil, fmt.Errorf("score contains no measures")
	}
	lead := score.Parts[0].Staves[0]

	notation := &gjm.Notation{
		BeatsPerMeasure:  lead[0].Attributes.Beats,
		BeatDurationType: lead[0].Attributes.BeatType,
		MeasureCount:     len(lead),
	}

	// The zero sentinel never matches a real tempo, so the map always gets
	// its seed entry at measure 0.
	lastTempo := 0
	for i := range lead {
		if lead[i].Attributes.Tempo != lastTempo {
			lastTempo = lead[i].Attributes.Tempo
			notation.Tempos = append(notation.Tempos, gjm.TempoChange{Measure: i, BPM: lastTempo})
		}
	}

	trackCount := 0
	for _, part := range score.Parts {
		for staff, measures := range part.Staves {
			if trackCount < gjm.MaxTrackCount {
				notation.Tracks = append(notation.Tracks, buildTrack(measures, staff+1))
			}
			trackCount++
		}
	}
	if trackCount > gjm.MaxTrackCount {
		p.logger.Printf("Score contains %d staves, output keeps the first %d", trackCount, gjm.MaxTrackCount)
	}

	return notation, nil
}

// buildTrack converts one staff's measure sequence into a GJM track. The
// change maps are sparse: an entry appears at measure 0 and then at every
// measure whose value differs from its predecessor's.
func buildTrack(measures []Measure, staff int) gjm.Track {
	var track gjm.Track
	if len(measures) == 0 {
		return track
	}

	lastKey := measures[0].Attributes.Key
	track.KeySignatures = append(track.KeySignatures, gjm.KeyChange{Measure: 0, Fifths: lastKey})
	lastClef := measures[0].Attributes.ClefForStaff(staff)
	track.Clefs = append(track.Clefs, gjm.ClefChange{Measure: 0, Clef: lastClef.GJMType()})
	lastVolume := measures[0].Attributes.Volume
	track.Volumes = append(track.Volumes, gjm.VolumeChange{Measure: 0, Volume: lastVolume})

	for i := range measures {
		attrs := &measures[i].Attributes
		if attrs.Key != lastKey {
			lastKey = attrs.Key
			track.KeySignatures = append(track.KeySignatures, gjm.KeyChange{Measure: i, Fifths: lastKey})
		}
		if clef := attrs.ClefForStaff(staff); clef != lastClef {
			lastClef = clef
			track.Clefs = append(track.Clefs, gjm.ClefChange{Measure: i, Clef: lastClef.GJMType()})
		}
		if attrs.Volume != lastVolume {
			lastVolume = attrs.Volume
			track.Volumes = append(track.Volumes, gjm.VolumeChange{Measure: i, Volume: lastVolume})
		}
	}

	for i := range measures {
		track.Measures = append(track.Measures, buildMeasure(&measures[i]))
	}
	return track
}

func buildMeasure(measure *Measure) gjm.Measure {
	out := gjm.Measure{DurationStampMax: measure.durationStampMax()}
	ratio := measure.durationRatio()
	stamp := 0
	for i := range measure.Chords {
		chord := &measure.Chords[i]
		pack := gjm.NotePack{
			IsRest:       chord.IsRest,
			Dotted:       chord.Dotted,
			Triplet:      chord.Triplet,
			DurationType: chord.Type.DurationType(),
			Arpeggio:     chord.Arpeggiate,
			StampIndex:   stamp,
		}
		switch {
		case chord.SlurStart && chord.SlurStop:
			pack.Tie = gjm.TieBoth
		case chord.SlurStart:
			pack.Tie = gjm.TieStart
		case chord.SlurStop:
			pack.Tie = gjm.TieEnd
		}
		// Rests report no pitch signs even when the source attached a
		// display pitch to them.
		if !chord.IsRest {
			for _, note := range chord.Notes {
				pack.PitchSigns = append(pack.PitchSigns, gjm.PitchSign{
					PitchIndex:        note.PitchIndex,
					NumberedSign:      note.NumberedSign(),
					PlayingPitchIndex: note.PitchIndex + note.Alter,
					Alterant:          note.AlterantType(),
				})
			}
		}
		stamp += chord.gjmDuration(ratio)
		out.NotePacks = append(out.NotePacks, pack)
	}
	return out
}
