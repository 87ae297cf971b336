package gjm

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// writer wraps an io.Writer with tab indentation and a sticky error, so the
// encoding routines can emit line after line without checking each write.
type writer struct {
	w   *bufio.Writer
	err error
}

func (wr *writer) linef(level int, format string, args ...any) {
	if wr.err != nil {
		return
	}
	_, wr.err = fmt.Fprintf(wr.w, "%s%s\n", strings.Repeat("\t", level), fmt.Sprintf(format, args...))
}

// Encode writes the notation in the GJM textual format. The format is a
// Lua-table-like configuration file; indentation, trailing commas and the
// spacing quirks around some '=' signs are all part of the surface the
// consumer expects, so they are reproduced exactly.
func (n *Notation) Encode(w io.Writer) error {
	wr := &writer{w: bufio.NewWriter(w)}

	wr.linef(0, "Version ='%s'", FileVersion)

	wr.linef(0, "Notation = {")
	wr.linef(1, "Version ='%s',", FileVersion)
	wr.linef(1, "NotationName = 'Unnamed',")
	wr.linef(1, "NotationAuther = 'UnknownAuthor',")
	wr.linef(1, "NotationTranslater = 'UnknownTranslator',")
	wr.linef(1, "NotationCreator = 'Dwarfed',")
	wr.linef(1, "Volume = 1,")
	wr.linef(1, "BeatsPerMeasure = %d,", n.BeatsPerMeasure)
	wr.linef(1, "BeatDurationType = '%d',", n.BeatDurationType)
	wr.linef(1, "NumberedKeySignature = 'C',")
	wr.linef(1, "MeasureBeatsPerMinuteMap = {")
	for _, t := range n.Tempos {
		wr.linef(2, "{ %d, %d },", t.Measure, t.BPM)
	}
	wr.linef(1, "},")
	wr.linef(1, "MeasureAlignedCount = %d,", n.MeasureCount)
	wr.linef(0, "}")

	wr.linef(0, "Notation.RegularTracks = {")
	for i, track := range n.Tracks {
		encodeTrack(wr, i, &track)
	}
	if wr.err == nil {
		_, wr.err = wr.w.WriteString("}")
	}

	if wr.err != nil {
		return wr.err
	}
	return wr.w.Flush()
}

func encodeTrack(wr *writer, idx int, track *Track) {
	wr.linef(1, "[%d] = {", idx)

	wr.linef(2, "MeasureKeySignatureMap = {")
	for _, k := range track.KeySignatures {
		wr.linef(3, "{ %d, %d },", k.Measure, k.Fifths)
	}
	wr.linef(2, "},")

	wr.linef(2, "MeasureClefTypeMap = {")
	for _, c := range track.Clefs {
		wr.linef(3, "{ %d, '%s' },", c.Measure, c.Clef)
	}
	wr.linef(2, "},")

	// Instrument and volume curve are fixed; GJM requires the maps but the
	// source format has nothing to derive them from.
	wr.linef(2, "MeasureInstrumentTypeMap = {")
	wr.linef(3, "{ 0, 'Piano' },")
	wr.linef(2, "},")
	wr.linef(2, "MeasureVolumeCurveMap = {")
	wr.linef(3, "{ 0, {0.8, 0.7, 0.5, 0.5, 0.7, 0.6, 0.5, 0.4} },")
	wr.linef(2, "},")

	wr.linef(2, "MeasureVolumeMap = {")
	for _, v := range track.Volumes {
		wr.linef(3, "{ %d, %d },", v.Measure, v.Volume)
	}
	wr.linef(2, "},")

	for i, measure := range track.Measures {
		wr.linef(2, "[%d] = {", i)
		wr.linef(3, "DurationStampMax = %d,", measure.DurationStampMax)
		wr.linef(3, "NotePackCount = %d,", len(measure.NotePacks))
		for j, pack := range measure.NotePacks {
			encodeNotePack(wr, j, &pack)
		}
		wr.linef(2, "},")
	}

	wr.linef(1, "},")
}

func encodeNotePack(wr *writer, idx int, pack *NotePack) {
	wr.linef(3, "[%d] = {", idx)

	// Boolean and enum fields are present only when set; an absent key
	// reads as false/none on the consumer side.
	if pack.IsRest {
		wr.linef(4, "IsRest = true,")
	}
	if pack.Tie != "" {
		wr.linef(4, "TieType ='%s',", pack.Tie)
	}
	if pack.Dotted {
		wr.linef(4, "IsDotted = true,")
	}
	if pack.Triplet {
		wr.linef(4, "Triplet = true,")
	}
	wr.linef(4, "DurationType = '%s',", pack.DurationType)
	if pack.Arpeggio {
		wr.linef(4, "ArpeggioMode ='Upward',")
	}
	wr.linef(4, "StampIndex = %d,", pack.StampIndex)
	wr.linef(4, "ClassicPitchSignCount = %d,", len(pack.PitchSigns))

	if len(pack.PitchSigns) > 0 {
		wr.linef(4, "ClassicPitchSign = {")
		for _, sign := range pack.PitchSigns {
			// The pitch index doubles as the entry's array key.
			wr.linef(5, "[%d] = { NumberedSign = %d, PlayingPitchIndex = %d, AlterantType = '%s', RawAlterantType = '%s', },",
				sign.PitchIndex, sign.NumberedSign, sign.PlayingPitchIndex, sign.Alterant, sign.Alterant)
		}
		wr.linef(4, "},")
	}

	wr.linef(3, "},")
}
