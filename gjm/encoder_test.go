package gjm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func encodeToString(t *testing.T, n *Notation) string {
	t.Helper()
	var buf bytes.Buffer
	if err := n.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return buf.String()
}

func TestEncodeMinimalNotation(t *testing.T) {
	n := &Notation{
		BeatsPerMeasure:  4,
		BeatDurationType: 4,
		Tempos:           []TempoChange{{Measure: 0, BPM: 108}},
		MeasureCount:     1,
		Tracks: []Track{{
			KeySignatures: []KeyChange{{Measure: 0, Fifths: 0}},
			Clefs:         []ClefChange{{Measure: 0, Clef: ClefG}},
			Volumes:       []VolumeChange{{Measure: 0, Volume: 80}},
			Measures: []Measure{{
				DurationStampMax: 63,
				NotePacks: []NotePack{{
					DurationType: Whole,
					StampIndex:   0,
					PitchSigns: []PitchSign{{
						PitchIndex:        40,
						NumberedSign:      3,
						PlayingPitchIndex: 40,
						Alterant:          "Natural",
					}},
				}},
			}},
		}},
	}

	want := "Version ='1.1.0.0'\n" +
		"Notation = {\n" +
		"\tVersion ='1.1.0.0',\n" +
		"\tNotationName = 'Unnamed',\n" +
		"\tNotationAuther = 'UnknownAuthor',\n" +
		"\tNotationTranslater = 'UnknownTranslator',\n" +
		"\tNotationCreator = 'Dwarfed',\n" +
		"\tVolume = 1,\n" +
		"\tBeatsPerMeasure = 4,\n" +
		"\tBeatDurationType = '4',\n" +
		"\tNumberedKeySignature = 'C',\n" +
		"\tMeasureBeatsPerMinuteMap = {\n" +
		"\t\t{ 0, 108 },\n" +
		"\t},\n" +
		"\tMeasureAlignedCount = 1,\n" +
		"}\n" +
		"Notation.RegularTracks = {\n" +
		"\t[0] = {\n" +
		"\t\tMeasureKeySignatureMap = {\n" +
		"\t\t\t{ 0, 0 },\n" +
		"\t\t},\n" +
		"\t\tMeasureClefTypeMap = {\n" +
		"\t\t\t{ 0, 'L2G' },\n" +
		"\t\t},\n" +
		"\t\tMeasureInstrumentTypeMap = {\n" +
		"\t\t\t{ 0, 'Piano' },\n" +
		"\t\t},\n" +
		"\t\tMeasureVolumeCurveMap = {\n" +
		"\t\t\t{ 0, {0.8, 0.7, 0.5, 0.5, 0.7, 0.6, 0.5, 0.4} },\n" +
		"\t\t},\n" +
		"\t\tMeasureVolumeMap = {\n" +
		"\t\t\t{ 0, 80 },\n" +
		"\t\t},\n" +
		"\t\t[0] = {\n" +
		"\t\t\tDurationStampMax = 63,\n" +
		"\t\t\tNotePackCount = 1,\n" +
		"\t\t\t[0] = {\n" +
		"\t\t\t\tDurationType = 'Whole',\n" +
		"\t\t\t\tStampIndex = 0,\n" +
		"\t\t\t\tClassicPitchSignCount = 1,\n" +
		"\t\t\t\tClassicPitchSign = {\n" +
		"\t\t\t\t\t[40] = { NumberedSign = 3, PlayingPitchIndex = 40, AlterantType = 'Natural', RawAlterantType = 'Natural', },\n" +
		"\t\t\t\t},\n" +
		"\t\t\t},\n" +
		"\t\t},\n" +
		"\t},\n" +
		"}"

	assert.Equal(t, want, encodeToString(t, n))
}

func TestEncodeOptionalPackFields(t *testing.T) {
	n := &Notation{
		BeatsPerMeasure:  4,
		BeatDurationType: 4,
		MeasureCount:     1,
		Tracks: []Track{{
			Measures: []Measure{{
				DurationStampMax: 63,
				NotePacks: []NotePack{
					{IsRest: true, DurationType: Half, StampIndex: 0},
					{
						Tie:          TieBoth,
						Dotted:       true,
						Triplet:      true,
						Arpeggio:     true,
						DurationType: Quarter,
						StampIndex:   32,
						PitchSigns: []PitchSign{{
							PitchIndex:        44,
							NumberedSign:      3,
							PlayingPitchIndex: 45,
							Alterant:          "Sharp",
						}},
					},
				},
			}},
		}},
	}

	out := encodeToString(t, n)

	rest, note, ok := strings.Cut(out, "[1] = {")
	if !ok {
		t.Fatal("second note pack missing from output")
	}

	assert := assert.New(t)
	assert.Contains(rest, "IsRest = true,")
	assert.NotContains(rest, "TieType")
	assert.NotContains(rest, "ClassicPitchSign = {")

	assert.Contains(note, "TieType ='Both',")
	assert.Contains(note, "IsDotted = true,")
	assert.Contains(note, "Triplet = true,")
	assert.Contains(note, "ArpeggioMode ='Upward',")
	assert.Contains(note, "AlterantType = 'Sharp', RawAlterantType = 'Sharp',")
}

func TestEncodeNoTrailingNewline(t *testing.T) {
	n := &Notation{BeatsPerMeasure: 4, BeatDurationType: 4, MeasureCount: 0}
	out := encodeToString(t, n)
	if strings.HasSuffix(out, "\n") {
		t.Error("encoded output must not end with a newline")
	}
	if !strings.HasSuffix(out, "}") {
		t.Error("encoded output must end with the closing brace")
	}
}

type failingWriter struct{ after int }

func (f *failingWriter) Write(p []byte) (int, error) {
	if f.after -= len(p); f.after < 0 {
		return 0, assert.AnError
	}
	return len(p), nil
}

func TestEncodeReportsWriteError(t *testing.T) {
	n := &Notation{BeatsPerMeasure: 4, BeatDurationType: 4, MeasureCount: 0}
	if err := n.Encode(&failingWriter{after: 16}); err == nil {
		t.Fatal("expected a write error")
	}
}
