package partwise

import (
	"fmt"
	"strings"
	"testing"

	"github.com/Adam-Roller/mxl-2-solo/gjm"
	"github.com/stretchr/testify/assert"
)

const scoreHeader = `<?xml version="1.0" encoding="UTF-8"?>
<score-partwise version="3.1">
	<part-list>
		<score-part id="P1"><part-name>Piano</part-name></score-part>
	</part-list>
`

func parseTestScore(t *testing.T, body string) *gjm.Notation {
	t.Helper()
	p := newTestParser(t, scoreHeader+body+"\n</score-partwise>")
	notation, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return notation
}

func TestConvertSingleWholeNote(t *testing.T) {
	notation := parseTestScore(t, `
	<part id="P1">
		<measure number="1">
			<attributes>
				<divisions>24</divisions>
				<key><fifths>0</fifths></key>
				<time><beats>4</beats><beat-type>4</beat-type></time>
				<clef><sign>G</sign><line>2</line></clef>
			</attributes>
			<note>
				<pitch><step>C</step><octave>4</octave></pitch>
				<duration>96</duration>
				<type>whole</type>
			</note>
		</measure>
	</part>`)

	assert := assert.New(t)
	assert.Equal(4, notation.BeatsPerMeasure)
	assert.Equal(4, notation.BeatDurationType)
	assert.Equal(1, notation.MeasureCount)
	assert.Equal([]gjm.TempoChange{{Measure: 0, BPM: 108}}, notation.Tempos)
	assert.Len(notation.Tracks, 1)

	track := notation.Tracks[0]
	assert.Equal([]gjm.KeyChange{{Measure: 0, Fifths: 0}}, track.KeySignatures)
	assert.Equal([]gjm.ClefChange{{Measure: 0, Clef: gjm.ClefG}}, track.Clefs)
	assert.Equal([]gjm.VolumeChange{{Measure: 0, Volume: 80}}, track.Volumes)
	assert.Len(track.Measures, 1)

	measure := track.Measures[0]
	assert.Equal(63, measure.DurationStampMax)
	assert.Len(measure.NotePacks, 1)

	pack := measure.NotePacks[0]
	assert.False(pack.IsRest)
	assert.Equal(gjm.Whole, pack.DurationType)
	assert.Equal(0, pack.StampIndex)
	assert.Equal([]gjm.PitchSign{{
		PitchIndex:        40,
		NumberedSign:      3,
		PlayingPitchIndex: 40,
		Alterant:          "Natural",
	}}, pack.PitchSigns)
}

func TestConvertAttributeInheritance(t *testing.T) {
	notation := parseTestScore(t, `
	<part id="P1">
		<measure number="1">
			<attributes>
				<divisions>24</divisions>
				<key><fifths>2</fifths></key>
			</attributes>
			<note><pitch><step>D</step><octave>4</octave></pitch><duration>96</duration></note>
		</measure>
		<measure number="2">
			<note><pitch><step>E</step><octave>4</octave></pitch><duration>96</duration></note>
		</measure>
	</part>`)

	assert := assert.New(t)
	assert.Equal(2, notation.MeasureCount)
	// Measure 2 inherits the key; the map keeps its single seed entry.
	assert.Equal([]gjm.KeyChange{{Measure: 0, Fifths: 2}}, notation.Tracks[0].KeySignatures)
}

func TestConvertTempoChangeMap(t *testing.T) {
	notation := parseTestScore(t, `
	<part id="P1">
		<measure number="1">
			<note><pitch><step>C</step><octave>4</octave></pitch><duration>96</duration></note>
		</measure>
		<measure number="2">
			<direction><sound tempo="120"/></direction>
			<note><pitch><step>C</step><octave>4</octave></pitch><duration>96</duration></note>
		</measure>
	</part>`)

	assert.Equal(t, []gjm.TempoChange{
		{Measure: 0, BPM: 108},
		{Measure: 1, BPM: 120},
	}, notation.Tempos)
}

func TestConvertRestAndTie(t *testing.T) {
	notation := parseTestScore(t, `
	<part id="P1">
		<measure number="1">
			<note><rest/><duration>48</duration><type>half</type></note>
			<note>
				<pitch><step>G</step><octave>4</octave></pitch>
				<duration>48</duration>
				<type>half</type>
				<notations><tied type="start"/><tied type="stop"/></notations>
			</note>
		</measure>
	</part>`)

	packs := notation.Tracks[0].Measures[0].NotePacks
	if len(packs) != 2 {
		t.Fatalf("got %d note packs, want 2", len(packs))
	}

	assert := assert.New(t)
	assert.True(packs[0].IsRest)
	assert.Empty(packs[0].PitchSigns)
	assert.Equal(0, packs[0].StampIndex)

	assert.Equal(gjm.TieBoth, packs[1].Tie)
	// The rest consumed 48 of 96 divisions, which is 32 stamps.
	assert.Equal(32, packs[1].StampIndex)
	assert.Len(packs[1].PitchSigns, 1)
}

func TestConvertTrackCap(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 4; i++ {
		fmt.Fprintf(&b, `
	<part id="P%d">
		<measure number="1">
			<note><pitch><step>C</step><octave>4</octave></pitch><duration>96</duration></note>
		</measure>
	</part>`, i)
	}

	notation := parseTestScore(t, b.String())
	if len(notation.Tracks) != gjm.MaxTrackCount {
		t.Errorf("got %d tracks, want %d", len(notation.Tracks), gjm.MaxTrackCount)
	}
}

func TestConvertMultiStaffPartFansOut(t *testing.T) {
	notation := parseTestScore(t, `
	<part id="P1">
		<measure number="1">
			<attributes>
				<divisions>24</divisions>
				<staves>2</staves>
				<clef number="1"><sign>G</sign></clef>
				<clef number="2"><sign>F</sign></clef>
			</attributes>
			<note><pitch><step>C</step><octave>5</octave></pitch><duration>96</duration><staff>1</staff></note>
			<backup><duration>96</duration></backup>
			<note><pitch><step>C</step><octave>3</octave></pitch><duration>96</duration><staff>2</staff></note>
		</measure>
	</part>`)

	if len(notation.Tracks) != 2 {
		t.Fatalf("got %d tracks, want 2", len(notation.Tracks))
	}
	assert := assert.New(t)
	assert.Equal(gjm.ClefG, notation.Tracks[0].Clefs[0].Clef)
	assert.Equal(gjm.ClefF, notation.Tracks[1].Clefs[0].Clef)
	assert.Len(notation.Tracks[0].Measures[0].NotePacks, 1)
	assert.Len(notation.Tracks[1].Measures[0].NotePacks, 1)
}

func TestConvertEmptyScoreFails(t *testing.T) {
	p := newTestParser(t, scoreHeader+"</score-partwise>")
	if _, err := p.Parse(); err == nil {
		t.Fatal("expected an error for a score with no parts")
	}
}

func TestParseRejectsSecondUse(t *testing.T) {
	p := newTestParser(t, scoreHeader+"</score-partwise>")
	p.Parse()
	if _, err := p.Parse(); err == nil {
		t.Fatal("expected an error when reusing a parser")
	}
}

func TestParseNoScoreElement(t *testing.T) {
	p := newTestParser(t, `<?xml version="1.0"?><something-else/>`)
	if _, err := p.Parse(); err == nil {
		t.Fatal("expected an error when no score-partwise element exists")
	}
}
