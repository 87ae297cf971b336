package gjm

// FileVersion is written as both the file-level Version and the Notation
// Version. Gangqin Jiaoshi only accepts notations carrying this value.
const FileVersion = "1.1.0.0"

// MaxTrackCount is the most regular tracks a GJM notation may contain.
// Staves beyond this are dropped during conversion rather than erroring.
const MaxTrackCount = 3

type ClefType string

const (
	ClefG ClefType = "L2G" // G clef on line 2
	ClefF ClefType = "L4F" // F clef on line 4
)

// DurationType is the GJM name for a note length. GJM represents nothing
// shorter than a 32nd or longer than a whole; lengths outside that range
// have no name and encode as an empty string.
type DurationType string

const (
	The32nd DurationType = "The32nd"
	The16th DurationType = "The16th"
	Eighth  DurationType = "Eighth"
	Quarter DurationType = "Quarter"
	Half    DurationType = "Half"
	Whole   DurationType = "Whole"
)

// TieType marks whether a note pack starts a tie, ends one, or both.
type TieType string

const (
	TieStart TieType = "Start"
	TieEnd   TieType = "End"
	TieBoth  TieType = "Both"
)

// A change map entry: the zero-based index of the first measure where a
// value differs from its predecessor, and the new value. Every map is
// seeded with an entry at measure 0.
type KeyChange struct {
	Measure int
	Fifths  int // signed count of fifths from C major
}

type ClefChange struct {
	Measure int
	Clef    ClefType
}

type VolumeChange struct {
	Measure int
	Volume  int // 0-100
}

type TempoChange struct {
	Measure int
	BPM     int
}

// PitchSign describes one sounding note of a pack. PitchIndex doubles as the
// entry's array key in the encoded output.
type PitchSign struct {
	PitchIndex        int    // absolute chromatic index, A-flat relative
	NumberedSign      int    // 1-7 scale degree numeral
	PlayingPitchIndex int    // PitchIndex shifted by the alteration
	Alterant          string // "Flat", "Natural" or "Sharp"
}

/// NotePack is one rhythmic event of a measure: a chord, a single note, or a
// rest, together with its duration stamp.
type NotePack struct {
	IsRest       bool
	Tie          TieType // empty when the pack carries no tie
	Dotted       bool
	Triplet      bool
	DurationType DurationType
	Arpeggio     bool // arpeggiated packs always roll upward
	StampIndex   int
	PitchSigns   []PitchSign // empty for rests
}

type Measure struct {
	// Highest valid duration stamp in the measure (stamps are zero-based
	// offsets, so this is the converted consumed duration minus one).
	DurationStampMax int
	NotePacks        []NotePack
}

// Track is one monophonic-timeline track of the notation. A multi-staff
// source part contributes one Track per staff.
type Track struct {
	KeySignatures []KeyChange
	Clefs         []ClefChange
	Volumes       []VolumeChange
	Measures      []Measure
}

// Notation is a complete GJM document. Header time-signature and tempo data
// always describe the first track.
type Notation struct {
	BeatsPerMeasure  int
	BeatDurationType int // bottom of the time signature (4 = quarter beat)
	Tempos           []TempoChange
	MeasureCount     int
	Tracks           []Track
}
