package traits

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestListSpecToFrames verifies frame list expansion from range specs.
func TestListSpecToFrames(t *testing.T) {
	frames, err := ListSpecToFrames("1-10,20-30,55")
	require.NoError(t, err)
	require.Len(t, frames, 22)
	require.Equal(t, 1, frames[0])
	require.Equal(t, 55, frames[len(frames)-1])

	_, err = ListSpecToFrames("a")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid frame number in the list: a")

	_, err = ListSpecToFrames("10-1")
	require.Error(t, err)
}

// TestListSpecToFrames_InputOrder verifies that segments expand in the
// order they are written, without reordering.
func TestListSpecToFrames_InputOrder(t *testing.T) {
	frames, err := ListSpecToFrames("20-30,1-10")
	require.NoError(t, err)
	require.Len(t, frames, 21)
	require.Equal(t, 20, frames[0])
	require.Equal(t, 30, frames[10])
	require.Equal(t, 1, frames[11])
	require.Equal(t, 10, frames[20])
}

// TestListSpecToFrames_Property verifies that any contiguous range
// expands to exactly its span in ascending order.
func TestListSpecToFrames_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		start := rapid.IntRange(0, 5000).Draw(t, "start")
		length := rapid.IntRange(0, 200).Draw(t, "length")
		end := start + length

		frames, err := ListSpecToFrames(fmt.Sprintf("%d-%d", start, end))
		require.NoError(t, err)
		require.Len(t, frames, length+1)
		for n, frame := range frames {
			require.Equal(t, start+n, frame)
		}
	})
}

// TestSequence_ValidRange verifies a complete sequence against its
// frame range.
func TestSequence_ValidRange(t *testing.T) {
	rep := NewRepresentation("exr",
		sequenceFiles("/renders/shot", "exr", 1001, 1050),
		Sequence{FramePadding: 4},
		FrameRanged{FrameStart: 1001, FrameEnd: 1050},
	)
	require.NoError(t, rep.Validate())
}

// TestSequence_WithoutFileLocations verifies that a sequence declared
// before its files are collected validates clean.
func TestSequence_WithoutFileLocations(t *testing.T) {
	rep := NewRepresentation("exr",
		Sequence{FramePadding: 4},
		FrameRanged{FrameStart: 1001, FrameEnd: 1050},
	)
	require.NoError(t, rep.Validate())
}

// TestSequence_InclusiveHandles verifies that inclusive handles do not
// extend the expected frame list.
func TestSequence_InclusiveHandles(t *testing.T) {
	rep := NewRepresentation("exr",
		sequenceFiles("/renders/shot", "exr", 1001, 1100),
		Sequence{FramePadding: 4},
		FrameRanged{FrameStart: 1001, FrameEnd: 1100},
		Handles{InclusiveHandles: true, FrameStartHandle: 5, FrameEndHandle: 5},
	)
	require.NoError(t, rep.Validate())
}

// TestSequence_ExclusiveHandles verifies that exclusive handles extend
// the expected frame list beyond the range.
func TestSequence_ExclusiveHandles(t *testing.T) {
	rep := NewRepresentation("exr",
		sequenceFiles("/renders/shot", "exr", 996, 1105),
		Sequence{FramePadding: 4},
		FrameRanged{FrameStart: 1001, FrameEnd: 1100},
		Handles{InclusiveHandles: false, FrameStartHandle: 5, FrameEndHandle: 5},
	)
	require.NoError(t, rep.Validate())
}

// TestSequence_MissingHandleFrames verifies that files covering only
// the range fail when handles are exclusive.
func TestSequence_MissingHandleFrames(t *testing.T) {
	rep := NewRepresentation("exr",
		sequenceFiles("/renders/shot", "exr", 1001, 1100),
		Sequence{FramePadding: 4},
		FrameRanged{FrameStart: 1001, FrameEnd: 1100},
		Handles{InclusiveHandles: false, FrameStartHandle: 5, FrameEndHandle: 5},
	)

	err := rep.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "expected 110 files")
}

// TestSequence_FrameSpec verifies gapped sequences declared with a
// frame spec.
func TestSequence_FrameSpec(t *testing.T) {
	spec := "1001-1095,1100"
	locations := sequenceFiles("/renders/shot", "exr", 1001, 1095)
	locations.FilePaths = append(locations.FilePaths, FileLocation{
		FilePath: "/renders/shot.1100.exr",
	})

	rep := NewRepresentation("exr",
		locations,
		Sequence{FramePadding: 4, FrameSpec: &spec},
		FrameRanged{FrameStart: 1001, FrameEnd: 1100},
	)
	require.NoError(t, rep.Validate())
}

// TestSequence_FrameSpecMismatch verifies that files outside the frame
// spec fail validation.
func TestSequence_FrameSpecMismatch(t *testing.T) {
	spec := "1001-1095,1100"
	rep := NewRepresentation("exr",
		sequenceFiles("/renders/shot", "exr", 1001, 1100),
		Sequence{FramePadding: 4, FrameSpec: &spec},
		FrameRanged{FrameStart: 1001, FrameEnd: 1100},
	)

	err := rep.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "expected 96 frames, found 100")
}

// TestSequence_PaddingTooSmall verifies that declared padding below
// the file padding fails.
func TestSequence_PaddingTooSmall(t *testing.T) {
	rep := NewRepresentation("exr",
		sequenceFiles("/renders/shot", "exr", 1001, 1050),
		Sequence{FramePadding: 3},
		FrameRanged{FrameStart: 1001, FrameEnd: 1050},
	)

	err := rep.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "padding")
}

// TestSequence_CustomRegexRequiresIndexGroup verifies the index group
// requirement for custom frame patterns.
func TestSequence_CustomRegexRequiresIndexGroup(t *testing.T) {
	pattern := `boo_(\d+)\.exr`
	err := NewRepresentation("exr").AddTrait(
		Sequence{FramePadding: 4, FrameRegex: &pattern})
	require.Error(t, err)
	require.Contains(t, err.Error(), "index group")
}

// TestGetFramePadding verifies padding derivation from file names.
func TestGetFramePadding(t *testing.T) {
	require.Equal(t, 4,
		GetFramePadding(sequenceFiles("/renders/shot", "exr", 1001, 1050)))
	require.Equal(t, 2,
		GetFramePadding(sequenceFiles("/renders/shot", "exr", 1, 99)))
}

// TestSMPTETimecode_CheckFields verifies timecode format checking.
func TestSMPTETimecode_CheckFields(t *testing.T) {
	rep := NewRepresentation("mov")
	require.NoError(t, rep.AddTrait(SMPTETimecode{Timecode: "01:00:00:00"}))

	err := NewRepresentation("mov").AddTrait(SMPTETimecode{Timecode: "1:0:0"})
	require.Error(t, err)
}
