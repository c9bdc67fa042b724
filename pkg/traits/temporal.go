package traits

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var defaultFrameRegex = regexp.MustCompile(
	`\.(?P<index>(?P<padding>0*)\d+)\.\D+\d?$`)

// FrameRanged declares the frame span covered by the representation.
type FrameRanged struct {
	FrameStart      int    `json:"frame_start"`
	FrameEnd        int    `json:"frame_end"`
	FrameIn         *int   `json:"frame_in,omitempty"`
	FrameOut        *int   `json:"frame_out,omitempty"`
	FramesPerSecond string `json:"frames_per_second,omitempty"`
	Step            *int   `json:"step,omitempty"`
}

func (FrameRanged) ID() string   { return "ayon.time.FrameRanged.v1" }
func (FrameRanged) Name() string { return "FrameRanged" }
func (FrameRanged) Description() string {
	return "Frame span with an optional cut range and frame rate"
}

func (t FrameRanged) checkFields() error {
	if t.FrameEnd < t.FrameStart {
		return &ValidationError{
			Scope: t.Name(),
			Message: fmt.Sprintf(
				"frame end %d is before frame start %d",
				t.FrameEnd, t.FrameStart),
		}
	}
	return nil
}

func (FrameRanged) Validate(rep *Representation) error {
	return nil
}

// Handles declares extra frames around the frame range. Inclusive
// handles are already counted in the range; exclusive handles extend
// it.
type Handles struct {
	InclusiveHandles bool `json:"inclusive_handles"`
	FrameStartHandle int  `json:"frame_start_handle"`
	FrameEndHandle   int  `json:"frame_end_handle"`
}

func (Handles) ID() string   { return "ayon.time.Handles.v1" }
func (Handles) Name() string { return "Handles" }
func (Handles) Description() string {
	return "Extra frames around the frame range"
}

func (Handles) Validate(rep *Representation) error {
	return nil
}

// frameInfoWithHandles returns the effective first and last frame of
// the representation. Exclusive handles extend the declared range.
func frameInfoWithHandles(rep *Representation) (start, end int, ok bool) {
	ranged, err := GetTrait[FrameRanged](rep)
	if err != nil {
		return 0, 0, false
	}
	start, end = ranged.FrameStart, ranged.FrameEnd
	if handles, err := GetTrait[Handles](rep); err == nil {
		if !handles.InclusiveHandles {
			start -= handles.FrameStartHandle
			end += handles.FrameEndHandle
		}
	}
	return start, end, true
}

// Sequence marks the representation as a frame sequence and declares
// how file names encode frame numbers.
type Sequence struct {
	FramePadding int     `json:"frame_padding"`
	FrameRegex   *string `json:"frame_regex,omitempty"`
	FrameSpec    *string `json:"frame_spec,omitempty"`
}

func (Sequence) ID() string   { return "ayon.time.Sequence.v1" }
func (Sequence) Name() string { return "Sequence" }
func (Sequence) Description() string {
	return "Frame sequence with padding and optional gapped frame list"
}

// CompiledFrameRegex returns the custom frame regex or the default one.
// A custom pattern must capture an "index" group, and may capture a
// "padding" group of leading zeroes.
func (t Sequence) CompiledFrameRegex() (*regexp.Regexp, error) {
	if t.FrameRegex == nil {
		return defaultFrameRegex, nil
	}
	compiled, err := regexp.Compile(*t.FrameRegex)
	if err != nil {
		return nil, fmt.Errorf("invalid frame regex: %w", err)
	}
	hasIndex := false
	for _, name := range compiled.SubexpNames() {
		if name == "index" {
			hasIndex = true
		}
	}
	if !hasIndex {
		return nil, fmt.Errorf(
			"frame regex %q is missing the index group", *t.FrameRegex)
	}
	return compiled, nil
}

func (t Sequence) checkFields() error {
	if t.FramePadding < 0 {
		return &ValidationError{
			Scope:   t.Name(),
			Message: "frame padding must not be negative",
		}
	}
	if t.FrameSpec != nil {
		if _, err := ListSpecToFrames(*t.FrameSpec); err != nil {
			return err
		}
	}
	if _, err := t.CompiledFrameRegex(); err != nil {
		return &ValidationError{Scope: t.Name(), Message: err.Error()}
	}
	return nil
}

func (t Sequence) Validate(rep *Representation) error {
	locations, err := GetTrait[FileLocations](rep)
	if err != nil {
		// A sequence can be declared before its files are collected.
		return nil
	}
	if err := t.validateFramePadding(locations); err != nil {
		return err
	}
	return t.validateFrameList(rep, locations)
}

// validateFramePadding checks the declared padding against the padding
// implied by the file names. Declared padding may exceed it to match a
// wider publish template.
func (t Sequence) validateFramePadding(locations FileLocations) error {
	expected, err := t.framePaddingFromFiles(locations)
	if err != nil {
		return err
	}
	if t.FramePadding < expected {
		return &ValidationError{
			Scope: t.Name(),
			Message: fmt.Sprintf(
				"frame padding %d is smaller than padding %d found in files",
				t.FramePadding, expected),
		}
	}
	return nil
}

// validateFrameList compares the frames found in the file names with
// the frames declared by the frame spec or the frame range.
func (t Sequence) validateFrameList(
	rep *Representation, locations FileLocations,
) error {
	actual, err := t.framesFromFiles(locations)
	if err != nil {
		return err
	}

	expected := make(map[int]struct{})
	if t.FrameSpec != nil {
		frames, err := ListSpecToFrames(*t.FrameSpec)
		if err != nil {
			return err
		}
		for _, frame := range frames {
			expected[frame] = struct{}{}
		}
		// Exclusive handles add frames outside the declared range.
		if handles, err := GetTrait[Handles](rep); err == nil && !handles.InclusiveHandles {
			if ranged, err := GetTrait[FrameRanged](rep); err == nil {
				for f := ranged.FrameStart - handles.FrameStartHandle; f < ranged.FrameStart; f++ {
					expected[f] = struct{}{}
				}
				for f := ranged.FrameEnd + 1; f <= ranged.FrameEnd+handles.FrameEndHandle; f++ {
					expected[f] = struct{}{}
				}
			}
		}
	} else {
		start, end, ok := frameInfoWithHandles(rep)
		if !ok {
			return nil
		}
		for f := start; f <= end; f++ {
			expected[f] = struct{}{}
		}
	}

	if len(actual) != len(expected) {
		return &ValidationError{
			Scope: t.Name(),
			Message: fmt.Sprintf(
				"expected %d frames, found %d in files",
				len(expected), len(actual)),
		}
	}
	var missing []int
	for _, frame := range actual {
		if _, ok := expected[frame]; !ok {
			missing = append(missing, frame)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{
			Scope: t.Name(),
			Message: fmt.Sprintf(
				"frames %v in files do not match the expected frame list",
				missing),
		}
	}
	return nil
}

// Frames returns the sorted frame numbers encoded in the file names.
func (t Sequence) Frames(locations FileLocations) ([]int, error) {
	return t.framesFromFiles(locations)
}

// framesFromFiles extracts the sorted frame numbers from the file
// names. Every file must match the frame pattern.
func (t Sequence) framesFromFiles(locations FileLocations) ([]int, error) {
	pattern, err := t.CompiledFrameRegex()
	if err != nil {
		return nil, &ValidationError{Scope: t.Name(), Message: err.Error()}
	}
	frames := make([]int, 0, len(locations.FilePaths))
	for _, location := range locations.FilePaths {
		index, _, ok := matchFrame(pattern, location.FilePath)
		if !ok {
			return nil, &ValidationError{
				Scope: t.Name(),
				Message: fmt.Sprintf(
					"file %s does not match the frame pattern",
					location.FilePath),
			}
		}
		frames = append(frames, index)
	}
	sort.Ints(frames)
	return frames, nil
}

// framePaddingFromFiles returns the padding implied by the highest
// frame number found in the file names.
func (t Sequence) framePaddingFromFiles(locations FileLocations) (int, error) {
	frames, err := t.framesFromFiles(locations)
	if err != nil {
		return 0, err
	}
	if len(frames) == 0 {
		return 0, nil
	}
	return len(strconv.Itoa(frames[len(frames)-1])), nil
}

// GetFramePadding returns the frame padding implied by the file names
// using the default frame pattern.
func GetFramePadding(locations FileLocations) int {
	padding, err := Sequence{}.framePaddingFromFiles(locations)
	if err != nil {
		return 0
	}
	return padding
}

// ListSpecToFrames expands a frame list specification such as
// "1-10,20-30,55" into individual frame numbers.
func ListSpecToFrames(spec string) ([]int, error) {
	var frames []int
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if start, end, found := strings.Cut(part, "-"); found {
			first, err := strconv.Atoi(start)
			if err != nil {
				return nil, &ValidationError{
					Scope:   "Sequence",
					Message: fmt.Sprintf("invalid frame number in the list: %s", start),
				}
			}
			last, err := strconv.Atoi(end)
			if err != nil {
				return nil, &ValidationError{
					Scope:   "Sequence",
					Message: fmt.Sprintf("invalid frame number in the list: %s", end),
				}
			}
			if last < first {
				return nil, &ValidationError{
					Scope: "Sequence",
					Message: fmt.Sprintf(
						"invalid frame range %s, end before start", part),
				}
			}
			for f := first; f <= last; f++ {
				frames = append(frames, f)
			}
			continue
		}
		frame, err := strconv.Atoi(part)
		if err != nil {
			return nil, &ValidationError{
				Scope:   "Sequence",
				Message: fmt.Sprintf("invalid frame number in the list: %s", part),
			}
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

// Static marks content without a temporal dimension.
type Static struct{}

func (Static) ID() string   { return "ayon.time.Static.v1" }
func (Static) Name() string { return "Static" }
func (Static) Description() string {
	return "Content without a temporal dimension"
}

func (Static) Validate(rep *Representation) error {
	return nil
}

// SMPTETimecode carries the start timecode of the content.
type SMPTETimecode struct {
	Timecode string `json:"timecode"`
}

func (SMPTETimecode) ID() string   { return "ayon.time.SMPTETimecode.v1" }
func (SMPTETimecode) Name() string { return "SMPTETimecode" }
func (SMPTETimecode) Description() string {
	return "SMPTE timecode of the first frame"
}

var timecodeRegex = regexp.MustCompile(`^\d{2}[:;]\d{2}[:;]\d{2}[:;]\d{2}$`)

func (t SMPTETimecode) checkFields() error {
	if !timecodeRegex.MatchString(t.Timecode) {
		return &ValidationError{
			Scope:   t.Name(),
			Message: fmt.Sprintf("invalid timecode %q", t.Timecode),
		}
	}
	return nil
}

func (SMPTETimecode) Validate(rep *Representation) error {
	return nil
}
