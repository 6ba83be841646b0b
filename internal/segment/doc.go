// Package segment decides where a source timeline is cut.
//
// In cue-driven mode a Segmenter consumes cues in start order, sums their
// spans and closes a segment on the cue that brings the sum to the target
// duration. Cuts only fall on cue ends, so a cue is never split. Without
// cues, Fixed slices the total duration into equal windows.
//
// Every Segment carries Origin == Start; rebasing its cues by Origin makes
// the subtitle artifact line up with media extracted from Start.
package segment
