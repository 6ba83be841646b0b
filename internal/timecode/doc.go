// Package timecode implements the HH:MM:SS.fff instants used by subtitle cues and
// segment boundaries.
//
// Values are stored at millisecond resolution so that parsing and formatting round
// trip exactly. Arithmetic that would produce a negative instant fails with an error
// wrapping faults.ErrNegativeTime instead of clamping.
package timecode
