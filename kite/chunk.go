package kite

import "time"

// timeRange is one closed chunk of a historical request. Chunks
// produced by the planners never overlap and never exceed the
// interval's maximum span.
type timeRange struct {
	From time.Time
	To   time.Time
}

func (r timeRange) span() time.Duration { return r.To.Sub(r.From) }

func validateRange(from, to time.Time) error {
	if from.After(to) {
		return inputError("from %s is after to %s", from.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	return nil
}

func maxSpan(interval Interval) time.Duration {
	return time.Duration(interval.MaxSpanDays()) * 24 * time.Hour
}

// fitsInOneRequest reports whether the range needs no chunking.
func fitsInOneRequest(from, to time.Time, interval Interval) bool {
	return to.Sub(from) <= maxSpan(interval)
}

// splitForward plans chunks oldest to newest. The first chunk starts at
// from, the last ends at to, and consecutive chunks are separated by
// one interval gap. When the remainder past the last full chunk is
// shorter than one gap, the cursor clamps to to so the final chunk
// still closes the range instead of overshooting it.
func splitForward(from, to time.Time, interval Interval) []timeRange {
	span, gap := maxSpan(interval), interval.gap()

	var chunks []timeRange
	cursor := from
	for {
		end := cursor.Add(span)
		if end.After(to) {
			end = to
		}
		chunks = append(chunks, timeRange{From: cursor, To: end})
		if !end.Before(to) {
			return chunks
		}
		cursor = end.Add(gap)
		if cursor.After(to) {
			cursor = to
		}
	}
}

// splitReverse plans the same chunks newest to oldest, for callers that
// walk backwards through history and stop at the first empty chunk.
// The cursor clamps to from symmetrically with splitForward.
func splitReverse(from, to time.Time, interval Interval) []timeRange {
	span, gap := maxSpan(interval), interval.gap()

	var chunks []timeRange
	cursor := to
	for {
		start := cursor.Add(-span)
		if start.Before(from) {
			start = from
		}
		chunks = append(chunks, timeRange{From: start, To: cursor})
		if !start.After(from) {
			return chunks
		}
		cursor = start.Add(-gap)
		if cursor.Before(from) {
			cursor = from
		}
	}
}
