package utils

const DefaultSentenceLength = 100

// SplitSentences partitions the items [0, count) into consecutive half-open
// index ranges. A range closes after an item for which isEnd returns true, or
// once it holds length items, whichever comes first.
func SplitSentences(count, length int, isEnd func(i int) bool) [][2]int {
	if length <= 0 {
		length = DefaultSentenceLength
	}

	var ranges [][2]int
	start := 0
	for i := 0; i < count; i++ {
		if i+1-start >= length || (isEnd != nil && isEnd(i)) {
			ranges = append(ranges, [2]int{start, i + 1})
			start = i + 1
		}
	}
	if start < count {
		ranges = append(ranges, [2]int{start, count})
	}
	return ranges
}
