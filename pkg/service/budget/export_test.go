package budget

// NewWordCountTrackerForTest returns a tracker with the tokenizer disabled so
// the word-based estimate is exercised directly.
func NewWordCountTrackerForTest(opts ...Option) *Tracker {
	t := New(opts...)
	t.encoding = nil
	return t
}
