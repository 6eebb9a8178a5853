package archive

// Failure is one entry that could not be evaluated or read.
type Failure struct {
	Path   string
	Reason string
}

// Tally aggregates per-entry outcomes across a run. Every visited entry
// lands in exactly one bucket.
type Tally struct {
	Included         int
	ExcludedByFilter int
	ExcludedByPolicy int
	Failures         []Failure
}

// Failed returns the number of entries that could not be processed.
func (t Tally) Failed() int {
	return len(t.Failures)
}

// Add merges another tally into t.
func (t *Tally) Add(other Tally) {
	t.Included += other.Included
	t.ExcludedByFilter += other.ExcludedByFilter
	t.ExcludedByPolicy += other.ExcludedByPolicy
	t.Failures = append(t.Failures, other.Failures...)
}
