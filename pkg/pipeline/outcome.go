package pipeline

// Outcome is the result of downloading one record
type Outcome struct {
	// Position of the record in the query's record list
	Position int
	// Index is the record's enumeration index, which names the file
	Index int
	Path  string
	Bytes int64
	Err   error
}

// Failed reports whether the download did not produce a file
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// BytesWritten returns the file size, or -1 when the download failed
func (o Outcome) BytesWritten() int64 {
	if o.Failed() {
		return -1
	}
	return o.Bytes
}

// QueryResult collects what happened to one query of a multi-query run
type QueryResult struct {
	Query    string
	Dir      string
	Outcomes []Outcome
	// Err is set when the query failed before any download started
	Err error
}

// Succeeded counts the outcomes that produced a file
func (r QueryResult) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if !o.Failed() {
			n++
		}
	}
	return n
}

// Failed counts the outcomes that did not produce a file
func (r QueryResult) Failed() int {
	return len(r.Outcomes) - r.Succeeded()
}

// TotalBytes sums the bytes written for the query
func (r QueryResult) TotalBytes() int64 {
	var total int64
	for _, o := range r.Outcomes {
		if !o.Failed() {
			total += o.Bytes
		}
	}
	return total
}
