package catalog

// IDGen issues increasing row ids within one crawl or sync.
// It performs no storage I/O; callers seed it from MaxID once.
type IDGen struct {
	last int64
}

// NewIDGenWithLastID returns a generator whose first id is lastID+1.
func NewIDGenWithLastID(lastID int64) *IDGen {
	return &IDGen{last: lastID}
}

// Next returns the next id.
func (g *IDGen) Next() int64 {
	g.last++
	return g.last
}

// Last returns the most recently issued id, or the seed if none was issued.
func (g *IDGen) Last() int64 {
	return g.last
}
