package grant

// ListOptions provides filtering options for listing grants.
type ListOptions struct {
	EntityID  string
	ProgramID *string
	Stages    []Stage
	// Year restricts to grants created in that calendar year when non-zero.
	Year   int
	Limit  int
	Offset int
}

// SearchOptions provides filtering options for search.
type SearchOptions struct {
	Stages []Stage
	Limit  int
	Offset int
}
