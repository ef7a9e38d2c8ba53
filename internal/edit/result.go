// Package edit implements the three mutation strategies (search-replace,
// diff/patch, and operation-list-to-patch) behind one result contract.
// A mutation that finds nothing to change is a recoverable outcome, not an
// error: editors return failure results instead of raising.
package edit

// Result is the uniform return type of every mutation.
type Result struct {
	Success         bool           `json:"success"`
	Modified        bool           `json:"modified"`
	OriginalContent string         `json:"original_content,omitempty"`
	NewContent      string         `json:"new_content,omitempty"`
	Err             string         `json:"error,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// failure builds a non-throwing failure result.
func failure(msg string) Result {
	return Result{Success: false, Modified: false, Err: msg}
}

// withMeta attaches a metadata key, allocating the map lazily.
func (r Result) withMeta(key string, value any) Result {
	if r.Metadata == nil {
		r.Metadata = map[string]any{}
	}
	r.Metadata[key] = value
	return r
}
