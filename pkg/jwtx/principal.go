package jwtx

// Principal is the per-request view of whoever presented a token. It only
// lives for the duration of a request and is never persisted.
type Principal struct {
	SubjectID     string `json:"subjectId"`
	Role          string `json:"role"`
	Authenticated bool   `json:"authenticated"`
}

// Anonymous is the principal for a request with no usable token.
func Anonymous() Principal {
	return Principal{}
}
