package tour

import "errors"

var (
	// ErrFormSubmission means the search form could not be filled or submitted.
	ErrFormSubmission = errors.New("form submission failed")
	// ErrTableParse means the results table did not have the expected shape.
	ErrTableParse = errors.New("results table could not be parsed")
)
