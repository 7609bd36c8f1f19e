// Package validation checks flat string input against pipe-separated rules.
//
//	v := validation.Make(input, validation.Rules{
//	    "line":   "required|max:256",
//	    "source": "sometimes|integer|gte:0",
//	})
//	if v.Fails() {
//	    res.ValidationError(v.Errors())
//	}
//
// Rules: required, integer, max:n (UTF-8 characters), gte:n and sometimes.
// Unknown rules are ignored. Validation of a field stops at its first
// failing rule.
package validation
