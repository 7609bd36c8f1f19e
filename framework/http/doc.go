// Package http provides the request and response helpers used by the dev
// console.
//
//	req := gohttp.NewRequest(r)
//	input, err := req.All()          // JSON object or form, as map[string]string
//
//	res := gohttp.NewResponse(w)
//	res.Success(host.Commands())     // 200 {"data": [...]}
//	res.Error(http.StatusNotFound, "unknown command")
//	res.ValidationError(v.Errors())  // 422 {"errors": {...}}
package http
