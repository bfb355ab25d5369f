// Package httpclient is the outbound HTTP client used to reach the hosted
// transcription API, the local inference sidecar and the embedding endpoint.
//
// Failures are returned as *Error with an ErrorCode so callers can map them
// onto their own taxonomy:
//
//	resp, err := client.Do(ctx, httpclient.Request{
//	    Method: http.MethodPost,
//	    Path:   "/audio/transcriptions",
//	    Body:   &httpclient.MultipartBody{Fields: fields, Files: files},
//	})
//	if httpclient.IsRateLimit(err) { ... }
package httpclient
