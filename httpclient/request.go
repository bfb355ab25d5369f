package httpclient

import "encoding/json"

// Request describes an outbound call.
type Request struct {
	Method string
	// Path is joined to BaseURL unless it is absolute.
	Path    string
	Headers map[string]string
	Query   map[string]string
	// Body may be nil, []byte, string, *MultipartBody or any JSON-encodable value.
	Body any
	Auth *AuthConfig
}

// Response holds a fully read response.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// DecodeJSON unmarshals the body into v.
func (r *Response) DecodeJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &Error{StatusCode: r.StatusCode, Code: ErrCodeDecode, Message: err.Error(), Body: r.Body, Err: err}
	}
	return nil
}
