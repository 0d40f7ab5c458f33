package server

// Response is the JSON body of a /pi request.
type Response struct {
	// Digits is the number of fractional digits computed.
	Digits uint64 `json:"digits"`
	// Algorithm is the calculator that produced the digits.
	Algorithm string `json:"algorithm"`
	// Schedule and Workers describe how the series was partitioned.
	Schedule string `json:"schedule"`
	Workers  int    `json:"workers"`
	// Duration is the formatted calculation time.
	Duration string `json:"duration"`
	// Pi is "3." followed by the digit stream. It is omitted on error.
	Pi string `json:"pi,omitempty"`
	// Cached reports whether the digits were served from the result cache.
	Cached bool `json:"cached,omitempty"`
	// Error contains the error message if the calculation failed.
	Error string `json:"error,omitempty"`
}

// ErrorResponse represents the standardized JSON response for an API error.
type ErrorResponse struct {
	// Error is the short error code or status text.
	Error string `json:"error"`
	// Message is a descriptive error message.
	Message string `json:"message,omitempty"`
}
