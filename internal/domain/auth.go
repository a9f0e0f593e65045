package domain

// Audience identifies the consumer class of a session token.
type Audience string

const (
	AudienceWeb Audience = "WEB"
	AudienceApp Audience = "APP"
)

// Valid reports whether the audience is on the allow-list.
func (a Audience) Valid() bool {
	return a == AudienceWeb || a == AudienceApp
}

// RequestContext is the per-request metadata supplied by the HTTP layer.
type RequestContext struct {
	IP        string
	UserAgent string
}

// Session is the result of a successful login, signup or refresh.
type Session struct {
	Token string `json:"token"`
}
