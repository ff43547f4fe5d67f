package wsmodels

type ServerMessage struct {
	ToUserID string   `json:"-"`
	ID       string   `json:"id,omitempty"`    // notification id
	Time     string   `json:"time"`            // event time
	Code     string   `json:"code"`            // event code
	Title    string   `json:"title,omitempty"` // notification title
	Msg      string   `json:"msg,omitempty"`   // event text
	Keys     []string `json:"keys,omitempty"`  // query keys for "invalidate" events
}

const (
	CodeInvalidate   = "invalidate"
	CodeNotification = "notification"
)
