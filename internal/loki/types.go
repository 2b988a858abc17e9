package loki

// PushRequest is the Loki push API request body
type PushRequest struct {
	Streams []Stream `json:"streams"`
}

// Stream is one labelled log stream; each value is [unix-nano, line].
type Stream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"`
}
