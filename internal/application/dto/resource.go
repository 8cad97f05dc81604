package dto

type ResourceRequest struct {
	Method      string
	Path        string
	RawQuery    string
	UserID      string
	ContentType string
	Body        []byte
}

type ResourceResult struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

func (r ResourceResult) Succeeded() bool {
	return r.StatusCode >= 200 && r.StatusCode <= 299
}

type RouteResourceCommand struct {
	Request   ResourceRequest
	EventType string
}
