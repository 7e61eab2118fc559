package systemprompt

import (
	"fmt"
	"time"
)

// DateTimeProvider adds the current date and time to a system prompt
type DateTimeProvider struct {
	now    func() time.Time
	layout string
}

var _ ContextProvider = (*DateTimeProvider)(nil)

// NewDateTimeProvider returns a DateTimeProvider. A nil clock uses time.Now.
func NewDateTimeProvider(now func() time.Time) *DateTimeProvider {
	if now == nil {
		now = time.Now
	}
	return &DateTimeProvider{now: now, layout: "2006-01-02 15:04:05 MST"}
}

func (p *DateTimeProvider) Title() string {
	return "Current Date and Time"
}

func (p *DateTimeProvider) Info() string {
	return fmt.Sprintf("The current time is %s", p.now().Format(p.layout))
}
