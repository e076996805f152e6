package domain

import "fmt"

// NoticeLevel is the severity of a user-facing message.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a message surfaced to the user alongside a result. Notices
// never abort processing.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

func Infof(format string, args ...any) Notice {
	return Notice{Level: NoticeInfo, Message: fmt.Sprintf(format, args...)}
}

func Warningf(format string, args ...any) Notice {
	return Notice{Level: NoticeWarning, Message: fmt.Sprintf(format, args...)}
}

func Errorf(format string, args ...any) Notice {
	return Notice{Level: NoticeError, Message: fmt.Sprintf(format, args...)}
}
