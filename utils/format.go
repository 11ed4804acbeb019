package utils

import (
	"fmt"
	"math"
	"time"
)

// MessageType selects the color of a message printed on the terminal.
type MessageType int

// The message types used by the command line tool.
const (
	DefaultMessage MessageType = iota
	SuccessMessage
	ErrorMessage
	StatusMessage
)

// ANSI escape sequences of the message colors.
const (
	DefaultColor = "\x1b[0m"
	StatusColor  = "\x1b[36m"
	SuccessColor = "\x1b[32m"
	ErrorColor   = "\x1b[31m"
)

var messageColors = map[MessageType]string{
	DefaultMessage: DefaultColor,
	StatusMessage:  StatusColor,
	SuccessMessage: SuccessColor,
	ErrorMessage:   ErrorColor,
}

// Prefix is printed in front of the progress messages.
const Prefix = "⚡ IKON"

// DecorateText wraps s in the color of msgType. Unknown types leave s untouched.
func DecorateText(s string, msgType MessageType) string {
	c, ok := messageColors[msgType]
	if !ok {
		return s
	}
	return c + s + DefaultColor
}

// Headline formats a progress message behind the tool's prefix.
func Headline(msg string) string {
	return DecorateText(Prefix, StatusMessage) + " " + DecorateText(msg, DefaultMessage)
}

// Outcome formats the final line of a progress message, marked with a check
// mark or a cross depending on ok.
func Outcome(msg string, ok bool) string {
	mark := DecorateText("✔", SuccessMessage)
	if !ok {
		mark = DecorateText("✘", ErrorMessage)
	}
	return Headline(msg) + " " + mark + "\n"
}

// IconStatus reports the result of baking the icon stored at path.
func IconStatus(path string, err error) string {
	if err != nil {
		return DecorateText("\nError baking the icon: "+path, ErrorMessage) +
			DecorateText(fmt.Sprintf("\n\tReason: %v", err), DefaultMessage) + "\n"
	}
	return fmt.Sprintf("\nThe icon has been saved as: %s\n", DecorateText(path, SuccessMessage))
}

// Elapsed reports the duration of a run.
func Elapsed(d time.Duration) string {
	return fmt.Sprintf("\nExecution time: %s\n", DecorateText(FormatTime(d), SuccessMessage))
}

// FormatTime formats d as days, hours, minutes and seconds, omitting the
// leading units which are zero.
func FormatTime(d time.Duration) string {
	var (
		secs  = math.Mod(d.Seconds(), 60)
		mins  = int64(d.Minutes()) % 60
		hours = int64(d.Hours()) % 24
		days  = int64(d.Hours()) / 24
	)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm %.2fs", mins, secs)
	case days == 0:
		return fmt.Sprintf("%dh %dm %.2fs", hours, mins, secs)
	}
	return fmt.Sprintf("%dd %dh %dm %.2fs", days, hours, mins, secs)
}
