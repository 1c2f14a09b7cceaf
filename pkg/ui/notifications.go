package ui

import (
	"fmt"
	"os/exec"
	"runtime"
)

// NotificationSender delivers a desktop notification
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	return exec.Command("notify-send", title, message).Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	return exec.Command("osascript", "-e", script).Run()
}

// Notifier prints a notification to the console and, when enabled, also
// sends it to the desktop.
type Notifier struct {
	console *Console
	sender  NotificationSender
}

// NewNotifier creates a Notifier for the current platform. Desktop delivery
// is skipped when desktop is false or the platform has no sender.
func NewNotifier(c *Console, desktop bool) *Notifier {
	n := &Notifier{console: c}
	if !desktop {
		return n
	}

	switch runtime.GOOS {
	case "linux":
		n.sender = &LinuxNotificationSender{}
	case "darwin":
		n.sender = &MacOSNotificationSender{}
	}
	return n
}

// NewNotifierWithSender creates a Notifier with an explicit sender
func NewNotifierWithSender(c *Console, sender NotificationSender) *Notifier {
	return &Notifier{console: c, sender: sender}
}

// Success announces a finished run
func (n *Notifier) Success(title, message string) {
	n.console.Success(title + ": " + message)
	n.send(title, message)
}

// Error announces a failed run
func (n *Notifier) Error(title, message string) {
	n.console.Error(title, message)
	n.send(title, message)
}

func (n *Notifier) send(title, message string) {
	if n.sender != nil {
		// delivery is best effort
		_ = n.sender.Send(title, message)
	}
}
