package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// DownloadProgress prints a single-line summary of an image download run
type DownloadProgress struct {
	mu         sync.Mutex
	console    *Console
	username   string
	total      int
	downloaded int
	skipped    int
	failed     int
	bytes      int64
	current    string
	startTime  time.Time
	debug      bool
}

// NewDownloadProgress creates a display for total images of username
func NewDownloadProgress(c *Console, username string, total int, debug bool) *DownloadProgress {
	return &DownloadProgress{
		console:   c,
		username:  username,
		total:     total,
		startTime: time.Now(),
		debug:     debug,
	}
}

// Record counts one finished job. status is one of downloaded, skipped or
// failed, matching the downloader's result statuses.
func (p *DownloadProgress) Record(name, status string, size int64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = name
	switch status {
	case "downloaded":
		p.downloaded++
		p.bytes += size
	case "skipped":
		p.skipped++
	default:
		p.failed++
	}

	if p.debug {
		p.printDebug(name, status, size, err)
		return
	}
	p.console.Printf("\r%s\r%s", strings.Repeat(" ", 120), p.line())
}

// Counts returns downloaded, skipped and failed totals
func (p *DownloadProgress) Counts() (downloaded, skipped, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.downloaded, p.skipped, p.failed
}

func (p *DownloadProgress) done() int {
	return p.downloaded + p.skipped + p.failed
}

func (p *DownloadProgress) line() string {
	elapsed := time.Since(p.startTime)
	line := fmt.Sprintf("@%s %s %d/%d • %.1f/min • %s • %s",
		p.username,
		Bar(p.done(), p.total),
		p.done(),
		p.total,
		perMinute(p.downloaded, elapsed),
		FormatBytes(p.bytes),
		p.eta(),
	)
	if p.current != "" {
		line += " • " + p.current
	}
	if p.failed > 0 {
		line += fmt.Sprintf(" • %d errors", p.failed)
	}
	return line
}

func (p *DownloadProgress) printDebug(name, status string, size int64, err error) {
	switch status {
	case "downloaded":
		p.console.Success(fmt.Sprintf("✓ %s • %s", name, FormatBytes(size)))
	case "skipped":
		p.console.Dim("- " + name + " (exists)")
	default:
		p.console.Error("✗ "+name, err)
	}
}

// Complete prints the final summary
func (p *DownloadProgress) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := time.Since(p.startTime)
	if !p.debug {
		p.console.Printf("\n")
	}
	p.console.Success(fmt.Sprintf("✓ Downloaded %d images from @%s", p.downloaded, p.username))
	p.console.Dim(fmt.Sprintf("  • %s in %s (%.1f images/min)", FormatBytes(p.bytes), FormatDuration(elapsed), perMinute(p.downloaded, elapsed)))
	if p.skipped > 0 {
		p.console.Dim(fmt.Sprintf("  • %d already present", p.skipped))
	}
	if p.failed > 0 {
		p.console.Warning(fmt.Sprintf("  • %d downloads failed", p.failed))
	}
}

func (p *DownloadProgress) eta() string {
	done := p.done()
	if done == 0 {
		return "calculating..."
	}
	remaining := p.total - done
	if remaining <= 0 {
		return "0s"
	}
	perItem := time.Since(p.startTime) / time.Duration(done)
	return FormatDuration(perItem * time.Duration(remaining))
}

func perMinute(n int, elapsed time.Duration) float64 {
	if elapsed.Minutes() == 0 {
		return 0
	}
	return float64(n) / elapsed.Minutes()
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

// FormatBytes formats a byte count with binary units
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
