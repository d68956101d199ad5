package main

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
	"text/tabwriter"
	"time"

	"github.com/nexusforge/console/pkg/common/models"
	"github.com/nexusforge/console/pkg/notice"
)

func printSuccess(format string, args ...interface{}) {
	prefix := "✓"
	if runtime.GOOS == "windows" {
		prefix = "[OK]"
	}
	fmt.Printf("%s %s\n", prefix, fmt.Sprintf(format, args...))
}

func printError(format string, args ...interface{}) {
	prefix := "✗"
	if runtime.GOOS == "windows" {
		prefix = "[ERROR]"
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", prefix, fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...interface{}) {
	prefix := "⚠"
	if runtime.GOOS == "windows" {
		prefix = "[WARNING]"
	}
	fmt.Printf("%s %s\n", prefix, fmt.Sprintf(format, args...))
}

func printInfo(format string, args ...interface{}) {
	fmt.Printf("%s\n", fmt.Sprintf(format, args...))
}

// errorNoticed records that an error toast already reached the user, so
// main does not print the same failure twice.
var errorNoticed atomic.Bool

// printNotice renders toasts raised by the views.
func printNotice(n notice.Notice) {
	switch n.Level {
	case notice.LevelSuccess:
		printSuccess("%s", n.Message)
	case notice.LevelWarning:
		printWarning("%s", n.Message)
	case notice.LevelError:
		errorNoticed.Store(true)
		printError("%s", n.Message)
	default:
		printInfo("%s", n.Message)
	}
}

type table struct {
	w *tabwriter.Writer
}

func newTable(headers ...string) *table {
	t := &table{w: tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)}
	t.row(headers...)
	return t
}

func (t *table) row(cols ...string) {
	fmt.Fprintln(t.w, strings.Join(cols, "\t"))
}

func (t *table) flush() {
	_ = t.w.Flush()
}

func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, arg)
	}
	return id, nil
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}

func formatTime(ts models.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04")
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func formatExpiry(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	if time.Until(t) < 0 {
		return t.Local().Format(time.RFC1123) + " (expired)"
	}
	return t.Local().Format(time.RFC1123)
}
