// Package report prints deploy progress as styled step headings, or as
// JSON lines.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/arthur-debert/sshrelease/pkg/deploy"
	"github.com/arthur-debert/sshrelease/pkg/errors"
	"github.com/arthur-debert/sshrelease/pkg/ui"
	"github.com/arthur-debert/sshrelease/pkg/ui/styles"
	"github.com/charmbracelet/lipgloss"
)

// Reporter renders pipeline progress to a writer. It implements
// deploy.Reporter.
type Reporter struct {
	w      io.Writer
	styles *styles.Registry
	events *eventWriter
}

var _ deploy.Reporter = (*Reporter)(nil)

// New returns a reporter writing to w. FormatAuto disables colors when w
// is not a terminal.
func New(w io.Writer, format ui.Format) *Reporter {
	return NewWithStyles(w, format, styles.Default())
}

// NewWithStyles is New with a custom styles configuration.
func NewWithStyles(w io.Writer, format ui.Format, cfg *styles.Config) *Reporter {
	if format == ui.FormatJSON {
		return &Reporter{w: w, events: newEventWriter(w)}
	}
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(ui.ColorProfile(format, w))
	return &Reporter{w: w, styles: cfg.Build(r)}
}

// Step prints the heading of state.
func (r *Reporter) Step(state deploy.State) {
	title, ok := stepTitles[state]
	if !ok {
		title = string(state)
	}
	if r.events != nil {
		r.events.emit(Event{Event: EventStep, State: string(state), Message: title})
		return
	}
	r.line("Step", title)
}

// Detail prints an indented line under the current step.
func (r *Reporter) Detail(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if r.events != nil {
		r.events.emit(Event{Event: EventDetail, Message: msg})
		return
	}
	r.line("Detail", msg)
}

// Deployed prints the success summary of a deploy.
func (r *Reporter) Deployed(release *deploy.Release) {
	if r.events != nil {
		r.events.emit(Event{Event: EventDeployed, Tag: release.Tag, Path: release.Path, Pruned: release.Pruned})
		return
	}
	fmt.Fprintln(r.w)
	r.line("Success", fmt.Sprintf(MsgDeployed, release.Tag, release.Path))
	if len(release.Pruned) > 0 {
		r.line("Muted", fmt.Sprintf(MsgPrunedReleases, strings.Join(release.Pruned, ", ")))
	}
}

// Removed prints the success summary of a remove.
func (r *Reporter) Removed(path, host string) {
	if r.events != nil {
		r.events.emit(Event{Event: EventRemoved, Path: path, Host: host})
		return
	}
	fmt.Fprintln(r.w)
	r.line("Success", fmt.Sprintf(MsgRemoved, path, host))
}

// DryRun prints the dry-run banner.
func (r *Reporter) DryRun() {
	if r.events != nil {
		r.events.emit(Event{Event: EventDryRun, Message: MsgDryRunNotice})
		return
	}
	fmt.Fprintln(r.w)
	r.line("DryRunBanner", MsgDryRunNotice)
}

// Failed prints err with the failing state, and the remote command and
// its stderr verbatim when err carries them.
func (r *Reporter) Failed(err error) {
	details := errors.GetErrorDetails(err)
	state, _ := details[errors.DetailState].(string)
	command, _ := details[errors.DetailCommand].(string)
	stderr, _ := details[errors.DetailStderr].(string)

	if r.events != nil {
		ev := Event{
			Event:   EventFailed,
			State:   state,
			Message: err.Error(),
			Code:    string(errors.GetErrorCode(err)),
			Command: command,
			Stderr:  stderr,
		}
		if status, ok := details[errors.DetailExitStatus].(int); ok {
			ev.ExitStatus = &status
		}
		r.events.emit(ev)
		return
	}

	// stderr is printed in full below, keep the headline to one line
	headline := strings.SplitN(err.Error(), "\n", 2)[0]

	fmt.Fprintln(r.w)
	if state != "" {
		r.line("Error", fmt.Sprintf(MsgFailedFormat, state, headline))
	} else {
		r.line("Error", fmt.Sprintf(MsgFailed, headline))
	}

	if command != "" {
		r.line("Command", r.styles.Render("Key", MsgCommandLabel)+" "+command)
	}
	if strings.TrimSpace(stderr) != "" {
		r.line("Command", r.styles.Render("Key", MsgStderrLabel))
		for _, l := range strings.Split(strings.TrimRight(stderr, "\n"), "\n") {
			r.line("Stderr", l)
		}
	}
}

func (r *Reporter) line(style, text string) {
	fmt.Fprintln(r.w, r.styles.Render(style, text))
}
