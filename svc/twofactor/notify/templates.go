package notify

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/a-h/templ"
)

// NoticeParams feeds the security notice template.
type NoticeParams struct {
	AppName              string
	Title                string
	Lead                 string
	Detail               string
	OccurredAt           time.Time
	SupportEmail         string
	BackupCodesRemaining int
	ShowRemaining        bool
}

// Notice renders a plain, table-free security email. Every dynamic value is escaped.
func Notice(p NoticeParams) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		ew.printf(`<!DOCTYPE html><html><head><meta charset="utf-8"><title>%s</title></head>`, templ.EscapeString(p.Title))
		ew.printf(`<body style="font-family:sans-serif;color:#1f2933;max-width:560px;margin:0 auto;padding:24px">`)
		ew.printf(`<h1 style="font-size:20px">%s</h1>`, templ.EscapeString(p.Title))
		ew.printf(`<p>%s</p>`, templ.EscapeString(p.Lead))
		if p.Detail != "" {
			ew.printf(`<p>%s</p>`, templ.EscapeString(p.Detail))
		}
		if p.ShowRemaining {
			ew.printf(`<p><strong>Backup codes remaining:</strong> %d</p>`, p.BackupCodesRemaining)
		}
		ew.printf(`<p style="color:#616e7c;font-size:13px">Time: %s</p>`, templ.EscapeString(p.OccurredAt.UTC().Format(time.RFC1123)))
		if p.SupportEmail != "" {
			ew.printf(`<p style="color:#616e7c;font-size:13px">Not you? Contact <a href="mailto:%s">%s</a> right away.</p>`,
				templ.EscapeString(p.SupportEmail), templ.EscapeString(p.SupportEmail))
		}
		ew.printf(`<p style="color:#9aa5b1;font-size:12px">%s</p></body></html>`, templ.EscapeString(p.AppName))
		return ew.err
	})
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
