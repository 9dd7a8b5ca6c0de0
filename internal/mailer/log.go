package mailer

import (
	"context"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogMailer renders and composes mails but only logs them. It is the
// default transport when no SMTP server is configured.
type LogMailer struct {
	From      *mail.Address
	Templates *Templates
	Logger    *zerolog.Logger // nil means the global logger
	Body      bool            // include the plain-text body in the log line
}

// Send implements Mailer.
func (l *LogMailer) Send(ctx context.Context, m Mail) error {
	msg, from, err := build(l.Templates, l.From, m, time.Now())
	if err != nil {
		return err
	}
	lg := l.Logger
	if lg == nil {
		lg = &log.Logger
	}
	ev := lg.Info().
		Str("template", m.Template).
		Str("lang", m.Lang).
		Str("from", from.Address).
		Str("to", m.To).
		Str("subject", m.Subject).
		Bool("attachment", m.Attachment != nil).
		Int("bytes", len(msg))
	if l.Body {
		ev = ev.Bytes("raw", msg)
	}
	ev.Msg("mail (log transport)")
	return nil
}
