package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"
	"golang.org/x/time/rate"

	"shopfloor-terminal/internal/config"
)

var (
	ErrThrottled = errors.New("notification throttled")
	ErrDisabled  = errors.New("smtp disabled")
)

type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type Mailer struct {
	log             *slog.Logger
	client          sender
	from            string
	production      []string
	admins          []string
	notFoundLimiter *rate.Limiter
}

// NewMailer без включённого SMTP письма только пишутся в лог, отправка возвращает ErrDisabled.
func NewMailer(cfg config.Config, log *slog.Logger) (*Mailer, error) {
	const op = "notify.NewMailer"

	m := &Mailer{
		log:             log,
		from:            cfg.SMTP.From,
		production:      cfg.SMTP.ProductionRecipients,
		admins:          cfg.SMTP.AdminRecipients,
		notFoundLimiter: rate.NewLimiter(rate.Limit(cfg.Notify.NotFoundPerMinute/60), cfg.Notify.Burst),
	}

	if !cfg.SMTP.Enabled {
		return m, nil
	}

	opts := []mail.Option{
		mail.WithPort(cfg.SMTP.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.SMTP.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTP.Username),
			mail.WithPassword(cfg.SMTP.Password),
		)
	}

	client, err := mail.NewClient(cfg.SMTP.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	m.client = client

	return m, nil
}

// SendRemanufacture возвращает Message-ID отправленного письма.
func (m *Mailer) SendRemanufacture(ctx context.Context, r Remanufacture) (string, error) {
	const op = "notify.Mailer.SendRemanufacture"

	body, err := render(remanufactureTmpl, r)
	if err != nil {
		return "", fmt.Errorf("%s: render: %w", op, err)
	}

	messageID := uuid.NewString()
	if err := m.send(ctx, m.production, remanufactureSubject(r), body, messageID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return messageID, nil
}

// SendJobNotFound не чаще лимита из конфига, лишние письма отбрасываются.
func (m *Mailer) SendJobNotFound(ctx context.Context, n JobNotFound) error {
	const op = "notify.Mailer.SendJobNotFound"

	if !m.notFoundLimiter.Allow() {
		m.log.Debug("job not found notification throttled", slog.String("route_card", n.RouteCard))
		return fmt.Errorf("%s: %w", op, ErrThrottled)
	}

	body, err := render(notFoundTmpl, n)
	if err != nil {
		return fmt.Errorf("%s: render: %w", op, err)
	}

	if err := m.send(ctx, m.admins, notFoundSubject(n), body, uuid.NewString()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (m *Mailer) send(ctx context.Context, to []string, subject, body, messageID string) error {
	if len(to) == 0 {
		return errors.New("no recipients configured")
	}

	if m.client == nil {
		m.log.Info("smtp disabled, email not sent",
			slog.String("subject", subject),
			slog.Any("to", to),
			slog.String("message_id", messageID),
		)
		return ErrDisabled
	}

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("from: %w", err)
	}
	if err := msg.To(to...); err != nil {
		return fmt.Errorf("to: %w", err)
	}
	msg.Subject(subject)
	msg.SetMessageIDWithValue(messageID)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	m.log.Info("email sent", slog.String("subject", subject), slog.String("message_id", messageID))

	return nil
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
