package notifications

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Notifier renders and sends the storefront's transactional emails.
// Delivery failures are logged and never returned to callers.
type Notifier struct {
	sender EmailSender
	logger *logrus.Logger
}

// NewNotifier creates a new notifier
func NewNotifier(sender EmailSender, logger *logrus.Logger) *Notifier {
	return &Notifier{sender: sender, logger: logger}
}

// SendRecoveryToken emails a password recovery token
func (n *Notifier) SendRecoveryToken(ctx context.Context, email, name, token string, expiresAt time.Time) {
	n.send(ctx, RecoveryTokenMessage(email, name, token, expiresAt))
}

// SendPaymentConfirmed emails the payment confirmation of an order
func (n *Notifier) SendPaymentConfirmed(ctx context.Context, email, name string, orderID uint, amount, pointsEarned int64) {
	n.send(ctx, PaymentConfirmedMessage(email, name, orderID, amount, pointsEarned))
}

func (n *Notifier) send(ctx context.Context, message *Message) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := n.sender.Send(ctx, message); err != nil {
		n.logger.WithError(err).WithFields(logrus.Fields{
			"to":       message.To,
			"subject":  message.Subject,
			"provider": n.sender.Name(),
		}).Warn("Failed to send email")
	}
}

// RecoveryTokenMessage renders the recovery email
func RecoveryTokenMessage(email, name, token string, expiresAt time.Time) *Message {
	minutes := int(time.Until(expiresAt).Round(time.Minute).Minutes())
	if minutes < 1 {
		minutes = 1
	}

	text := fmt.Sprintf("Hola %s,\n\nTu código de recuperación es %s. Vence en %d minutos.\n\nSi no solicitaste el cambio, ignora este mensaje.",
		name, token, minutes)
	body := fmt.Sprintf("<p>Hola %s,</p><p>Tu código de recuperación es <strong>%s</strong>. Vence en %d minutos.</p><p>Si no solicitaste el cambio, ignora este mensaje.</p>",
		html.EscapeString(name), html.EscapeString(token), minutes)

	return &Message{
		To:      email,
		ToName:  name,
		Subject: "Recuperación de contraseña",
		Text:    text,
		HTML:    body,
	}
}

// PaymentConfirmedMessage renders the payment confirmation email
func PaymentConfirmedMessage(email, name string, orderID uint, amount, pointsEarned int64) *Message {
	formatted := FormatPesos(amount)

	text := fmt.Sprintf("Hola %s,\n\nConfirmamos el pago de tu pedido #%d por %s.", name, orderID, formatted)
	body := fmt.Sprintf("<p>Hola %s,</p><p>Confirmamos el pago de tu pedido <strong>#%d</strong> por %s.</p>",
		html.EscapeString(name), orderID, formatted)
	if pointsEarned > 0 {
		text += fmt.Sprintf(" Ganaste %d puntos.", pointsEarned)
		body += fmt.Sprintf("<p>Ganaste <strong>%d</strong> puntos.</p>", pointsEarned)
	}

	return &Message{
		To:      email,
		ToName:  name,
		Subject: fmt.Sprintf("Pago confirmado - pedido #%d", orderID),
		Text:    text,
		HTML:    body,
	}
}

// FormatPesos renders an amount as $1.234.567
func FormatPesos(amount int64) string {
	s := strconv.FormatInt(amount, 10)
	negative := len(s) > 0 && s[0] == '-'
	if negative {
		s = s[1:]
	}

	out := make([]byte, 0, len(s)+len(s)/3)
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, s[i])
	}

	if negative {
		return "-$" + string(out)
	}
	return "$" + string(out)
}
