// Package mailer sends transactional email through Sendgrid. Every send is
// fire-and-forget: a receipt that fails to deliver is logged and dropped,
// never bubbled into the commerce path that triggered it.
package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/troupekit/troupe-backend/pkg/config"
	"github.com/troupekit/troupe-backend/pkg/logger"
)

// sender is the slice of the Sendgrid client we use, split out for tests.
type sender interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

// Mailer sends receipts and invites. A Mailer built without an API key is
// disabled: sends become logged no-ops, so local setups work without
// Sendgrid credentials.
type Mailer struct {
	client sender
	from   *mail.Email
	logg   *logger.Logger
}

// New builds a Mailer from configuration.
func New(cfg config.SendgridConfig, logg *logger.Logger) *Mailer {
	m := &Mailer{
		from: mail.NewEmail("TroupeKit", cfg.DefaultFrom),
		logg: logg,
	}
	if cfg.APIKey != "" {
		m.client = sendgrid.NewSendClient(cfg.APIKey)
	}
	return m
}

// OrderReceipt is the content block for a ticket purchase receipt.
type OrderReceipt struct {
	BuyerName  string
	BuyerEmail string
	EventTitle string
	TotalCents int64
	Codes      []string
}

// DonationReceipt is the content block for a donation thank-you.
type DonationReceipt struct {
	DonorName    string
	DonorEmail   string
	CampaignName string
	AmountCents  int64
}

// SendOrderReceipt emails the buyer their redemption codes.
func (m *Mailer) SendOrderReceipt(ctx context.Context, receipt OrderReceipt) {
	subject := fmt.Sprintf("Your tickets for %s", receipt.EventTitle)
	body := fmt.Sprintf(
		"Hi %s,\n\nThanks for your order for %s. Your total was $%d.%02d.\n\nYour ticket codes:\n",
		receipt.BuyerName, receipt.EventTitle, receipt.TotalCents/100, receipt.TotalCents%100,
	)
	for _, code := range receipt.Codes {
		body += "  " + code + "\n"
	}
	body += "\nPresent a code at the door to check in.\n"
	m.send(ctx, receipt.BuyerEmail, receipt.BuyerName, subject, body)
}

// SendDonationReceipt emails the donor a thank-you.
func (m *Mailer) SendDonationReceipt(ctx context.Context, receipt DonationReceipt) {
	subject := fmt.Sprintf("Thank you for supporting %s", receipt.CampaignName)
	body := fmt.Sprintf(
		"Hi %s,\n\nThank you for your gift of $%d.%02d to %s.\n",
		receipt.DonorName, receipt.AmountCents/100, receipt.AmountCents%100, receipt.CampaignName,
	)
	m.send(ctx, receipt.DonorEmail, receipt.DonorName, subject, body)
}

func (m *Mailer) send(ctx context.Context, toEmail, toName, subject, body string) {
	if toEmail == "" {
		return
	}
	if m.client == nil {
		m.logg.Info(ctx, fmt.Sprintf("mailer disabled, skipping %q to %s", subject, toEmail))
		return
	}

	message := mail.NewSingleEmailPlainText(m.from, subject, mail.NewEmail(toName, toEmail), body)
	response, err := m.client.Send(message)
	if err != nil {
		m.logg.Error(ctx, "sending email", err)
		return
	}
	if response.StatusCode >= 400 {
		m.logg.Warn(ctx, fmt.Sprintf("sendgrid rejected %q with status %d", subject, response.StatusCode))
	}
}
