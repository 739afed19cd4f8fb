package mailer

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/troupekit/troupe-backend/pkg/config"
	"github.com/troupekit/troupe-backend/pkg/logger"
)

type stubSender struct {
	sent   []*mail.SGMailV3
	status int
	err    error
}

func (s *stubSender) Send(email *mail.SGMailV3) (*rest.Response, error) {
	s.sent = append(s.sent, email)
	if s.err != nil {
		return nil, s.err
	}
	status := s.status
	if status == 0 {
		status = http.StatusAccepted
	}
	return &rest.Response{StatusCode: status}, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func testMailer(client sender) *Mailer {
	return &Mailer{
		client: client,
		from:   mail.NewEmail("TroupeKit", "no-reply@troupekit.io"),
		logg:   testLogger(),
	}
}

func TestSendOrderReceipt_IncludesEveryCode(t *testing.T) {
	client := &stubSender{}
	m := testMailer(client)

	m.SendOrderReceipt(context.Background(), OrderReceipt{
		BuyerName:  "Pat Jordan",
		BuyerEmail: "pat@example.com",
		EventTitle: "Winter Showcase",
		TotalCents: 5680,
		Codes:      []string{"winter-showcase-a1b2c3", "winter-showcase-d4e5f6"},
	})

	if len(client.sent) != 1 {
		t.Fatalf("expected one send, got %d", len(client.sent))
	}
	body := client.sent[0].Content[0].Value
	for _, code := range []string{"winter-showcase-a1b2c3", "winter-showcase-d4e5f6"} {
		if !strings.Contains(body, code) {
			t.Fatalf("receipt body missing code %s:\n%s", code, body)
		}
	}
	if !strings.Contains(body, "$56.80") {
		t.Fatalf("receipt body missing formatted total:\n%s", body)
	}
}

func TestSendDonationReceipt_SendFailureIsSwallowed(t *testing.T) {
	client := &stubSender{err: io.ErrUnexpectedEOF}
	m := testMailer(client)

	// Must not panic or surface the error.
	m.SendDonationReceipt(context.Background(), DonationReceipt{
		DonorName:    "Sam Lee",
		DonorEmail:   "sam@example.com",
		CampaignName: "Spring Trip",
		AmountCents:  2500,
	})

	if len(client.sent) != 1 {
		t.Fatalf("expected one attempted send, got %d", len(client.sent))
	}
}

func TestSend_SkipsWhenUnconfigured(t *testing.T) {
	m := New(config.SendgridConfig{DefaultFrom: "no-reply@troupekit.io"}, testLogger())

	// No client behind it; send must be a quiet no-op.
	m.SendOrderReceipt(context.Background(), OrderReceipt{
		BuyerEmail: "pat@example.com",
		EventTitle: "Winter Showcase",
	})
}

func TestSend_SkipsEmptyRecipient(t *testing.T) {
	client := &stubSender{}
	m := testMailer(client)

	m.SendDonationReceipt(context.Background(), DonationReceipt{
		DonorName:   "Anonymous",
		AmountCents: 1000,
	})

	if len(client.sent) != 0 {
		t.Fatalf("expected no sends for empty recipient, got %d", len(client.sent))
	}
}
