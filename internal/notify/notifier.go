// internal/notify/notifier.go
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	"pelviu-funnel/internal/common/logger"
	"pelviu-funnel/internal/models"
)

var ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Config struct {
	EmailEnabled bool
	FromEmail    string
	ToEmail      string
	SMSEnabled   bool
	PhoneNumber  string
	SenderID     string
}

// Result reports which channels delivered.
type Result struct {
	EmailSent bool
	SMSSent   bool
}

// Notifier alerts the clinic about new leads. Email goes out for every lead;
// SMS only for Level 2 and Level 3 results.
type Notifier struct {
	config Config
	ses    SESService
	sns    SNSService
	logger logger.Logger
}

func NewNotifier(cfg Config, sesClient SESService, snsClient SNSService, log logger.Logger) *Notifier {
	return &Notifier{
		config: cfg,
		ses:    sesClient,
		sns:    snsClient,
		logger: logger.ForComponent(log, "notify"),
	}
}

func (n *Notifier) NotifyNewLead(ctx context.Context, record models.LeadRecord) (Result, error) {
	var result Result
	if !record.Contact.IsLead() {
		return result, nil
	}

	var errs []error

	if n.config.EmailEnabled && n.ses != nil && n.config.ToEmail != "" {
		if err := n.sendEmail(ctx, subjectFor(record), bodyFor(record)); err != nil {
			errs = append(errs, fmt.Errorf("%w: email: %v", ErrNotificationSendFailed, err))
		} else {
			result.EmailSent = true
		}
	}

	if n.config.SMSEnabled && n.sns != nil && n.config.PhoneNumber != "" && isHighPriority(record.Recommendation) {
		if err := n.sendSMS(ctx, smsFor(record)); err != nil {
			errs = append(errs, fmt.Errorf("%w: sms: %v", ErrNotificationSendFailed, err))
		} else {
			result.SMSSent = true
		}
	}

	if len(errs) > 0 {
		return result, errors.Join(errs...)
	}

	n.logger.Info("lead notification sent", map[string]interface{}{
		"leadId":    record.ID,
		"emailSent": result.EmailSent,
		"smsSent":   result.SMSSent,
	})
	return result, nil
}

func isHighPriority(r models.Recommendation) bool {
	return r == models.RecommendationLevel2 || r == models.RecommendationLevel3
}

func subjectFor(r models.LeadRecord) string {
	return fmt.Sprintf("Nuevo lead pelviU: %s (%d%%, %s)", strings.TrimSpace(r.Contact.Name), r.Score, r.Treatment)
}

func bodyFor(r models.LeadRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Nombre: %s\n", r.Contact.Name)
	fmt.Fprintf(&b, "Edad: %s\n", r.Contact.Age)
	fmt.Fprintf(&b, "Email: %s\n", r.Contact.Email)
	fmt.Fprintf(&b, "Teléfono: %s\n", r.Contact.Phone)
	fmt.Fprintf(&b, "Género: %s\n", r.Gender)
	fmt.Fprintf(&b, "Puntuación: %d%%\n", r.Score)
	fmt.Fprintf(&b, "Tratamiento: %s\n", r.Treatment)
	fmt.Fprintf(&b, "Fecha: %s\n", r.Timestamp.UTC().Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "ID: %s\n", r.ID)
	return b.String()
}

func smsFor(r models.LeadRecord) string {
	return fmt.Sprintf("pelviU: nuevo lead %s, %d%% %s. Tel %s", strings.TrimSpace(r.Contact.Name), r.Score, r.Treatment, r.Contact.Phone)
}

func (n *Notifier) sendEmail(ctx context.Context, subject, body string) error {
	_, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{
			ToAddresses: []string{n.config.ToEmail},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
			},
		},
		Source: aws.String(n.config.FromEmail),
	})
	return err
}

func (n *Notifier) sendSMS(ctx context.Context, message string) error {
	input := &sns.PublishInput{
		PhoneNumber: aws.String(n.config.PhoneNumber),
		Message:     aws.String(message),
	}
	if n.config.SenderID != "" {
		input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {
				DataType:    aws.String("String"),
				StringValue: aws.String(n.config.SenderID),
			},
		}
	}
	_, err := n.sns.Publish(ctx, input)
	return err
}
