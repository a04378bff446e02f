package delivery

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/samudra-paket/erp/backend/internal/models"
)

// sesAPI is the part of *sesv2.Client the adapter uses.
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESEmailAdapter delivers the email channel through Amazon SES
type SESEmailAdapter struct {
	client sesAPI
	from   string
}

// NewSESEmailAdapter loads the default AWS credential chain for region.
func NewSESEmailAdapter(ctx context.Context, region, from string) (*SESEmailAdapter, error) {
	if from == "" {
		return nil, fmt.Errorf("SES sender address not configured")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SESEmailAdapter{client: sesv2.NewFromConfig(cfg), from: from}, nil
}

func (a *SESEmailAdapter) Send(ctx context.Context, channel models.Channel, contact Contact, content models.NotificationContent) (Result, error) {
	if channel != models.ChannelEmail {
		return Result{}, fmt.Errorf("ses adapter cannot send %s", channel)
	}
	if contact.Email == "" {
		return Result{}, ErrNoContact
	}
	email := EmailContent(content)

	out, err := a.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(a.from),
		Destination:      &types.Destination{ToAddresses: []string{contact.Email}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(email.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(email.Body), Charset: aws.String("UTF-8")},
				},
			},
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("ses send email: %w", err)
	}
	return Result{
		Delivered: true,
		Metadata:  map[string]any{"provider": "ses", "messageId": aws.ToString(out.MessageId)},
	}, nil
}
