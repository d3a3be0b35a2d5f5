package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"kabro/pkg/storage"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// Transport names, as recorded in Attempt.Transport.
const (
	TransportSMTP    = "smtp"
	TransportSES     = "ses"
	TransportSandbox = "sandbox"
)

type envelope struct {
	From    string
	To      string
	Message Message
	Raw     *rawEmail
}

type receipt struct {
	MessageID  string
	PreviewURL string
}

// emailTransport moves one encoded email.
type emailTransport interface {
	Name() string
	Send(ctx context.Context, env envelope) (*receipt, error)
}

// sendMailFunc matches smtp.SendMail.
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type smtpTransport struct {
	addr     string
	host     string
	user     string
	pass     string
	sendMail sendMailFunc
}

func newSMTPTransport(host string, port int, user, pass string) *smtpTransport {
	if port == 0 {
		port = 587
	}
	return &smtpTransport{
		addr:     fmt.Sprintf("%s:%d", host, port),
		host:     host,
		user:     user,
		pass:     pass,
		sendMail: smtp.SendMail,
	}
}

func (t *smtpTransport) Name() string { return TransportSMTP }

// Send uses STARTTLS when the server offers it, via smtp.SendMail.
func (t *smtpTransport) Send(ctx context.Context, env envelope) (*receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	auth := smtp.PlainAuth("", t.user, t.pass, t.host)
	if err := t.sendMail(t.addr, auth, bareAddress(env.From), []string{bareAddress(env.To)}, env.Raw.Data); err != nil {
		return nil, fmt.Errorf("smtp send to %s: %w", t.addr, err)
	}
	return &receipt{MessageID: env.Raw.MessageID}, nil
}

// sesAPI is the subset of the SES v2 client used here.
type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type sesTransport struct {
	client sesAPI
}

func newSESTransport(ctx context.Context, region, accessKey, secretKey string) (*sesTransport, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("ses: load aws config: %w", err)
	}
	return &sesTransport{client: sesv2.NewFromConfig(cfg)}, nil
}

func (t *sesTransport) Name() string { return TransportSES }

// Send submits the already encoded MIME message so inline parts survive.
func (t *sesTransport) Send(ctx context.Context, env envelope) (*receipt, error) {
	out, err := t.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(env.From),
		Destination:      &types.Destination{ToAddresses: []string{env.To}},
		Content: &types.EmailContent{
			Raw: &types.RawMessage{Data: env.Raw.Data},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ses send: %w", err)
	}
	return &receipt{MessageID: aws.ToString(out.MessageId)}, nil
}

// sandboxTransport never leaves the process: it stores the message and a
// browsable HTML preview on the preview disk.
type sandboxTransport struct {
	disk  storage.Disk
	newID func() string
}

func (t *sandboxTransport) Name() string { return TransportSandbox }

func (t *sandboxTransport) Send(ctx context.Context, env envelope) (*receipt, error) {
	id := t.newID()
	if err := t.disk.Put(ctx, id+".eml", env.Raw.Data, "message/rfc822"); err != nil {
		return nil, fmt.Errorf("sandbox store message: %w", err)
	}
	preview := inlineAttachments(env.Message.HTML, env.Message.Attachments)
	if err := t.disk.Put(ctx, id+".html", []byte(preview), "text/html; charset=utf-8"); err != nil {
		return nil, fmt.Errorf("sandbox store preview: %w", err)
	}
	return &receipt{MessageID: env.Raw.MessageID, PreviewURL: t.disk.URL(id + ".html")}, nil
}

// inlineAttachments swaps cid: references for data URIs so a browser can
// display the preview on its own.
func inlineAttachments(html string, attachments []Attachment) string {
	for _, att := range attachments {
		if att.ContentID == "" {
			continue
		}
		uri := "data:" + att.ContentType + ";base64," + encodeBase64(att.Content)
		html = strings.ReplaceAll(html, "cid:"+att.ContentID, uri)
	}
	return html
}
