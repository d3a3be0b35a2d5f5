package notify

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
)

// rawEmail is an RFC 5322 message ready for an SMTP DATA command or SES raw send.
type rawEmail struct {
	MessageID string
	Data      []byte
}

// buildMIME renders msg as multipart/related: an HTML part (with a text
// alternative when Text is set) followed by the inline attachments.
func buildMIME(from string, msg Message, now time.Time) (*rawEmail, error) {
	messageID := fmt.Sprintf("%s@%s", uuid.New().String(), senderDomain(from))

	var buf bytes.Buffer
	writeHeader(&buf, "From", from)
	writeHeader(&buf, "To", msg.To)
	if msg.ReplyTo != "" {
		writeHeader(&buf, "Reply-To", msg.ReplyTo)
	}
	writeHeader(&buf, "Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	writeHeader(&buf, "Date", now.Format(time.RFC1123Z))
	writeHeader(&buf, "Message-ID", "<"+messageID+">")
	writeHeader(&buf, "MIME-Version", "1.0")

	related := multipart.NewWriter(&buf)
	writeHeader(&buf, "Content-Type", fmt.Sprintf("multipart/related; boundary=%q", related.Boundary()))
	buf.WriteString("\r\n")

	if err := writeBody(related, msg); err != nil {
		return nil, err
	}
	for _, att := range msg.Attachments {
		if err := writeInline(related, att); err != nil {
			return nil, err
		}
	}
	if err := related.Close(); err != nil {
		return nil, fmt.Errorf("mime: close: %w", err)
	}
	return &rawEmail{MessageID: messageID, Data: buf.Bytes()}, nil
}

func writeHeader(buf *bytes.Buffer, key, value string) {
	buf.WriteString(key)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString("\r\n")
}

func writeBody(related *multipart.Writer, msg Message) error {
	if msg.Text == "" {
		return writeQP(related, "text/html; charset=UTF-8", msg.HTML)
	}

	var alt bytes.Buffer
	altWriter := multipart.NewWriter(&alt)
	if err := writeQP(altWriter, "text/plain; charset=UTF-8", msg.Text); err != nil {
		return err
	}
	if err := writeQP(altWriter, "text/html; charset=UTF-8", msg.HTML); err != nil {
		return err
	}
	if err := altWriter.Close(); err != nil {
		return fmt.Errorf("mime: close alternative: %w", err)
	}

	part, err := related.CreatePart(textproto.MIMEHeader{
		"Content-Type": {fmt.Sprintf("multipart/alternative; boundary=%q", altWriter.Boundary())},
	})
	if err != nil {
		return fmt.Errorf("mime: alternative part: %w", err)
	}
	_, err = part.Write(alt.Bytes())
	return err
}

func writeQP(w *multipart.Writer, contentType, body string) error {
	part, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {contentType},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return fmt.Errorf("mime: %s part: %w", contentType, err)
	}
	qp := quotedprintable.NewWriter(part)
	if _, err := qp.Write([]byte(body)); err != nil {
		return fmt.Errorf("mime: encode %s: %w", contentType, err)
	}
	return qp.Close()
}

func writeInline(w *multipart.Writer, att Attachment) error {
	part, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {fmt.Sprintf("%s; name=%q", att.ContentType, att.Filename)},
		"Content-Transfer-Encoding": {"base64"},
		"Content-ID":                {"<" + att.ContentID + ">"},
		"Content-Disposition":       {fmt.Sprintf("inline; filename=%q", att.Filename)},
	})
	if err != nil {
		return fmt.Errorf("mime: attachment %s: %w", att.Filename, err)
	}

	encoded := encodeBase64(att.Content)
	for len(encoded) > 76 {
		if _, err := part.Write([]byte(encoded[:76] + "\r\n")); err != nil {
			return err
		}
		encoded = encoded[76:]
	}
	_, err = part.Write([]byte(encoded + "\r\n"))
	return err
}

func encodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// senderDomain extracts the domain of an address like "Kabro <a@b.c>".
func senderDomain(from string) string {
	addr := strings.TrimSuffix(from, ">")
	if i := strings.LastIndex(addr, "@"); i >= 0 && i < len(addr)-1 {
		return addr[i+1:]
	}
	return "kabro.local"
}

// bareAddress strips a display name: "Kabro <a@b.c>" becomes "a@b.c".
func bareAddress(addr string) string {
	if i := strings.LastIndex(addr, "<"); i >= 0 {
		return strings.TrimSuffix(strings.TrimSpace(addr[i+1:]), ">")
	}
	return strings.TrimSpace(addr)
}
