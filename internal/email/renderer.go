// Package email renders the transactional emails sent by the storefront.
package email

import (
	"embed"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"kabro/internal/models"
	"kabro/internal/notify"

	"github.com/osteele/liquid"
)

// LogoContentID is the content-id of the inline brand mark. The layout
// references it as cid:LogoContentID and the attachment carries it.
const LogoContentID = "kabro-logo"

const accent = "#FFC107"

//go:embed templates/*.liquid
var templateFS embed.FS

//go:embed assets/logo.svg
var defaultLogo []byte

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeHTML escapes the five HTML-significant characters.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// Rendered is an HTML body plus the inline parts it references.
type Rendered struct {
	HTML        string
	Attachments []notify.Attachment
}

// Renderer turns orders and contact messages into branded HTML emails.
// It is safe for concurrent use.
type Renderer struct {
	layout   *liquid.Template
	contact  *liquid.Template
	order    *liquid.Template
	appURL   string
	logoPath string
}

// NewRenderer parses the embedded templates. An empty logoPath uses the
// embedded brand mark; a path that cannot be read leaves the logo out.
func NewRenderer(appURL, logoPath string) (*Renderer, error) {
	engine := liquid.NewEngine()
	engine.RegisterFilter("escape_html", func(s interface{}) string {
		if s == nil {
			return ""
		}
		return EscapeHTML(fmt.Sprint(s))
	})
	engine.RegisterFilter("nl2br", func(s string) string {
		return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\n", "<br>")
	})

	r := &Renderer{appURL: appURL, logoPath: logoPath}
	for name, dst := range map[string]**liquid.Template{
		"layout":  &r.layout,
		"contact": &r.contact,
		"order":   &r.order,
	} {
		src, err := templateFS.ReadFile("templates/" + name + ".liquid")
		if err != nil {
			return nil, fmt.Errorf("email: read %s template: %w", name, err)
		}
		tpl, err := engine.ParseTemplate(src)
		if err != nil {
			return nil, fmt.Errorf("email: parse %s template: %w", name, err)
		}
		*dst = tpl
	}
	return r, nil
}

// Contact renders the notification sent to the shop owner for a contact message.
func (r *Renderer) Contact(msg models.ContactMessage) (*Rendered, error) {
	return r.render("Nouveau message de contact", r.contact, liquid.Bindings{
		"name":    msg.Name,
		"email":   msg.Email,
		"message": msg.Message,
	})
}

// Order renders the confirmation sent to the customer.
func (r *Renderer) Order(order models.Order) (*Rendered, error) {
	items := make([]map[string]interface{}, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, map[string]interface{}{
			"name":       item.Name,
			"qty":        item.Qty,
			"price":      models.FormatMoney(item.Price),
			"line_total": models.FormatMoney(models.LineTotal(item.Price, item.Qty)),
		})
	}
	return r.render(fmt.Sprintf("Commande #%d", order.ID), r.order, liquid.Bindings{
		"id":      int(order.ID),
		"items":   items,
		"address": order.Address,
		"phone":   order.Phone,
		"total":   models.FormatMoney(order.Total),
	})
}

func (r *Renderer) render(title string, body *liquid.Template, bindings liquid.Bindings) (*Rendered, error) {
	bindings["accent"] = accent
	bindings["app_url"] = r.appURL

	inner, err := body.RenderString(bindings)
	if err != nil {
		return nil, fmt.Errorf("email: render body: %w", err)
	}

	attachments := r.logoAttachments()
	logoCID := ""
	if len(attachments) > 0 {
		logoCID = LogoContentID
	}
	html, err := r.layout.RenderString(liquid.Bindings{
		"title":    title,
		"content":  inner,
		"accent":   accent,
		"app_url":  r.appURL,
		"logo_cid": logoCID,
	})
	if err != nil {
		return nil, fmt.Errorf("email: render layout: %w", err)
	}
	return &Rendered{HTML: html, Attachments: attachments}, nil
}

func (r *Renderer) logoAttachments() []notify.Attachment {
	if r.logoPath == "" {
		return []notify.Attachment{{
			Filename:    "logo.svg",
			ContentType: "image/svg+xml",
			ContentID:   LogoContentID,
			Content:     defaultLogo,
		}}
	}
	content, err := os.ReadFile(r.logoPath)
	if err != nil {
		log.Printf("Brand logo unavailable at %s: %v", r.logoPath, err)
		return nil
	}
	return []notify.Attachment{{
		Filename:    filepath.Base(r.logoPath),
		ContentType: logoContentType(r.logoPath),
		ContentID:   LogoContentID,
		Content:     content,
	}}
}

func logoContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	default:
		return "image/svg+xml"
	}
}
