package notification

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/samudra-paket/erp/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var tokenPattern = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// Compile substitutes {{a.b.c}} tokens from data. Unresolvable tokens are kept verbatim.
func Compile(tpl string, data map[string]any) string {
	if tpl == "" {
		return tpl
	}
	return tokenPattern.ReplaceAllStringFunc(tpl, func(token string) string {
		path := strings.TrimSpace(token[2 : len(token)-2])
		value, ok := lookup(data, path)
		if !ok {
			return token
		}
		return fmt.Sprint(value)
	})
}

func lookup(data map[string]any, path string) (any, bool) {
	var current any = data
	for _, key := range strings.Split(path, ".") {
		m, ok := asMap(current)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok || current == nil {
			return nil, false
		}
	}
	return current, true
}

// asMap accepts the map shapes JSON and BSON decoding produce.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case primitive.M:
		return m, true
	case primitive.D:
		out := make(map[string]any, len(m))
		for _, e := range m {
			out[e.Key] = e.Value
		}
		return out, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, true
	}
	return nil, false
}

// GenerateContent compiles the template for one notification. Channel bodies are
// only produced for the template's default channels.
func GenerateContent(tpl *models.NotificationTemplate, data map[string]any, now time.Time) models.NotificationContent {
	content := models.NotificationContent{
		Title:     Compile(tpl.Title, data),
		Message:   Compile(tpl.Message, data),
		ActionURL: Compile(tpl.ActionURL, data),
	}
	if tpl.HasChannel(models.ChannelEmail) {
		content.Email = &models.EmailTemplate{
			Subject: Compile(tpl.Email.Subject, data),
			Body:    Compile(tpl.Email.Body, data),
		}
	}
	if tpl.HasChannel(models.ChannelSMS) {
		content.SMS = Compile(tpl.SMS, data)
	}
	if tpl.HasChannel(models.ChannelPush) {
		content.Push = &models.PushTemplate{
			Title: Compile(tpl.Push.Title, data),
			Body:  Compile(tpl.Push.Body, data),
		}
	}
	if tpl.ExpiryDays > 0 {
		expires := now.AddDate(0, 0, tpl.ExpiryDays)
		content.ExpiresAt = &expires
	}
	return content
}
