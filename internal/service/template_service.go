// internal/service/template_service.go
package service

import (
    "strings"

    "github.com/leadloop/followup-backend/internal/model"
)

func RenderTemplate(template string, data map[string]string) string {
    result := template
    for k, v := range data {
        if v == "" {
            v = "<unknown>"
        }
        result = strings.ReplaceAll(result, "{"+k+"}", v)
    }
    return result
}

// ConversationPlaceholders exposes the fields step templates may reference.
func ConversationPlaceholders(c *model.Conversation) map[string]string {
    return map[string]string{
        "contact_name": c.ContactName,
        "phone":        c.Phone,
    }
}
