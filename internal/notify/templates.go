package notify

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/osteele/liquid"

	"github.com/brightline/coi-tracker/internal/domain"
)

const (
	subjectExpiring30   = `Insurance for {{ entity_name }} expires in {{ days_until }} days`
	subjectExpiring7    = `Action needed: insurance for {{ entity_name }} expires in {{ days_until }} days`
	subjectExpired      = `Insurance for {{ entity_name }} has expired`
	subjectNonCompliant = `Insurance for {{ entity_name }} does not meet requirements`
	subjectFollowUp     = `Reminder {{ follow_up_count }}: insurance for {{ entity_name }} still out of compliance`
	subjectEscalation   = `Manual intervention needed: {{ entity_name }} insurance unresolved`
)

const bodyExpiring = `<html><body>
<p>Hello,</p>
<p>The certificate of insurance on file for <strong>{{ entity_name }}</strong>
expires on {{ expiration_date | date_us }} ({{ days_until }} days from now).</p>
<p>Please send an updated certificate before the expiration date to stay in
compliance.</p>
<p>Thank you,<br>{{ from_name }}</p>
</body></html>`

const bodyExpired = `<html><body>
<p>Hello,</p>
<p>The certificate of insurance on file for <strong>{{ entity_name }}</strong>
expired on {{ expiration_date | date_us }}.</p>
<p>Coverage can no longer be verified. Please send a current certificate as
soon as possible.</p>
<p>Thank you,<br>{{ from_name }}</p>
</body></html>`

const bodyNonCompliant = `<html><body>
<p>Hello,</p>
<p>We reviewed the certificate of insurance for
<strong>{{ entity_name }}</strong> and found the following gaps:</p>
<ul>
{% for gap in gaps %}<li>{{ gap }}</li>
{% endfor %}</ul>
<p>Please send an updated certificate that addresses these items.</p>
<p>Thank you,<br>{{ from_name }}</p>
</body></html>`

const bodyFollowUp = `<html><body>
<p>Hello,</p>
<p>This is reminder {{ follow_up_count }} of {{ max_follow_ups }}: the
insurance coverage for <strong>{{ entity_name }}</strong> is still out of
compliance.</p>
<p>Please send an updated certificate of insurance to resolve this.</p>
<p>Thank you,<br>{{ from_name }}</p>
</body></html>`

const bodyEscalation = `<html><body>
<p>Hello,</p>
<p>Automated follow-up for <strong>{{ entity_name }}</strong>
({{ contact_email }}) has been exhausted after {{ max_follow_ups }} reminders
without resolution.</p>
<p>Manual intervention is needed. No further automated reminders will be
sent.</p>
</body></html>`

// Renderer renders notification emails from Liquid templates with a small
// set of domain filters, caching parsed templates across sends.
type Renderer struct {
	engine *liquid.Engine
	cache  sync.Map // map[string]*liquid.Template
}

// NewRenderer builds a renderer with the money and date_us filters
// registered.
func NewRenderer() *Renderer {
	engine := liquid.NewEngine()

	// {{ 1000000 | money }} -> $1,000,000
	engine.RegisterFilter("money", func(value interface{}) string {
		var n int64
		switch v := value.(type) {
		case int64:
			n = v
		case int:
			n = int64(v)
		case float64:
			n = int64(v)
		default:
			return fmt.Sprintf("%v", value)
		}
		s := strconv.FormatInt(n, 10)
		var b strings.Builder
		b.WriteString("$")
		for i, r := range s {
			if i > 0 && (len(s)-i)%3 == 0 {
				b.WriteString(",")
			}
			b.WriteRune(r)
		}
		return b.String()
	})

	// {{ expiration_date | date_us }} -> November 30, 2026
	engine.RegisterFilter("date_us", func(value interface{}) string {
		switch v := value.(type) {
		case time.Time:
			return v.Format("January 2, 2006")
		case string:
			if t, err := time.Parse("2006-01-02", v); err == nil {
				return t.Format("January 2, 2006")
			}
			return v
		default:
			return fmt.Sprintf("%v", value)
		}
	})

	return &Renderer{engine: engine}
}

// Render produces the subject and HTML body for a notification kind.
func (r *Renderer) Render(kind domain.NotificationKind, bindings map[string]interface{}) (subject, html string, err error) {
	var subjectTpl, bodyTpl string
	switch kind {
	case domain.NotifyExpiring30:
		subjectTpl, bodyTpl = subjectExpiring30, bodyExpiring
	case domain.NotifyExpiring7:
		subjectTpl, bodyTpl = subjectExpiring7, bodyExpiring
	case domain.NotifyExpired:
		subjectTpl, bodyTpl = subjectExpired, bodyExpired
	case domain.NotifyNonCompliant:
		subjectTpl, bodyTpl = subjectNonCompliant, bodyNonCompliant
	case domain.NotifyFollowUp:
		subjectTpl, bodyTpl = subjectFollowUp, bodyFollowUp
	case domain.NotifyManagerEscalation:
		subjectTpl, bodyTpl = subjectEscalation, bodyEscalation
	default:
		return "", "", fmt.Errorf("no template for notification kind %q", kind)
	}

	subject, err = r.render(subjectTpl, bindings)
	if err != nil {
		return "", "", fmt.Errorf("rendering subject for %s: %w", kind, err)
	}
	html, err = r.render(bodyTpl, bindings)
	if err != nil {
		return "", "", fmt.Errorf("rendering body for %s: %w", kind, err)
	}
	return subject, html, nil
}

func (r *Renderer) render(src string, bindings map[string]interface{}) (string, error) {
	var tpl *liquid.Template
	if cached, ok := r.cache.Load(src); ok {
		tpl = cached.(*liquid.Template)
	} else {
		parsed, err := r.engine.ParseString(src)
		if err != nil {
			return "", err
		}
		r.cache.Store(src, parsed)
		tpl = parsed
	}
	out, err := tpl.Render(bindings)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
