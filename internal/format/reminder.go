// Package format renders bill reminders for the push and chat channels.
package format

import (
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hray3182/BillMe/internal/models"
)

type Urgency int

const (
	Upcoming Urgency = iota
	DueToday
	Overdue
)

func UrgencyOf(daysUntilDue int) Urgency {
	switch {
	case daysUntilDue < 0:
		return Overdue
	case daysUntilDue == 0:
		return DueToday
	default:
		return Upcoming
	}
}

// SlackIcon returns the Slack emoji shortcode for the urgency.
func (u Urgency) SlackIcon() string {
	switch u {
	case Overdue:
		return ":rotating_light:"
	case DueToday:
		return ":warning:"
	default:
		return ":bell:"
	}
}

func (u Urgency) Emoji() string {
	switch u {
	case Overdue:
		return "🚨"
	case DueToday:
		return "⚠️"
	default:
		return "🔔"
	}
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// DueText is the plain phrasing: "today", "in 5 days" or "2 days overdue".
func DueText(daysUntilDue int) string {
	return dueText(daysUntilDue, func(s string) string { return s })
}

func dueText(d int, em func(string) string) string {
	switch UrgencyOf(d) {
	case DueToday:
		return em("today")
	case Upcoming:
		return "in " + em(days(d))
	default:
		return em(days(abs(d)) + " overdue")
	}
}

// Money renders an amount with a dollar sign and two decimals.
func Money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func PushTitle(daysUntilDue int) string {
	switch UrgencyOf(daysUntilDue) {
	case DueToday:
		return "Bill Due Today"
	case Overdue:
		n := abs(daysUntilDue)
		if n == 1 {
			return "Bill 1 Day Overdue"
		}
		return fmt.Sprintf("Bill %d Days Overdue", n)
	default:
		if daysUntilDue == 1 {
			return "Bill Due in 1 Day"
		}
		return fmt.Sprintf("Bill Due in %d Days", daysUntilDue)
	}
}

func PushBody(r models.BillReminder) string {
	return fmt.Sprintf("%s: %s (Min: %s)", r.BillDescription, Money(r.Balance), Money(r.MinimumDue))
}

// SlackText is the notification fallback line for a Slack message.
func SlackText(r models.BillReminder) string {
	u := UrgencyOf(r.DaysUntilDue)
	return fmt.Sprintf("%s Bill reminder: *%s* is due %s",
		u.SlackIcon(), slackEscape(r.BillDescription), dueText(r.DaysUntilDue, slackBold))
}

// SlackBlock is the mrkdwn body of the Slack section block.
func SlackBlock(r models.BillReminder) string {
	u := UrgencyOf(r.DaysUntilDue)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s *Bill Reminder*\n", u.SlackIcon())
	fmt.Fprintf(&sb, "*%s* is due %s\n", slackEscape(r.BillDescription), dueText(r.DaysUntilDue, slackBold))
	fmt.Fprintf(&sb, "• Balance: *%s*\n", Money(r.Balance))
	fmt.Fprintf(&sb, "• Minimum due: *%s*", Money(r.MinimumDue))
	return sb.String()
}

// TelegramHTML renders the reminder for Telegram's HTML parse mode.
func TelegramHTML(r models.BillReminder) string {
	u := UrgencyOf(r.DaysUntilDue)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s <b>Bill Reminder</b>\n", u.Emoji())
	fmt.Fprintf(&sb, "<b>%s</b> is due %s\n", html.EscapeString(r.BillDescription), dueText(r.DaysUntilDue, htmlBold))
	fmt.Fprintf(&sb, "• Balance: <b>%s</b>\n", Money(r.Balance))
	fmt.Fprintf(&sb, "• Minimum due: <b>%s</b>", Money(r.MinimumDue))
	return sb.String()
}

var slackEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// slackEscape encodes the control characters of Slack mrkdwn.
func slackEscape(s string) string { return slackEscaper.Replace(s) }

func slackBold(s string) string { return "*" + s + "*" }
func htmlBold(s string) string  { return "<b>" + s + "</b>" }
