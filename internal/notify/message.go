package notify

import (
	"strings"

	"github.com/BraxtonElmer/paimom/internal/domain"
)

const (
	dailyChecklist = "Daily commissions, resin, and domains have reset!\n" +
		"Don't forget to:\n" +
		"• Complete daily commissions\n" +
		"• Use your resin\n" +
		"• Check expedition rewards\n" +
		"• Complete battle pass tasks"
	weeklyChecklist = "Weekly bosses and activities have reset!\n" +
		"Don't forget to:\n" +
		"• Fight weekly bosses (30 resin)\n" +
		"• Collect reputation rewards\n" +
		"• Complete weekly battle pass tasks\n" +
		"• Buy from the teapot traveling salesman"
)

// FormatMessage renders the delivery text for a reminder: title, optional
// free-text body, then a kind-specific footer.
func FormatMessage(rem *domain.Reminder) string {
	var b strings.Builder
	b.WriteString("**Reminder: " + rem.Title + "**\n\n")
	if rem.Body != "" {
		b.WriteString(rem.Body + "\n\n")
	}

	switch rem.Kind {
	case domain.KindDailyReset:
		b.WriteString(dailyChecklist)
	case domain.KindWeeklyReset:
		b.WriteString(weeklyChecklist)
	case domain.KindDomain:
		name := rem.Metadata["domain"]
		if name == "" {
			name = "Unknown"
		}
		b.WriteString("The domain **" + name + "** is now available!")
	case domain.KindResinFull:
		b.WriteString("Your resin should be full or nearly full!")
	}
	return strings.TrimRight(b.String(), "\n")
}
