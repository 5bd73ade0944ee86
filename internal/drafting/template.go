package drafting

import (
	"strings"

	"github.com/spigell/job-triage/internal/jobs"
	"github.com/spigell/job-triage/internal/utils"
)

const fallbackTemplate = `Dear {{COMPANY}} Hiring Team,

I am excited to apply for the {{TITLE}} position at {{COMPANY}}. My background and recent project work have prepared me to contribute to your team from day one, and I would welcome the chance to learn from the engineers at {{COMPANY}}.

Thank you for considering my application. I look forward to discussing how I can help.

Best regards,
{{NAME}}`

// FallbackCoverLetter renders the fixed cover letter used when generation fails.
func FallbackCoverLetter(p *jobs.Posting, fullName string) string {
	title, company := "open", "your company"
	if p != nil {
		title = utils.FirstNonEmpty(p.Title, title)
		company = utils.FirstNonEmpty(p.Company, company)
	}

	letter := strings.ReplaceAll(fallbackTemplate, "{{TITLE}}", title)
	letter = strings.ReplaceAll(letter, "{{COMPANY}}", company)
	letter = strings.ReplaceAll(letter, "{{NAME}}", utils.FirstNonEmpty(fullName, "The applicant"))
	return letter
}
