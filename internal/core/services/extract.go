package services

import (
	"regexp"
	"strings"
)

// fieldPattern maps a named document field to the pattern that captures its
// value. Patterns are anchored on the labels the standard mortgage document
// layouts use.
type fieldPattern struct {
	name    string
	pattern *regexp.Regexp
}

var fieldPatterns = []fieldPattern{
	{"employee_name", regexp.MustCompile(`(?i)\bEmployee(?:\s+Name)?\s*[:\-]\s*(.+)`)},
	{"employer_name", regexp.MustCompile(`(?i)\bEmployer(?:\s+Name)?\s*[:\-]\s*(.+)`)},
	{"pay_period", regexp.MustCompile(`(?i)\bPay\s*Period\s*[:\-]\s*(.+)`)},
	{"pay_date", regexp.MustCompile(`(?i)\bPay\s*Date\s*[:\-]\s*(.+)`)},
	{"gross_pay", regexp.MustCompile(`(?i)\bGross\s*Pay\s*[:\-]\s*\$?([0-9,]+\.?\d{0,2})`)},
	{"net_pay", regexp.MustCompile(`(?i)\bNet\s*Pay\s*[:\-]\s*\$?([0-9,]+\.?\d{0,2})`)},
	{"ytd_gross", regexp.MustCompile(`(?i)\bYTD\s*Gross\s*[:\-]\s*\$?([0-9,]+\.?\d{0,2})`)},
	{"hourly_rate", regexp.MustCompile(`(?i)\bHourly\s*Rate\s*[:\-]\s*\$?([0-9,]+\.?\d{0,2})`)},
	{"loan_number", regexp.MustCompile(`(?i)\bLoan\s*(?:Number|No\.?|#)\s*[:\-]?\s*([A-Z0-9][A-Z0-9\-]{3,})`)},
	{"account_balance", regexp.MustCompile(`(?i)\b(?:Ending|Account)\s*Balance\s*[:\-]\s*\$?([0-9,]+\.?\d{0,2})`)},
	{"w2_box1_wages", regexp.MustCompile(`(?i)\bWages,\s*tips,\s*other\s*compensation\s*\$?([0-9,]+\.?\d{0,2})`)},
	{"w2_box2_federal_withheld", regexp.MustCompile(`(?i)\bFederal\s*income\s*tax\s*withheld\s*\$?([0-9,]+\.?\d{0,2})`)},
	{"w2_box3_social_security_wages", regexp.MustCompile(`(?i)\bSocial\s*security\s*wages\s*\$?([0-9,]+\.?\d{0,2})`)},
	{"w2_box5_medicare_wages", regexp.MustCompile(`(?i)\bMedicare\s*wages\s*and\s*tips\s*\$?([0-9,]+\.?\d{0,2})`)},
}

// ExtractFields pulls labeled field values out of document text. First
// match per field wins; fields not present are simply absent from the map.
// Values are trimmed of trailing line content whitespace only; callers must
// redact them before storage.
func ExtractFields(text string) map[string]string {
	fields := make(map[string]string)
	for _, fp := range fieldPatterns {
		m := fp.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		value := strings.TrimSpace(m[1])
		if value != "" {
			fields[fp.name] = value
		}
	}
	return fields
}
