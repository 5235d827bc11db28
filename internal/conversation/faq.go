package conversation

import (
	"fmt"
	"strings"
)

// FAQEntry pairs a trigger phrase with a canned response. Matching is a
// case-insensitive substring check against the visitor's message.
type FAQEntry struct {
	Question string
	Response string
}

// BuildFAQ derives the canned-answer table from the company profile.
// Entries are ordered; the first trigger contained in the message wins.
func BuildFAQ(content CompanyContent) []FAQEntry {
	return []FAQEntry{
		{
			Question: "what are your services",
			Response: "We offer a wide range of services including digital marketing, SEO, social media marketing, website development, and offline advertising services like bus branding, mall advertising, and more. Would you like specific details about any of these services?",
		},
		{
			Question: "where are you located",
			Response: fmt.Sprintf("We are headquartered in %s with offices in %s.",
				content.CompanyInfo.Location, strings.Join(content.CompanyInfo.Offices, ", ")),
		},
		{
			Question: "how can i contact you",
			Response: "I'd be happy to help you get in touch with our team. Please let me know what specific information or assistance you need, and I can guide you to the right department or provide relevant details.",
		},
		{
			Question: "what is your vision",
			Response: content.Vision,
		},
	}
}

// MatchFAQ returns the first canned response whose trigger phrase appears in
// the message, or false when none match.
func MatchFAQ(entries []FAQEntry, message string) (string, bool) {
	message = strings.ToLower(strings.TrimSpace(message))
	if message == "" {
		return "", false
	}
	for _, entry := range entries {
		if strings.Contains(message, entry.Question) {
			return entry.Response, true
		}
	}
	return "", false
}
