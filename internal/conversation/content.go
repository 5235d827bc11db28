package conversation

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// CompanyContent holds the company profile the chat responder answers from.
// It is loaded once at startup from a JSON file.
type CompanyContent struct {
	CompanyInfo CompanyInfo `json:"company_info"`
	Services    Services    `json:"services"`
	Vision      string      `json:"vision"`
}

type CompanyInfo struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Founded  string   `json:"founded"`
	Location string   `json:"location"`
	Offices  []string `json:"offices"`
}

type Services struct {
	OnlineServices  []string `json:"online_services"`
	OfflineServices []string `json:"offline_services"`
}

// LoadCompanyContent reads the company profile from path. A missing or
// malformed file returns the zero value alongside the error so callers can
// degrade to generic responses instead of failing startup.
func LoadCompanyContent(path string) (CompanyContent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CompanyContent{}, fmt.Errorf("conversation: read company content: %w", err)
	}
	var content CompanyContent
	if err := json.Unmarshal(data, &content); err != nil {
		return CompanyContent{}, fmt.Errorf("conversation: parse company content: %w", err)
	}
	return content, nil
}

// TopServices returns up to n online services joined for prompt building.
func (c CompanyContent) TopServices(n int) string {
	services := c.Services.OnlineServices
	if len(services) > n {
		services = services[:n]
	}
	return strings.Join(services, ", ")
}
