package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// BusinessProfile is the business identity printed on quote documents and
// notification emails.
type BusinessProfile struct {
	Name          string   `yaml:"name"`
	AddressLines  []string `yaml:"address"`
	Phone         string   `yaml:"phone"`
	Email         string   `yaml:"email"`
	Website       string   `yaml:"website"`
	LogoPath      string   `yaml:"logoPath"`
	LogoObjectKey string   `yaml:"logoObjectKey"`
	DefaultTerms  string   `yaml:"defaultTerms"`
	PhoneRegion   string   `yaml:"phoneRegion"`
}

// LoadBusinessProfile reads the profile from a YAML file when path is set and
// then applies BUSINESS_* environment overrides.
func LoadBusinessProfile(path string) (BusinessProfile, error) {
	var profile BusinessProfile

	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return profile, fmt.Errorf("read business profile %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &profile); err != nil {
			return profile, fmt.Errorf("parse business profile %s: %w", path, err)
		}
	}

	profile.Name = getEnv("BUSINESS_NAME", profile.Name)
	profile.Phone = getEnv("BUSINESS_PHONE", profile.Phone)
	profile.Email = getEnv("BUSINESS_EMAIL", profile.Email)
	profile.Website = getEnv("BUSINESS_WEBSITE", profile.Website)
	profile.LogoPath = getEnv("BUSINESS_LOGO_PATH", profile.LogoPath)
	profile.LogoObjectKey = getEnv("BUSINESS_LOGO_OBJECT_KEY", profile.LogoObjectKey)
	if addr := getEnv("BUSINESS_ADDRESS", ""); addr != "" {
		profile.AddressLines = splitLines(addr)
	}

	if profile.Name == "" {
		profile.Name = "Events & Catering"
	}
	if profile.PhoneRegion == "" {
		profile.PhoneRegion = "US"
	}
	if profile.DefaultTerms == "" {
		profile.DefaultTerms = "This quote is valid until the date shown. A booking is confirmed once the deposit is received. The remaining balance is due on the event date."
	}

	return profile, nil
}

func splitLines(value string) []string {
	parts := strings.Split(value, "|")
	lines := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
