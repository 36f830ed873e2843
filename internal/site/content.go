package site

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed content.yaml
var contentYAML []byte

type Link struct {
	Label string `yaml:"label"`
	Href  string `yaml:"href"`
}

type Card struct {
	Step        string `yaml:"step"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

type Stat struct {
	Number string `yaml:"number"`
	Label  string `yaml:"label"`
}

// Content is the static copy of the marketing page
type Content struct {
	Brand struct {
		Name    string `yaml:"name"`
		Tagline string `yaml:"tagline"`
	} `yaml:"brand"`
	Navigation []Link `yaml:"navigation"`
	Hero       struct {
		Badge           string   `yaml:"badge"`
		Title           string   `yaml:"title"`
		Highlight       string   `yaml:"highlight"`
		Body            string   `yaml:"body"`
		PrimaryAction   string   `yaml:"primary_action"`
		SecondaryAction string   `yaml:"secondary_action"`
		Indicators      []string `yaml:"indicators"`
	} `yaml:"hero"`
	Features struct {
		Title string `yaml:"title"`
		Items []Card `yaml:"items"`
	} `yaml:"features"`
	Steps struct {
		Title string `yaml:"title"`
		Body  string `yaml:"body"`
		Items []Card `yaml:"items"`
	} `yaml:"steps"`
	Trust struct {
		Title       string `yaml:"title"`
		Body        string `yaml:"body"`
		Stats       []Stat `yaml:"stats"`
		BadgesTitle string `yaml:"badges_title"`
		BadgesBody  string `yaml:"badges_body"`
		Badges      []Card `yaml:"badges"`
	} `yaml:"trust"`
	Upload struct {
		Title    string `yaml:"title"`
		Subtitle string `yaml:"subtitle"`
		Action   string `yaml:"action"`
		Formats  string `yaml:"formats"`
	} `yaml:"upload"`
	Chat struct {
		Title        string `yaml:"title"`
		Subtitle     string `yaml:"subtitle"`
		WelcomeTitle string `yaml:"welcome_title"`
		WelcomeBody  string `yaml:"welcome_body"`
		Placeholder  string `yaml:"placeholder"`
		Footnote     string `yaml:"footnote"`
	} `yaml:"chat"`
	Footer struct {
		Email     string   `yaml:"email"`
		Phone     string   `yaml:"phone"`
		Location  string   `yaml:"location"`
		Copyright string   `yaml:"copyright"`
		Links     []string `yaml:"links"`
	} `yaml:"footer"`
}

// LoadContent parses the embedded page copy
func LoadContent() (*Content, error) {
	return ParseContent(contentYAML)
}

func ParseContent(data []byte) (*Content, error) {
	var content Content
	if err := yaml.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("parse site content: %w", err)
	}
	if content.Brand.Name == "" {
		return nil, fmt.Errorf("parse site content: brand name is required")
	}
	return &content, nil
}
