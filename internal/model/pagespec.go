package model

// PageSpec describes one page of a multi-case-study PDF: which page to pull
// out and the curated metadata for the resulting document.
type PageSpec struct {
	Page         int      `yaml:"page" json:"page"`
	Client       string   `yaml:"client" json:"client"`
	Title        string   `yaml:"title" json:"title"`
	Capabilities []string `yaml:"capabilities" json:"capabilities,omitempty"`
	Industries   []string `yaml:"industries" json:"industries,omitempty"`
}
