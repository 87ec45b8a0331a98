package model

// Topic is a named classification bucket with a stable, globally unique slug.
// Topics are created lazily on first reference and never duplicated.
type Topic struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}
