package models

// Entry is one Developer Hub index record: a title and its hub-relative URL.
type Entry struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Category maps opaque index keys to entries.
type Category map[string]Entry

// Index is the wiki corpus: category name -> key -> entry. It is built once
// at startup and never mutated afterwards.
type Index map[string]Category

// ScoredResult is one ranked match produced by the matcher. Lower weight
// sorts first.
type ScoredResult struct {
	Category string
	Title    string
	URL      string
	Weight   int
}

// Article is one RSA corpus record.
type Article struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
	Content string `json:"content"`
	Author  string `json:"author"`
}

// Record is a remote search hit normalized to the fields the bot renders.
type Record struct {
	Title       string
	URL         string
	Description string
	Score       float64
}

// Embed is the renderer-agnostic message payload handed to the chat gateway.
type Embed struct {
	Title       string   `json:"title"`
	URL         string   `json:"url,omitempty"`
	Description string   `json:"description,omitempty"`
	Lines       []string `json:"lines,omitempty"`
	Footer      string   `json:"footer,omitempty"`
}
