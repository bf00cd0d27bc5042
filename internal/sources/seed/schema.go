package seed

// SeedFile is the top-level structure of a seed YAML file
//
//	entries:
//	  - url: https://example.com
//	    every: 5
//	  - file: /home/me/report.pdf
//	  - ref: https://classified.example   # kind derived from the prefix
type SeedFile struct {
	Entries []SeedEntry `yaml:"entries"`
}

// SeedEntry is one entry. Exactly one of URL, File or Ref is set.
type SeedEntry struct {
	URL   string `yaml:"url,omitempty"`
	File  string `yaml:"file,omitempty"`
	Ref   string `yaml:"ref,omitempty"`
	Every int    `yaml:"every,omitempty"`
}
