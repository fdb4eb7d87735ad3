package config

// SampleConfig returns a fully commented configuration file
func SampleConfig() string {
	return `# BlogView configuration
version: "1.0"

site:
  # Root of the blog server; the API and markup resources hang off it
  url: "http://localhost:8000/"

api:
  prefix: "v1"
  timeout: 10s

templates:
  # Markup base URL (defaults to <site.url>/views/)
  base_url: ""
  # Read markup from a local directory instead of the server
  dir: ""
  # Drop cached templates when files under dir change
  watch: false

blog:
  per_page: 15
  infinite_scroll: true
  # Lines left below the viewport when the next page is loaded
  prefetch_margin: 50

notifications:
  delay: 5s
  fade: 400ms

router:
  root: "/"
  # Do not dispatch the start path; show the server-rendered page instead
  silent: true

output:
  format: "text"   # text|json|markdown|csv (render command)
  theme: "default" # default|high-contrast|minimal
  verbose: false
  log_file: ""
  mouse: true
`
}

// MinimalSampleConfig returns a configuration with only essential settings
func MinimalSampleConfig() string {
	return `version: "1.0"
site:
  url: "http://localhost:8000/"
blog:
  per_page: 15
`
}
