package config

// SampleConfig is the annotated file written by `reportlens config init`
const SampleConfig = `# ReportLens configuration
version: "1.0"

server:
  # Base URL of the report analysis service
  base_url: "http://localhost:8000"
  analyze_path: "/api/analyze-report"
  chat_path: "/api/chat-with-report"
  # Analysis of large scans can take several minutes
  upload_timeout: 10m
  chat_timeout: 2m

output:
  default_format: "text"  # text, json, markdown, csv
  color_mode: "auto"      # auto, always, never
  theme: "default"        # default, high-contrast, minimal
  verbose: false
  show_progress: true

watch:
  # Wait this long after the last write before uploading a new PDF
  debounce: 500ms
`

// MinimalSampleConfig only points the client at a service
const MinimalSampleConfig = `version: "1.0"
server:
  base_url: "http://localhost:8000"
`
