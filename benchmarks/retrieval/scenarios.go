// ABOUTME: Scenario data for retrieval quality benchmarks
// ABOUTME: Each scenario indexes a small corpus and asks queries with known relevant sources

package retrieval

// Scenario is one corpus plus the queries evaluated against it
type Scenario struct {
	ID          string
	Name        string
	Description string
	Documents   []Document
	Queries     []Query
}

// Document is a file to index before querying
type Document struct {
	Filename string
	Text     string
}

// Query is a question with its ground truth
type Query struct {
	Text string

	// ExpectedSources lists files that hold the answer
	ExpectedSources []string

	// ExpectedInContext lists phrases the returned chunks must contain
	ExpectedInContext []string

	// ExpectEmpty marks queries with no answer in the corpus;
	// any result above the threshold counts against precision
	ExpectEmpty bool
}

// QueryResult is the evaluation of one query
type QueryResult struct {
	Query          string   `json:"query"`
	Returned       int      `json:"returned"`
	Unfiltered     int      `json:"unfiltered"`
	Sources        []string `json:"sources"`
	SourceRecall   float64  `json:"source_recall"`
	ContextRecall  float64  `json:"context_recall"`
	Precision      float64  `json:"precision"`
	ReciprocalRank float64  `json:"reciprocal_rank"`
	Detail         string   `json:"detail"`
}

// ScenarioResult aggregates the queries of one scenario
type ScenarioResult struct {
	ScenarioID    string        `json:"scenario_id"`
	ScenarioName  string        `json:"scenario_name"`
	ChunksIndexed int           `json:"chunks_indexed"`
	ChunksFailed  int           `json:"chunks_failed"`
	Threshold     float64       `json:"threshold"`
	Queries       []QueryResult `json:"queries"`
	SourceRecall  float64       `json:"source_recall"`
	ContextRecall float64       `json:"context_recall"`
	Precision     float64       `json:"precision"`
	MRR           float64       `json:"mrr"`
	Status        string        `json:"status"`
	ErrorMessage  string        `json:"error,omitempty"`
}

// AllScenarios returns the built-in scenarios
func AllScenarios() []Scenario {
	return []Scenario{
		APIDocs(),
		Troubleshooting(),
		OutOfScope(),
	}
}

// ScenarioByID finds a built-in scenario
func ScenarioByID(id string) (Scenario, bool) {
	for _, s := range AllScenarios() {
		if s.ID == id {
			return s, true
		}
	}
	return Scenario{}, false
}

// APIDocs is a small API reference split across topical files
func APIDocs() Scenario {
	return Scenario{
		ID:          "api",
		Name:        "API reference lookup",
		Description: "Queries whose answers live in one of several topical reference files",
		Documents: []Document{
			{
				Filename: "authentication.md",
				Text: `Authentication. Every request must include an API key in the Authorization header using the Bearer scheme.
Keys are created in the dashboard under Settings. A key can be revoked at any time, and revoked keys fail with status 401.

Tokens for service accounts expire after 24 hours and must be refreshed with the token endpoint.`,
			},
			{
				Filename: "rate-limits.md",
				Text: `Rate limits. Each API key may send 600 requests per minute. When the limit is exceeded the server answers with status 429
and a Retry-After header giving the number of seconds to wait.

Bulk endpoints count each item in the batch as one request against the limit.`,
			},
			{
				Filename: "pagination.md",
				Text: `Pagination. List endpoints return at most 100 items per page. The response includes a next_cursor field;
pass it as the cursor query parameter to fetch the following page. An empty next_cursor means the last page was reached.`,
			},
		},
		Queries: []Query{
			{
				Text:              "How do I send my API key with a request?",
				ExpectedSources:   []string{"authentication.md"},
				ExpectedInContext: []string{"Authorization header", "Bearer"},
			},
			{
				Text:              "What happens when I exceed the rate limit?",
				ExpectedSources:   []string{"rate-limits.md"},
				ExpectedInContext: []string{"429", "Retry-After"},
			},
			{
				Text:              "How do I fetch the next page of results?",
				ExpectedSources:   []string{"pagination.md"},
				ExpectedInContext: []string{"next_cursor"},
			},
		},
	}
}

// Troubleshooting spreads one long guide over several chunks
func Troubleshooting() Scenario {
	return Scenario{
		ID:          "guide",
		Name:        "Long guide chunk retrieval",
		Description: "One long guide is chunked; each query targets a specific section",
		Documents: []Document{
			{
				Filename: "operations-guide.txt",
				Text: `Installing the agent. Download the package for your platform and run the installer as an administrator.
The agent registers itself as a system service and starts on boot. Configuration lives in /etc/agent/agent.yaml.

Upgrading the agent. Stop the service, install the new package over the old one, and start the service again.
Configuration files are preserved during upgrades. Downgrades are not supported.

Log files. The agent writes logs to /var/log/agent. Logs rotate daily and seven days are kept.
Set log_level to debug in the configuration file to capture verbose output while diagnosing problems.

Disk usage. The local buffer stores unsent metrics when the network is down. The buffer is capped at 512 megabytes;
the oldest entries are dropped first when the cap is reached.

Certificates. The agent verifies the collector certificate on every connection. To trust a private certificate authority,
place its PEM file in /etc/agent/ca and restart the service.`,
			},
		},
		Queries: []Query{
			{
				Text:              "Where are the agent log files and how long are they kept?",
				ExpectedSources:   []string{"operations-guide.txt"},
				ExpectedInContext: []string{"/var/log/agent", "seven days"},
			},
			{
				Text:              "How do I trust a private certificate authority?",
				ExpectedSources:   []string{"operations-guide.txt"},
				ExpectedInContext: []string{"/etc/agent/ca"},
			},
			{
				Text:              "What happens to buffered metrics when the disk cap is reached?",
				ExpectedSources:   []string{"operations-guide.txt"},
				ExpectedInContext: []string{"512 megabytes", "oldest entries"},
			},
		},
	}
}

// OutOfScope asks questions the corpus cannot answer
func OutOfScope() Scenario {
	docs := APIDocs().Documents
	return Scenario{
		ID:          "noanswer",
		Name:        "Out-of-scope queries",
		Description: "Queries unrelated to the corpus should return nothing above the threshold",
		Documents:   docs,
		Queries: []Query{
			{Text: "What is a good recipe for banana bread?", ExpectEmpty: true},
			{Text: "Who won the chess world championship in 1972?", ExpectEmpty: true},
		},
	}
}
