// Package security holds the fixed catalogue of vulnerability signatures
// and the line scanner that applies it. The scanner never looks at the
// language of a file, so every file is checked the same way.
package security

import "regexp"

// Pattern is one entry of the catalogue.
type Pattern struct {
	ID         string
	Name       string
	Regex      *regexp.Regexp
	Exclude    *regexp.Regexp // a line matching Exclude is not reported
	Message    string
	Suggestion string
}

// Rule ids emitted by the scanner.
const (
	RuleHardcodedSecret         = "hardcoded-secret"
	RuleSQLInjection            = "sql-injection"
	RuleCommandInjection        = "command-injection"
	RulePathTraversal           = "path-traversal"
	RuleWeakRandomness          = "weak-randomness"
	RuleInsecureDeserialization = "insecure-deserialization"
)

// All patterns are RE2, so matching is linear in the line length.
var catalog = []Pattern{
	{
		ID:         RuleHardcodedSecret,
		Name:       "Hardcoded secret",
		Regex:      regexp.MustCompile(`(?i)\b\w*(?:password|passwd|pwd|api_?key|secret|token)\w*["']?\s*(?::=|=|:)\s*["'][^"']+["']`),
		Message:    "Hardcoded secret assigned from a string literal",
		Suggestion: "Load secrets from environment variables or a secret manager instead of source code",
	},
	{
		ID:   RuleSQLInjection,
		Name: "SQL injection",
		Regex: regexp.MustCompile(`(?i)["'` + "`" + `](?:select|insert|update|delete|drop|replace)\s[^"'` + "`" + `]*["'` + "`" + `]\s*(?:\+|%\s*[\w(]|\.format\s*\()` +
			`|\bf["'](?:select|insert|update|delete|drop)\s[^"']*\{` +
			"|`(?:select|insert|update|delete|drop)\\s[^`]*\\$\\{"),
		Message:    "SQL query built by string formatting or concatenation",
		Suggestion: "Use parameterized queries or prepared statements",
	},
	{
		ID:   RuleCommandInjection,
		Name: "Command injection",
		Regex: regexp.MustCompile(`\b(?:os\.system|os\.popen|subprocess\.(?:call|run|Popen|check_output|check_call)|exec\.Command|Runtime\.getRuntime\(\)\.exec|child_process\.exec|shell_exec|passthru|proc_open)\s*\((?:[^)]*\+|\s*f["'])` +
			`|\bshell\s*=\s*True\b` +
			`|(?:^|[^.\w])(?:eval|exec)\s*\(`),
		Message:    "Shell command or code evaluation built from dynamic input",
		Suggestion: "Avoid eval/exec and shell strings; pass arguments as a list and validate external input",
	},
	{
		ID:         RulePathTraversal,
		Name:       "Path traversal",
		Regex:      regexp.MustCompile(`\b(?:open|fopen|readFile|readFileSync|createReadStream|FileInputStream|FileReader|File|Open|ReadFile|file_get_contents|include|require)\s*\([^)]*\.\.[/\\]`),
		Message:    "File access with a parent-directory traversal sequence",
		Suggestion: "Resolve paths against a fixed base directory and reject inputs containing '..'",
	},
	{
		ID:         RuleWeakRandomness,
		Name:       "Weak randomness",
		Regex:      regexp.MustCompile(`(?i)(?:token|secret|password|passwd|salt|nonce|otp|session|csrf|key)\w*\s*(?::=|=).*\b(?:random\.(?:random|randint|choice|randrange|getrandbits|uniform)|math\.random|rand\.(?:int|intn|int31|int63|float64|read)|mt_rand|rand)\s*\(`),
		Message:    "Non-cryptographic random generator used for a security-sensitive value",
		Suggestion: "Use a cryptographically secure generator (secrets, crypto/rand, SecureRandom, crypto.randomBytes)",
	},
	{
		ID:         RuleInsecureDeserialization,
		Name:       "Insecure deserialization",
		Regex:      regexp.MustCompile(`\b(?:c?[Pp]ickle\.loads?|marshal\.loads?|yaml\.load|jsonpickle\.decode|shelve\.open|unserialize)\s*\(|\bnew\s+ObjectInputStream\s*\(`),
		Exclude:    regexp.MustCompile(`SafeLoader|CSafeLoader|BaseLoader`),
		Message:    "Generic object deserialization of potentially untrusted data",
		Suggestion: "Deserialize with a data-only format (JSON, yaml.safe_load) or validate the source first",
	},
}

// Catalog returns a copy of the built-in patterns.
func Catalog() []Pattern {
	out := make([]Pattern, len(catalog))
	copy(out, catalog)
	return out
}
