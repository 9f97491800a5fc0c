package review

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/panel/internal/language"
)

// Profile describes one LLM-backed reviewer: its name, the category stamped
// on its findings, and a system prompt per language. The language.Unknown
// entry is the default variant and must be present.
type Profile struct {
	Name     string
	Category string
	Prompts  map[language.Tag]string
}

// SystemPrompt returns the prompt variant for lang, falling back to the
// default variant.
func (p Profile) SystemPrompt(lang language.Tag) string {
	if s, ok := p.Prompts[lang]; ok && s != "" {
		return s
	}
	return p.Prompts[language.Unknown]
}

// Variants lists the languages with a dedicated prompt, sorted.
func (p Profile) Variants() []language.Tag {
	var tags []language.Tag
	for t := range p.Prompts {
		if t != language.Unknown {
			tags = append(tags, t)
		}
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// EffectiveCategory is Category, or the lowercased name when unset.
func (p Profile) EffectiveCategory() string {
	if p.Category != "" {
		return p.Category
	}
	return strings.ToLower(p.Name)
}

// Validate checks that the profile can be used.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("reviewer profile has no name")
	}
	if strings.TrimSpace(p.Prompts[language.Unknown]) == "" {
		return fmt.Errorf("reviewer %q has no default prompt", p.Name)
	}
	return nil
}

// profileFile is the YAML layout of a custom reviewer file.
type profileFile struct {
	Reviewers []struct {
		Name     string            `yaml:"name"`
		Category string            `yaml:"category"`
		Prompts  map[string]string `yaml:"prompts"`
	} `yaml:"reviewers"`
}

// ParseProfiles decodes custom reviewer profiles from YAML. The prompt key
// "default" maps to the default variant; every other key must be a known
// language.
func ParseProfiles(data []byte) ([]Profile, error) {
	var pf profileFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parsing reviewer profiles: %w", err)
	}

	profiles := make([]Profile, 0, len(pf.Reviewers))
	for _, r := range pf.Reviewers {
		p := Profile{Name: strings.TrimSpace(r.Name), Category: r.Category, Prompts: make(map[language.Tag]string)}
		for key, prompt := range r.Prompts {
			if strings.EqualFold(strings.TrimSpace(key), "default") {
				p.Prompts[language.Unknown] = prompt
				continue
			}
			tag := language.ParseTag(key)
			if tag == language.Unknown {
				return nil, fmt.Errorf("reviewer %q: unknown prompt language %q", p.Name, key)
			}
			p.Prompts[tag] = prompt
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// LoadProfiles reads custom reviewer profiles from a YAML file.
func LoadProfiles(path string) ([]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading reviewer profiles: %w", err)
	}
	return ParseProfiles(data)
}

// BuiltinNames lists the built-in reviewers in their default order.
var BuiltinNames = []string{"Security", "Performance", "Style", "Architecture"}

// Builtin returns the built-in profile with the given name (case-insensitive).
func Builtin(name string) (Profile, bool) {
	for _, p := range BuiltinProfiles() {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Profile{}, false
}

// BuiltinProfiles returns the four built-in reviewers in default order.
func BuiltinProfiles() []Profile {
	return []Profile{
		withVariants("Security", securityPrompt, securityFocus),
		withVariants("Performance", performancePrompt, performanceFocus),
		withVariants("Style", stylePrompt, styleFocus),
		withVariants("Architecture", architecturePrompt, architectureFocus),
	}
}

func withVariants(name, base string, focus map[language.Tag]string) Profile {
	p := Profile{Name: name, Prompts: map[language.Tag]string{language.Unknown: base}}
	for tag, extra := range focus {
		info := language.Info(tag)
		p.Prompts[tag] = base + "\n\nThe code is " + info.Name + ". Pay particular attention to:\n" + extra
	}
	return p
}

const securityPrompt = `You are an expert security code reviewer specializing in:
- Injection vulnerabilities (SQL injection, command injection, XSS)
- Authentication and authorization flaws
- Insecure cryptographic practices
- Sensitive data exposure
- Insecure deserialization
- Using components with known vulnerabilities
- Insufficient logging and monitoring
- Broken access control

Analyze code for security issues and provide specific, actionable recommendations.
Focus on OWASP Top 10 and common security pitfalls.`

var securityFocus = map[language.Tag]string{
	language.Python: `- eval/exec, pickle and yaml.load on untrusted input
- subprocess calls with shell=True
- string-formatted SQL instead of parameterized queries`,
	language.JavaScript: `- innerHTML, document.write and eval with user data
- prototype pollution through object merging
- missing input validation in Express handlers`,
	language.TypeScript: `- any-typed request data reaching sensitive sinks
- innerHTML and dangerouslySetInnerHTML usage
- unchecked type assertions on external input`,
	language.Go: `- os/exec with user-controlled arguments
- database/sql queries built with fmt.Sprintf
- TLS configs with InsecureSkipVerify and weak math/rand for secrets`,
	language.Rust: `- unsafe blocks and raw pointer handling
- unwrap/expect on untrusted input causing panics
- std::process::Command with user-controlled arguments`,
}

const performancePrompt = `You are an expert performance engineer reviewing code for:
- Algorithmic inefficiencies (O(n²) loops where O(n) would work)
- Memory leaks and unnecessary allocations
- N+1 query problems and inefficient database access
- Blocking operations in async contexts
- Missing caching or memoization opportunities
- Inefficient data structures
- Excessive logging or I/O operations
- Network optimization issues

Identify performance bottlenecks and suggest concrete optimizations.`

var performanceFocus = map[language.Tag]string{
	language.Python: `- list membership tests inside loops where a set fits
- repeated string concatenation in loops
- blocking calls inside async def functions`,
	language.JavaScript: `- synchronous fs calls on request paths
- unbatched awaits inside loops
- layout thrashing from repeated DOM reads and writes`,
	language.TypeScript: `- unbatched awaits inside loops
- large object spreads on hot paths
- unnecessary re-renders from unstable references`,
	language.Go: `- allocations in hot loops and missing slice preallocation
- goroutine leaks from unbounded or unjoined goroutines
- lock contention and copying large structs by value`,
	language.Rust: `- unnecessary clone() and to_string() calls
- Vec growth without with_capacity
- holding locks across await points`,
}

const stylePrompt = `You are an expert code style and readability reviewer focusing on:
- Naming conventions (unclear variable/function names)
- Code complexity (functions too long, too many parameters)
- Documentation and comments (missing docstrings)
- Consistent formatting and indentation
- DRY principle violations (repeated code)
- Magic numbers and hardcoded values
- Type hints and annotations
- Readability and cognitive load

Suggest improvements that enhance code maintainability and readability.`

var styleFocus = map[language.Tag]string{
	language.Python: `- PEP 8 naming and layout
- missing type hints and docstrings on public functions`,
	language.JavaScript: `- var instead of const/let
- callback nesting that async/await would flatten`,
	language.TypeScript: `- use of any where a precise type exists
- inconsistent interface and type alias usage`,
	language.Go: `- gofmt layout and MixedCaps naming
- missing doc comments on exported identifiers
- errors that are ignored or not wrapped with context`,
	language.Rust: `- rustfmt layout and snake_case naming
- idiomatic iterator use instead of index loops`,
}

const architecturePrompt = `You are an expert software architect reviewing code for:
- SOLID principles violations (Single Responsibility, Open/Closed, etc.)
- Design patterns (missing appropriate patterns)
- Coupling and cohesion issues
- Separation of concerns
- Module structure and organization
- Error handling strategy
- Dependency management
- Testability and mocking concerns
- API design and contracts
- Scalability and extensibility issues

Focus on how the code fits into the larger system architecture.`

var architectureFocus = map[language.Tag]string{
	language.Python: `- god modules and circular imports
- hidden global state that blocks testing`,
	language.JavaScript: `- modules that mix I/O with business logic
- implicit coupling through shared mutable singletons`,
	language.TypeScript: `- leaky abstractions in exported types
- modules that mix I/O with business logic`,
	language.Go: `- large interfaces defined by the implementer instead of the consumer
- package-level mutable state and init side effects
- missing context.Context propagation on blocking calls`,
	language.Rust: `- trait design and ownership boundaries between modules
- error types that lose context across crate boundaries`,
}
