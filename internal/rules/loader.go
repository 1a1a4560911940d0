package rules

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/JNZader/codesentry/internal/issue"
	"github.com/JNZader/codesentry/internal/lang"
)

//go:embed defaults/*.yaml
var embeddedRules embed.FS

var validate = validator.New(validator.WithRequiredStructEnabled())

// Loader reads rule definitions from YAML files.
type Loader struct {
	files           []string
	dirs            []string
	includeDefaults bool
}

// NewLoader creates a loader for the given rule files and directories.
// Directories are walked for *.yaml and *.yml files.
func NewLoader(files, dirs []string, includeDefaults bool) *Loader {
	return &Loader{files: files, dirs: dirs, includeDefaults: includeDefaults}
}

// Load returns every definition from the configured sources, in order:
// embedded defaults, files, then directories.
func (l *Loader) Load() ([]Definition, error) {
	var all []Definition

	if l.includeDefaults {
		embedded, err := loadEmbedded()
		if err != nil {
			return nil, fmt.Errorf("loading embedded rules: %w", err)
		}
		all = append(all, embedded...)
	}

	for _, f := range l.files {
		defs, err := LoadFile(f)
		if err != nil {
			return nil, err
		}
		all = append(all, defs...)
	}

	for _, d := range l.dirs {
		defs, err := loadFromDir(d)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading rules from %s: %w", d, err)
		}
		all = append(all, defs...)
	}

	return all, nil
}

// LoadInto loads all definitions and registers them in reg. It returns the
// number of rules registered.
func (l *Loader) LoadInto(reg *Registry) (int, error) {
	defs, err := l.Load()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, d := range defs {
		if !d.IsEnabled() {
			continue
		}
		if err := reg.AddDefinition(d); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// LoadFile parses a single rule file.
func LoadFile(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rule file: %w", err)
	}
	defs, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return defs, nil
}

func loadEmbedded() ([]Definition, error) {
	var all []Definition

	entries, err := embeddedRules.ReadDir("defaults")
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		data, err := embeddedRules.ReadFile("defaults/" + entry.Name())
		if err != nil {
			return nil, err
		}

		defs, err := ParseYAML(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", entry.Name(), err)
		}

		all = append(all, defs...)
	}

	return all, nil
}

func loadFromDir(dir string) ([]Definition, error) {
	var all []Definition

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		defs, err := LoadFile(path)
		if err != nil {
			return err
		}
		all = append(all, defs...)
		return nil
	})

	return all, err
}

// ParseYAML decodes a rule set document and validates every definition.
func ParseYAML(data []byte) ([]Definition, error) {
	var ruleSet RuleSet
	if err := yaml.Unmarshal(data, &ruleSet); err != nil {
		return nil, err
	}
	for i := range ruleSet.Rules {
		if err := Validate(ruleSet.Rules[i]); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
	}
	return ruleSet.Rules, nil
}

// Validate checks d for required fields, known severity and category, and
// a compilable pattern.
func Validate(d Definition) error {
	_, err := Compile(d)
	return err
}

// Compile validates d and turns it into a Rule.
func Compile(d Definition) (Rule, error) {
	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return Rule{}, fmt.Errorf("%w: %s: failed %q check", ErrInvalidRule, strings.ToLower(fe.Field()), fe.Tag())
		}
		return Rule{}, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}

	sev, err := issue.ParseSeverity(d.Severity)
	if err != nil {
		return Rule{}, fmt.Errorf("%w: rule %q: %v", ErrInvalidRule, d.ID, err)
	}
	cat, err := issue.ParseCategory(d.Category)
	if err != nil {
		return Rule{}, fmt.Errorf("%w: rule %q: %v", ErrInvalidRule, d.ID, err)
	}
	re, err := regexp.Compile(d.Pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("%w: rule %q: %v", ErrInvalidPattern, d.ID, err)
	}

	langs := make([]lang.Language, 0, len(d.Languages))
	for _, l := range d.Languages {
		langs = append(langs, lang.Language(strings.ToLower(strings.TrimSpace(l))))
	}

	rule := Rule{
		ID:         d.ID,
		Pattern:    re,
		Severity:   sev,
		Category:   cat,
		Message:    d.Message,
		Suggestion: d.Suggestion,
		Languages:  langs,
		Files:      d.Files,
	}
	if err := checkRule(&rule); err != nil {
		return Rule{}, err
	}
	return rule, nil
}
