package templates

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"socratic/internal/logging"
	"socratic/internal/types"
)

// =============================================================================
// YAML PACKS
// =============================================================================

// Pack is the on-disk shape of a template pack file. Packs let operators
// drop in domain phrasings without recompiling:
//
//	name: healthcare-extra
//	domain: healthcare
//	templates:
//	  - type: technical
//	    complexity: advanced
//	    text: "How is PHI segregated from operational data?"
type Pack struct {
	Name      string         `yaml:"name"`
	Domain    string         `yaml:"domain"` // Default domain for entries
	Templates []PackTemplate `yaml:"templates"`
}

// PackTemplate is a single entry inside a pack file.
type PackTemplate struct {
	ID                 string   `yaml:"id"`
	Domain             string   `yaml:"domain"`
	Type               string   `yaml:"type"`
	Complexity         string   `yaml:"complexity"`
	Text               string   `yaml:"text"`
	FollowUps          []string `yaml:"follow_ups"`
	ValidationCriteria []string `yaml:"validation_criteria"`
}

// PackSource derives the library source marker for a pack file. Each file
// owns its marker so reloading one file replaces exactly its templates.
func PackSource(path string) string {
	return SourcePack + ":" + filepath.Base(path)
}

// LoadPackFile reads and parses one pack file.
func LoadPackFile(path string) (*Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pack %s: %w", path, err)
	}
	var pack Pack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("parse pack %s: %w", path, err)
	}
	if pack.Name == "" {
		pack.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &pack, nil
}

// Build converts pack entries to templates, applying defaults and
// skipping entries that cannot be salvaged. Bad entries are logged, not
// fatal: one typo should not take down the whole pack.
func (p *Pack) Build(source string) []*Template {
	out := make([]*Template, 0, len(p.Templates))
	for i, pt := range p.Templates {
		if strings.TrimSpace(pt.Text) == "" {
			logging.TemplatesWarn("pack %s: entry %d has no text, skipping", p.Name, i+1)
			continue
		}
		domain := pt.Domain
		if domain == "" {
			domain = p.Domain
		}
		if domain == "" {
			domain = types.GeneralDomain
		}
		qt, ok := parseQuestionType(pt.Type)
		if !ok {
			logging.TemplatesWarn("pack %s: entry %d has unknown type %q, using clarifying", p.Name, i+1, pt.Type)
		}
		tier := types.ComplexityTier(strings.ToLower(strings.TrimSpace(pt.Complexity)))
		if !tier.Valid() {
			if pt.Complexity != "" {
				logging.TemplatesWarn("pack %s: entry %d has unknown complexity %q, using moderate", p.Name, i+1, pt.Complexity)
			}
			tier = types.ComplexityModerate
		}
		id := pt.ID
		if id == "" {
			id = fmt.Sprintf("%s:%s:%d", SourcePack, p.Name, i+1)
		}
		out = append(out, &Template{
			ID:                 id,
			Domain:             domain,
			Type:               qt,
			Complexity:         tier,
			Text:               pt.Text,
			FollowUps:          pt.FollowUps,
			ValidationCriteria: pt.ValidationCriteria,
			Source:             source,
		})
	}
	return out
}

// parseQuestionType maps a pack string to a question type. Unknown values
// fall back to clarifying.
func parseQuestionType(s string) (types.QuestionType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exploratory":
		return types.QuestionExploratory, true
	case "clarifying", "":
		return types.QuestionClarifying, true
	case "technical":
		return types.QuestionTechnical, true
	case "validation":
		return types.QuestionValidation, true
	case "follow_up", "followup", "follow-up":
		return types.QuestionFollowUp, true
	default:
		return types.QuestionClarifying, false
	}
}

// LoadDir loads every *.yaml / *.yml pack under dir into the library.
// Files are processed in name order; a broken file is logged and skipped.
// A missing directory is not an error, it just means no packs yet.
func LoadDir(dir string, lib *Library) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			logging.TemplatesDebug("pack dir %s does not exist, skipping", dir)
			return 0, nil
		}
		return 0, fmt.Errorf("read pack dir %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isPackFile(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	total := 0
	for _, name := range names {
		path := filepath.Join(dir, name)
		n, err := loadPackInto(path, lib)
		if err != nil {
			logging.TemplatesError("pack load failed: %v", err)
			logging.Audit().PackLoaded(path, 0, false, err.Error())
			continue
		}
		total += n
	}
	if total > 0 {
		logging.Templates("loaded %d pack templates from %s", total, dir)
	}
	return total, nil
}

// loadPackInto loads one pack file and swaps its templates into the
// library, returning the template count.
func loadPackInto(path string, lib *Library) (int, error) {
	pack, err := LoadPackFile(path)
	if err != nil {
		return 0, err
	}
	tpls := pack.Build(PackSource(path))
	lib.ReplaceSource(PackSource(path), tpls)
	logging.Audit().PackLoaded(path, len(tpls), true, "")
	return len(tpls), nil
}

func isPackFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
