package assist

import (
	"regexp"
	"strings"

	"agendapro/internal/model"
)

// categoryRule maps keyword substrings to a category label. Rules are
// evaluated in order; the first rule with any matching keyword wins, so
// slice order is the tie-break.
type categoryRule struct {
	keywords []string
	label    string
}

var categoryRules = []categoryRule{
	{[]string{"reun", "meet"}, model.CategoryReuniao},
	{[]string{"med", "dr", "doutor", "hosp"}, model.CategoryMedico},
	{[]string{"dent"}, model.CategoryDentista},
	{[]string{"advog", "jurid"}, model.CategoryAdvogado},
	{[]string{"consult"}, model.CategoryConsulta},
	{[]string{"orç"}, model.CategoryOrcamento},
	{[]string{"proj"}, model.CategoryProjeto},
	{[]string{"visit"}, model.CategoryVisita},
	{[]string{"almoç"}, model.CategoryAlmoco},
	{[]string{"jant"}, model.CategoryJantar},
	{[]string{"trein", "academ"}, model.CategoryAcademia},
}

// schedulingVerb detects an intent to schedule even when no category
// keyword is present.
var schedulingVerb = regexp.MustCompile(`marcar|agendar|criar|nova|novo`)

// ResolveCategory scans the lower-cased input against the keyword table and
// returns the matched category label. The second return value reports
// whether any signal matched at all: a keyword hit, or failing that a
// scheduling verb (which yields the generic fallback label).
func ResolveCategory(lower string) (string, bool) {
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.label, true
			}
		}
	}
	if schedulingVerb.MatchString(lower) {
		return model.CategoryCompromisso, true
	}
	return "", false
}
