package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/assortment-cli/internal/model"
)

var (
	// ErrNoJSON is returned when a batch reply holds no JSON object.
	ErrNoJSON = eris.New("analysis: no JSON object in reply")
	// ErrIdentityMismatch is returned when a reply names none of the
	// requested products.
	ErrIdentityMismatch = eris.New("analysis: reply does not match requested products")
)

// BatchSystemPrompt instructs the model to categorize a list of products and
// answer with a single JSON object.
const BatchSystemPrompt = `Tu es un expert en gestion de gamme pour un réseau de magasins de proximité.
Pour chaque produit listé, recommande une catégorie :
- A : produit permanent
- C : produit saisonnier
- Z : produit à sortir de la gamme

Critères, par ordre d'importance :
1. Poids dans le rayon (part du CA du rayon) : 5 % ou plus fait du produit un pilier.
2. Régularité : 8 mois de ventes ou plus sur 12 indique une rotation stable.
3. Percentile du score global dans le lot : 50 ou plus avec au moins 4 mois de ventes indique un bon produit.
4. Ventes concentrées sur 2 à 4 mois : produit saisonnier.
5. Sortie uniquement si le poids dans le rayon est faible, moins de 5 mois de ventes et un percentile inférieur à 30.
Un produit meilleur qu'un autre sur le percentile et sur le poids ne doit jamais recevoir une catégorie inférieure.
Signale par isDuplicate un produit qui fait doublon avec un autre produit de la liste.

Réponds uniquement avec un objet JSON, sans texte autour :
{"results": [{"id": "...", "recommendation": "A|C|Z", "isDuplicate": false, "justification": "..."}]}`

// BatchRecommendation is one entry of a batch reply.
type BatchRecommendation struct {
	ID             string         `json:"id"`
	Recommendation model.Category `json:"recommendation"`
	IsDuplicate    bool           `json:"isDuplicate"`
	Justification  string         `json:"justification"`
}

type batchReply struct {
	Results []BatchRecommendation `json:"results"`
}

// BuildBatchPrompt renders one prompt covering every input.
func BuildBatchPrompt(inputs []LadderInput) Prompt {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Lot de %d produits :\n\n", len(inputs))
	for _, in := range inputs {
		fmt.Fprintf(&sb, "- id: %s | %s | rayon %s | poids rayon %.2f %% | %d mois actifs | percentile global %.0f | ventes : %s\n",
			in.ID, in.Label, in.Rayon, in.WeightInRayon, in.MonthsActive, in.GlobalPercentile, MonthlySummary(in.MonthlyQuantity))
	}
	sb.WriteString("\nRéponds avec l'objet JSON demandé, un résultat par id.")
	return Prompt{System: BatchSystemPrompt, User: sb.String()}
}

// ParseBatchResponse decodes a batch reply. When the text is not pure JSON the
// outermost {...} span is tried. Entries for ids outside requested, duplicate
// entries and letters other than A, C or Z are dropped. Returns
// ErrIdentityMismatch when nothing usable remains from a non-empty reply.
func ParseBatchResponse(text string, requested []string) (map[string]BatchRecommendation, error) {
	var reply batchReply
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &reply); err != nil {
		span, ok := outermostObject(text)
		if !ok {
			return nil, ErrNoJSON
		}
		if err := json.Unmarshal([]byte(span), &reply); err != nil {
			return nil, eris.Wrap(ErrNoJSON, err.Error())
		}
	}

	want := make(map[string]bool, len(requested))
	for _, id := range requested {
		want[id] = true
	}

	out := make(map[string]BatchRecommendation, len(reply.Results))
	for _, r := range reply.Results {
		r.ID = strings.TrimSpace(r.ID)
		if !want[r.ID] {
			continue
		}
		if _, seen := out[r.ID]; seen {
			continue
		}
		cat, ok := model.ParseCategory(string(r.Recommendation))
		if !ok || cat == model.CategoryB {
			continue
		}
		r.Recommendation = cat
		out[r.ID] = r
	}

	if len(out) == 0 && len(reply.Results) > 0 {
		return nil, ErrIdentityMismatch
	}
	return out, nil
}

// outermostObject returns the text between the first '{' and the last '}'.
func outermostObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
