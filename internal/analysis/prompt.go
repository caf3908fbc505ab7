// Package analysis builds the language-model prompts for category
// recommendations, parses the replies, and owns the deterministic rule ladder
// and batch orchestration used to categorize a supplier lot.
package analysis

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/assortment-cli/internal/model"
	"github.com/sells-group/assortment-cli/internal/stats"
)

// Prompt is a system + user message pair.
type Prompt struct {
	System string
	User   string
}

// SystemPrompt fixes the A/C/Z vocabulary and the business rules for a
// single-product recommendation.
const SystemPrompt = `Tu es un expert en gestion de gamme pour un réseau de magasins de proximité.
Tu dois recommander la catégorie de gamme d'un produit parmi trois choix :
- A : produit permanent, à conserver toute l'année
- C : produit saisonnier, à référencer uniquement sur ses mois forts
- Z : produit à sortir de la gamme

Règles à appliquer, par ordre d'importance :
1. Un produit présent dans un seul magasin voit ses quantités et son CA doublés (chiffres pondérés) avant toute comparaison avec les produits multi-magasins.
2. Compare d'abord le produit aux autres produits de son rayon, puis seulement à l'ensemble du fournisseur.
3. Score de performance : au-dessus de 7/10 le produit est performant, en dessous de 3/10 il est faible.
4. Régularité : plus de 8 mois de ventes sur 12 est un signe fort, moins de 3 mois un signe faible.
5. Équilibre : pèse l'ensemble des indicateurs (marge, volume, régularité, poids dans le rayon) plutôt qu'un critère isolé.

Réponds par une courte analyse, puis termine par la lettre de ta recommandation seule, entre crochets : [A], [C] ou [Z].`

// GroupBenchmark averages a cohort group.
type GroupBenchmark struct {
	Count       int     `json:"count"`
	AvgQuantity float64 `json:"avg_quantity"`
	AvgRevenue  float64 `json:"avg_revenue"`
	AvgMargin   float64 `json:"avg_margin"`
}

// Benchmarks are the supplier and rayon averages split by store-count group:
// products sold in a single store and products sold in several.
type Benchmarks struct {
	SupplierSingle GroupBenchmark `json:"supplier_single"`
	SupplierMulti  GroupBenchmark `json:"supplier_multi"`
	RayonSingle    GroupBenchmark `json:"rayon_single"`
	RayonMulti     GroupBenchmark `json:"rayon_multi"`
}

// ComputeBenchmarks averages raw totals over cohort and over the target's
// rayon within cohort.
func ComputeBenchmarks(target model.ProductMetrics, cohort []model.ProductMetrics) Benchmarks {
	var b Benchmarks
	b.SupplierSingle, b.SupplierMulti = splitBenchmark(cohort)
	b.RayonSingle, b.RayonMulti = splitBenchmark(model.FilterRayon(cohort, target.Rayon()))
	return b
}

func splitBenchmark(products []model.ProductMetrics) (single, multi GroupBenchmark) {
	var s, m []model.ProductMetrics
	for _, p := range products {
		if p.Stores() == 1 {
			s = append(s, p)
		} else {
			m = append(m, p)
		}
	}
	return average(s), average(m)
}

func average(products []model.ProductMetrics) GroupBenchmark {
	if len(products) == 0 {
		return GroupBenchmark{}
	}
	var qty, rev, margin float64
	for _, p := range products {
		qty += p.TotalQuantity
		rev += p.TotalRevenue
		margin += p.TotalMargin
	}
	n := float64(len(products))
	return GroupBenchmark{
		Count:       len(products),
		AvgQuantity: qty / n,
		AvgRevenue:  rev / n,
		AvgMargin:   margin / n,
	}
}

// BuildPrompt renders the single-product prompt for target within cohort.
func BuildPrompt(target model.ProductMetrics, cohort []model.ProductMetrics) (Prompt, error) {
	if len(cohort) == 0 {
		return Prompt{}, eris.Wrapf(model.ErrEmptyCohort, "analysis: build prompt for %s", target.ID)
	}
	return Prompt{
		System: SystemPrompt,
		User:   userPrompt(target, ComputeBenchmarks(target, cohort)),
	}, nil
}

func userPrompt(p model.ProductMetrics, b Benchmarks) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Produit : %s (réf. %s)\n", p.Label, p.ID)
	fmt.Fprintf(&sb, "Rayon : %s (%s)\n", p.RayonLabel, p.Rayon())
	fmt.Fprintf(&sb, "Catégorie actuelle : %s\n", currentCategory(p))
	sb.WriteString("\n--- Statistiques 12 mois (réseau) ---\n")
	fmt.Fprintf(&sb, "Magasins : %d\n", p.Stores())
	fmt.Fprintf(&sb, "Quantité : %.0f (pondérée : %.0f)\n", p.TotalQuantity, p.NormalizedQuantity())
	fmt.Fprintf(&sb, "CA : %.2f € (pondéré : %.2f €)\n", p.TotalRevenue, p.NormalizedRevenue())
	fmt.Fprintf(&sb, "Marge : %.2f € (taux : %.1f %%)\n", p.TotalMargin, p.MarginRate())
	fmt.Fprintf(&sb, "Score de performance : %s\n", scoreOutOfTen(p))
	fmt.Fprintf(&sb, "Régularité : %d mois sur 12\n", p.MonthsActive())
	fmt.Fprintf(&sb, "Mois sans vente depuis la dernière vente : %d\n", p.InactivityMonths)

	group := "multi-magasins"
	if p.Stores() == 1 {
		group = "mono-magasin"
	}
	fmt.Fprintf(&sb, "\n--- Références de comparaison (groupe du produit : %s) ---\n", group)
	writeBenchmark(&sb, "Fournisseur, mono-magasin", b.SupplierSingle)
	writeBenchmark(&sb, "Fournisseur, multi-magasins", b.SupplierMulti)
	writeBenchmark(&sb, "Rayon, mono-magasin", b.RayonSingle)
	writeBenchmark(&sb, "Rayon, multi-magasins", b.RayonMulti)

	sb.WriteString("\n--- Ventes mensuelles (quantités, du plus ancien au plus récent) ---\n")
	sb.WriteString(MonthlySummary(p.MonthlyQuantity))
	sb.WriteString("\n\nQuelle catégorie recommandes-tu : A, C ou Z ?")

	return sb.String()
}

func writeBenchmark(sb *strings.Builder, name string, g GroupBenchmark) {
	if g.Count == 0 {
		fmt.Fprintf(sb, "%s : aucun produit\n", name)
		return
	}
	fmt.Fprintf(sb, "%s : %d produits, quantité moyenne %.0f, CA moyen %.2f €, marge moyenne %.2f €\n",
		name, g.Count, g.AvgQuantity, g.AvgRevenue, g.AvgMargin)
}

func currentCategory(p model.ProductMetrics) string {
	if p.CurrentCategory == nil || !p.CurrentCategory.Valid() {
		return "non renseignée"
	}
	return string(*p.CurrentCategory)
}

// scoreOutOfTen renders the 0-100 global score on the /10 scale the rules use.
func scoreOutOfTen(p model.ProductMetrics) string {
	if !p.HasScore() {
		return "non disponible"
	}
	return fmt.Sprintf("%.1f/10", stats.Round(p.GlobalScore()/10, 1))
}

// MonthlySummary renders a month-by-month quantity line, oldest first.
func MonthlySummary(monthly []float64) string {
	if len(monthly) == 0 {
		return "non disponible"
	}
	parts := make([]string, len(monthly))
	for i, q := range monthly {
		parts[i] = fmt.Sprintf("M-%d: %.0f", len(monthly)-1-i, q)
	}
	return strings.Join(parts, " | ")
}
