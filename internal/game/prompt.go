package game

import (
	"fmt"
	"strings"
)

// DefaultLanguage is the output language the prompt demands.
const DefaultLanguage = "français"

// BuildPrompt assembles the design instruction for req.
func BuildPrompt(req Request, language string) string {
	if language == "" {
		language = DefaultLanguage
	}

	var b strings.Builder
	b.WriteString("Tu es un assistant de Game Design. ")
	fmt.Fprintf(&b, "Génère STRICTEMENT un JSON valide en %s décrivant un concept de jeu vidéo.\n\n", language)

	b.WriteString("Champs EXACTS attendus :\n")
	b.WriteString(`- "universe": description courte (3-5 lignes)` + "\n")
	b.WriteString(`- "scenario": objet avec "act1", "act2", "act3" (2-4 lignes chacun)` + "\n")
	b.WriteString(`- "twist": une phrase` + "\n")
	b.WriteString(`- "characters": liste 2 à 4 personnages {"name","class","role","background","gameplay"}` + "\n")
	b.WriteString(`- "locations": liste 2 à 3 lieux {"name","description"}` + "\n")
	b.WriteString(`- "pitch": 2-3 phrases marketing` + "\n\n")

	b.WriteString("Contraintes : Pas de texte hors JSON. Pas de markdown. Pas de commentaires.\n\n")

	b.WriteString("Contexte:\n")
	fmt.Fprintf(&b, "titre=%q\n", req.Title)
	fmt.Fprintf(&b, "genre=%q\n", req.Genre)
	fmt.Fprintf(&b, "ambiance=%q\n", req.Mood)
	fmt.Fprintf(&b, "mots_cles=%q\n", req.Keywords)
	fmt.Fprintf(&b, "references=%q\n", req.References)

	return b.String()
}
