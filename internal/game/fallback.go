package game

// Fallback returns the hand-authored bible used when no text model answers.
func Fallback() Game {
	return Bible{
		Universe: "Un univers fantastique où la magie et la technologie coexistent.",
		Scenario: Scenario{
			Act1: "Le héros découvre ses pouvoirs et se lance dans l'aventure.",
			Act2: "Affrontement avec les forces antagonistes et découvertes de trahisons.",
			Act3: "Résolution finale et confrontation avec le grand méchant.",
		},
		Twist: "Le mentor du héros est en réalité le véritable antagoniste.",
		Characters: []Character{
			{
				Name:       "Aelryn",
				Class:      "Mage",
				Role:       "Protagoniste",
				Background: "Jeune apprenti découvrant ses pouvoirs exceptionnels",
				Gameplay:   "Magie offensive et défensive avec invocations",
			},
			{
				Name:       "Kaelen",
				Class:      "Guerrier",
				Role:       "Compagnon",
				Background: "Soldat vétéran cherchant la rédemption",
				Gameplay:   "Combat au corps à corps avec différentes armes",
			},
		},
		Locations: []Location{
			{Name: "Cité Céleste", Description: "Une ville flottante où la magie est source d'énergie"},
			{Name: "Forêt des Anciens", Description: "Une forêt primitive habitée par des créatures mystiques"},
		},
		Pitch: "Plongez dans une aventure épique où vos choix façonnent le destin du monde. " +
			"Une expérience de jeu unique mêlant exploration, combat tactique et narration riche.",
	}.Game()
}

// placeholderBible is returned, with the raw text attached, when a model answered
// with something that is not a JSON object.
var placeholderBible = Bible{
	Universe: "Univers généré par IA",
	Scenario: Scenario{
		Act1: "Premier acte du scénario",
		Act2: "Deuxième acte du scénario",
		Act3: "Troisième acte du scénario",
	},
	Twist: "Une twist narrative intéressante",
	Characters: []Character{{
		Name:       "Personnage Principal",
		Class:      "Classe par défaut",
		Role:       "Rôle dans l'histoire",
		Background: "Histoire du personnage",
		Gameplay:   "Style de gameplay",
	}},
	Locations: []Location{{Name: "Lieu emblématique", Description: "Description du lieu"}},
	Pitch:     "Un jeu passionnant qui va révolutionner le genre",
}

// Placeholder returns the parse-failure bible carrying rawText.
func Placeholder(rawText string) Game {
	b := placeholderBible
	b.RawText = rawText
	g := b.Game()
	// raw_text is always present on a placeholder, even when empty
	g["raw_text"] = rawText
	return g
}
