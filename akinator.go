// Package akinator is a client for the hosted Akinator guessing game.
//
// A Client drives games by id: StartGame returns the first question, Answer
// and Back move through the questionnaire, and Exclude rejects a proposition
// so the game can continue. Session state lives in a store.Store so games
// survive across Client instances and processes. Game wraps a single id with
// history tracking, and AsyncClient runs calls without blocking the caller.
package akinator

import (
	"fmt"
	"strconv"
	"strings"
)

type Language string

const (
	English    Language = "en"
	Arabic     Language = "ar"
	Chinese    Language = "cn"
	German     Language = "de"
	Spanish    Language = "es"
	French     Language = "fr"
	Italian    Language = "it"
	Japanese   Language = "jp"
	Korean     Language = "kr"
	Dutch      Language = "nl"
	Polish     Language = "pl"
	Portuguese Language = "pt"
	Russian    Language = "ru"
	Turkish    Language = "tr"
	Indonesian Language = "id"
)

var languageNames = map[Language]string{
	English:    "english",
	Arabic:     "arabic",
	Chinese:    "chinese",
	German:     "german",
	Spanish:    "spanish",
	French:     "french",
	Italian:    "italian",
	Japanese:   "japanese",
	Korean:     "korean",
	Dutch:      "dutch",
	Polish:     "polish",
	Portuguese: "portuguese",
	Russian:    "russian",
	Turkish:    "turkish",
	Indonesian: "indonesian",
}

// Languages returns every language the service is hosted in.
func Languages() []Language {
	return []Language{
		English, Arabic, Chinese, German, Spanish, French, Italian, Japanese,
		Korean, Dutch, Polish, Portuguese, Russian, Turkish, Indonesian,
	}
}

func (l Language) Valid() bool {
	_, ok := languageNames[l]
	return ok
}

// Name returns the English name of the language, e.g. "french".
func (l Language) Name() string {
	return languageNames[l]
}

// ParseLanguage accepts a subdomain code ("fr") or an English name ("French").
func ParseLanguage(s string) (Language, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if l := Language(s); l.Valid() {
		return l, nil
	}

	for l, name := range languageNames {
		if name == s {
			return l, nil
		}
	}

	return "", fmt.Errorf("unknown language %q", s)
}

// Theme selects the kind of thing the service tries to guess. The value is the
// sid sent when a game starts.
type Theme int

const (
	ThemeCharacters Theme = 1
	ThemeObjects    Theme = 2
	ThemeAnimals    Theme = 14
)

func (t Theme) String() string {
	switch t {
	case ThemeCharacters:
		return "characters"
	case ThemeObjects:
		return "objects"
	case ThemeAnimals:
		return "animals"
	default:
		return "theme(" + strconv.Itoa(int(t)) + ")"
	}
}

func (t Theme) Valid() bool {
	return t == ThemeCharacters || t == ThemeObjects || t == ThemeAnimals
}

// Themes returns the supported themes.
func Themes() []Theme {
	return []Theme{ThemeCharacters, ThemeObjects, ThemeAnimals}
}

// ParseTheme accepts a theme name or its numeric sid.
func ParseTheme(s string) (Theme, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if t := Theme(n); t.Valid() {
			return t, nil
		}
		return 0, fmt.Errorf("unknown theme %q", s)
	}

	for _, t := range Themes() {
		if t.String() == s || strings.TrimSuffix(t.String(), "s") == s {
			return t, nil
		}
	}

	return 0, fmt.Errorf("unknown theme %q", s)
}

// Answer is a response to a question.
type Answer int

const (
	Yes Answer = iota
	No
	DontKnow
	Probably
	ProbablyNot
)

// Answers returns the five answers in the order the service numbers them.
func Answers() []Answer {
	return []Answer{Yes, No, DontKnow, Probably, ProbablyNot}
}

func (a Answer) Valid() bool {
	return a >= Yes && a <= ProbablyNot
}

func (a Answer) String() string {
	switch a {
	case Yes:
		return "Yes"
	case No:
		return "No"
	case DontKnow:
		return "Don't know"
	case Probably:
		return "Probably"
	case ProbablyNot:
		return "Probably not"
	default:
		return "Answer(" + strconv.Itoa(int(a)) + ")"
	}
}

var answerAliases = map[string]Answer{
	"yes":          Yes,
	"y":            Yes,
	"no":           No,
	"n":            No,
	"idk":          DontKnow,
	"dontknow":     DontKnow,
	"don't know":   DontKnow,
	"dont know":    DontKnow,
	"probably":     Probably,
	"p":            Probably,
	"probablynot":  ProbablyNot,
	"probably not": ProbablyNot,
	"pn":           ProbablyNot,
}

// ParseAnswer accepts an answer name, a short alias (y, n, idk, p, pn) or the
// answer's number.
func ParseAnswer(s string) (Answer, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if a, ok := answerAliases[s]; ok {
		return a, nil
	}

	if n, err := strconv.Atoi(s); err == nil && Answer(n).Valid() {
		return Answer(n), nil
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidAnswer, s)
}
