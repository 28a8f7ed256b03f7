package gag

import (
	"encoding/base64"
	"math/rand/v2"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	dogWords = []string{"woof", "bark", "arf", "ruff", "awoo", "yip"}
	catWords = []string{"meow", "mrrp", "nya", "purr", "mew", "hiss"}

	petPhrases = []string{
		"I'm a good pet.",
		"Thank you for my gag.",
		"I should be quiet now.",
		"*happy muffled noises*",
		"I love my rules.",
		"Yes, Mistress.",
	}
)

// muffle maps every letter to a muffled sound of the same case. Everything else
// (spaces, digits, punctuation) is kept, so the sentence shape survives.
func muffle(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !unicode.IsLetter(r) {
			b.WriteRune(r)
			continue
		}
		var m rune
		switch unicode.ToLower(r) {
		case 'a', 'o', 'u', 'w', 'b', 'm', 'p':
			m = 'm'
		case 'e', 'i', 'y', 'n':
			m = 'n'
		case 'g', 'k', 'q':
			m = 'g'
		default:
			m = 'h'
		}
		if unicode.IsUpper(r) {
			m = unicode.ToUpper(m)
		}
		b.WriteRune(m)
	}
	return b.String()
}

// barker replaces each word with a random entry of vocab, keeping punctuation and
// capitalization of the first letter.
func barker(vocab []string) func(string) string {
	return func(s string) string {
		var b strings.Builder
		forEachWord(s, func(word string, isWord bool) {
			if !isWord {
				b.WriteString(word)
				return
			}
			sound := vocab[rand.IntN(len(vocab))]
			if r, _ := utf8.DecodeRuneInString(word); unicode.IsUpper(r) {
				sound = strings.ToUpper(sound[:1]) + sound[1:]
			}
			b.WriteString(sound)
		})
		return b.String()
	}
}

// forEachWord splits s into alternating runs of word characters and separators.
func forEachWord(s string, fn func(chunk string, isWord bool)) {
	start := 0
	inWord := false
	for i, r := range s {
		w := unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\''
		if i == 0 {
			inWord = w
			continue
		}
		if w != inWord {
			fn(s[start:i], inWord)
			start = i
			inWord = w
		}
	}
	if start < len(s) {
		fn(s[start:], inWord)
	}
}

var babyReplacer = strings.NewReplacer(
	"th", "d", "Th", "D", "TH", "D",
	"r", "w", "l", "w", "R", "W", "L", "W",
)

func babyTalk(s string) string {
	out := babyReplacer.Replace(s)
	if strings.TrimSpace(out) == "" {
		return out
	}
	return out + " uwu"
}

func reverse(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

func decodeReverse(s string) (string, bool) { return reverse(s), true }

func rot13(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return 'a' + (r-'a'+13)%26
		case r >= 'A' && r <= 'Z':
			return 'A' + (r-'A'+13)%26
		}
		return r
	}, s)
}

func decodeRot13(s string) (string, bool) { return rot13(s), true }

func encodeBase64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func decodeBase64(s string) (string, bool) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", false
	}
	return string(raw), true
}

var morseTable = map[rune]string{
	'a': ".-", 'b': "-...", 'c': "-.-.", 'd': "-..", 'e': ".", 'f': "..-.",
	'g': "--.", 'h': "....", 'i': "..", 'j': ".---", 'k': "-.-", 'l': ".-..",
	'm': "--", 'n': "-.", 'o': "---", 'p': ".--.", 'q': "--.-", 'r': ".-.",
	's': "...", 't': "-", 'u': "..-", 'v': "...-", 'w': ".--", 'x': "-..-",
	'y': "-.--", 'z': "--..",
	'0': "-----", '1': ".----", '2': "..---", '3': "...--", '4': "....-",
	'5': ".....", '6': "-....", '7': "--...", '8': "---..", '9': "----.",
}

// morse encodes letters and digits; words are separated by " / " and unknown
// runes pass through as-is.
func morse(s string) string {
	words := strings.Fields(s)
	encoded := make([]string, 0, len(words))
	for _, w := range words {
		codes := make([]string, 0, len(w))
		for _, r := range w {
			if code, ok := morseTable[unicode.ToLower(r)]; ok {
				codes = append(codes, code)
			} else {
				codes = append(codes, string(r))
			}
		}
		encoded = append(encoded, strings.Join(codes, " "))
	}
	return strings.Join(encoded, " / ")
}

func petPhrase(string) string {
	return petPhrases[rand.IntN(len(petPhrases))]
}
