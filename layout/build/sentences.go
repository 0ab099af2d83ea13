package build

import (
	"bytes"
	"compress/gzip"
	"embed"
	"io"
	"iter"
	"strings"
	"unicode"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

//go:embed sentences/*.json.gz
var modelFiles embed.FS

// Splitter breaks text runs into sentences.
type Splitter struct {
	*sentences.DefaultSentenceTokenizer
}

func loadModel(name string) (*sentences.Storage, error) {
	data, err := modelFiles.ReadFile("sentences/" + name + ".json.gz")
	if err != nil {
		return nil, err
	}
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return sentences.LoadTraining(raw)
}

// modelNames lists training data names to try for lang: its English
// display name, then the display name of its base language.
func modelNames(lang language.Tag) []string {
	names := []string{strings.ToLower(display.English.Languages().Name(lang))}
	if base, confidence := lang.Base(); confidence != language.No {
		if name := strings.ToLower(display.English.Languages().Name(base)); name != names[0] {
			names = append(names, name)
		}
	}
	return names
}

// NewSplitter returns splitter for lang. English, and undetermined language,
// use tokenizer with built-in English training data, other languages load
// embedded models. Nil is returned when no model fits, nil splitter returns
// text as is.
func NewSplitter(lang language.Tag, log *zap.Logger) *Splitter {
	if log == nil {
		log = zap.NewNop()
	}
	if base, _ := lang.Base(); lang == language.Und || base.String() == "en" {
		tokenizer, err := english.NewSentenceTokenizer(nil)
		if err != nil {
			log.Warn("Unable to load sentences tokenizer data", zap.Stringer("tag", lang), zap.Error(err))
			return nil
		}
		return &Splitter{tokenizer}
	}

	for _, name := range modelNames(lang) {
		model, err := loadModel(name)
		if err != nil {
			continue
		}
		return &Splitter{sentences.NewSentenceTokenizer(model)}
	}
	log.Warn("Unable to find suitable sentence tokenizer model, turning off sentence splitting", zap.Stringer("language", lang))
	return nil
}

// Sentences returns an iterator over sentences of in. Whitespace following
// a sentence stays with it so that concatenating sentences restores the
// original text.
func (s *Splitter) Sentences(in string) iter.Seq[string] {
	return func(yield func(string) bool) {
		if s == nil {
			yield(in)
			return
		}

		parts := s.Tokenize(in)
		for i := range parts {
			text := parts[i].Text
			if i+1 < len(parts) {
				// tokenizer attaches leading spaces to the next sentence
				next := parts[i+1].Text
				for idx, sym := range next {
					if !unicode.IsSpace(sym) {
						text += next[:idx]
						parts[i+1].Text = next[idx:]
						break
					}
				}
			}
			if !yield(text) {
				return
			}
		}
	}
}
