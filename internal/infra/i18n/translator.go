package i18n

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"gopkg.in/yaml.v3"
)

// DefaultLanguage is used when the configured locale has no translation file.
const DefaultLanguage = "ru"

//go:embed locales
var LocalesFS embed.FS

type Translator struct {
	lang         string
	translations map[string]string
}

// NewTranslator loads locales/<langCode>.yaml from fsys, falling back to DefaultLanguage.
func NewTranslator(fsys fs.FS, langCode string) (*Translator, error) {
	if langCode == "" {
		langCode = DefaultLanguage
	}
	data, err := fs.ReadFile(fsys, path.Join("locales", langCode+".yaml"))
	if errors.Is(err, fs.ErrNotExist) && langCode != DefaultLanguage {
		langCode = DefaultLanguage
		data, err = fs.ReadFile(fsys, path.Join("locales", langCode+".yaml"))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read translation file for %q: %w", langCode, err)
	}

	t, err := newTranslatorFromBytes(data)
	if err != nil {
		return nil, err
	}
	t.lang = langCode
	return t, nil
}

func newTranslatorFromBytes(data []byte) (*Translator, error) {
	var translations map[string]string
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("failed to parse translation file: %w", err)
	}
	if translations == nil {
		translations = map[string]string{}
	}
	return &Translator{translations: translations}, nil
}

// T returns the message for key, formatted with args. Unknown keys come back as-is.
func (t *Translator) T(key string, args ...interface{}) string {
	format, ok := t.translations[key]
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}

func (t *Translator) Lang() string { return t.lang }
