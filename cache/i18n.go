package cache

import "fmt"

// AddTranslationStanza attaches a Translation-<lang> file's stanza to the
// Descriptions map of every known version of the named package, keyed by
// language tag. The stanza's Description-md5 field is not consulted, so
// versions whose untranslated descriptions differ all receive the same
// translated text.
func (c *Cache) AddTranslationStanza(s *Stanza, lang string) error {
	pkgName := s.Get("Package")
	if pkgName == "" {
		return fmt.Errorf("translation stanza missing Package field")
	}
	p := c.binary[pkgName]
	if p == nil {
		return nil // translation for a package not present in this architecture's index
	}
	desc := s.Get("Description-" + lang)
	if desc == "" {
		desc = s.Get("Description")
	}
	for _, v := range p.Versions {
		if v.Descriptions == nil {
			v.Descriptions = make(map[string]string)
		}
		v.Descriptions[lang] = desc
	}
	return nil
}
