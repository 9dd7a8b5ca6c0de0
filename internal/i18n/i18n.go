// Package i18n provides the message catalog used for user-facing strings.
//
// Messages are keyed by their English source text and registered in a
// golang.org/x/text catalog for every supported language. A Translator is
// resolved per request from the shop language and passed into services, so
// translation never depends on process-wide state.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Translator maps a source message to the active language.
type Translator interface {
	T(key string, args ...any) string
	Lang() string
}

// Message keys. The key is also the English text.
const (
	MsgInvalidEmail        = "Invalid email address."
	MsgEmptyMessage        = "The message cannot be blank."
	MsgUnsafeContent       = "Invalid message"
	MsgInvalidSubject      = "Please select a subject from the list provided. "
	MsgUploadFailed        = "An error occurred during the file-upload process."
	MsgDisallowedExtension = "Bad file extension"
	MsgTokenInvalid        = "An error occurred while sending the message, please try again."
	MsgPersistenceError    = "An error occurred while sending the message."
	MsgSendFailed          = "An error occurred while sending the message."
	MsgSuccess             = "Your message has been successfully sent to our team."
	MsgSettingsUpdated     = "Settings updated"
	MsgNotifySubject       = "Message from contact form"
	MsgConfirmSubject      = "Your message has been correctly sent"
	MsgMessageHidden       = "[message hidden]"
	MsgSendConfirmation    = "Send confirmation email to your customers"
	MsgSendNotification    = "Receive customers' messages by email"
	MsgContactUs           = "Contact us"
	MsgSubject             = "Subject"
	MsgEmailAddress        = "Email address"
	MsgAttachment          = "Attachment"
	MsgOrderReference      = "Order reference"
	MsgProduct             = "Product"
	MsgMessage             = "Message"
	MsgSend                = "Send"
	MsgSave                = "Save"
	MsgOptional            = "optional"
	MsgSelect              = "-- please choose --"
)

var translations = map[string]map[string]string{
	"fr": {
		MsgInvalidEmail:        "Adresse e-mail non valide.",
		MsgEmptyMessage:        "Le message ne peut être vide.",
		MsgUnsafeContent:       "Message non valide",
		MsgInvalidSubject:      "Veuillez sélectionner un objet dans la liste. ",
		MsgUploadFailed:        "Une erreur s'est produite lors de l'envoi du fichier.",
		MsgDisallowedExtension: "Extension de fichier non valide",
		MsgTokenInvalid:        "Une erreur est survenue lors de l'envoi du message, veuillez réessayer.",
		MsgPersistenceError:    "Une erreur est survenue lors de l'envoi du message.",
		MsgSuccess:             "Votre message a bien été envoyé à notre équipe.",
		MsgSettingsUpdated:     "Paramètres mis à jour",
		MsgNotifySubject:       "Message du formulaire de contact",
		MsgConfirmSubject:      "Votre message a bien été envoyé",
		MsgMessageHidden:       "[message masqué]",
		MsgSendConfirmation:    "Envoyer un e-mail de confirmation à vos clients",
		MsgSendNotification:    "Recevoir les messages des clients par e-mail",
		MsgContactUs:           "Contactez-nous",
		MsgSubject:             "Objet",
		MsgEmailAddress:        "Adresse e-mail",
		MsgAttachment:          "Pièce jointe",
		MsgOrderReference:      "Référence de commande",
		MsgProduct:             "Produit",
		MsgMessage:             "Message",
		MsgSend:                "Envoyer",
		MsgSave:                "Enregistrer",
		MsgOptional:            "facultatif",
		MsgSelect:              "-- veuillez choisir --",
	},
	"de": {
		MsgInvalidEmail:        "Ungültige E-Mail-Adresse.",
		MsgEmptyMessage:        "Die Nachricht darf nicht leer sein.",
		MsgUnsafeContent:       "Ungültige Nachricht",
		MsgInvalidSubject:      "Bitte wählen Sie einen Betreff aus der Liste. ",
		MsgUploadFailed:        "Beim Hochladen der Datei ist ein Fehler aufgetreten.",
		MsgDisallowedExtension: "Ungültige Dateiendung",
		MsgTokenInvalid:        "Beim Senden der Nachricht ist ein Fehler aufgetreten, bitte versuchen Sie es erneut.",
		MsgPersistenceError:    "Beim Senden der Nachricht ist ein Fehler aufgetreten.",
		MsgSuccess:             "Ihre Nachricht wurde erfolgreich an unser Team gesendet.",
		MsgSettingsUpdated:     "Einstellungen aktualisiert",
		MsgNotifySubject:       "Nachricht aus dem Kontaktformular",
		MsgConfirmSubject:      "Ihre Nachricht wurde erfolgreich gesendet",
		MsgMessageHidden:       "[Nachricht ausgeblendet]",
		MsgSendConfirmation:    "Bestätigungs-E-Mail an Kunden senden",
		MsgSendNotification:    "Kundennachrichten per E-Mail empfangen",
		MsgContactUs:           "Kontakt",
		MsgSubject:             "Betreff",
		MsgEmailAddress:        "E-Mail-Adresse",
		MsgAttachment:          "Anhang",
		MsgOrderReference:      "Bestellnummer",
		MsgProduct:             "Produkt",
		MsgMessage:             "Nachricht",
		MsgSend:                "Senden",
		MsgSave:                "Speichern",
		MsgOptional:            "optional",
		MsgSelect:              "-- bitte wählen --",
	},
}

// Catalog is the set of supported languages and their messages.
type Catalog struct {
	cat       *catalog.Builder
	tags      []language.Tag
	matcher   language.Matcher
	fallback  language.Tag
	supported map[string]bool
}

// NewCatalog builds a catalog for the given base language codes. The first
// entry is the fallback. Unknown codes still resolve, to the English source.
func NewCatalog(langs ...string) *Catalog {
	if len(langs) == 0 {
		langs = []string{"en"}
	}
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	c := &Catalog{cat: b, supported: map[string]bool{}}

	for _, code := range langs {
		tag, err := language.Parse(code)
		if err != nil {
			continue
		}
		c.tags = append(c.tags, tag)
		c.supported[baseOf(tag)] = true
		if msgs, ok := translations[baseOf(tag)]; ok {
			for key, val := range msgs {
				_ = b.SetString(tag, key, escapePercent(val))
			}
		}
	}
	if len(c.tags) == 0 {
		c.tags = []language.Tag{language.English}
		c.supported["en"] = true
	}
	c.fallback = c.tags[0]
	c.matcher = language.NewMatcher(c.tags)
	return c
}

// For returns a Translator for lang, falling back to the catalog default
// when lang is empty or unsupported.
func (c *Catalog) For(lang string) Translator {
	tag := c.fallback
	if lang != "" {
		if t, err := language.Parse(lang); err == nil && c.supported[baseOf(t)] {
			tag = t
		}
	}
	base := baseOf(tag)
	return &printer{
		p:    message.NewPrinter(language.Make(base), message.Catalog(c.cat)),
		lang: base,
	}
}

// Match picks the best supported language for an Accept-Language header
// value. It returns the fallback code when nothing matches.
func (c *Catalog) Match(acceptLanguage string) string {
	prefs, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(prefs) == 0 {
		return baseOf(c.fallback)
	}
	_, idx, conf := c.matcher.Match(prefs...)
	if conf == language.No {
		return baseOf(c.fallback)
	}
	return baseOf(c.tags[idx])
}

// Supported reports whether lang (a base code like "fr") is in the catalog.
func (c *Catalog) Supported(lang string) bool {
	return c.supported[strings.ToLower(lang)]
}

// Default returns the fallback language code.
func (c *Catalog) Default() string { return baseOf(c.fallback) }

type printer struct {
	p    *message.Printer
	lang string
}

func (p *printer) T(key string, args ...any) string {
	return p.p.Sprintf(key, args...)
}

func (p *printer) Lang() string { return p.lang }

func baseOf(tag language.Tag) string {
	b, _ := tag.Base()
	return b.String()
}

// escapePercent protects literal text from printf interpretation.
func escapePercent(s string) string { return strings.ReplaceAll(s, "%", "%%") }
