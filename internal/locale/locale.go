package locale

import "golang.org/x/text/language"

// Message keys for user-facing error text.
const (
	KeySessionExpired     = "sessionExpired"
	KeyInvalidCredentials = "invalidCredentials"
	KeyValidationFailed   = "validationFailed"
	KeyRateLimited        = "rateLimited"
	KeyNetworkError       = "networkError"
	KeyUnknownError       = "unknownError"
)

// supported lists the locales the backend ships translations for. English is
// first and acts as the fallback for unmatched tags.
var supported = []language.Tag{
	language.English,
	language.French,
	language.Spanish,
}

var matcher = language.NewMatcher(supported)

var messages = map[language.Tag]map[string]string{
	language.English: {
		KeySessionExpired:     "Your session has expired. Please log in again.",
		KeyInvalidCredentials: "Incorrect email or password.",
		KeyValidationFailed:   "Some fields are invalid. Please review and try again.",
		KeyRateLimited:        "Too many attempts. Please wait a moment and try again.",
		KeyNetworkError:       "Could not reach the server. Check your connection and try again.",
		KeyUnknownError:       "Something went wrong. Please try again.",
	},
	language.French: {
		KeySessionExpired:     "Votre session a expiré. Veuillez vous reconnecter.",
		KeyInvalidCredentials: "Adresse e-mail ou mot de passe incorrect.",
		KeyValidationFailed:   "Certains champs sont invalides. Veuillez vérifier et réessayer.",
		KeyRateLimited:        "Trop de tentatives. Veuillez patienter un instant et réessayer.",
		KeyNetworkError:       "Impossible de joindre le serveur. Vérifiez votre connexion et réessayez.",
		KeyUnknownError:       "Une erreur est survenue. Veuillez réessayer.",
	},
	language.Spanish: {
		KeySessionExpired:     "Tu sesión ha caducado. Inicia sesión de nuevo.",
		KeyInvalidCredentials: "Correo electrónico o contraseña incorrectos.",
		KeyValidationFailed:   "Algunos campos no son válidos. Revísalos e inténtalo de nuevo.",
		KeyRateLimited:        "Demasiados intentos. Espera un momento e inténtalo de nuevo.",
		KeyNetworkError:       "No se pudo conectar con el servidor. Comprueba tu conexión e inténtalo de nuevo.",
		KeyUnknownError:       "Algo salió mal. Inténtalo de nuevo.",
	},
}

// Message returns the translation of key for the closest supported locale to
// lang. Unknown tags and unknown keys fall back to English.
func Message(lang string, key string) string {
	tag := language.English
	if lang != "" {
		if parsed, err := language.Parse(lang); err == nil {
			_, index, _ := matcher.Match(parsed)
			tag = supported[index]
		}
	}
	if msg, ok := messages[tag][key]; ok {
		return msg
	}
	return messages[language.English][key]
}
