package menu

// The upstream menu endpoint emits icon tokens in two formats: a generic
// keyword ("users") or a legacy icon-font class ("fas fa-users"). Both are
// translated to the console's closed icon vocabulary; anything unmapped
// falls back to IconHome.

// IconHome is the documented fallback for unrecognized icon tokens.
const IconHome = "home"

// legacyIconClasses maps icon-font classes to vocabulary tokens.
var legacyIconClasses = map[string]string{
	"fas fa-home":           "home",
	"fas fa-dashboard":      "home",
	"fas fa-tachometer-alt": "home",
	"fas fa-users":          "users",
	"fas fa-user":           "users",
	"fas fa-user-tag":       "shield",
	"fas fa-shield":         "shield",
	"fas fa-shield-alt":     "shield",
	"fas fa-key":            "key",
	"fas fa-cog":            "settings",
	"fas fa-cogs":           "settings",
	"fas fa-settings":       "settings",
	"fas fa-calendar":       "calendar",
	"fas fa-chart-bar":      "chart",
	"fas fa-building":       "building",
	"fas fa-credit-card":    "payment",
	"fas fa-file-text":      "document",
	"fas fa-envelope":       "mail",
	"fas fa-phone":          "phone",
	"fas fa-map-marker":     "location",
	"fas fa-clock":          "time",
	"fas fa-star":           "star",
	"fas fa-bookmark":       "bookmark",
	"fas fa-archive":        "archive",
	"fas fa-trash":          "trash",
	"fas fa-edit":           "edit",
	"fas fa-plus":           "add",
	"fas fa-search":         "search",
	"fas fa-filter":         "filter",
	"fas fa-download":       "download",
	"fas fa-upload":         "upload",
	"fas fa-share":          "share",
	"fas fa-copy":           "copy",
	"fas fa-eye":            "view",
	"fas fa-eye-slash":      "hide",
	"fas fa-lock":           "lock",
	"fas fa-unlock":         "unlock",
	"fas fa-bell":           "notification",
	"fas fa-comment":        "message",
	"fas fa-paper-plane":    "send",
	"fas fa-inbox":          "inbox",
	"fas fa-folder":         "folder",
	"fas fa-file":           "file",
	"fas fa-database":       "database",
	"fas fa-server":         "server",
	"fas fa-globe":          "globe",
	"fas fa-print":          "printer",
	"fas fa-bolt":           "energy",
}

// iconVocabulary is the closed set of tokens the sidebar can render.
var iconVocabulary = map[string]struct{}{
	"home": {}, "users": {}, "shield": {}, "key": {}, "settings": {},
	"calendar": {}, "chart": {}, "building": {}, "payment": {},
	"document": {}, "mail": {}, "phone": {}, "location": {}, "time": {},
	"star": {}, "bookmark": {}, "archive": {}, "trash": {}, "edit": {},
	"add": {}, "search": {}, "filter": {}, "download": {}, "upload": {},
	"share": {}, "copy": {}, "view": {}, "hide": {}, "lock": {},
	"unlock": {}, "notification": {}, "message": {}, "send": {},
	"inbox": {}, "folder": {}, "file": {}, "database": {}, "server": {},
	"globe": {}, "printer": {}, "energy": {}, "roles": {}, "permissions": {},
}

// TranslateIcon maps an upstream icon token to the internal vocabulary.
// Empty, legacy and unknown tokens all resolve deterministically; the
// translation never errors.
func TranslateIcon(token string) string {
	if token == "" {
		return IconHome
	}
	if mapped, ok := legacyIconClasses[token]; ok {
		return mapped
	}
	if _, ok := iconVocabulary[token]; ok {
		return token
	}
	return IconHome
}
