package i18n

// translations maps meter key → language code → format string.
//
// Supported languages: fr (French), en (English).
var translations = map[string]map[string]string{

	// ─── Waiting window ──────────────────────────────────────────────────────
	// %s = remaining free time
	"meter.waiting": {
		"fr": "Attente gratuite : %s restantes",
		"en": "Free waiting: %s left",
	},

	// ─── Billing ─────────────────────────────────────────────────────────────
	// %s = elapsed billed time
	"meter.billing": {
		"fr": "Facturation en cours : %s",
		"en": "Billing: %s",
	},
	// %s = formatted surcharge
	"meter.surcharge": {
		"fr": "Supplément actuel : %s",
		"en": "Current surcharge: %s",
	},

	// ─── Connectivity ────────────────────────────────────────────────────────
	"meter.degraded": {
		"fr": "Connexion instable, affichage estimé",
		"en": "Connection unstable, showing estimate",
	},

	// ─── Completion ──────────────────────────────────────────────────────────
	// %s = formatted total
	"meter.settled": {
		"fr": "Course terminée. Total : %s",
		"en": "Ride completed. Total: %s",
	},
}
