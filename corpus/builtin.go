// SPDX-License-Identifier: GPL-3.0-or-later
package corpus

// Built-in examples complement (or replace) the example folders.
var builtinPositive = []string{
	"Bitte um einen Impftermin",
	"Wann kann ich mich impfen lassen?",
	"Ich möchte mich gegen Corona impfen lassen, haben Sie noch einen Termin frei?",
	"Anfrage Impfung: Ich bin 68 Jahre alt und möchte einen Termin für die Erstimpfung vereinbaren.",
	"Sehr geehrte Damen und Herren, ich bitte um einen Termin für die Zweitimpfung.",
	"Termin für Auffrischungsimpfung (Booster) gewünscht",
	"Kann ich bei Ihnen einen Impftermin für meine Mutter bekommen? Sie ist Risikopatientin.",
	"Gibt es bei Ihnen noch Impfstoff? Ich würde mich gerne auf die Warteliste setzen lassen.",
	"Impfanfrage für meinen Sohn, 16 Jahre, BioNTech",
	"Ist eine Grippeimpfung und Coronaimpfung am selben Tag möglich? Bitte um Terminvorschlag.",
	"Hallo, ich habe noch keine Impfung und hätte gerne einen Termin.",
	"Could I get an appointment for a vaccination?",
	"I would like to book my COVID-19 vaccine, when is the next available slot?",
	"Booster shot appointment request",
}

var builtinNegative = []string{
	"Rechnung anbei",
	"Terminabsage",
	"Ich muss meinen Termin am Donnerstag leider absagen.",
	"Bitte um ein Rezept für meine Blutdrucktabletten.",
	"Anbei die Überweisung vom Facharzt, bitte zu meiner Akte nehmen.",
	"Können Sie mir eine Arbeitsunfähigkeitsbescheinigung ausstellen?",
	"Die Laborergebnisse sind da, bitte um Rückruf.",
	"Newsletter: Neue Öffnungszeiten unserer Apotheke",
	"Ihre Bestellung wurde versandt",
	"Mahnung: Bitte begleichen Sie die offene Rechnung bis zum 15.",
	"Vielen Dank für die schnelle Behandlung gestern.",
	"Please find attached the invoice for last month.",
	"I need to cancel my appointment tomorrow.",
	"Could you send me a prescription refill?",
}
