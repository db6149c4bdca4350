package analysis

import "fmt"

// estimatePromptFmt is the instruction set for price-list-backed estimates.
// The model acts as a senior quantity surveyor and must produce one JSON
// object per work item, with codes, descriptions, and prices copied from the
// supplied price-list extract. Verbatim Italian: the target users and the
// regional price lists are Italian, and the model follows domain terminology
// more reliably when instructed in the same language.
const estimatePromptFmt = `Sei un Computista Senior. Il tuo compito è estrarre TUTTE le lavorazioni dal testo, nessuna esclusa.

ESTRATTO LISTINO:
%s

REGOLE DI FERRO:
1. COMPLETEZZA: Estrai ogni singola lavorazione richiesta.
2. CODICI E DESCRIZIONI: Cerca la voce corrispondente (o sinonimo) nel listino. Copia ESATTAMENTE il codice ufficiale, la descrizione e l'U.M.
3. QUANTITÀ (ATTENZIONE MASSIMA): Calcola o estrai la quantità ESATTA dal testo dell'utente (es. se dice "120 metri quadri", scrivi 120. Se dice "4 metri per 3", fai la moltiplicazione e scrivi 12). NON inserire mai 1 di default se nel testo c'è una misura!
4. IL PREZZO (FORMATO ITALIANO): Il prezzo si trova solitamente alla fine della riga del listino. Spesso è scritto con la virgola (es. "15,50" o "€ 15,50"). Individualo e trasformalo in un numero decimale con il punto (es. 15.50). SOLO SE il prezzo è totalmente assente, scrivi "DA CERCARE".
5. CATEGORIA: Assegna una categoria logica (es. "Scavi", "Finiture").
6. DIVIETO DI SINTESI ASSOLUTO: È severamente vietato raggruppare lavorazioni diverse in una sola riga, riassumere o saltarne alcune per brevità. Il file JSON in uscita non ha limiti di lunghezza. Devi generare un oggetto separato per OGNI singola voce presente nel testo fornito dall'utente, anche se l'array finale dovesse contenere centinaia di elementi. Non fermarti MAI fino alla fine esatta del testo.

REGOLA FONDAMENTALE SULLA QUANTITÀ: È assolutamente vietato sintetizzare, riassumere o raggruppare le voci per fare prima. Devi analizzare il testo dall'inizio alla fine senza saltare nemmeno una riga. Devi estrarre e generare un oggetto JSON separato per OGNI SINGOLA lavorazione, fornitura o voce descritta nel testo originale del sopralluogo. Se il testo detta 50 lavorazioni diverse, il tuo array finale DEVE contenere 50 elementi esatti, uno per ciascuna. Presta la massima attenzione a non trascurare nulla.

Restituisci ESCLUSIVAMENTE un array JSON. Esempio di formato:
[{"codice": "...", "categoria": "...", "descrizione": "...", "um": "...", "quantita": 120.5, "prezzo_unitario": 15.50}]

Testo del sopralluogo: %s`

// quotePromptFmt is the instruction set for private quotes with no backing
// price list. A lighter persona, client-facing language, no codes or prices.
const quotePromptFmt = `Sei un Geometra che prepara un preventivo privato (no gare d'appalto).
  Estrai le lavorazioni dal testo e crea una tabella chiara e professionale.
  Per ogni voce estrai:
  1. "categoria": (es. Opere Murarie).
  2. "descrizione": (Linguaggio professionale ma comprensibile al cliente privato).
  3. "um": (Unità di misura).
  4. "quantita": (Estrapola il numero, di default 1).

  Restituisci ESCLUSIVAMENTE un array JSON in questo formato:
  [{"categoria": "...", "descrizione": "...", "um": "...", "quantita": 1}]

  Testo da analizzare: %s`

// expansionPromptFmt asks for regional price-list synonyms of the work items
// named in the survey text. The output feeds straight into the relevance
// filter's expanded keyword set.
const expansionPromptFmt = `Sei un esperto di computi metrici italiani e prezzari regionali.

Analizza il seguente testo di sopralluogo ed estrai tutte le lavorazioni e i materiali richiesti.
Per ognuno, fornisci 3-4 sinonimi tecnici e termini burocratici usati nei prezzari regionali italiani.

Esempi di espansione:
- persiane → oscuranti, avvolgibili, schermature solari
- tinteggiatura → pitturazione, verniciatura, imbiancatura
- scavo → sbancamento, sterro, movimento terra
- pavimento → pavimentazione, rivestimento a pavimento, massetto
- intonaco → rinzaffo, arriccio, stabilitura
- cartongesso → lastre in gesso rivestito, controsoffitto, controparete

Restituisci ESCLUSIVAMENTE un array JSON di stringhe con tutte le parole chiave originali e i sinonimi uniti in un unico array piatto. Nessun altro testo, nessuna spiegazione.

Esempio di output: ["persiane","oscuranti","avvolgibili","tinteggiatura","pitturazione","verniciatura"]

Testo del sopralluogo:
%s`

// BuildEstimatePrompt assembles the completion prompt for a price-list-backed
// estimate. compactList is the filtered price-list extract in its transfer
// form; an empty extract is sent as "[]" so the model still sees the slot.
func BuildEstimatePrompt(surveyText, compactList string) string {
	if compactList == "" {
		compactList = "[]"
	}
	return fmt.Sprintf(estimatePromptFmt, compactList, surveyText)
}

// BuildQuotePrompt assembles the completion prompt for a private quote with
// no price list.
func BuildQuotePrompt(surveyText string) string {
	return fmt.Sprintf(quotePromptFmt, surveyText)
}

// buildExpansionPrompt assembles the synonym-expansion prompt.
func buildExpansionPrompt(surveyText string) string {
	return fmt.Sprintf(expansionPromptFmt, surveyText)
}
