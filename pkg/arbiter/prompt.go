package arbiter

import (
	"fmt"
	"strings"
)

const promptHeader = `Match German railway station names from the station price list (Stationspreisliste) with the correct names from the OpenStreetMap export.

`

const promptInstructions = `
INSTRUCTIONS:
- For each station, identify which candidate is the correct match (if any)
- Consider abbreviations (Hbf = Hauptbahnhof), spelling variants (ä/ae, ß/ss), and different naming conventions
- Only pick a candidate when you can determine the correct match with high confidence
- If no match can be found, set correct_match_index to null

RESPONSE FORMAT:
Return a JSON array with one object per station:
[
  {
    "station_id": "1",
    "preisliste_name": "Berlin Hbf",
    "correct_match_index": 2,
    "correct_match_name": "Berlin Hauptbahnhof",
    "confidence": 95,
    "explanation": "Hbf is an abbreviation for Hauptbahnhof"
  },
  {
    "station_id": "2",
    "preisliste_name": "Another Station",
    "correct_match_index": null,
    "correct_match_name": null,
    "confidence": null,
    "explanation": "No confident match found"
  }
]
`

// BuildPrompt renders a batch. Stations are numbered from 1 in batch order
// and so are the at most topK candidates of each station.
func BuildPrompt(batch []Request, topK int) string {
	var b strings.Builder
	b.WriteString(promptHeader)

	for i, req := range batch {
		fmt.Fprintf(&b, "Station %d: '%s'\nPossible matches:\n", i+1, req.SourceName)
		for j, offer := range limitOffers(req.Candidates, topK) {
			fmt.Fprintf(&b, "    %d. '%s' (score: %d)\n", j+1, offer.Name, offer.Score)
		}
		b.WriteString("\n")
	}

	b.WriteString(promptInstructions)
	return b.String()
}

func limitOffers(offers []Offer, topK int) []Offer {
	if topK > 0 && len(offers) > topK {
		return offers[:topK]
	}
	return offers
}
