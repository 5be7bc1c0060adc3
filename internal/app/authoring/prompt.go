package authoring

import "github.com/osa030/slokabox/internal/infra/gemini"

const instructions = `
You are an API that returns ONLY a JSON object, with no markdown, no explanation, and no extra text.

For each Sanskrit input, provide:
1. Transliteration in English and Telugu.
2. Meaning in English, Hindi, and Telugu.

Format:
{
  "transliteration": { "english": "...", "telugu": "..." },
  "meaning": { "english": "...", "hindi": "...", "telugu": "..." }
}

Example:
Sanskrit: त्वमेव माता च पिता त्वमेव

Output:`

const exampleOutput = `{
  "transliteration": {
    "english": "tvameva mātā ca pitā tvameva",
    "telugu": "త్వమేవ మాతా చ పితా త్వమేవ"
  },
  "meaning": {
    "english": "You alone are my mother and father.",
    "hindi": "आप ही मेरी माता और पिता हैं।",
    "telugu": "మీరు మాత్రమే నా తల్లి మరియు తండ్రి."
  }
}`

// conversation is a one-shot exchange followed by the real input.
func conversation(sanskritText string) []gemini.Content {
	return []gemini.Content{
		gemini.Text(gemini.RoleUser, instructions),
		gemini.Text(gemini.RoleModel, exampleOutput),
		gemini.Text(gemini.RoleUser, "Sanskrit: "+sanskritText),
	}
}
