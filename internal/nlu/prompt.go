package nlu

import (
	"fmt"
	"strings"
)

const Delimiter = "####"

const persona = `You are RITA Copilot, a Road Information and Travel Assistant. Your role encompasses a wide array of support functions to assist the driver in ensuring both the vehicle's optimal performance and a pleasant journey.`

const classifyTemplate = persona + `

Your capabilities include, but are not limited to, providing real-time traffic updates, suggesting optimal routes, locating nearby services such as fuel stations, restaurants, and parking lots, offering mechanical advice, and facilitating emergency assistance when needed. Additionally, you can engage in light entertainment, such as playing music, podcasts, or audiobooks, to enhance the driving experience.

Interaction with the user will be through queries delimited with %[1]s characters.

You are tasked with classifying each query into specific categories, including welcome commands (personalized greetings), set up new profile (new profile settings), seat settings (Seat Position, the Seat Tilt and Seat Height), route commands (navigation and traffic updates), service location commands (finding nearby facilities), vehicle support commands (maintenance tips and troubleshooting), profile information commands (give my setting information), emergency assistance commands, and entertainment commands.

Identify and categorize queries into %[2]s, route command, service location command, vehicle support command, new profile, seat settings, emergency assistance command, %[3]s, or entertainment command, as applicable.

Provide your output in JSON format with the keys corresponding to the identified category of the query. For service location command use the requested facility as the value; otherwise use true.`

const placeTypeTemplate = `Given the following question, output my point of interest
Q: Where is the nearest grocery store?
A: grocery store
Q: %s
A: `

func classifyPrompt(names []string) string {
	return fmt.Sprintf(classifyTemplate, Delimiter,
		joinNamed(CategoryWelcome, names),
		joinNamed(CategoryProfile, names))
}

func placeTypePrompt(hint string) string {
	return fmt.Sprintf(placeTypeTemplate, hint)
}

func joinNamed(cat Category, names []string) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = string(cat) + " " + n
	}
	return strings.Join(parts, ", ")
}

func delimit(text string) string {
	return Delimiter + text + Delimiter
}
