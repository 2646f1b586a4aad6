package classifier

import (
	"encoding/json"
	"fmt"

	"github.com/resolutehq/resolute/internal/types"
)

// systemPrompt frames the model as a resolution coach that answers with a
// single JSON intent object and nothing else.
const systemPrompt = `You are a supportive AI coach helping someone track their personal resolutions.

Analyze the user's input against their current resolutions and respond with JSON ONLY (no markdown, no preamble):

{
  "action": "add" | "update" | "check-in" | "motivate" | "analyze",
  "resolutionId": "string or null",
  "data": {
    "title": "string (for add)",
    "category": "health" | "career" | "personal" | "finance" | "learning" | "relationships" (for add),
    "updateText": "string (for update)",
    "progressDelta": number (for update, -100 to 100),
    "message": "string (encouraging response to user)"
  }
}

Guidelines:
- "add": User wants to create a new resolution
- "update": User is logging progress on an existing resolution (use resolutionId)
- "check-in": User wants a status update on all resolutions
- "motivate": User needs encouragement
- "analyze": User asks for insights about their progress

Be encouraging, specific, and constructive. Match the user's energy.`

// BuildPrompt embeds the full goal snapshot and the raw user text into the
// user-turn payload sent to the model.
func BuildPrompt(goals []types.Goal, userText string) (string, error) {
	if goals == nil {
		goals = []types.Goal{}
	}
	snapshot, err := json.Marshal(goals)
	if err != nil {
		return "", fmt.Errorf("encode goal snapshot: %w", err)
	}

	return fmt.Sprintf("Current resolutions: %s\n\nUser input: %q", snapshot, userText), nil
}
