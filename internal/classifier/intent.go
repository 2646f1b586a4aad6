package classifier

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/resolutehq/resolute/internal/types"
)

// ParseIntent decodes a model response into an Intent. Surrounding code-fence
// markers are stripped first; anything that does not decode into a known
// action tag is ErrMalformedResponse.
func ParseIntent(raw string) (*types.Intent, error) {
	clean := strings.TrimSpace(stripFences(raw))
	if clean == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}

	var intent types.Intent
	if err := json.Unmarshal([]byte(clean), &intent); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if !types.ValidAction(intent.Action) {
		return nil, fmt.Errorf("%w: unknown action %q", ErrMalformedResponse, intent.Action)
	}

	return &intent, nil
}

// stripFences removes markdown code-fence markers the model may wrap the JSON
// payload in.
func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	return strings.ReplaceAll(s, "```", "")
}
