package oracle

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	placementSystem = "You are a professional interior designer. Return only valid JSON (no code fences and no backtick characters)."
	guidanceSystem  = "You are a professional interior designer. Return only textual instructions, no JSON in this step."
)

const bulkSchema = `{
  "products": [
    {
      "id": 0,
      "position": { "x": 1.0, "y": 0.0, "z": 2.0 },
      "orientation": { "rotationX": 0, "rotationY": 90, "rotationZ": 0 }
    }
  ]
}`

const singleSchema = `{
  "product": {
    "id": %d,
    "position": { "x": 1.0, "y": 0.0, "z": 2.0 },
    "orientation": { "rotationX": 0, "rotationY": 90, "rotationZ": 0 }
  }
}`

// SystemPrompt returns the system message for a phase.
func SystemPrompt(phase Phase) string {
	if phase == PhaseGuidance {
		return guidanceSystem
	}
	return placementSystem
}

// UserPrompt renders the user message text for req.
func UserPrompt(req Request) (string, error) {
	payload, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return "", fmt.Errorf("oracle: encode request: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I have furniture products to arrange in a rectangular room %.2f m wide and %.2f m deep. ", req.Room.Width, req.Room.Depth)
	fmt.Fprintf(&b, "Coordinates are in meters from the room's floor corner: x runs along the width from 0 to %.2f, z along the depth from 0 to %.2f, y is height above the floor. ", req.Room.Width, req.Room.Depth)
	b.WriteString("Orientation is in degrees, applied about X, then Y, then Z. ")
	b.WriteString("Furniture stands on the floor (y = 0) and is already upright at zero rotation, so turning it means changing rotationY. ")
	b.WriteString("Footprints, when given, are width and depth in meters. ")
	b.WriteString("Keep every piece inside the room, spread pieces out, and do not let them collide.\n\n")
	if req.SceneImage != "" {
		b.WriteString("The attached image shows the current scene from a raised camera looking toward the back wall (z = 0).\n\n")
	}

	b.WriteString("Input (JSON):\n")
	b.Write(payload)
	b.WriteString("\n\n")

	if req.FloorPlan != "" {
		b.WriteString("Current floor plan, top-down (each character is one grid cell; digits/letters are product ids in base 36, '*' marks overlap, '.' is free floor):\n")
		b.WriteString(req.FloorPlan)
		b.WriteString("\n\n")
	}

	switch {
	case req.Phase == PhaseGuidance:
		b.WriteString("For each product, give plain-English instructions on how to move or rotate it to make the layout more meaningful. ")
		b.WriteString(`Example: "Move product 0 +0.2 along the x-axis." `)
		b.WriteString("Return only textual instructions in a friendly, concise format.")
	case req.Granularity == Single:
		fmt.Fprintf(&b, "Place only product %d, taking the other products' current positions into account. Return a JSON object with this structure:\n", req.TargetID)
		fmt.Fprintf(&b, singleSchema, req.TargetID)
		b.WriteString("\n\nIMPORTANT: Return only a valid JSON object without any code fences, formatting, or additional text. Use two decimal places.")
	default:
		b.WriteString("For each product you want to move, return a JSON object with this structure:\n")
		b.WriteString(bulkSchema)
		b.WriteString("\n\nReturn {\"products\": []} if the layout needs no more changes.")
		b.WriteString("\nIMPORTANT: Return only a valid JSON object without any code fences, formatting, or additional text. Use two decimal places.")
	}
	return b.String(), nil
}
