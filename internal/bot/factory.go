package bot

import (
	"fmt"
)

// NewBrain creates an auto-play brain for the given level.
func NewBrain(level Level) (Brain, error) {
	switch level {
	case LevelFallback, "":
		return FallbackBrain{}, nil
	case LevelGood:
		return GoodBrain{}, nil
	default:
		return nil, fmt.Errorf("unknown bot level: %q", level)
	}
}
