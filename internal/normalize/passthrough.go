package normalize

import (
	"github.com/jacoelho/eventsplit/internal/batch"
	"github.com/jacoelho/eventsplit/internal/value"
)

// Passthrough treats each envelope as an already canonical JSON record.
type Passthrough struct{}

func (Passthrough) Normalize(env batch.Envelope) value.Value {
	if len(env) == 0 {
		return value.FromObject(nil)
	}
	v, err := value.DecodeBytes(env)
	if err != nil {
		return value.FromObject(nil)
	}
	return v
}
