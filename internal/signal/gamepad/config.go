package gamepad

// Default axis scales for Xbox-style controllers.
const (
	DefaultStickMax   = 32767
	DefaultTriggerMax = 255
)

// Config configures a Source.
type Config struct {
	// Device is the event node, e.g. /dev/input/event5.
	Device string
	// StickMax is the raw value of a fully deflected stick.
	StickMax float64
	// TriggerMax is the raw value of a fully pulled trigger.
	TriggerMax float64
}

func (c Config) withDefaults() Config {
	if c.StickMax <= 0 {
		c.StickMax = DefaultStickMax
	}
	if c.TriggerMax <= 0 {
		c.TriggerMax = DefaultTriggerMax
	}
	return c
}
