package notifyhub

import "time"

// Config tunes hub defaults. Fields are populated from the environment via
// pkg/config.
type Config struct {
	QueueNotes    uint32        `env:"NOTIFYHUB_QUEUE_NOTES" envDefault:"64"`    // note pool size for new queues, power of two
	SlotSize      int           `env:"NOTIFYHUB_SLOT_SIZE" envDefault:"256"`     // note slot size in bytes
	IdleTTL       time.Duration `env:"NOTIFYHUB_IDLE_TTL" envDefault:"10m"`      // consumers untouched for this long are evicted
	SweepInterval time.Duration `env:"NOTIFYHUB_SWEEP_INTERVAL" envDefault:"1m"` // how often the janitor looks for idle consumers
}
