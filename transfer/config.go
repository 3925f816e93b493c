package transfer

const (
	defaultChunkSize = 64 * 1024
	defaultEventBuf  = 16
)

type config struct {
	chunkSize int
}

type Option func(c *config)

// WithChunkSize sets how many bytes go by between two progress events.
func WithChunkSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}
