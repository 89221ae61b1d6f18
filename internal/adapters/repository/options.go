package repository

// Option applies a configuration option to the MemoryCatalog.
type Option func(*MemoryCatalog)

// WithMaxPageSize caps the limit accepted by List.
func WithMaxPageSize(n int) Option {
	return func(c *MemoryCatalog) {
		if n > 0 {
			c.maxPageSize = n
		}
	}
}
