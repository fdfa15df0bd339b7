package contextkeys

// Custom key type to avoid collisions with other context users.
type contextKey string

// DBContextKey is the key under which the per-request *gorm.DB handle
// (pool or transaction) is stored.
const DBContextKey = contextKey("db")
