package store

// Key prefixes. Every record lives under a typed prefix so full scans are
// cheap prefix iterations.
const (
	bookPrefix  = "book:"
	deviceIDKey = "meta:device_id"
)

func bookKey(id string) []byte {
	return []byte(bookPrefix + id)
}
