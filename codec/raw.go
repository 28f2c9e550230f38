package codec

// Raw passes byte payloads through untouched. Use it when the indexer
// already produces a serialized form.
type Raw struct{}

func (Raw) Encode(b []byte) ([]byte, error) { return b, nil }
func (Raw) Decode(b []byte) ([]byte, error) { return b, nil }
